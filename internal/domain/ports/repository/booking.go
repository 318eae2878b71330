package repository

import (
	"context"

	"visitgate/internal/domain/model"
)

// BookingRepository persists bookings and carries the conflict-detection
// queries. FindOverlap and Create must run under the same transaction,
// after LockRoomDate, for the no-double-booking guarantee to hold.
type BookingRepository interface {
	Create(ctx context.Context, tx Tx, b *model.Booking) error
	FindByID(ctx context.Context, tx Tx, companyID, id int64) (*model.Booking, error)
	// LockRoomDate serializes concurrent writers for one (room, date).
	// Callers must hold a transaction; the lock releases on commit/rollback.
	LockRoomDate(ctx context.Context, tx Tx, companyID, roomID int64, date string) error
	// FindOverlap returns a BOOKED row on (room, date) intersecting
	// [start,end), skipping excludeID (0 to exclude nothing), or ErrNotFound.
	FindOverlap(ctx context.Context, tx Tx, companyID, roomID int64, date, start, end string, excludeID int64) (*model.Booking, error)
	UpdateWindow(ctx context.Context, tx Tx, b *model.Booking) error
	// Cancel flips a BOOKED row to CANCELLED; false means no such live row.
	Cancel(ctx context.Context, tx Tx, companyID, id int64) (bool, error)
	ListByRoomDate(ctx context.Context, tx Tx, companyID, roomID int64, date string) ([]*model.Booking, error)
	ListByCompanyDate(ctx context.Context, tx Tx, companyID int64, date string) ([]*model.Booking, error)
	CountByCompany(ctx context.Context, tx Tx, companyID int64) (int, error)
	// ExistsForRoom reports lifetime bookings, any status.
	ExistsForRoom(ctx context.Context, tx Tx, roomID int64) (bool, error)
}
