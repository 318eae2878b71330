package repository

import (
	"context"

	"visitgate/internal/domain/model"
)

// RoomRepository persists rooms. Activation writes are bulk statements so the
// synchronizer's deactivate/activate phases stay two round-trips.
type RoomRepository interface {
	Create(ctx context.Context, tx Tx, r *model.Room) error
	FindByID(ctx context.Context, tx Tx, companyID, id int64) (*model.Room, error)
	ListByCompany(ctx context.Context, tx Tx, companyID int64) ([]*model.Room, error)
	Update(ctx context.Context, tx Tx, r *model.Room) error
	Delete(ctx context.Context, tx Tx, companyID, id int64) error
	CountByCompany(ctx context.Context, tx Tx, companyID int64) (int, error)
	DeactivateAll(ctx context.Context, tx Tx, companyID int64) error
	ActivateAll(ctx context.Context, tx Tx, companyID int64) error
	// ActivateTop activates the n rooms with lowest (room_number, id).
	ActivateTop(ctx context.Context, tx Tx, companyID int64, n int) error
}
