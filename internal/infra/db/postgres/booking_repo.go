package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.BookingRepository = (*bookingRepo)(nil)

type bookingRepo struct {
	pool *pgxpool.Pool
}

func NewBookingRepo(pool *pgxpool.Pool) *bookingRepo {
	return &bookingRepo{pool: pool}
}

const bookingCols = `id, ref, company_id, room_id, booking_date, start_time, end_time, requester_name, COALESCE(requester_email, ''), COALESCE(purpose, ''), status, created_at, updated_at`

func hashToInt64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64() & ((1 << 63) - 1))
}

// LockRoomDate takes an advisory xact lock scoped to one (tenant, room, date)
// so concurrent conflict checks for the same slot serialize. Released on
// commit/rollback.
func (r *bookingRepo) LockRoomDate(ctx context.Context, tx repository.Tx, companyID, roomID int64, date string) error {
	if tx == nil {
		return domain.ErrInvalidExecContext
	}
	key := fmt.Sprintf("booking:%d:%d:%s", companyID, roomID, date)
	_, err := execSQL(ctx, r.pool, tx, "SELECT pg_advisory_xact_lock($1)", hashToInt64(key))
	return err
}

func (r *bookingRepo) Create(ctx context.Context, tx repository.Tx, b *model.Booking) error {
	const q = `
INSERT INTO bookings (ref, company_id, room_id, booking_date, start_time, end_time, requester_name, requester_email, purpose, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q,
		b.Ref, b.CompanyID, b.RoomID, b.Date, b.Start, b.End, b.RequesterName, b.RequesterEmail, b.Purpose, b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&b.ID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *bookingRepo) FindByID(ctx context.Context, tx repository.Tx, companyID, id int64) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE company_id = $1 AND id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, companyID, id)
	if err != nil {
		return nil, err
	}
	return scanBookingRow(row)
}

// FindOverlap returns one BOOKED row on (room, date) whose [start,end)
// intersects the candidate window: existing.start < new.end AND
// existing.end > new.start.
func (r *bookingRepo) FindOverlap(ctx context.Context, tx repository.Tx, companyID, roomID int64, date, start, end string, excludeID int64) (*model.Booking, error) {
	const q = `
SELECT ` + bookingCols + `
  FROM bookings
 WHERE company_id = $1 AND room_id = $2 AND booking_date = $3
   AND status = 'BOOKED'
   AND start_time < $5 AND end_time > $4
   AND id <> $6
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, companyID, roomID, date, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	return scanBookingRow(row)
}

func (r *bookingRepo) UpdateWindow(ctx context.Context, tx repository.Tx, b *model.Booking) error {
	const q = `
UPDATE bookings
   SET booking_date = $3, start_time = $4, end_time = $5, updated_at = $6
 WHERE company_id = $1 AND id = $2 AND status = 'BOOKED';`
	cmd, err := execSQL(ctx, r.pool, tx, q, b.CompanyID, b.ID, b.Date, b.Start, b.End, b.UpdatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bookingRepo) Cancel(ctx context.Context, tx repository.Tx, companyID, id int64) (bool, error) {
	const q = `
UPDATE bookings SET status = 'CANCELLED', updated_at = NOW()
 WHERE company_id = $1 AND id = $2 AND status = 'BOOKED';`
	cmd, err := execSQL(ctx, r.pool, tx, q, companyID, id)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *bookingRepo) ListByRoomDate(ctx context.Context, tx repository.Tx, companyID, roomID int64, date string) ([]*model.Booking, error) {
	const q = `
SELECT ` + bookingCols + `
  FROM bookings
 WHERE company_id = $1 AND room_id = $2 AND booking_date = $3
 ORDER BY start_time ASC;`
	return r.queryMany(ctx, tx, q, companyID, roomID, date)
}

func (r *bookingRepo) ListByCompanyDate(ctx context.Context, tx repository.Tx, companyID int64, date string) ([]*model.Booking, error) {
	const q = `
SELECT ` + bookingCols + `
  FROM bookings
 WHERE company_id = $1 AND booking_date = $2
 ORDER BY room_id ASC, start_time ASC;`
	return r.queryMany(ctx, tx, q, companyID, date)
}

func (r *bookingRepo) CountByCompany(ctx context.Context, tx repository.Tx, companyID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE company_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, companyID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *bookingRepo) ExistsForRoom(ctx context.Context, tx repository.Tx, roomID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM bookings WHERE room_id = $1);`
	row, err := pickRow(ctx, r.pool, tx, q, roomID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *bookingRepo) queryMany(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Booking, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanBookingRow(row rowScanner) (*model.Booking, error) {
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return b, nil
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var status string
	var date time.Time
	if err := row.Scan(&b.ID, &b.Ref, &b.CompanyID, &b.RoomID, &date, &b.Start, &b.End, &b.RequesterName, &b.RequesterEmail, &b.Purpose, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Date = date.Format(model.DateLayout)
	b.Status = model.BookingStatus(status)
	return &b, nil
}
