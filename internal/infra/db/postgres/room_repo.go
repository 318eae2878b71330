package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.RoomRepository = (*roomRepo)(nil)

type roomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) *roomRepo {
	return &roomRepo{pool: pool}
}

const roomCols = `id, company_id, room_number, name, capacity, is_active, created_at`

func (r *roomRepo) Create(ctx context.Context, tx repository.Tx, room *model.Room) error {
	const q = `
INSERT INTO rooms (company_id, room_number, name, capacity, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, room.CompanyID, room.Number, room.Name, room.Capacity, room.IsActive, room.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&room.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *roomRepo) FindByID(ctx context.Context, tx repository.Tx, companyID, id int64) (*model.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE company_id = $1 AND id = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, companyID, id)
	if err != nil {
		return nil, err
	}
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return room, nil
}

func (r *roomRepo) ListByCompany(ctx context.Context, tx repository.Tx, companyID int64) ([]*model.Room, error) {
	const q = `SELECT ` + roomCols + ` FROM rooms WHERE company_id = $1 ORDER BY room_number ASC, id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, companyID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *roomRepo) Update(ctx context.Context, tx repository.Tx, room *model.Room) error {
	const q = `
UPDATE rooms SET name = $3, capacity = $4
 WHERE company_id = $1 AND id = $2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, room.CompanyID, room.ID, room.Name, room.Capacity)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *roomRepo) Delete(ctx context.Context, tx repository.Tx, companyID, id int64) error {
	const q = `DELETE FROM rooms WHERE company_id = $1 AND id = $2;`
	cmd, err := execSQL(ctx, r.pool, tx, q, companyID, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *roomRepo) CountByCompany(ctx context.Context, tx repository.Tx, companyID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM rooms WHERE company_id = $1;`
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

func (r *roomRepo) DeactivateAll(ctx context.Context, tx repository.Tx, companyID int64) error {
	const q = `UPDATE rooms SET is_active = FALSE WHERE company_id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, companyID)
	return err
}

func (r *roomRepo) ActivateAll(ctx context.Context, tx repository.Tx, companyID int64) error {
	const q = `UPDATE rooms SET is_active = TRUE WHERE company_id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, companyID)
	return err
}

func (r *roomRepo) ActivateTop(ctx context.Context, tx repository.Tx, companyID int64, n int) error {
	const q = `
UPDATE rooms SET is_active = TRUE
 WHERE id IN (
   SELECT id FROM rooms
    WHERE company_id = $1
    ORDER BY room_number ASC, id ASC
    LIMIT $2
 );`
	_, err := execSQL(ctx, r.pool, tx, q, companyID, n)
	return err
}

func scanRoom(row rowScanner) (*model.Room, error) {
	var room model.Room
	if err := row.Scan(&room.ID, &room.CompanyID, &room.Number, &room.Name, &room.Capacity, &room.IsActive, &room.CreatedAt); err != nil {
		return nil, err
	}
	return &room, nil
}
