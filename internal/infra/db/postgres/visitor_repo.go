package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.VisitorRepository = (*visitorRepo)(nil)

type visitorRepo struct {
	pool *pgxpool.Pool
}

func NewVisitorRepo(pool *pgxpool.Pool) *visitorRepo {
	return &visitorRepo{pool: pool}
}

const visitorCols = `id, company_id, name, phone, COALESCE(email, ''), COALESCE(code, ''), COALESCE(photo_url, ''), status, checked_in_at, checked_out_at, pass_mail_sent`

func (r *visitorRepo) Create(ctx context.Context, tx repository.Tx, v *model.Visitor) error {
	const q = `
INSERT INTO visitors (company_id, name, phone, email, status, checked_in_at, pass_mail_sent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, v.CompanyID, v.Name, v.Phone, v.Email, v.Status, v.CheckedInAt, v.PassMailSent)
	if err != nil {
		return err
	}
	if err := row.Scan(&v.ID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

// CountOnDay counts the tenant's visitors whose check-in falls on the given
// calendar day, including rows inserted earlier in the same transaction.
func (r *visitorRepo) CountOnDay(ctx context.Context, tx repository.Tx, companyID int64, day string) (int, error) {
	const q = `SELECT COUNT(*) FROM visitors WHERE company_id = $1 AND checked_in_at::date = $2::date;`
	row, err := pickRow(ctx, r.pool, tx, q, companyID, day)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *visitorRepo) SetCodeAndPhoto(ctx context.Context, tx repository.Tx, id int64, code, photoURL string) error {
	const q = `UPDATE visitors SET code = $2, photo_url = NULLIF($3, '') WHERE id = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, code, photoURL)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *visitorRepo) FindByCode(ctx context.Context, tx repository.Tx, companyID int64, code string) (*model.Visitor, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors WHERE company_id = $1 AND code = $2;`
	row, err := pickRow(ctx, r.pool, tx, q, companyID, code)
	if err != nil {
		return nil, err
	}
	return scanVisitorRow(row)
}

// CheckOut flips an IN visitor to OUT in one conditional update. A false
// return means the code was unknown or the visitor had already left.
func (r *visitorRepo) CheckOut(ctx context.Context, tx repository.Tx, companyID int64, code string, at time.Time) (bool, error) {
	const q = `
UPDATE visitors SET status = 'OUT', checked_out_at = $3
 WHERE company_id = $1 AND code = $2 AND status = 'IN';`
	cmd, err := execSQL(ctx, r.pool, tx, q, companyID, code, at)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() > 0, nil
}

// MarkPassMailSent sets the flag only if it was unset, so the pass mail goes
// out once even when two senders race.
func (r *visitorRepo) MarkPassMailSent(ctx context.Context, tx repository.Tx, id int64) (bool, error) {
	const q = `UPDATE visitors SET pass_mail_sent = TRUE WHERE id = $1 AND pass_mail_sent = FALSE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *visitorRepo) ListByCompanyDay(ctx context.Context, tx repository.Tx, companyID int64, day string) ([]*model.Visitor, error) {
	const q = `
SELECT ` + visitorCols + `
  FROM visitors
 WHERE company_id = $1 AND checked_in_at::date = $2::date
 ORDER BY checked_in_at ASC, id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, companyID, day)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *visitorRepo) CountByCompany(ctx context.Context, tx repository.Tx, companyID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM visitors WHERE company_id = $1;`
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

func scanVisitorRow(row rowScanner) (*model.Visitor, error) {
	v, err := scanVisitor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return v, nil
}

func scanVisitor(row rowScanner) (*model.Visitor, error) {
	var v model.Visitor
	var status string
	if err := row.Scan(&v.ID, &v.CompanyID, &v.Name, &v.Phone, &v.Email, &v.Code, &v.PhotoURL, &status, &v.CheckedInAt, &v.CheckedOutAt, &v.PassMailSent); err != nil {
		return nil, err
	}
	v.Status = model.VisitorStatus(status)
	return &v, nil
}
