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
var _ repository.CompanyRepository = (*companyRepo)(nil)

type companyRepo struct {
	pool *pgxpool.Pool
}

func NewCompanyRepo(pool *pgxpool.Pool) *companyRepo {
	return &companyRepo{pool: pool}
}

const companyCols = `id, name, COALESCE(slug, ''), plan, status, trial_ends_at, subscription_ends_at, created_at`

func (r *companyRepo) Create(ctx context.Context, tx repository.Tx, c *model.Company) error {
	const q = `
INSERT INTO companies (name, plan, status, trial_ends_at, subscription_ends_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, c.Name, c.Plan, c.Status, c.TrialEndsAt, c.SubscriptionEndsAt, c.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&c.ID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *companyRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Company, error) {
	const q = `SELECT ` + companyCols + ` FROM companies WHERE id = $1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *companyRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id int64) (*model.Company, error) {
	const q = `SELECT ` + companyCols + ` FROM companies WHERE id = $1 FOR UPDATE;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *companyRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.Company, error) {
	const q = `SELECT ` + companyCols + ` FROM companies WHERE slug = $1;`
	return r.queryOne(ctx, tx, q, slug)
}

func (r *companyRepo) SlugExists(ctx context.Context, tx repository.Tx, slug string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM companies WHERE slug = $1);`
	row, err := pickRow(ctx, r.pool, tx, q, slug)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *companyRepo) SetSlug(ctx context.Context, tx repository.Tx, id int64, slug string) error {
	const q = `UPDATE companies SET slug = $2 WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, slug)
	return err
}

func (r *companyRepo) UpdateSubscription(ctx context.Context, tx repository.Tx, id int64, plan model.PlanTier, status model.SubscriptionStatus, trialEndsAt, subscriptionEndsAt *time.Time) error {
	const q = `
UPDATE companies
   SET plan = $2, status = $3, trial_ends_at = $4, subscription_ends_at = $5
 WHERE id = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, plan, status, trialEndsAt, subscriptionEndsAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *companyRepo) MarkExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	// Active tenants still on the trial plan run on the trial window, the
	// same choice Company.Gate makes at request time.
	const q = `
UPDATE companies
   SET status = 'expired'
 WHERE (status = 'trial' AND (trial_ends_at IS NULL OR trial_ends_at <= $1))
    OR (status = 'active' AND plan = 'trial' AND (trial_ends_at IS NULL OR trial_ends_at <= $1))
    OR (status = 'active' AND plan <> 'trial' AND (subscription_ends_at IS NULL OR subscription_ends_at <= $1));`
	cmd, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}

func (r *companyRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Company, error) {
	const q = `SELECT ` + companyCols + ` FROM companies ORDER BY id ASC OFFSET $1 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *companyRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Company, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	c, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompany(row rowScanner) (*model.Company, error) {
	var c model.Company
	var plan, status string
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &plan, &status, &c.TrialEndsAt, &c.SubscriptionEndsAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Plan = model.PlanTier(plan)
	c.Status = model.SubscriptionStatus(status)
	return &c, nil
}
