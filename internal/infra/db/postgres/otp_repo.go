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
var _ repository.OtpRepository = (*otpRepo)(nil)

type otpRepo struct {
	pool *pgxpool.Pool
}

func NewOtpRepo(pool *pgxpool.Pool) *otpRepo {
	return &otpRepo{pool: pool}
}

const otpCols = `id, company_id, email, code_hash, expires_at, verified, session_token, verified_at, created_at`

func (r *otpRepo) Create(ctx context.Context, tx repository.Tx, s *model.OtpSession) error {
	const q = `
INSERT INTO otp_sessions (company_id, email, code_hash, expires_at, verified, created_at)
VALUES ($1, $2, $3, $4, FALSE, $5)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, s.CompanyID, s.Email, s.CodeHash, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&s.ID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *otpRepo) DeleteUnverified(ctx context.Context, tx repository.Tx, companyID int64, email string) error {
	const q = `DELETE FROM otp_sessions WHERE company_id = $1 AND email = $2 AND verified = FALSE;`
	if _, err := execSQL(ctx, r.pool, tx, q, companyID, email); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *otpRepo) FindLatestUnverified(ctx context.Context, tx repository.Tx, companyID int64, email string) (*model.OtpSession, error) {
	const q = `
SELECT ` + otpCols + `
  FROM otp_sessions
 WHERE company_id = $1 AND email = $2 AND verified = FALSE
 ORDER BY created_at DESC, id DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, companyID, email)
	if err != nil {
		return nil, err
	}
	return scanOtpRow(row)
}

func (r *otpRepo) MarkVerified(ctx context.Context, tx repository.Tx, id int64, token string, at time.Time) error {
	const q = `
UPDATE otp_sessions SET verified = TRUE, session_token = $2, verified_at = $3
 WHERE id = $1 AND verified = FALSE;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, token, at)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *otpRepo) FindByToken(ctx context.Context, tx repository.Tx, token string) (*model.OtpSession, error) {
	const q = `SELECT ` + otpCols + ` FROM otp_sessions WHERE session_token = $1 AND verified = TRUE;`
	row, err := pickRow(ctx, r.pool, tx, q, token)
	if err != nil {
		return nil, err
	}
	return scanOtpRow(row)
}

func (r *otpRepo) ConsumeToken(ctx context.Context, tx repository.Tx, token string) (bool, error) {
	const q = `UPDATE otp_sessions SET session_token = NULL WHERE session_token = $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, token)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *otpRepo) DeleteExpired(ctx context.Context, tx repository.Tx, before time.Time) (int, error) {
	const q = `
DELETE FROM otp_sessions
 WHERE (verified = FALSE AND expires_at < $1)
    OR (verified = TRUE AND session_token IS NULL)
    OR (verified = TRUE AND verified_at < $1 - INTERVAL '1 day');`
	cmd, err := execSQL(ctx, r.pool, tx, q, before)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}

func scanOtpRow(row rowScanner) (*model.OtpSession, error) {
	var s model.OtpSession
	if err := row.Scan(&s.ID, &s.CompanyID, &s.Email, &s.CodeHash, &s.ExpiresAt, &s.Verified, &s.SessionToken, &s.VerifiedAt, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &s, nil
}
