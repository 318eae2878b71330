package repository

import (
	"context"
	"time"

	"visitgate/internal/domain/model"
)

// OtpRepository persists email verification sessions.
type OtpRepository interface {
	Create(ctx context.Context, tx Tx, s *model.OtpSession) error
	// DeleteUnverified invalidates prior outstanding codes for (tenant, email).
	DeleteUnverified(ctx context.Context, tx Tx, companyID int64, email string) error
	FindLatestUnverified(ctx context.Context, tx Tx, companyID int64, email string) (*model.OtpSession, error)
	MarkVerified(ctx context.Context, tx Tx, id int64, token string, at time.Time) error
	FindByToken(ctx context.Context, tx Tx, token string) (*model.OtpSession, error)
	// ConsumeToken nulls a session token; false means it was already gone.
	ConsumeToken(ctx context.Context, tx Tx, token string) (bool, error)
	DeleteExpired(ctx context.Context, tx Tx, before time.Time) (int, error)
}
