package repository

import (
	"context"
	"time"

	"visitgate/internal/domain/model"
)

// CompanyRepository persists tenants.
type CompanyRepository interface {
	Create(ctx context.Context, tx Tx, c *model.Company) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Company, error)
	// FindByIDForUpdate takes a row lock; callers must hold a transaction.
	FindByIDForUpdate(ctx context.Context, tx Tx, id int64) (*model.Company, error)
	FindBySlug(ctx context.Context, tx Tx, slug string) (*model.Company, error)
	SlugExists(ctx context.Context, tx Tx, slug string) (bool, error)
	SetSlug(ctx context.Context, tx Tx, id int64, slug string) error
	// UpdateSubscription persists the fields the billing collaborator owns.
	UpdateSubscription(ctx context.Context, tx Tx, id int64, plan model.PlanTier, status model.SubscriptionStatus, trialEndsAt, subscriptionEndsAt *time.Time) error
	// MarkExpired flips trial/active tenants whose windows have elapsed to
	// expired and returns how many rows changed.
	MarkExpired(ctx context.Context, tx Tx, now time.Time) (int, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.Company, error)
}
