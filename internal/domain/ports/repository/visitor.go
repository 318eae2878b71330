package repository

import (
	"context"
	"time"

	"visitgate/internal/domain/model"
)

// VisitorRepository persists visit records.
type VisitorRepository interface {
	Create(ctx context.Context, tx Tx, v *model.Visitor) error
	// CountOnDay counts the tenant's visitors checked in on the calendar
	// day (YYYY-MM-DD); feeds the daily code ordinal.
	CountOnDay(ctx context.Context, tx Tx, companyID int64, day string) (int, error)
	SetCodeAndPhoto(ctx context.Context, tx Tx, id int64, code, photoURL string) error
	FindByCode(ctx context.Context, tx Tx, companyID int64, code string) (*model.Visitor, error)
	// CheckOut conditionally flips IN -> OUT; false means not found or
	// already out. The conditional update is the concurrency guard.
	CheckOut(ctx context.Context, tx Tx, companyID int64, code string, at time.Time) (bool, error)
	// MarkPassMailSent flips pass_mail_sent false -> true once; false means
	// another dispatch already claimed it.
	MarkPassMailSent(ctx context.Context, tx Tx, id int64) (bool, error)
	ListByCompanyDay(ctx context.Context, tx Tx, companyID int64, day string) ([]*model.Visitor, error)
	CountByCompany(ctx context.Context, tx Tx, companyID int64) (int, error)
}
