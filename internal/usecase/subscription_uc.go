package usecase

import (
	"context"
	"time"

	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/repository"
)

// SubscriptionUseCase resolves a tenant's plan into effective entitlements
// and owns the expiry reconciliation sweep. Resolve is a pure read plus
// validation: it never persists the expired transition itself.
type SubscriptionUseCase struct {
	companies repository.CompanyRepository
	quotas    model.QuotaTable
	now       func() time.Time
}

func NewSubscriptionUseCase(companies repository.CompanyRepository, quotas model.QuotaTable) *SubscriptionUseCase {
	return &SubscriptionUseCase{companies: companies, quotas: quotas, now: time.Now}
}

// Resolve gates the tenant on subscription status and time bounds, then maps
// the plan through the quota table. The returned error is authoritative for
// this request; persisting expiry is FinishExpired's job.
func (uc *SubscriptionUseCase) Resolve(ctx context.Context, companyID int64) (*model.Entitlements, error) {
	c, err := uc.companies.FindByID(ctx, repository.NoTX, companyID)
	if err != nil {
		return nil, err
	}
	c.Plan = model.NormalizePlan(string(c.Plan))
	c.Status = model.NormalizeStatus(string(c.Status))
	if err := c.Gate(uc.now()); err != nil {
		return nil, err
	}
	q := uc.quotas.For(c.Plan)
	return &model.Entitlements{
		Plan:         c.Plan,
		Status:       c.Status,
		RoomLimit:    q.Rooms,
		BookingLimit: q.Bookings,
		VisitorLimit: q.Visitors,
	}, nil
}

// Plan returns the tenant's plan tier without the activity gate. Room
// activation sync uses it: a downgraded-but-expired tenant still gets its
// rooms locked to the plan limit.
func (uc *SubscriptionUseCase) Plan(ctx context.Context, companyID int64) (model.PlanTier, error) {
	c, err := uc.companies.FindByID(ctx, repository.NoTX, companyID)
	if err != nil {
		return "", err
	}
	return model.NormalizePlan(string(c.Plan)), nil
}

// FinishExpired persists the expired transition for tenants whose windows
// have elapsed. Called by the reconciliation sweep, not by request paths.
func (uc *SubscriptionUseCase) FinishExpired(ctx context.Context) (int, error) {
	return uc.companies.MarkExpired(ctx, repository.NoTX, uc.now())
}
