package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/repository"
)

// Activator is the slice of room behavior the tenant lifecycle needs: a plan
// change must resync which rooms are usable.
type Activator interface {
	SyncActivation(ctx context.Context, companyID int64) error
}

// CompanyUseCase owns tenant registration, slug assignment, and the write
// side of billing-collaborator updates.
type CompanyUseCase struct {
	companies repository.CompanyRepository
	tm        repository.TransactionManager
	sync      Activator
	trialDays int
	log       *zerolog.Logger
	now       func() time.Time
}

func NewCompanyUseCase(companies repository.CompanyRepository, tm repository.TransactionManager, sync Activator, trialDays int, logger *zerolog.Logger) *CompanyUseCase {
	l := logger.With().Str("component", "CompanyUC").Logger()
	return &CompanyUseCase{
		companies: companies,
		tm:        tm,
		sync:      sync,
		trialDays: trialDays,
		log:       &l,
		now:       time.Now,
	}
}

// Register creates a tenant in its initial state: status pending, plan trial,
// trial window open. The billing collaborator moves it from there.
func (uc *CompanyUseCase) Register(ctx context.Context, name string) (*model.Company, error) {
	c, err := model.NewCompany(name)
	if err != nil {
		return nil, err
	}
	ends := uc.now().AddDate(0, 0, uc.trialDays)
	c.TrialEndsAt = &ends
	if err := uc.companies.Create(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	uc.log.Info().Int64("company_id", c.ID).Str("name", c.Name).Msg("company registered")
	return c, nil
}

// Get loads one tenant.
func (uc *CompanyUseCase) Get(ctx context.Context, id int64) (*model.Company, error) {
	return uc.companies.FindByID(ctx, repository.NoTX, id)
}

// GetBySlug loads one tenant by its public slug.
func (uc *CompanyUseCase) GetBySlug(ctx context.Context, slug string) (*model.Company, error) {
	return uc.companies.FindBySlug(ctx, repository.NoTX, slug)
}

// EnsureSlug mints the tenant's slug on first use. The row lock prevents two
// concurrent requests assigning two different slugs to the same tenant.
func (uc *CompanyUseCase) EnsureSlug(ctx context.Context, companyID int64) (string, error) {
	var slug string
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		c, err := uc.companies.FindByIDForUpdate(ctx, tx, companyID)
		if err != nil {
			return err
		}
		if c.Slug != "" {
			slug = c.Slug
			return nil
		}
		for suffix := 0; ; suffix++ {
			candidate := model.SlugFromName(c.Name, suffix)
			taken, err := uc.companies.SlugExists(ctx, tx, candidate)
			if err != nil {
				return err
			}
			if !taken {
				slug = candidate
				return uc.companies.SetSlug(ctx, tx, companyID, candidate)
			}
		}
	})
	if err != nil {
		return "", err
	}
	return slug, nil
}

// List pages tenants by id for operator tooling.
func (uc *CompanyUseCase) List(ctx context.Context, offset, limit int) ([]*model.Company, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	return uc.companies.List(ctx, repository.NoTX, offset, limit)
}

// ApplyBillingUpdate persists plan/status/period fields the billing
// collaborator left behind, then resyncs room activation for the new plan.
func (uc *CompanyUseCase) ApplyBillingUpdate(ctx context.Context, companyID int64, plan, status string, trialEndsAt, subscriptionEndsAt *time.Time) error {
	p := model.NormalizePlan(plan)
	s := model.NormalizeStatus(status)
	if err := uc.companies.UpdateSubscription(ctx, repository.NoTX, companyID, p, s, trialEndsAt, subscriptionEndsAt); err != nil {
		return err
	}
	uc.log.Info().Int64("company_id", companyID).Str("plan", string(p)).Str("status", string(s)).Msg("billing update applied")
	return uc.sync.SyncActivation(ctx, companyID)
}
