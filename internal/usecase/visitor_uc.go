package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/adapter"
	"visitgate/internal/domain/ports/repository"
	"visitgate/internal/infra/logging"
	"visitgate/internal/infra/metrics"
)

// CheckInInput is the payload for a visitor check-in.
type CheckInInput struct {
	Name      string
	Phone     string
	Email     string
	Photo     []byte
	PhotoMime string
}

// VisitorUseCase runs the IN -> OUT visitor lifecycle. Check-in is a
// multi-step sequence (insert, day count, code derivation, photo upload,
// update) that is not one transaction: two simultaneous check-ins for the
// same tenant can mint duplicate ordinals. That matches the shipped
// behavior; a per-(tenant, day) counter would close it.
type VisitorUseCase struct {
	visitors repository.VisitorRepository
	subs     *SubscriptionUseCase
	storage  adapter.BlobStorage
	mail     *MailDispatcher
	log      *zerolog.Logger
	now      func() time.Time
}

func NewVisitorUseCase(
	visitors repository.VisitorRepository,
	subs *SubscriptionUseCase,
	storage adapter.BlobStorage,
	mail *MailDispatcher,
	logger *zerolog.Logger,
) *VisitorUseCase {
	l := logger.With().Str("component", "VisitorUC").Logger()
	return &VisitorUseCase{
		visitors: visitors,
		subs:     subs,
		storage:  storage,
		mail:     mail,
		log:      &l,
		now:      time.Now,
	}
}

// CheckIn registers a visitor, assigns the daily-sequence code, uploads the
// photo, and queues the pass mail when an email was supplied.
func (uc *VisitorUseCase) CheckIn(ctx context.Context, companyID int64, in CheckInInput) (*model.Visitor, error) {
	ent, err := uc.subs.Resolve(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := checkQuota(ctx, ent, model.ResourceVisitors, func(ctx context.Context) (int, error) {
		return uc.visitors.CountByCompany(ctx, repository.NoTX, companyID)
	}); err != nil {
		return nil, err
	}

	now := uc.now()
	v, err := model.NewVisitor(companyID, in.Name, in.Phone, in.Email, now)
	if err != nil {
		return nil, err
	}
	if err := uc.visitors.Create(ctx, repository.NoTX, v); err != nil {
		return nil, err
	}

	// The count includes the row just inserted, making it the 1-based ordinal.
	ordinal, err := uc.visitors.CountOnDay(ctx, repository.NoTX, companyID, now.Format(model.DateLayout))
	if err != nil {
		return nil, err
	}
	code := model.FormatVisitorCode(companyID, now, ordinal)

	var photoURL string
	if len(in.Photo) > 0 {
		key := fmt.Sprintf("companies/%d/visitors/%s.jpg", companyID, code)
		mime := in.PhotoMime
		if mime == "" {
			mime = "image/jpeg"
		}
		photoURL, err = uc.storage.Upload(ctx, key, mime, in.Photo)
		if err != nil {
			return nil, fmt.Errorf("photo upload: %w", err)
		}
	}

	if err := uc.visitors.SetCodeAndPhoto(ctx, repository.NoTX, v.ID, code, photoURL); err != nil {
		return nil, err
	}
	v.Code = code
	v.PhotoURL = photoURL

	metrics.IncVisitorsCheckedIn()
	if v.Email != "" {
		uc.sendPassMail(ctx, v)
	}
	return v, nil
}

// CheckOut flips IN -> OUT once; a repeat call (or unknown code) reports
// ErrNotFound and leaves the first checkout's timestamp untouched.
func (uc *VisitorUseCase) CheckOut(ctx context.Context, companyID int64, code string) error {
	ok, err := uc.visitors.CheckOut(ctx, repository.NoTX, companyID, code, uc.now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	metrics.IncVisitorsCheckedOut()
	logging.With(logging.WithVisitorCode(ctx, code), uc.log).Info().Int64("company_id", companyID).Msg("visitor checked out")
	return nil
}

// ListForDay returns the tenant's visitors for a calendar day.
func (uc *VisitorUseCase) ListForDay(ctx context.Context, companyID int64, day string) ([]*model.Visitor, error) {
	day, err := model.ParseDate(day)
	if err != nil {
		return nil, err
	}
	return uc.visitors.ListByCompanyDay(ctx, repository.NoTX, companyID, day)
}

// sendPassMail dispatches the digital pass best-effort. pass_mail_sent is
// flipped only after a successful send, and the conditional update keeps the
// false -> true transition single-shot.
func (uc *VisitorUseCase) sendPassMail(ctx context.Context, v *model.Visitor) {
	id := v.ID
	m := adapter.Mail{
		To:      v.Email,
		ToName:  v.Name,
		Subject: "Your visitor pass",
		Text:    fmt.Sprintf("Welcome %s. Your visitor code is %s.", v.Name, v.Code),
	}
	_ = uc.mail.Dispatch(ctx, m, adapter.FailLog, func(ctx context.Context) error {
		_, err := uc.visitors.MarkPassMailSent(ctx, repository.NoTX, id)
		return err
	})
}
