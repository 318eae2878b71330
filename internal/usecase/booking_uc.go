package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/adapter"
	"visitgate/internal/domain/ports/repository"
	"visitgate/internal/infra/metrics"
)

// BookingRequest carries requester metadata for a new booking.
type BookingRequest struct {
	Name    string
	Email   string
	Purpose string
}

// BookingUseCase owns the booking lifecycle. Conflict detection runs inside a
// transaction holding an advisory lock on (tenant, room, date), so two
// concurrent requests for overlapping windows serialize and the second one
// re-evaluates the overlap predicate against the first's committed row.
type BookingUseCase struct {
	bookings repository.BookingRepository
	rooms    repository.RoomRepository
	subs     *SubscriptionUseCase
	tm       repository.TransactionManager
	mail     *MailDispatcher
	log      *zerolog.Logger
	now      func() time.Time
}

func NewBookingUseCase(
	bookings repository.BookingRepository,
	rooms repository.RoomRepository,
	subs *SubscriptionUseCase,
	tm repository.TransactionManager,
	mail *MailDispatcher,
	logger *zerolog.Logger,
) *BookingUseCase {
	l := logger.With().Str("component", "BookingUC").Logger()
	return &BookingUseCase{
		bookings: bookings,
		rooms:    rooms,
		subs:     subs,
		tm:       tm,
		mail:     mail,
		log:      &l,
		now:      time.Now,
	}
}

// Create books a slot. Input times are strict "H:MM AM/PM".
func (uc *BookingUseCase) Create(ctx context.Context, companyID, roomID int64, date, startRaw, endRaw string, req BookingRequest) (*model.Booking, error) {
	ent, err := uc.subs.Resolve(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := checkQuota(ctx, ent, model.ResourceBookings, func(ctx context.Context) (int, error) {
		return uc.bookings.CountByCompany(ctx, repository.NoTX, companyID)
	}); err != nil {
		return nil, err
	}

	date, start, end, err := parseWindow(date, startRaw, endRaw)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: requester name is required", domain.ErrInvalidArgument)
	}

	b := &model.Booking{
		Ref:            ulid.Make().String(),
		CompanyID:      companyID,
		RoomID:         roomID,
		Date:           date,
		Start:          start,
		End:            end,
		RequesterName:  req.Name,
		RequesterEmail: req.Email,
		Purpose:        req.Purpose,
		Status:         model.BookingStatusBooked,
		CreatedAt:      uc.now(),
		UpdatedAt:      uc.now(),
	}

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		room, err := uc.rooms.FindByID(ctx, tx, companyID, roomID)
		if err != nil {
			return err
		}
		if !room.IsActive {
			return domain.ErrRoomLocked
		}
		if err := uc.bookings.LockRoomDate(ctx, tx, companyID, roomID, date); err != nil {
			return err
		}
		existing, err := uc.bookings.FindOverlap(ctx, tx, companyID, roomID, date, start, end, 0)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			metrics.IncBookingConflicts()
			return &domain.SlotConflictError{Start: existing.Start, End: existing.End}
		}
		return uc.bookings.Create(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBookingsCreated()
	uc.notify(ctx, b, "Booking confirmed")
	return b, nil
}

// Reschedule moves a BOOKED entry to a new window, re-passing the conflict
// check against all other bookings. Same-day moves must start strictly in
// the future.
func (uc *BookingUseCase) Reschedule(ctx context.Context, companyID, id int64, date, startRaw, endRaw string) (*model.Booking, error) {
	if _, err := uc.subs.Resolve(ctx, companyID); err != nil {
		return nil, err
	}
	date, start, end, err := parseWindow(date, startRaw, endRaw)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	if date == now.Format(model.DateLayout) && start <= now.Format("15:04") {
		return nil, domain.ErrPastSchedule
	}

	var b *model.Booking
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		b, err = uc.bookings.FindByID(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if b.Status != model.BookingStatusBooked {
			return domain.ErrNotFound
		}
		if err := uc.bookings.LockRoomDate(ctx, tx, companyID, b.RoomID, date); err != nil {
			return err
		}
		existing, err := uc.bookings.FindOverlap(ctx, tx, companyID, b.RoomID, date, start, end, b.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			metrics.IncBookingConflicts()
			return &domain.SlotConflictError{Start: existing.Start, End: existing.End}
		}
		b.Date, b.Start, b.End = date, start, end
		b.UpdatedAt = uc.now()
		return uc.bookings.UpdateWindow(ctx, tx, b)
	})
	if err != nil {
		return nil, err
	}

	uc.notify(ctx, b, "Booking rescheduled")
	return b, nil
}

// Cancel flips a live booking to CANCELLED, freeing the slot. No conflict
// check is needed.
func (uc *BookingUseCase) Cancel(ctx context.Context, companyID, id int64) error {
	b, err := uc.bookings.FindByID(ctx, repository.NoTX, companyID, id)
	if err != nil {
		return err
	}
	ok, err := uc.bookings.Cancel(ctx, repository.NoTX, companyID, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = model.BookingStatusCancelled
	uc.notify(ctx, b, "Booking cancelled")
	return nil
}

// ListForDay returns the tenant's bookings on a date, optionally narrowed to
// one room (roomID > 0).
func (uc *BookingUseCase) ListForDay(ctx context.Context, companyID, roomID int64, date string) ([]*model.Booking, error) {
	date, err := model.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if roomID > 0 {
		return uc.bookings.ListByRoomDate(ctx, repository.NoTX, companyID, roomID, date)
	}
	return uc.bookings.ListByCompanyDate(ctx, repository.NoTX, companyID, date)
}

// notify sends a best-effort booking notification after the transaction
// committed. Failure is logged, never surfaced.
func (uc *BookingUseCase) notify(ctx context.Context, b *model.Booking, subject string) {
	if b.RequesterEmail == "" {
		return
	}
	body := fmt.Sprintf("%s: room booking %s on %s from %s to %s.", subject, b.Ref, b.Date, b.Start, b.End)
	_ = uc.mail.Dispatch(ctx, adapter.Mail{
		To:      b.RequesterEmail,
		ToName:  b.RequesterName,
		Subject: subject,
		Text:    body,
	}, adapter.FailLog, nil)
}

func parseWindow(date, startRaw, endRaw string) (string, string, string, error) {
	date, err := model.ParseDate(date)
	if err != nil {
		return "", "", "", err
	}
	start, err := model.ParseMeridiemTime(startRaw)
	if err != nil {
		return "", "", "", err
	}
	end, err := model.ParseMeridiemTime(endRaw)
	if err != nil {
		return "", "", "", err
	}
	if err := model.ValidateWindow(start, end); err != nil {
		return "", "", "", err
	}
	return date, start, end, nil
}
