//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/usecase"
)

type bookingEnv struct {
	companies *memCompanyRepo
	rooms     *memRoomRepo
	bookings  *memBookingRepo
	mailer    *fakeMailer
	uc        *usecase.BookingUseCase
	company   *model.Company
	room      *model.Room
}

func newBookingEnv(t *testing.T, quotas model.QuotaTable) *bookingEnv {
	t.Helper()
	env := &bookingEnv{
		companies: newMemCompanyRepo(),
		rooms:     newMemRoomRepo(),
		bookings:  newMemBookingRepo(),
		mailer:    &fakeMailer{},
	}
	subs := usecase.NewSubscriptionUseCase(env.companies, quotas)
	mail := usecase.NewMailDispatcher(env.mailer, inlineSubmit, newTestLogger())
	env.uc = usecase.NewBookingUseCase(env.bookings, env.rooms, subs, &memTxManager{}, mail, newTestLogger())

	env.company = seedCompany(env.companies, model.PlanBusiness, model.StatusActive)
	r, err := model.NewRoom(env.company.ID, 1, "Boardroom", 10)
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	r.IsActive = true
	if err := env.rooms.Create(context.Background(), nil, r); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	env.room = r
	return env
}

const testDate = "2031-05-20"

func TestBookingCreate(t *testing.T) {
	ctx := context.Background()
	req := usecase.BookingRequest{Name: "Dana", Email: "dana@example.com", Purpose: "interview"}

	t.Run("books a free slot", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:30 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		if b.Start != "09:00" || b.End != "10:30" {
			t.Errorf("window = %s-%s, want 09:00-10:30", b.Start, b.End)
		}
		if b.Ref == "" || b.Status != model.BookingStatusBooked {
			t.Errorf("booking not initialized: %+v", b)
		}
		sent := env.mailer.sent()
		if len(sent) != 1 || sent[0].Subject != "Booking confirmed" {
			t.Errorf("confirmation mail not dispatched: %+v", sent)
		}
	})

	t.Run("rejects an overlapping window", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req); err != nil {
			t.Fatalf("first Create(): %v", err)
		}
		_, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:30 AM", "10:30 AM", req)
		if !errors.Is(err, domain.ErrSlotConflict) {
			t.Fatalf("overlap error = %v, want ErrSlotConflict", err)
		}
		var conflict *domain.SlotConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("error %v does not carry the blocking window", err)
		}
		if conflict.Start != "09:00" || conflict.End != "10:00" {
			t.Errorf("blocking window = %s-%s, want 09:00-10:00", conflict.Start, conflict.End)
		}
	})

	t.Run("touching windows both fit", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req); err != nil {
			t.Fatalf("first Create(): %v", err)
		}
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "10:00 AM", "11:00 AM", req); err != nil {
			t.Fatalf("back-to-back Create(): %v", err)
		}
	})

	t.Run("same window on another room or date fits", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		other, _ := model.NewRoom(env.company.ID, 2, "Annex", 4)
		other.IsActive = true
		_ = env.rooms.Create(ctx, nil, other)

		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req); err != nil {
			t.Fatalf("first Create(): %v", err)
		}
		if _, err := env.uc.Create(ctx, env.company.ID, other.ID, testDate, "9:00 AM", "10:00 AM", req); err != nil {
			t.Errorf("other room Create(): %v", err)
		}
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, "2031-05-21", "9:00 AM", "10:00 AM", req); err != nil {
			t.Errorf("other date Create(): %v", err)
		}
	})

	t.Run("rejects malformed clock values", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		for _, bad := range []struct{ start, end string }{
			{"13:00 PM", "2:00 PM"},
			{"9:5 AM", "10:00 AM"},
			{"09:00", "10:00"},
			{"9:00 am", "10:00 AM"},
			{"0:30 AM", "1:00 AM"},
		} {
			if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, bad.start, bad.end, req); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("Create(%q, %q) error = %v, want ErrInvalidArgument", bad.start, bad.end, err)
			}
		}
	})

	t.Run("rejects an empty window", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "10:00 AM", "10:00 AM", req); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("zero-length window error = %v, want ErrInvalidArgument", err)
		}
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "2:00 PM", "10:00 AM", req); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("inverted window error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("rejects a locked room", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		locked, _ := model.NewRoom(env.company.ID, 9, "Overflow", 4)
		_ = env.rooms.Create(ctx, nil, locked)
		if _, err := env.uc.Create(ctx, env.company.ID, locked.ID, testDate, "9:00 AM", "10:00 AM", req); !errors.Is(err, domain.ErrRoomLocked) {
			t.Errorf("locked room error = %v, want ErrRoomLocked", err)
		}
	})

	t.Run("requires a requester name", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", usecase.BookingRequest{}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("nameless request error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("enforces the lifetime booking quota", func(t *testing.T) {
		quotas := model.QuotaTable{model.PlanBusiness: {Rooms: 6, Bookings: 1, Visitors: model.Unlimited}}
		env := newBookingEnv(t, quotas)
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req); err != nil {
			t.Fatalf("first Create(): %v", err)
		}
		_, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "11:00 AM", "12:00 PM", req)
		if !errors.Is(err, domain.ErrQuotaExceeded) {
			t.Fatalf("quota error = %v, want ErrQuotaExceeded", err)
		}
		var qe *domain.QuotaError
		if !errors.As(err, &qe) {
			t.Fatalf("error %v does not name the ceiling", err)
		}
		if qe.Plan != "business" || qe.Limit != 1 {
			t.Errorf("quota error names %s/%d, want business/1", qe.Plan, qe.Limit)
		}
	})
}

// Concurrent requests for the same slot must yield exactly one booking.
func TestBookingCreate_ConcurrentSameSlot(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv(t, model.DefaultQuotaTable())
	req := usecase.BookingRequest{Name: "Dana"}

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		}(i)
	}
	wg.Wait()

	won, lost := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrSlotConflict):
			lost++
		default:
			t.Errorf("unexpected race error: %v", err)
		}
	}
	if won != 1 || lost != racers-1 {
		t.Fatalf("winners = %d, conflicts = %d; want exactly 1 winner", won, lost)
	}
}

func TestBookingReschedule(t *testing.T) {
	ctx := context.Background()
	req := usecase.BookingRequest{Name: "Dana", Email: "dana@example.com"}

	t.Run("moves to a free window", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		moved, err := env.uc.Reschedule(ctx, env.company.ID, b.ID, testDate, "2:00 PM", "3:00 PM")
		if err != nil {
			t.Fatalf("Reschedule(): %v", err)
		}
		if moved.Start != "14:00" || moved.End != "15:00" {
			t.Errorf("window = %s-%s, want 14:00-15:00", moved.Start, moved.End)
		}
	})

	t.Run("ignores its own committed window", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		// Shrinking inside the original window overlaps only itself.
		if _, err := env.uc.Reschedule(ctx, env.company.ID, b.ID, testDate, "9:15 AM", "9:45 AM"); err != nil {
			t.Fatalf("self-overlapping Reschedule(): %v", err)
		}
	})

	t.Run("conflicts with another booking", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "11:00 AM", "12:00 PM", req); err != nil {
			t.Fatalf("second Create(): %v", err)
		}
		if _, err := env.uc.Reschedule(ctx, env.company.ID, b.ID, testDate, "11:30 AM", "12:30 PM"); !errors.Is(err, domain.ErrSlotConflict) {
			t.Errorf("Reschedule() error = %v, want ErrSlotConflict", err)
		}
	})

	t.Run("rejects a same-day start already behind the clock", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		today := time.Now().Format(model.DateLayout)
		if _, err := env.uc.Reschedule(ctx, env.company.ID, b.ID, today, "12:00 AM", "11:59 PM"); !errors.Is(err, domain.ErrPastSchedule) {
			t.Errorf("past Reschedule() error = %v, want ErrPastSchedule", err)
		}
	})

	t.Run("rejects a cancelled booking", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		if err := env.uc.Cancel(ctx, env.company.ID, b.ID); err != nil {
			t.Fatalf("Cancel(): %v", err)
		}
		if _, err := env.uc.Reschedule(ctx, env.company.ID, b.ID, testDate, "2:00 PM", "3:00 PM"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("Reschedule(cancelled) error = %v, want ErrNotFound", err)
		}
	})
}

func TestBookingCancel(t *testing.T) {
	ctx := context.Background()
	req := usecase.BookingRequest{Name: "Dana", Email: "dana@example.com"}

	t.Run("frees the slot", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		if err := env.uc.Cancel(ctx, env.company.ID, b.ID); err != nil {
			t.Fatalf("Cancel(): %v", err)
		}
		if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req); err != nil {
			t.Errorf("rebooking freed slot: %v", err)
		}
	})

	t.Run("second cancel reports not found", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		if err := env.uc.Cancel(ctx, env.company.ID, b.ID); err != nil {
			t.Fatalf("Cancel(): %v", err)
		}
		if err := env.uc.Cancel(ctx, env.company.ID, b.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("second Cancel() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("other tenant cannot cancel", func(t *testing.T) {
		env := newBookingEnv(t, model.DefaultQuotaTable())
		b, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req)
		if err != nil {
			t.Fatalf("Create(): %v", err)
		}
		if err := env.uc.Cancel(ctx, env.company.ID+1, b.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("cross-tenant Cancel() error = %v, want ErrNotFound", err)
		}
	})
}

func TestBookingListForDay(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv(t, model.DefaultQuotaTable())
	req := usecase.BookingRequest{Name: "Dana"}

	other, _ := model.NewRoom(env.company.ID, 2, "Annex", 4)
	other.IsActive = true
	_ = env.rooms.Create(ctx, nil, other)

	if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "2:00 PM", "3:00 PM", req); err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if _, err := env.uc.Create(ctx, env.company.ID, env.room.ID, testDate, "9:00 AM", "10:00 AM", req); err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if _, err := env.uc.Create(ctx, env.company.ID, other.ID, testDate, "9:00 AM", "10:00 AM", req); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	all, err := env.uc.ListForDay(ctx, env.company.ID, 0, testDate)
	if err != nil {
		t.Fatalf("ListForDay(all rooms): %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}

	one, err := env.uc.ListForDay(ctx, env.company.ID, env.room.ID, testDate)
	if err != nil {
		t.Fatalf("ListForDay(one room): %v", err)
	}
	if len(one) != 2 {
		t.Fatalf("len(one room) = %d, want 2", len(one))
	}
	if one[0].Start != "09:00" || one[1].Start != "14:00" {
		t.Errorf("listing not time-ordered: %s, %s", one[0].Start, one[1].Start)
	}

	if _, err := env.uc.ListForDay(ctx, env.company.ID, 0, "05/20/2031"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("malformed date error = %v, want ErrInvalidArgument", err)
	}
}
