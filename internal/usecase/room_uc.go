package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/adapter"
	"visitgate/internal/domain/ports/repository"
)

// RoomUseCase owns room CRUD and the activation synchronizer. Activation is
// never a user toggle: every mutation that can change headroom re-runs the
// full resync.
type RoomUseCase struct {
	rooms    repository.RoomRepository
	bookings repository.BookingRepository
	subs     *SubscriptionUseCase
	quotas   model.QuotaTable
	tm       repository.TransactionManager
	locker   adapter.Locker
	log      *zerolog.Logger
}

func NewRoomUseCase(
	rooms repository.RoomRepository,
	bookings repository.BookingRepository,
	subs *SubscriptionUseCase,
	quotas model.QuotaTable,
	tm repository.TransactionManager,
	locker adapter.Locker,
	logger *zerolog.Logger,
) *RoomUseCase {
	l := logger.With().Str("component", "RoomUC").Logger()
	return &RoomUseCase{
		rooms:    rooms,
		bookings: bookings,
		subs:     subs,
		quotas:   quotas,
		tm:       tm,
		locker:   locker,
		log:      &l,
	}
}

// Create adds a room under the plan's room quota and resyncs activation so
// the new room goes live if the plan has headroom.
func (uc *RoomUseCase) Create(ctx context.Context, companyID int64, number int, name string, capacity int) (*model.Room, error) {
	ent, err := uc.subs.Resolve(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if err := checkQuota(ctx, ent, model.ResourceRooms, func(ctx context.Context) (int, error) {
		return uc.rooms.CountByCompany(ctx, repository.NoTX, companyID)
	}); err != nil {
		return nil, err
	}
	r, err := model.NewRoom(companyID, number, name, capacity)
	if err != nil {
		return nil, err
	}
	if err := uc.rooms.Create(ctx, repository.NoTX, r); err != nil {
		return nil, err
	}
	if err := uc.SyncActivation(ctx, companyID); err != nil {
		return nil, err
	}
	// Re-read for the post-sync activation state.
	return uc.rooms.FindByID(ctx, repository.NoTX, companyID, r.ID)
}

// Update renames or resizes an active room. Locked rooms reject edits.
func (uc *RoomUseCase) Update(ctx context.Context, companyID, id int64, name string, capacity int) (*model.Room, error) {
	if _, err := uc.subs.Resolve(ctx, companyID); err != nil {
		return nil, err
	}
	r, err := uc.rooms.FindByID(ctx, repository.NoTX, companyID, id)
	if err != nil {
		return nil, err
	}
	if !r.IsActive {
		return nil, domain.ErrRoomLocked
	}
	if name != "" {
		r.Name = name
	}
	if capacity > 0 {
		r.Capacity = capacity
	} else if capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidArgument)
	}
	if err := uc.rooms.Update(ctx, repository.NoTX, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a room with zero lifetime bookings. Lock state does not
// matter here.
func (uc *RoomUseCase) Delete(ctx context.Context, companyID, id int64) error {
	if _, err := uc.rooms.FindByID(ctx, repository.NoTX, companyID, id); err != nil {
		return err
	}
	used, err := uc.bookings.ExistsForRoom(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if used {
		return domain.ErrRoomInUse
	}
	return uc.rooms.Delete(ctx, repository.NoTX, companyID, id)
}

// List returns every room, locked ones included.
func (uc *RoomUseCase) List(ctx context.Context, companyID int64) ([]*model.Room, error) {
	return uc.rooms.ListByCompany(ctx, repository.NoTX, companyID)
}

// SyncActivation reconciles active flags against the tenant's plan limit:
// deactivate everything, then reactivate either all rooms (unlimited) or the
// first N ordered by (room_number, id). The per-tenant lock keeps two syncs
// from interleaving their phases; the rewrite itself is idempotent.
func (uc *RoomUseCase) SyncActivation(ctx context.Context, companyID int64) error {
	plan, err := uc.subs.Plan(ctx, companyID)
	if err != nil {
		return err
	}
	limit := uc.quotas.For(plan).Rooms

	key := fmt.Sprintf("roomsync:%d", companyID)
	token, err := uc.locker.TryLock(ctx, key, 10*time.Second)
	if err != nil {
		return err
	}
	defer func() {
		if err := uc.locker.Unlock(ctx, key, token); err != nil {
			uc.log.Warn().Err(err).Int64("company_id", companyID).Msg("room sync unlock failed")
		}
	}()

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := uc.rooms.DeactivateAll(ctx, tx, companyID); err != nil {
			return err
		}
		if limit == model.Unlimited {
			return uc.rooms.ActivateAll(ctx, tx, companyID)
		}
		if limit <= 0 {
			return nil
		}
		return uc.rooms.ActivateTop(ctx, tx, companyID, limit)
	})
	if err != nil {
		return err
	}
	uc.log.Debug().Int64("company_id", companyID).Str("plan", string(plan)).Int("limit", limit).Msg("room activation synced")
	return nil
}
