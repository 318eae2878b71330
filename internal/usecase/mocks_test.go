//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/adapter"
	"visitgate/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger so logs don't clutter test
// output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// memTxManager serializes callbacks with a mutex, standing in for the
// advisory-lock-plus-transaction serialization the real store provides.
type memTxManager struct {
	mu sync.Mutex
}

var _ repository.TransactionManager = (*memTxManager)(nil)

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

// ---- Companies ----

type memCompanyRepo struct {
	mu     sync.RWMutex
	store  map[int64]*model.Company
	nextID int64
}

var _ repository.CompanyRepository = (*memCompanyRepo)(nil)

func newMemCompanyRepo() *memCompanyRepo {
	return &memCompanyRepo{store: make(map[int64]*model.Company)}
}

func (m *memCompanyRepo) Create(ctx context.Context, _ repository.Tx, c *model.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.store[c.ID] = &cp
	return nil
}

func (m *memCompanyRepo) FindByID(ctx context.Context, _ repository.Tx, id int64) (*model.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCompanyRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id int64) (*model.Company, error) {
	return m.FindByID(ctx, tx, id)
}

func (m *memCompanyRepo) FindBySlug(ctx context.Context, _ repository.Tx, slug string) (*model.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.store {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCompanyRepo) SlugExists(ctx context.Context, _ repository.Tx, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.store {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCompanyRepo) SetSlug(ctx context.Context, _ repository.Tx, id int64, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Slug = slug
	return nil
}

func (m *memCompanyRepo) UpdateSubscription(ctx context.Context, _ repository.Tx, id int64, plan model.PlanTier, status model.SubscriptionStatus, trialEndsAt, subscriptionEndsAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Plan, c.Status = plan, status
	c.TrialEndsAt, c.SubscriptionEndsAt = trialEndsAt, subscriptionEndsAt
	return nil
}

func (m *memCompanyRepo) MarkExpired(ctx context.Context, _ repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.store {
		switch c.Status {
		case model.StatusTrial:
			if c.TrialEndsAt == nil || !c.TrialEndsAt.After(now) {
				c.Status = model.StatusExpired
				n++
			}
		case model.StatusActive:
			ends := c.SubscriptionEndsAt
			if c.Plan == model.PlanTrial {
				ends = c.TrialEndsAt
			}
			if ends == nil || !ends.After(now) {
				c.Status = model.StatusExpired
				n++
			}
		}
	}
	return n, nil
}

func (m *memCompanyRepo) List(ctx context.Context, _ repository.Tx, offset, limit int) ([]*model.Company, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Company, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// ---- Rooms ----

type memRoomRepo struct {
	mu     sync.RWMutex
	store  map[int64]*model.Room
	nextID int64
}

var _ repository.RoomRepository = (*memRoomRepo)(nil)

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{store: make(map[int64]*model.Room)}
}

func (m *memRoomRepo) Create(ctx context.Context, _ repository.Tx, r *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.CompanyID == r.CompanyID && existing.Number == r.Number {
			return domain.ErrAlreadyExists
		}
	}
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.store[r.ID] = &cp
	return nil
}

func (m *memRoomRepo) FindByID(ctx context.Context, _ repository.Tx, companyID, id int64) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[id]
	if !ok || r.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRoomRepo) ListByCompany(ctx context.Context, _ repository.Tx, companyID int64) ([]*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(companyID), nil
}

func (m *memRoomRepo) sorted(companyID int64) []*model.Room {
	var out []*model.Room
	for _, r := range m.store {
		if r.CompanyID == companyID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memRoomRepo) Update(ctx context.Context, _ repository.Tx, r *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[r.ID]
	if !ok || existing.CompanyID != r.CompanyID {
		return domain.ErrNotFound
	}
	cp := *r
	m.store[r.ID] = &cp
	return nil
}

func (m *memRoomRepo) Delete(ctx context.Context, _ repository.Tx, companyID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok || r.CompanyID != companyID {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *memRoomRepo) CountByCompany(ctx context.Context, _ repository.Tx, companyID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.store {
		if r.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

func (m *memRoomRepo) DeactivateAll(ctx context.Context, _ repository.Tx, companyID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.store {
		if r.CompanyID == companyID {
			r.IsActive = false
		}
	}
	return nil
}

func (m *memRoomRepo) ActivateAll(ctx context.Context, _ repository.Tx, companyID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.store {
		if r.CompanyID == companyID {
			r.IsActive = true
		}
	}
	return nil
}

func (m *memRoomRepo) ActivateTop(ctx context.Context, _ repository.Tx, companyID int64, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.sorted(companyID) {
		if i >= n {
			break
		}
		m.store[r.ID].IsActive = true
	}
	return nil
}

// ---- Bookings ----

type memBookingRepo struct {
	mu     sync.RWMutex
	store  map[int64]*model.Booking
	nextID int64
}

var _ repository.BookingRepository = (*memBookingRepo)(nil)

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{store: make(map[int64]*model.Booking)}
}

func (m *memBookingRepo) Create(ctx context.Context, _ repository.Tx, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	cp := *b
	m.store[b.ID] = &cp
	return nil
}

func (m *memBookingRepo) FindByID(ctx context.Context, _ repository.Tx, companyID, id int64) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.store[id]
	if !ok || b.CompanyID != companyID {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// LockRoomDate is a no-op here: memTxManager already serializes whole
// transactions, which is strictly stronger.
func (m *memBookingRepo) LockRoomDate(ctx context.Context, _ repository.Tx, companyID, roomID int64, date string) error {
	return nil
}

func (m *memBookingRepo) FindOverlap(ctx context.Context, _ repository.Tx, companyID, roomID int64, date, start, end string, excludeID int64) (*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.store {
		if b.CompanyID != companyID || b.RoomID != roomID || b.Date != date {
			continue
		}
		if b.Status != model.BookingStatusBooked || b.ID == excludeID {
			continue
		}
		if model.Overlaps(b.Start, b.End, start, end) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memBookingRepo) UpdateWindow(ctx context.Context, _ repository.Tx, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.store[b.ID]
	if !ok || existing.CompanyID != b.CompanyID || existing.Status != model.BookingStatusBooked {
		return domain.ErrNotFound
	}
	existing.Date, existing.Start, existing.End = b.Date, b.Start, b.End
	existing.UpdatedAt = b.UpdatedAt
	return nil
}

func (m *memBookingRepo) Cancel(ctx context.Context, _ repository.Tx, companyID, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[id]
	if !ok || b.CompanyID != companyID || b.Status != model.BookingStatusBooked {
		return false, nil
	}
	b.Status = model.BookingStatusCancelled
	return true, nil
}

func (m *memBookingRepo) ListByRoomDate(ctx context.Context, _ repository.Tx, companyID, roomID int64, date string) ([]*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Booking
	for _, b := range m.store {
		if b.CompanyID == companyID && b.RoomID == roomID && b.Date == date {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

func (m *memBookingRepo) ListByCompanyDate(ctx context.Context, _ repository.Tx, companyID int64, date string) ([]*model.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Booking
	for _, b := range m.store {
		if b.CompanyID == companyID && b.Date == date {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomID != out[j].RoomID {
			return out[i].RoomID < out[j].RoomID
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (m *memBookingRepo) CountByCompany(ctx context.Context, _ repository.Tx, companyID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, b := range m.store {
		if b.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

func (m *memBookingRepo) ExistsForRoom(ctx context.Context, _ repository.Tx, roomID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.store {
		if b.RoomID == roomID {
			return true, nil
		}
	}
	return false, nil
}

// ---- Visitors ----

type memVisitorRepo struct {
	mu     sync.RWMutex
	store  map[int64]*model.Visitor
	nextID int64
}

var _ repository.VisitorRepository = (*memVisitorRepo)(nil)

func newMemVisitorRepo() *memVisitorRepo {
	return &memVisitorRepo{store: make(map[int64]*model.Visitor)}
}

func (m *memVisitorRepo) Create(ctx context.Context, _ repository.Tx, v *model.Visitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	v.ID = m.nextID
	cp := *v
	m.store[v.ID] = &cp
	return nil
}

func (m *memVisitorRepo) CountOnDay(ctx context.Context, _ repository.Tx, companyID int64, day string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, v := range m.store {
		if v.CompanyID == companyID && v.CheckedInAt.Format("2006-01-02") == day {
			n++
		}
	}
	return n, nil
}

func (m *memVisitorRepo) SetCodeAndPhoto(ctx context.Context, _ repository.Tx, id int64, code, photoURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Code, v.PhotoURL = code, photoURL
	return nil
}

func (m *memVisitorRepo) FindByCode(ctx context.Context, _ repository.Tx, companyID int64, code string) (*model.Visitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.store {
		if v.CompanyID == companyID && v.Code == code {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memVisitorRepo) CheckOut(ctx context.Context, _ repository.Tx, companyID int64, code string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.store {
		if v.CompanyID == companyID && v.Code == code && v.Status == model.VisitorStatusIn {
			v.Status = model.VisitorStatusOut
			atCp := at
			v.CheckedOutAt = &atCp
			return true, nil
		}
	}
	return false, nil
}

func (m *memVisitorRepo) MarkPassMailSent(ctx context.Context, _ repository.Tx, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.store[id]
	if !ok || v.PassMailSent {
		return false, nil
	}
	v.PassMailSent = true
	return true, nil
}

func (m *memVisitorRepo) ListByCompanyDay(ctx context.Context, _ repository.Tx, companyID int64, day string) ([]*model.Visitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Visitor
	for _, v := range m.store {
		if v.CompanyID == companyID && v.CheckedInAt.Format("2006-01-02") == day {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memVisitorRepo) CountByCompany(ctx context.Context, _ repository.Tx, companyID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, v := range m.store {
		if v.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}

// ---- OTP sessions ----

type memOtpRepo struct {
	mu     sync.RWMutex
	store  map[int64]*model.OtpSession
	nextID int64
}

var _ repository.OtpRepository = (*memOtpRepo)(nil)

func newMemOtpRepo() *memOtpRepo {
	return &memOtpRepo{store: make(map[int64]*model.OtpSession)}
}

func (m *memOtpRepo) Create(ctx context.Context, _ repository.Tx, s *model.OtpSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memOtpRepo) DeleteUnverified(ctx context.Context, _ repository.Tx, companyID int64, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.store {
		if s.CompanyID == companyID && s.Email == email && !s.Verified {
			delete(m.store, id)
		}
	}
	return nil
}

func (m *memOtpRepo) FindLatestUnverified(ctx context.Context, _ repository.Tx, companyID int64, email string) (*model.OtpSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.OtpSession
	for _, s := range m.store {
		if s.CompanyID == companyID && s.Email == email && !s.Verified {
			if latest == nil || s.ID > latest.ID {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memOtpRepo) MarkVerified(ctx context.Context, _ repository.Tx, id int64, token string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok || s.Verified {
		return domain.ErrNotFound
	}
	s.Verified = true
	s.SessionToken = &token
	atCp := at
	s.VerifiedAt = &atCp
	return nil
}

func (m *memOtpRepo) FindByToken(ctx context.Context, _ repository.Tx, token string) (*model.OtpSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.Verified && s.SessionToken != nil && *s.SessionToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOtpRepo) ConsumeToken(ctx context.Context, _ repository.Tx, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.SessionToken != nil && *s.SessionToken == token {
			s.SessionToken = nil
			return true, nil
		}
	}
	return false, nil
}

func (m *memOtpRepo) DeleteExpired(ctx context.Context, _ repository.Tx, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.store {
		if !s.Verified && s.ExpiresAt.Before(before) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

// ---- Adapters ----

type fakeMailer struct {
	mu       sync.Mutex
	Sent     []adapter.Mail
	SendFunc func(ctx context.Context, m adapter.Mail) error
}

var _ adapter.MailSender = (*fakeMailer)(nil)

func (f *fakeMailer) Send(ctx context.Context, m adapter.Mail) error {
	if f.SendFunc != nil {
		if err := f.SendFunc(ctx, m); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, m)
	return nil
}

func (f *fakeMailer) sent() []adapter.Mail {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]adapter.Mail, len(f.Sent))
	copy(out, f.Sent)
	return out
}

type fakeStorage struct {
	mu         sync.Mutex
	Keys       []string
	UploadFunc func(ctx context.Context, key, contentType string, data []byte) (string, error)
}

var _ adapter.BlobStorage = (*fakeStorage)(nil)

func (f *fakeStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if f.UploadFunc != nil {
		return f.UploadFunc(ctx, key, contentType, data)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Keys = append(f.Keys, key)
	return "https://cdn.test/" + key, nil
}

type fakeLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ adapter.Locker = (*fakeLocker)(nil)

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string), ErrOn: make(map[string]error)}
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.ErrOn[key]; ok {
		return "", err
	}
	if _, taken := f.held[key]; taken {
		return "", domain.ErrOperationFailed
	}
	token := uuid.NewString()
	f.held[key] = token
	return token, nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.held[key] != token {
		return domain.ErrOperationFailed
	}
	delete(f.held, key)
	return nil
}

// fakeCooldown admits the first Reserve per key inside a window, like the
// redis SetNX limiter.
type fakeCooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
}

var _ adapter.Cooldown = (*fakeCooldown)(nil)

func newFakeCooldown() *fakeCooldown {
	return &fakeCooldown{last: make(map[string]time.Time)}
}

func (f *fakeCooldown) Reserve(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	if t, ok := f.last[key]; ok {
		if remaining := window - now.Sub(t); remaining > 0 {
			return remaining, nil
		}
	}
	f.last[key] = now
	return 0, nil
}

func (f *fakeCooldown) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.last, key)
	return nil
}

func (f *fakeCooldown) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = make(map[string]time.Time)
}

// inlineSubmit runs background tasks synchronously so assertions can follow
// immediately.
func inlineSubmit(task func(ctx context.Context) error) error {
	return task(context.Background())
}

// ---- Fixtures ----

func seedCompany(repo *memCompanyRepo, plan model.PlanTier, status model.SubscriptionStatus) *model.Company {
	c, _ := model.NewCompany(fmt.Sprintf("Tenant %s %s", plan, status))
	c.Plan, c.Status = plan, status
	ends := time.Now().Add(30 * 24 * time.Hour)
	switch status {
	case model.StatusTrial:
		c.TrialEndsAt = &ends
	case model.StatusActive:
		c.SubscriptionEndsAt = &ends
		if plan == model.PlanTrial {
			c.TrialEndsAt = &ends
		}
	}
	_ = repo.Create(context.Background(), nil, c)
	return c
}

func expireCompany(repo *memCompanyRepo, id int64) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	past := time.Now().Add(-time.Hour)
	c := repo.store[id]
	c.TrialEndsAt = &past
	c.SubscriptionEndsAt = &past
}

func extractCode(mailText string) string {
	for _, f := range strings.Fields(mailText) {
		f = strings.TrimSuffix(f, ".")
		if len(f) == 6 && strings.Trim(f, "0123456789") == "" {
			return f
		}
	}
	return ""
}
