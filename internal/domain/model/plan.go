package model

import "strings"

// PlanTier is the subscription tier of a tenant.
type PlanTier string

const (
	PlanTrial      PlanTier = "trial"
	PlanBusiness   PlanTier = "business"
	PlanEnterprise PlanTier = "enterprise"
)

// SubscriptionStatus is the billing-driven state of a tenant account.
type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// Unlimited is the sentinel limit for plans without a ceiling on a resource.
const Unlimited = -1

// Resource names a quota-bounded resource kind.
type Resource string

const (
	ResourceRooms    Resource = "rooms"
	ResourceBookings Resource = "bookings"
	ResourceVisitors Resource = "visitors"
)

// PlanQuota holds the per-plan ceilings. Unlimited (-1) disables the check.
type PlanQuota struct {
	Rooms    int `yaml:"rooms"`
	Bookings int `yaml:"bookings"`
	Visitors int `yaml:"visitors"`
}

func (q PlanQuota) Limit(r Resource) int {
	switch r {
	case ResourceRooms:
		return q.Rooms
	case ResourceBookings:
		return q.Bookings
	case ResourceVisitors:
		return q.Visitors
	}
	return 0
}

// QuotaTable maps plan tiers to their quotas. It is fixed policy loaded at
// startup, never computed per call site.
type QuotaTable map[PlanTier]PlanQuota

// DefaultQuotaTable returns the shipped plan policy.
func DefaultQuotaTable() QuotaTable {
	return QuotaTable{
		PlanTrial:      {Rooms: 2, Bookings: 100, Visitors: 100},
		PlanBusiness:   {Rooms: 6, Bookings: 1000, Visitors: Unlimited},
		PlanEnterprise: {Rooms: Unlimited, Bookings: Unlimited, Visitors: Unlimited},
	}
}

// For resolves a tier's quota, falling back to trial for unknown tiers.
func (t QuotaTable) For(tier PlanTier) PlanQuota {
	if q, ok := t[tier]; ok {
		return q
	}
	return t[PlanTrial]
}

// NormalizePlan folds an arbitrary stored string into the fixed vocabulary.
// Unknown values default to trial.
func NormalizePlan(s string) PlanTier {
	switch t := PlanTier(strings.ToLower(strings.TrimSpace(s))); t {
	case PlanTrial, PlanBusiness, PlanEnterprise:
		return t
	default:
		return PlanTrial
	}
}

// NormalizeStatus folds an arbitrary stored string into the fixed vocabulary.
// Unknown values default to pending.
func NormalizeStatus(s string) SubscriptionStatus {
	switch st := SubscriptionStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusTrial, StatusActive, StatusExpired, StatusCancelled:
		return st
	default:
		return StatusPending
	}
}

// Entitlements is the resolved view of what a tenant's plan permits right now.
type Entitlements struct {
	Plan         PlanTier
	Status       SubscriptionStatus
	RoomLimit    int
	BookingLimit int
	VisitorLimit int
}

func (e Entitlements) LimitFor(r Resource) int {
	switch r {
	case ResourceRooms:
		return e.RoomLimit
	case ResourceBookings:
		return e.BookingLimit
	case ResourceVisitors:
		return e.VisitorLimit
	}
	return 0
}

func (e Entitlements) UnlimitedFor(r Resource) bool { return e.LimitFor(r) == Unlimited }
