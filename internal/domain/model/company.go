package model

import (
	"strconv"
	"strings"
	"time"

	"visitgate/internal/domain"
)

// Company is the tenant: the unit of data isolation. Plan and status fields
// are written by the external billing collaborator; this core only reads them
// (and flips status to expired during the reconciliation sweep).
type Company struct {
	ID                 int64
	Name               string
	Slug               string // empty until assigned on first use
	Plan               PlanTier
	Status             SubscriptionStatus
	TrialEndsAt        *time.Time
	SubscriptionEndsAt *time.Time
	CreatedAt          time.Time
}

// NewCompany validates and constructs a tenant in its registration state.
func NewCompany(name string) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Company{
		Name:      name,
		Plan:      PlanTrial,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}, nil
}

// Gate reports why the tenant is not operationally active right now, or nil.
// It never mutates status; persisting the expired transition is the sweep's job.
func (c *Company) Gate(now time.Time) error {
	switch c.Status {
	case StatusTrial:
		if c.TrialEndsAt == nil || !c.TrialEndsAt.After(now) {
			return domain.ErrTrialExpired
		}
		return nil
	case StatusActive:
		ends := c.SubscriptionEndsAt
		if c.Plan == PlanTrial {
			ends = c.TrialEndsAt
		}
		if ends == nil || !ends.After(now) {
			return domain.ErrSubscriptionExpired
		}
		return nil
	default:
		return domain.ErrSubscriptionInactive
	}
}

// SlugFromName derives a URL-safe slug candidate. A disambiguating suffix
// (>0) is appended when the plain slug is taken.
func SlugFromName(name string, suffix int) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		s = "company"
	}
	if suffix > 0 {
		return s + "-" + strconv.Itoa(suffix)
	}
	return s
}
