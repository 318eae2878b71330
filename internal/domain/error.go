package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrAlreadyExists      = errors.New("entity already exists")

	// Subscription gate errors
	ErrSubscriptionInactive = errors.New("subscription is not active")
	ErrTrialExpired         = errors.New("trial period has ended")
	ErrSubscriptionExpired  = errors.New("subscription has expired")

	// Resource errors
	ErrQuotaExceeded = errors.New("plan quota exceeded")
	ErrSlotConflict  = errors.New("room is already booked for that slot")
	ErrPastSchedule  = errors.New("cannot schedule into the past")
	ErrRoomLocked    = errors.New("room is locked by the current plan")
	ErrRoomInUse     = errors.New("room has bookings and cannot be deleted")

	// OTP protocol errors
	ErrTooManyRequests = errors.New("too many requests")
	ErrOtpMismatch     = errors.New("verification code does not match")
	ErrOtpExpired      = errors.New("verification code has expired")
	ErrSessionExpired  = errors.New("verification session is expired or consumed")
)

// QuotaError carries the plan and limit that caused a denial so callers can
// tell the user exactly which ceiling they hit. Matches ErrQuotaExceeded
// under errors.Is.
type QuotaError struct {
	Plan     string
	Resource string
	Limit    int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s plan allows at most %d %s", e.Plan, e.Limit, e.Resource)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// SlotConflictError names the committed window that blocked the request.
type SlotConflictError struct {
	Start string
	End   string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("slot conflicts with an existing booking %s-%s", e.Start, e.End)
}

func (e *SlotConflictError) Unwrap() error { return ErrSlotConflict }

// CooldownError reports how long the caller must wait before the next OTP send.
type CooldownError struct {
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds the wait up to whole seconds so a sub-second
// remainder never reads as "retry now".
func (e *CooldownError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("resend not allowed yet, retry in %d seconds", e.RetryAfterSeconds())
}

func (e *CooldownError) Unwrap() error { return ErrTooManyRequests }
