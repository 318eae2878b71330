package model

import (
	"time"
)

// OtpSession is one email verification challenge for (tenant, email).
// Only the bcrypt hash of the 6-digit code is stored. SessionToken is minted
// on successful verification and nulled on consumption.
type OtpSession struct {
	ID           int64
	CompanyID    int64
	Email        string
	CodeHash     string
	ExpiresAt    time.Time
	Verified     bool
	SessionToken *string
	VerifiedAt   *time.Time
	CreatedAt    time.Time
}

// Expired reports whether the challenge window itself has elapsed.
func (s *OtpSession) Expired(now time.Time) bool { return !s.ExpiresAt.After(now) }

// SessionValid reports whether the minted token is still inside its
// consumption window.
func (s *OtpSession) SessionValid(now time.Time, window time.Duration) bool {
	return s.Verified && s.SessionToken != nil && s.VerifiedAt != nil &&
		now.Before(s.VerifiedAt.Add(window))
}
