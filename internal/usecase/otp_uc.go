package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"visitgate/internal/domain"
	"visitgate/internal/domain/model"
	"visitgate/internal/domain/ports/adapter"
	"visitgate/internal/domain/ports/repository"
	"visitgate/internal/infra/logging"
	"visitgate/internal/infra/metrics"
)

// OtpUseCase runs the email verification protocol gating public
// self-registration: send a 6-digit code, verify it into a single-use
// session token, consume the token around the visitor write.
type OtpUseCase struct {
	otps     repository.OtpRepository
	visitors *VisitorUseCase
	cooldown adapter.Cooldown
	mail     *MailDispatcher

	codeTTL        time.Duration
	resendCooldown time.Duration
	sessionWindow  time.Duration

	log *zerolog.Logger
	now func() time.Time
}

func NewOtpUseCase(
	otps repository.OtpRepository,
	visitors *VisitorUseCase,
	cooldown adapter.Cooldown,
	mail *MailDispatcher,
	codeTTL, resendCooldown, sessionWindow time.Duration,
	logger *zerolog.Logger,
) *OtpUseCase {
	l := logger.With().Str("component", "OtpUC").Logger()
	return &OtpUseCase{
		otps:           otps,
		visitors:       visitors,
		cooldown:       cooldown,
		mail:           mail,
		codeTTL:        codeTTL,
		resendCooldown: resendCooldown,
		sessionWindow:  sessionWindow,
		log:            &l,
		now:            time.Now,
	}
}

// Send issues a fresh code for (tenant, email), invalidating prior unverified
// ones. OTP mail is blocking: without the code the user has no path forward,
// so dispatch failure fails the whole operation.
func (uc *OtpUseCase) Send(ctx context.Context, companyID int64, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", domain.ErrInvalidArgument)
	}

	cooldownKey := fmt.Sprintf("otp:%d:%s", companyID, email)
	wait, err := uc.cooldown.Reserve(ctx, cooldownKey, uc.resendCooldown)
	if err != nil {
		return err
	}
	if wait > 0 {
		return &domain.CooldownError{RetryAfter: wait}
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := uc.otps.DeleteUnverified(ctx, repository.NoTX, companyID, email); err != nil {
		return err
	}
	now := uc.now()
	s := &model.OtpSession{
		CompanyID: companyID,
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(uc.codeTTL),
		CreatedAt: now,
	}
	if err := uc.otps.Create(ctx, repository.NoTX, s); err != nil {
		return err
	}

	m := adapter.Mail{
		To:      email,
		Subject: "Your verification code",
		Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(uc.codeTTL.Minutes())),
	}
	if err := uc.mail.Dispatch(ctx, m, adapter.FailPropagate, nil); err != nil {
		// No code reached the user; free the resend window for a retry.
		if relErr := uc.cooldown.Release(ctx, cooldownKey); relErr != nil {
			logging.With(ctx, uc.log).Warn().Err(relErr).Str("email", email).Msg("cooldown release failed")
		}
		return fmt.Errorf("otp mail: %w", err)
	}
	metrics.IncOtpSent()
	return nil
}

// Verify checks the supplied code against the latest outstanding challenge
// and mints the single-use session token.
func (uc *OtpUseCase) Verify(ctx context.Context, companyID int64, email, code string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s, err := uc.otps.FindLatestUnverified(ctx, repository.NoTX, companyID, email)
	if err != nil {
		return "", err
	}
	now := uc.now()
	if s.Expired(now) {
		metrics.IncOtpFailed("expired")
		return "", domain.ErrOtpExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(s.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		metrics.IncOtpFailed("mismatch")
		return "", domain.ErrOtpMismatch
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := uc.otps.MarkVerified(ctx, repository.NoTX, s.ID, token, now); err != nil {
		return "", err
	}
	metrics.IncOtpVerified()
	logging.With(ctx, uc.log).Info().Int64("company_id", companyID).Msg("otp verified")
	return token, nil
}

// RegisterVisitor consumes a session token around a visitor check-in. The
// token must be verified, inside its window, and is nulled after the write
// succeeds so a replay fails.
func (uc *OtpUseCase) RegisterVisitor(ctx context.Context, token string, in CheckInInput) (*model.Visitor, error) {
	s, err := uc.otps.FindByToken(ctx, repository.NoTX, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, err
	}
	if !s.SessionValid(uc.now(), uc.sessionWindow) {
		return nil, domain.ErrSessionExpired
	}

	// The verified address is authoritative over whatever the form carried.
	in.Email = s.Email
	v, err := uc.visitors.CheckIn(ctx, s.CompanyID, in)
	if err != nil {
		return nil, err
	}
	if _, err := uc.otps.ConsumeToken(ctx, repository.NoTX, token); err != nil {
		logging.With(ctx, uc.log).Error().Err(err).Msg("session token consume failed")
	}
	return v, nil
}

// PurgeExpired drops long-dead challenges; called from the sweep.
func (uc *OtpUseCase) PurgeExpired(ctx context.Context) (int, error) {
	return uc.otps.DeleteExpired(ctx, repository.NoTX, uc.now().Add(-24*time.Hour))
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
