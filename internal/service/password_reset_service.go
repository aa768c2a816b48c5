package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/metrics"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository"
	"github.com/taskhub/backend/internal/utils"
)

// Outcome labels for reset metrics.
const (
	resetIssued   = "issued"
	resetCooldown = "cooldown"
	resetUnknown  = "unknown"
	resetError    = "error"

	redeemOK           = "redeemed"
	redeemInvalid      = "invalid"
	redeemUsed         = "used"
	redeemExpired      = "expired"
	redeemWeakPassword = "weak_password"
	redeemError        = "error"
)

// PasswordResetService issues, throttles and redeems password reset tokens.
//
// RequestReset and ResendReset answer {ok:true} for unknown emails and on
// datastore or mail failures, so the response never reveals whether an
// account exists. Reset emails are sent in the background; the request path
// only covers the lookup and the token insert.
type PasswordResetService struct {
	users    repository.UserRepository
	tokens   repository.PasswordResetRepository
	tokenGen *auth.TokenService
	hasher   auth.Hasher
	email    *EmailService
	cfg      config.PasswordResetSettings
	metrics  *metrics.Metrics

	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration)
	deliveries sync.WaitGroup
}

// NewPasswordResetService creates a new PasswordResetService. Zero settings
// fall back to the package defaults; a zero MinResponseDelay disables padding.
func NewPasswordResetService(
	users repository.UserRepository,
	tokens repository.PasswordResetRepository,
	tokenGen *auth.TokenService,
	hasher auth.Hasher,
	email *EmailService,
	cfg config.PasswordResetSettings,
	m *metrics.Metrics,
) *PasswordResetService {
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = constants.DefaultResetTokenExpiry
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = constants.DefaultResetCooldown
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = constants.DefaultMinPasswordLength
	}
	if tokenGen == nil {
		tokenGen = auth.NewTokenService()
	}

	return &PasswordResetService{
		users:    users,
		tokens:   tokens,
		tokenGen: tokenGen,
		hasher:   hasher,
		email:    email,
		cfg:      cfg,
		metrics:  m,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// SetClock replaces the time source used for expiry and cooldown checks.
func (s *PasswordResetService) SetClock(now func() time.Time) {
	s.now = now
}

// RequestReset handles POST /api/forgot.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*models.ResetResult, error) {
	return s.issue(ctx, email, "request")
}

// ResendReset handles POST /api/forgot/resend. It follows the same rules as
// RequestReset, including the cooldown.
func (s *PasswordResetService) ResendReset(ctx context.Context, email string) (*models.ResetResult, error) {
	return s.issue(ctx, email, "resend")
}

func (s *PasswordResetService) issue(ctx context.Context, email, entry string) (*models.ResetResult, error) {
	defer s.pad(ctx, time.Now())

	email = strings.TrimSpace(email)
	logger := log.With().
		Str("entry", entry).
		Str("email", utils.MaskEmail(email)).
		Logger()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			logger.Info().Msg("Password reset requested for unknown email")
			s.metrics.ResetRequested(resetUnknown)
		} else {
			logger.Error().Err(err).Msg("Failed to look up user for password reset")
			s.metrics.ResetRequested(resetError)
		}
		return &models.ResetResult{OK: true}, nil
	}

	raw, hash, err := s.tokenGen.Generate()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate password reset token")
		s.metrics.ResetRequested(resetError)
		return &models.ResetResult{OK: true}, nil
	}

	token := models.NewResetToken(user.ID, hash, s.now(), s.cfg.TokenExpiry)
	issued, err := s.tokens.Issue(ctx, token, s.cfg.ResendCooldown)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to store password reset token")
		s.metrics.ResetRequested(resetError)
		return &models.ResetResult{OK: true}, nil
	}
	if !issued {
		logger.Info().Int64("user_id", user.ID).Msg("Password reset suppressed by cooldown")
		s.metrics.ResetRequested(resetCooldown)
		return &models.ResetResult{OK: true, Cooldown: true}, nil
	}

	s.deliver(ctx, logger, user, raw)

	s.metrics.ResetRequested(resetIssued)
	return &models.ResetResult{OK: true}, nil
}

// deliver sends the reset email off the request path. The send keeps the
// request's values but not its cancellation.
func (s *PasswordResetService) deliver(ctx context.Context, logger zerolog.Logger, user *models.User, raw string) {
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.ResetDeliveryTimeout)
		defer cancel()

		if err := s.email.SendPasswordResetEmail(ctx, user.Email, user.Name, raw); err != nil {
			logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to send password reset email")
		}
	}()
}

// Wait blocks until every reset email handed to the background has been
// sent or given up on.
func (s *PasswordResetService) Wait() {
	s.deliveries.Wait()
}

// VerifyReset reports whether token can still be redeemed for email without
// consuming it.
func (s *PasswordResetService) VerifyReset(ctx context.Context, token, email string) (*models.ResetResult, error) {
	if _, _, err := s.lookup(ctx, token, email); err != nil {
		return nil, err
	}
	return &models.ResetResult{OK: true}, nil
}

// RedeemReset sets a new password using a reset token. The new credential and
// the used flag are written in one transaction.
func (s *PasswordResetService) RedeemReset(ctx context.Context, token, email, password string) (*models.ResetResult, error) {
	if err := utils.ValidatePassword(password, s.cfg.MinPasswordLength); err != nil {
		s.metrics.ResetRedeemed(redeemWeakPassword)
		return nil, err
	}

	user, row, err := s.lookup(ctx, token, email)
	if err != nil {
		s.metrics.ResetRedeemed(redeemOutcome(err))
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.ResetRedeemed(redeemError)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.tokens.Redeem(ctx, row.ID, user.ID, passwordHash); err != nil {
		s.metrics.ResetRedeemed(redeemOutcome(err))
		if errors.Is(err, utils.ErrTokenUsed) {
			utils.LogAuth(constants.LogEventPasswordReset, user.ID, user.Email, false, "token already used")
			return nil, err
		}
		return nil, fmt.Errorf("failed to redeem reset token: %w", err)
	}

	utils.LogAuth(constants.LogEventPasswordReset, user.ID, user.Email, true, "")
	s.metrics.ResetRedeemed(redeemOK)
	return &models.ResetResult{OK: true}, nil
}

// lookup applies the redemption checks in order: user, token row, used, expiry.
func (s *PasswordResetService) lookup(ctx context.Context, token, email string) (*models.User, *models.ResetToken, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, nil, utils.NewResetTokenNotFoundError()
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	row, err := s.tokens.FindByUserAndHash(ctx, user.ID, s.tokenGen.HashToken(strings.TrimSpace(token)))
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, nil, utils.NewResetTokenNotFoundError()
		}
		return nil, nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	if row.Used {
		return nil, nil, utils.NewTokenUsedError()
	}
	if row.Expired(s.now()) {
		return nil, nil, utils.NewResetTokenExpiredError()
	}

	return user, row, nil
}

// pad sleeps until the jittered minimum response time since start has passed.
func (s *PasswordResetService) pad(ctx context.Context, start time.Time) {
	target := jitter(s.cfg.MinResponseDelay)
	if remaining := target - time.Since(start); remaining > 0 {
		s.sleep(ctx, remaining)
	}
}

// jitter returns a duration uniformly drawn from [0.8d, 1.6d).
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	low := d * 4 / 5
	span := int64(d * 4 / 5)
	if span <= 0 {
		return low
	}
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return d
	}
	return low + time.Duration(n.Int64())
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func redeemOutcome(err error) string {
	switch {
	case errors.Is(err, utils.ErrTokenUsed):
		return redeemUsed
	case errors.Is(err, utils.ErrExpiredToken):
		return redeemExpired
	case utils.IsNotFoundError(err):
		return redeemInvalid
	default:
		return redeemError
	}
}
