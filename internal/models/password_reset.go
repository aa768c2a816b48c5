package models

import (
	"time"

	"github.com/taskhub/backend/internal/constants"
)

// ResetToken is one issued password reset token. Only the digest of the raw
// token is stored.
type ResetToken struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	TokenHash  string    `json:"-" db:"token_hash"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
	Used       bool      `json:"used" db:"used"`
	LastSentAt time.Time `json:"last_sent_at" db:"last_sent_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// NewResetToken creates an unused token issued at now.
func NewResetToken(userID int64, tokenHash string, now time.Time, expiry time.Duration) *ResetToken {
	return &ResetToken{
		UserID:     userID,
		TokenHash:  tokenHash,
		ExpiresAt:  now.Add(expiry),
		LastSentAt: now,
		CreatedAt:  now,
	}
}

// TableName returns the database table name for the ResetToken model.
func (t *ResetToken) TableName() string {
	return constants.TablePasswordResetTokens
}

// Expired reports whether the token can no longer be redeemed at now.
func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// InCooldown reports whether a new token may not yet be sent.
func (t *ResetToken) InCooldown(now time.Time, cooldown time.Duration) bool {
	return now.Sub(t.LastSentAt) < cooldown
}

// ForgotRequest is the body of POST /api/forgot and /api/forgot/resend.
// The email is not validated for shape so malformed addresses get the same
// response as unknown ones.
type ForgotRequest struct {
	Email string `json:"email" validate:"required"`
}

// ResetRequest is the body of POST /api/reset. Password length is enforced by
// the service against the configured minimum.
type ResetRequest struct {
	Token    string `json:"token" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// VerifyResetRequest is the body of POST /api/reset/verify.
type VerifyResetRequest struct {
	Token string `json:"token" validate:"required"`
	Email string `json:"email" validate:"required"`
}

// ResetResult is returned by every reset endpoint.
type ResetResult struct {
	OK       bool `json:"ok"`
	Cooldown bool `json:"cooldown,omitempty"`
}
