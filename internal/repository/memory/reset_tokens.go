package memory

import (
	"context"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// ResetTokenRepo implements repository.PasswordResetRepository.
type ResetTokenRepo struct {
	s *Store
}

// Issue stores token unless the user's latest token is still cooling down.
// The check and the insert share one lock.
func (r *ResetTokenRepo) Issue(_ context.Context, token *models.ResetToken, cooldown time.Duration) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if latest := r.latest(token.UserID); latest != nil && latest.InCooldown(token.CreatedAt, cooldown) {
		return false, nil
	}
	token.ID = r.s.id()
	r.s.tokens[token.ID] = *token
	return true, nil
}

// LatestForUser returns the newest token of a user or nil.
func (r *ResetTokenRepo) LatestForUser(_ context.Context, userID int64) (*models.ResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.latest(userID), nil
}

func (r *ResetTokenRepo) latest(userID int64) *models.ResetToken {
	var latest *models.ResetToken
	for _, token := range r.s.tokens {
		if token.UserID != userID {
			continue
		}
		if latest == nil || token.CreatedAt.After(latest.CreatedAt) ||
			(token.CreatedAt.Equal(latest.CreatedAt) && token.ID > latest.ID) {
			t := token
			latest = &t
		}
	}
	return latest
}

// FindByUserAndHash returns the token matching user and digest.
func (r *ResetTokenRepo) FindByUserAndHash(_ context.Context, userID int64, tokenHash string) (*models.ResetToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, token := range r.s.tokens {
		if token.UserID == userID && token.TokenHash == tokenHash {
			t := token
			return &t, nil
		}
	}
	return nil, utils.NewResetTokenNotFoundError()
}

// Redeem claims the token and stores the password under one lock.
func (r *ResetTokenRepo) Redeem(_ context.Context, tokenID, userID int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token, ok := r.s.tokens[tokenID]
	if !ok {
		return utils.NewResetTokenNotFoundError()
	}
	if token.Used {
		return utils.NewTokenUsedError()
	}
	if _, ok := r.s.users[userID]; !ok {
		return utils.NewNotFoundError("User", userID)
	}

	token.Used = true
	r.s.tokens[tokenID] = token
	return r.s.setPassword(userID, passwordHash)
}

// DeleteExpiredBefore removes tokens that expired before cutoff.
func (r *ResetTokenRepo) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var removed int64
	for id, token := range r.s.tokens {
		if token.ExpiresAt.Before(cutoff) {
			delete(r.s.tokens, id)
			removed++
		}
	}
	return removed, nil
}

// CountForUser reports how many token rows a user has.
func (r *ResetTokenRepo) CountForUser(userID int64) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, token := range r.s.tokens {
		if token.UserID == userID {
			n++
		}
	}
	return n
}
