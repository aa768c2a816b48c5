package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository"
	"github.com/taskhub/backend/internal/utils"
)

// UserService handles user-related operations
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

// UpdateUser updates a user's profile. Users may edit themselves; admins may
// edit anyone and are the only ones allowed to change a position.
func (s *UserService) UpdateUser(ctx context.Context, actor *auth.Identity, update *models.UserUpdateRequest) (*models.User, error) {
	if actor == nil {
		return nil, utils.NewUnauthorizedError(constants.MsgAuthRequired)
	}

	isAdmin := actor.Position == constants.PositionAdmin
	if actor.UserID != update.ID && !isAdmin {
		return nil, utils.NewForbiddenError(constants.MsgAccessDenied)
	}

	if update.Empty() {
		return nil, utils.NewValidationError("id", "At least one field to update is required")
	}

	// Get the existing user
	user, err := s.userRepo.GetByID(ctx, update.ID)
	if err != nil {
		return nil, err
	}

	if update.Position != nil && *update.Position != user.Position && !isAdmin {
		return nil, utils.NewForbiddenError(constants.MsgAccessDenied)
	}

	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		update.Name = &trimmed
	}

	// Check the new email is free
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		update.Email = &email

		if !strings.EqualFold(email, user.Email) {
			exists, err := s.userRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email existence: %w", err)
			}
			if exists {
				return nil, utils.NewDuplicateError("User", "email", email)
			}
		}
	}

	update.Apply(user)

	if err := s.userRepo.Update(ctx, user); err != nil {
		if utils.IsDuplicateError(err) || utils.IsNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info().
		Int64("user_id", user.ID).
		Int64("actor_id", actor.UserID).
		Msg("User profile updated")

	return user.Sanitize(), nil
}
