package memory

import (
	"context"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	s *Store
}

// Create inserts a user. Emails are unique ignoring case.
func (r *UserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if sameEmail(existing.Email, user.Email) {
			return utils.NewDuplicateError("User", "email", user.Email)
		}
	}

	now := time.Now()
	user.ID = r.s.id()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

// GetByID returns a copy of the user.
func (r *UserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("User", id)
	}
	return &user, nil
}

// GetByEmail looks the user up ignoring case.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if sameEmail(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, utils.NewNotFoundError("User", utils.MaskEmail(email))
}

// Update saves the profile fields.
func (r *UserRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return utils.NewNotFoundError("User", user.ID)
	}
	for id, existing := range r.s.users {
		if id != user.ID && sameEmail(existing.Email, user.Email) {
			return utils.NewDuplicateError("User", "email", user.Email)
		}
	}

	user.UpdatedAt = time.Now()
	current.Name = user.Name
	current.Email = user.Email
	current.Position = user.Position
	current.UpdatedAt = user.UpdatedAt
	r.s.users[user.ID] = current
	return nil
}

// UpdatePassword replaces the credential hash.
func (r *UserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.setPassword(id, passwordHash)
}

// setPassword must be called with mu held.
func (s *Store) setPassword(id int64, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return utils.NewNotFoundError("User", id)
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	s.users[id] = user
	return nil
}

// ExistsByEmail reports whether the email is taken.
func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
