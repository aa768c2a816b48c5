package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository"
	"github.com/taskhub/backend/internal/utils"
)

// Session is a verified user together with the access token issued for it.
type Session struct {
	User  *models.User
	Token string
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo          repository.UserRepository
	hasher            auth.Hasher
	jwtService        *auth.JWTService
	minPasswordLength int
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	hasher auth.Hasher,
	jwtService *auth.JWTService,
	minPasswordLength int,
) *AuthService {
	if minPasswordLength <= 0 {
		minPasswordLength = constants.DefaultMinPasswordLength
	}
	return &AuthService{
		userRepo:          userRepo,
		hasher:            hasher,
		jwtService:        jwtService,
		minPasswordLength: minPasswordLength,
	}
}

// Register creates a new user account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*Session, error) {
	if err := utils.ValidatePassword(req.Password, s.minPasswordLength); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(req.Email)

	// Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, utils.NewDuplicateError("User", "email", email)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	position := req.Position
	if position == "" {
		position = constants.PositionMember
	}

	user := models.NewUser(strings.TrimSpace(req.Name), email, position)
	user.PasswordHash = passwordHash

	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent registration can win between the check and the insert
		if utils.IsDuplicateError(err) {
			return nil, utils.NewDuplicateError("User", "email", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	utils.LogAuth(constants.LogEventRegister, user.ID, user.Email, true, "")

	return s.issue(user)
}

// Login verifies credentials and issues an access token. Unknown emails and
// wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if utils.IsNotFoundError(err) {
			utils.LogAuth(constants.LogEventLogin, 0, req.Email, false, "user not found")
			return nil, utils.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		utils.LogAuth(constants.LogEventLogin, user.ID, user.Email, false, "invalid password")
		return nil, utils.NewInvalidCredentialsError()
	}

	utils.LogAuth(constants.LogEventLogin, user.ID, user.Email, true, "")

	return s.issue(user)
}

// Me returns the current user for a verified identity.
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if utils.IsNotFoundError(err) {
			return nil, utils.NewUnauthorizedError(constants.MsgAuthRequired)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.Sanitize(), nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, _, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &Session{User: user.Sanitize(), Token: token}, nil
}
