// Package handlers provides HTTP request handlers for the TaskHub API.
package handlers

import (
	"context"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/service"
)

// AuthServiceInterface defines the methods required from the authentication service.
type AuthServiceInterface interface {
	// Register creates an account and returns the signed-in session.
	Register(ctx context.Context, req *models.RegisterRequest) (*service.Session, error)

	// Login verifies credentials and returns the signed-in session.
	Login(ctx context.Context, req *models.LoginRequest) (*service.Session, error)

	// Me returns the user behind a verified identity.
	Me(ctx context.Context, userID int64) (*models.User, error)
}

// PasswordResetServiceInterface defines the reset flow used by PasswordResetHandler.
type PasswordResetServiceInterface interface {
	RequestReset(ctx context.Context, email string) (*models.ResetResult, error)
	ResendReset(ctx context.Context, email string) (*models.ResetResult, error)
	VerifyReset(ctx context.Context, token, email string) (*models.ResetResult, error)
	RedeemReset(ctx context.Context, token, email, password string) (*models.ResetResult, error)
}
