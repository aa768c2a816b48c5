package handlers

import (
	"net/http"
	"time"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// AuthHandler handles registration, login and logout. The access token is
// delivered in an HttpOnly cookie.
type AuthHandler struct {
	authService  AuthServiceInterface
	cookieExpiry time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService AuthServiceInterface, cookieExpiry time.Duration, secureCookie bool) *AuthHandler {
	if cookieExpiry <= 0 {
		cookieExpiry = constants.DefaultJWTExpiry
	}
	return &AuthHandler{
		authService:  authService,
		cookieExpiry: cookieExpiry,
		secureCookie: secureCookie,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register() http.HandlerFunc {
	return Handle(Endpoint[models.RegisterRequest, *models.UserResponse]{
		Status: http.StatusCreated,
		Call: func(w http.ResponseWriter, r *http.Request, req *models.RegisterRequest) (*models.UserResponse, error) {
			session, err := h.authService.Register(r.Context(), req)
			if err != nil {
				return nil, err
			}
			auth.SetAuthCookie(w, session.Token, h.cookieExpiry, h.secureCookie)
			return &models.UserResponse{User: session.User}, nil
		},
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login() http.HandlerFunc {
	return Handle(Endpoint[models.LoginRequest, *models.UserResponse]{
		Call: func(w http.ResponseWriter, r *http.Request, req *models.LoginRequest) (*models.UserResponse, error) {
			session, err := h.authService.Login(r.Context(), req)
			if err != nil {
				return nil, err
			}
			auth.SetAuthCookie(w, session.Token, h.cookieExpiry, h.secureCookie)
			return &models.UserResponse{User: session.User}, nil
		},
	})
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout() http.HandlerFunc {
	return Handle(Endpoint[NoBody, *models.ResetResult]{
		Call: func(w http.ResponseWriter, r *http.Request, _ *NoBody) (*models.ResetResult, error) {
			auth.ClearAuthCookie(w, h.secureCookie)
			if userID, ok := auth.GetUserID(r); ok {
				utils.LogAuth(constants.LogEventLogout, userID, "", true, "")
			}
			return &models.ResetResult{OK: true}, nil
		},
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me() http.HandlerFunc {
	return Handle(Endpoint[NoBody, *models.UserResponse]{
		Call: func(w http.ResponseWriter, r *http.Request, _ *NoBody) (*models.UserResponse, error) {
			userID, ok := auth.GetUserID(r)
			if !ok {
				return nil, utils.NewUnauthorizedError(constants.MsgAuthRequired)
			}
			user, err := h.authService.Me(r.Context(), userID)
			if err != nil {
				return nil, err
			}
			return &models.UserResponse{User: user}, nil
		},
	})
}
