// Package auth provides password hashing, reset token minting, session
// tokens and the middleware that authenticates requests with them.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/utils"
)

// Identity is the authenticated caller derived from a verified credential.
type Identity struct {
	UserID   int64
	Email    string
	Position string
}

// AuthProvider defines methods for different authentication mechanisms.
type AuthProvider interface {
	// Authenticate checks the request and returns the caller if valid.
	Authenticate(r *http.Request) (*Identity, error)
}

// JWTAuthProvider implements JWT-based authentication.
type JWTAuthProvider struct {
	jwtService JWTValidator
}

// NewJWTAuthProvider creates a new JWTAuthProvider with the specified JWT validator.
func NewJWTAuthProvider(jwtService JWTValidator) *JWTAuthProvider {
	return &JWTAuthProvider{
		jwtService: jwtService,
	}
}

// Authenticate implements the AuthProvider interface for JWT authentication.
// It reads the token from the Authorization header, falling back to the
// session cookie.
func (p *JWTAuthProvider) Authenticate(r *http.Request) (*Identity, error) {
	authHeader := r.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		cookie, err := r.Cookie(constants.AuthTokenCookie)
		if err != nil || cookie.Value == "" {
			return nil, utils.ErrUnauthorized
		}
		authHeader = constants.BearerTokenPrefix + cookie.Value
	}

	if !strings.HasPrefix(authHeader, constants.BearerTokenPrefix) {
		return nil, utils.ErrUnauthorized
	}

	token := strings.TrimPrefix(authHeader, constants.BearerTokenPrefix)

	claims, err := p.jwtService.ValidateToken(token, constants.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	return &Identity{UserID: claims.UserID, Email: claims.Email, Position: claims.Position}, nil
}

func withRequestID(r *http.Request) (context.Context, string) {
	requestID := r.Header.Get(constants.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
		r.Header.Set(constants.HeaderXRequestID, requestID)
	}
	return context.WithValue(r.Context(), constants.RequestIDContextKey, requestID), requestID
}

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	ctx = context.WithValue(ctx, constants.UserIDContextKey, id.UserID)
	ctx = context.WithValue(ctx, constants.EmailContextKey, id.Email)
	return context.WithValue(ctx, constants.PositionContextKey, id.Position)
}

// AuthMiddleware wraps an HTTP handler with authentication.
// It tries each provider and lets the request through on the first success.
func AuthMiddleware(next http.Handler, providers ...AuthProvider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, requestID := withRequestID(r)

		var lastErr error = utils.ErrUnauthorized
		for _, provider := range providers {
			id, err := provider.Authenticate(r)
			if err == nil {
				log.Debug().
					Int64("user_id", id.UserID).
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("User authenticated")

				next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
				return
			}
			lastErr = err
		}

		log.Info().
			Err(lastErr).
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Authentication failed")

		var appErr *utils.AppError
		if errors.As(lastErr, &appErr) {
			utils.ErrorFromAppError(w, appErr)
		} else {
			utils.Unauthorized(w, constants.MsgAuthRequired)
		}
	})
}

// RequireAuth is a middleware that requires authentication.
func RequireAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return AuthMiddleware(next, providers...)
	}
}

// OptionalAuth attempts authentication but continues even if it fails.
func OptionalAuth(providers ...AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _ := withRequestID(r)
			for _, provider := range providers {
				if id, err := provider.Authenticate(r); err == nil {
					ctx = WithIdentity(ctx, id)
					break
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the user ID from the request context.
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(constants.UserIDContextKey).(int64)
	return userID, ok
}

// GetEmail extracts the email from the request context.
func GetEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(constants.EmailContextKey).(string)
	return email, ok
}

// GetPosition extracts the caller's position from the request context.
func GetPosition(r *http.Request) (string, bool) {
	position, ok := r.Context().Value(constants.PositionContextKey).(string)
	return position, ok
}

// GetIdentity rebuilds the caller from the request context.
func GetIdentity(r *http.Request) (*Identity, bool) {
	userID, ok := GetUserID(r)
	if !ok {
		return nil, false
	}
	email, _ := GetEmail(r)
	position, _ := GetPosition(r)
	return &Identity{UserID: userID, Email: email, Position: position}, true
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) (string, bool) {
	requestID, ok := r.Context().Value(constants.RequestIDContextKey).(string)
	return requestID, ok
}

// IsAuthenticated checks if the request is authenticated.
func IsAuthenticated(r *http.Request) bool {
	_, ok := GetUserID(r)
	return ok
}
