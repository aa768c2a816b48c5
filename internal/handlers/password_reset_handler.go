package handlers

import (
	"net/http"

	"github.com/taskhub/backend/internal/models"
)

// PasswordResetHandler exposes the password reset flow.
type PasswordResetHandler struct {
	resetService PasswordResetServiceInterface
}

// NewPasswordResetHandler creates a new PasswordResetHandler.
func NewPasswordResetHandler(resetService PasswordResetServiceInterface) *PasswordResetHandler {
	return &PasswordResetHandler{resetService: resetService}
}

// ForgotPassword handles POST /api/forgot.
func (h *PasswordResetHandler) ForgotPassword() http.HandlerFunc {
	return Handle(Endpoint[models.ForgotRequest, *models.ResetResult]{
		Call: func(_ http.ResponseWriter, r *http.Request, req *models.ForgotRequest) (*models.ResetResult, error) {
			return h.resetService.RequestReset(r.Context(), req.Email)
		},
	})
}

// ResendResetEmail handles POST /api/forgot/resend.
func (h *PasswordResetHandler) ResendResetEmail() http.HandlerFunc {
	return Handle(Endpoint[models.ForgotRequest, *models.ResetResult]{
		Call: func(_ http.ResponseWriter, r *http.Request, req *models.ForgotRequest) (*models.ResetResult, error) {
			return h.resetService.ResendReset(r.Context(), req.Email)
		},
	})
}

// VerifyResetToken handles POST /api/reset/verify.
func (h *PasswordResetHandler) VerifyResetToken() http.HandlerFunc {
	return Handle(Endpoint[models.VerifyResetRequest, *models.ResetResult]{
		Call: func(_ http.ResponseWriter, r *http.Request, req *models.VerifyResetRequest) (*models.ResetResult, error) {
			return h.resetService.VerifyReset(r.Context(), req.Token, req.Email)
		},
	})
}

// ResetPassword handles POST /api/reset.
func (h *PasswordResetHandler) ResetPassword() http.HandlerFunc {
	return Handle(Endpoint[models.ResetRequest, *models.ResetResult]{
		Call: func(_ http.ResponseWriter, r *http.Request, req *models.ResetRequest) (*models.ResetResult, error) {
			return h.resetService.RedeemReset(r.Context(), req.Token, req.Email, req.Password)
		},
	})
}
