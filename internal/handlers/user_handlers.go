package handlers

import (
	"net/http"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// UserHandler handles profile updates.
type UserHandler struct {
	userService UserServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateUser handles POST /api/user/update.
func (h *UserHandler) UpdateUser() http.HandlerFunc {
	return Handle(Endpoint[models.UserUpdateRequest, *models.UserResponse]{
		Call: func(_ http.ResponseWriter, r *http.Request, req *models.UserUpdateRequest) (*models.UserResponse, error) {
			actor, ok := auth.GetIdentity(r)
			if !ok {
				return nil, utils.NewUnauthorizedError(constants.MsgAuthRequired)
			}
			user, err := h.userService.UpdateUser(r.Context(), actor, req)
			if err != nil {
				return nil, err
			}
			return &models.UserResponse{User: user}, nil
		},
	})
}
