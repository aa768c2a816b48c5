package handlers

import (
	"net"
	"net/http"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/models"
)

// ContactHandler accepts contact form submissions.
type ContactHandler struct {
	contactService ContactServiceInterface
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contactService ContactServiceInterface) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Submit handles POST /api/contact. Signed-in senders are linked to their
// account.
func (h *ContactHandler) Submit() http.HandlerFunc {
	return Handle(Endpoint[models.ContactRequest, *models.ContactReceipt]{
		Status: http.StatusAccepted,
		Call: func(_ http.ResponseWriter, r *http.Request, req *models.ContactRequest) (*models.ContactReceipt, error) {
			if userID, ok := auth.GetUserID(r); ok {
				req.UserID = &userID
			}
			return h.contactService.Submit(r.Context(), ClientIP(r), req)
		},
	})
}

// ClientIP returns the host part of r.RemoteAddr. Behind a proxy the
// RealIP middleware has already rewritten RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
