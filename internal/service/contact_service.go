package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository"
)

// ContactService stores contact form messages and forwards them by email.
// Rate limiting happens in front of it, per client IP.
type ContactService struct {
	repo      repository.ContactRepository
	email     *EmailService
	recipient string
}

// NewContactService creates a new ContactService. An empty recipient keeps
// messages in the datastore only.
func NewContactService(repo repository.ContactRepository, email *EmailService, recipient string) *ContactService {
	return &ContactService{repo: repo, email: email, recipient: recipient}
}

// Submit persists the message and forwards it. Delivery failures are logged;
// the message is already stored at that point.
func (s *ContactService) Submit(ctx context.Context, clientIP string, req *models.ContactRequest) (*models.ContactReceipt, error) {
	msg := &models.ContactMessage{
		Reference: uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Message:   strings.TrimSpace(req.Message),
		ClientIP:  clientIP,
		UserID:    req.UserID,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store contact message: %w", err)
	}

	if s.recipient != "" {
		if err := s.email.SendContactMessage(ctx, s.recipient, msg); err != nil {
			log.Warn().
				Err(err).
				Str("reference", msg.Reference).
				Msg("Contact message stored but not forwarded")
		}
	}

	return &models.ContactReceipt{Reference: msg.Reference}, nil
}
