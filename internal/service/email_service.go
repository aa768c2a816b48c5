package service

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/mail"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// Mail categories, used for provider statistics.
const (
	categoryPasswordReset = "password_reset"
	categoryContact       = "contact"
)

// EmailService formats the application's emails and hands them to a mailer.
type EmailService struct {
	mailer   mail.Mailer
	resetURL string
	appName  string
}

// NewEmailService creates a new EmailService. resetURL is a template whose
// first %s receives the raw token and the optional second %s the email.
func NewEmailService(mailer mail.Mailer, resetURL, appName string) *EmailService {
	if resetURL == "" {
		resetURL = constants.DefaultResetURL
	}
	if appName == "" {
		appName = constants.DefaultMailFromName
	}
	return &EmailService{mailer: mailer, resetURL: resetURL, appName: appName}
}

// ResetLink builds the redemption URL for a raw token.
func (s *EmailService) ResetLink(token, email string) string {
	switch strings.Count(s.resetURL, "%s") {
	case 0:
		return s.resetURL + url.QueryEscape(token)
	case 1:
		return fmt.Sprintf(s.resetURL, url.QueryEscape(token))
	default:
		return fmt.Sprintf(s.resetURL, url.QueryEscape(token), url.QueryEscape(email))
	}
}

// SendPasswordResetEmail sends a password reset email to the specified user.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, token string) error {
	link := s.ResetLink(token, toEmail)

	msg := mail.Message{
		To:       toEmail,
		ToName:   toName,
		Subject:  fmt.Sprintf("%s password reset", s.appName),
		Text:     fmt.Sprintf("Please use the following link to reset your password: %s\n\nIf you did not ask for a reset you can ignore this email.", link),
		HTML:     fmt.Sprintf("<strong>Please use the following link to reset your password:</strong> <a href=\"%s\">Reset Password</a>", html.EscapeString(link)),
		Category: categoryPasswordReset,
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	log.Info().
		Str("to", utils.MaskEmail(toEmail)).
		Msg("Password reset email sent")
	return nil
}

// SendContactMessage forwards a contact form submission to recipient. Replies
// go to the submitter.
func (s *EmailService) SendContactMessage(ctx context.Context, recipient string, contact *models.ContactMessage) error {
	msg := mail.Message{
		To:      recipient,
		Subject: fmt.Sprintf("[%s] Contact %s from %s", s.appName, contact.Reference, contact.Name),
		Text: fmt.Sprintf("From: %s <%s>\nReference: %s\n\n%s",
			contact.Name, contact.Email, contact.Reference, contact.Message),
		ReplyTo:  contact.Email,
		Category: categoryContact,
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to forward contact message: %w", err)
	}
	return nil
}
