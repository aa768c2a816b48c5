// Package mail is the notification gateway. Messages go out through SendGrid
// and fall back to SMTP when SendGrid rejects the sender configuration.
package mail

import (
	"context"
	"errors"
)

var (
	// ErrSenderRejected marks a provider refusal caused by sender or domain
	// configuration rather than a transient fault.
	ErrSenderRejected = errors.New("sender rejected by mail provider")

	// ErrNotConfigured is returned when no transport can be used.
	ErrNotConfigured = errors.New("mail transport not configured")
)

// Message is one outgoing email.
type Message struct {
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
	ReplyTo  string
	Category string
}

// Sender delivers a message over one transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// Mailer is what the services depend on.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Address identifies the envelope sender.
type Address struct {
	Email string
	Name  string
}
