package mail

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/utils"
)

// Outcome labels reported to the observer.
const (
	OutcomeSent     = "sent"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Gateway sends through a primary transport and retries once on the
// fallback when the primary rejects the sender. Every attempt runs under
// Timeout.
type Gateway struct {
	primary  Sender
	fallback Sender
	timeout  time.Duration

	// Observe, when set, is called once per attempted transport.
	Observe func(transport, outcome string)
}

// NewGateway builds a gateway. fallback may be nil.
func NewGateway(primary, fallback Sender, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = constants.DefaultMailSendTimeout
	}
	return &Gateway{primary: primary, fallback: fallback, timeout: timeout}
}

// Send implements Mailer.
func (g *Gateway) Send(ctx context.Context, msg Message) error {
	if g.primary == nil {
		if g.fallback == nil {
			return ErrNotConfigured
		}
		return g.attempt(ctx, g.fallback, msg)
	}

	err := g.attempt(ctx, g.primary, msg)
	if err == nil {
		return nil
	}

	if g.fallback != nil && (errors.Is(err, ErrSenderRejected) || errors.Is(err, ErrNotConfigured)) {
		log.Warn().
			Err(err).
			Str("primary", g.primary.Name()).
			Str("fallback", g.fallback.Name()).
			Msg("Primary mail transport rejected the sender, using fallback")
		return g.attempt(ctx, g.fallback, msg)
	}

	return err
}

func (g *Gateway) attempt(ctx context.Context, sender Sender, msg Message) error {
	sendCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	err := sender.Send(sendCtx, msg)

	outcome := OutcomeSent
	switch {
	case errors.Is(err, ErrSenderRejected):
		outcome = OutcomeRejected
	case err != nil:
		outcome = OutcomeFailed
	}
	if g.Observe != nil {
		g.Observe(sender.Name(), outcome)
	}

	log.Debug().
		Str("transport", sender.Name()).
		Str("outcome", outcome).
		Str("category", msg.Category).
		Dur("duration", time.Since(start)).
		Msg("Mail send attempted")

	return err
}

// LogSender writes messages to the log instead of delivering them. It is
// used in development when no transport is configured.
type LogSender struct{}

// Name implements Sender.
func (LogSender) Name() string { return "log" }

// Send implements Sender. Bodies can carry reset links and are not logged.
func (LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info().
		Str("to", utils.MaskEmail(msg.To)).
		Str("subject", msg.Subject).
		Str("category", msg.Category).
		Msg("Mail delivery skipped, no transport configured")
	return nil
}

// NewFromConfig wires SendGrid as primary and SMTP as fallback from the mail
// settings. With neither configured, messages are only logged.
func NewFromConfig(cfg *config.MailSettings) *Gateway {
	from := Address{Email: cfg.From, Name: cfg.FromName}

	var primary, fallback Sender
	if cfg.SendGridAPIKey != "" {
		primary = NewSendGridSender(cfg.SendGridAPIKey, "", from)
	}
	if cfg.SMTPHost != "" {
		fallback = NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, from)
	}
	if primary == nil && fallback == nil {
		log.Warn().Msg("No mail transport configured, outgoing mail will only be logged")
		primary = LogSender{}
	}

	return NewGateway(primary, fallback, cfg.SendTimeout)
}
