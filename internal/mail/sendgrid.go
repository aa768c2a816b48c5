package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	apiKey string
	host   string
	from   Address
}

// NewSendGridSender creates a sender. An empty host means the public API.
func NewSendGridSender(apiKey, host string, from Address) *SendGridSender {
	if host == "" {
		host = sendGridHost
	}
	return &SendGridSender{apiKey: apiKey, host: host, from: from}
}

// Name implements Sender.
func (s *SendGridSender) Name() string { return "sendgrid" }

// Send implements Sender. 401 and 403 answers mean the key or sender
// identity is not accepted and are reported as ErrSenderRejected.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if s.apiKey == "" {
		return ErrNotConfigured
	}

	from := sgmail.NewEmail(s.from.Name, s.from.Email)
	to := sgmail.NewEmail(msg.ToName, msg.To)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	if msg.ReplyTo != "" {
		email.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}
	if msg.Category != "" {
		email.AddCategories(msg.Category)
	}

	request := sendgrid.GetRequest(s.apiKey, sendGridEndpoint, s.host)
	request.Method = rest.Post
	request.Body = sgmail.GetRequestBody(email)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return fmt.Errorf("sendgrid status %d: %s: %w", response.StatusCode, response.Body, ErrSenderRejected)
	case response.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("sendgrid status %d: %s", response.StatusCode, response.Body)
	}

	return nil
}
