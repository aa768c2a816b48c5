package models

import (
	"time"

	"github.com/taskhub/backend/internal/constants"
)

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID        int64     `json:"id" db:"id"`
	Reference string    `json:"reference" db:"reference"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Message   string    `json:"message" db:"message"`
	ClientIP  string    `json:"-" db:"client_ip"`
	UserID    *int64    `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the database table name for the ContactMessage model.
func (c *ContactMessage) TableName() string {
	return constants.TableContactMessages
}

// ContactRequest is the body of POST /api/contact.
type ContactRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Message string `json:"message" validate:"required,notblank,max=5000"`

	// UserID is set by the handler for signed-in senders.
	UserID *int64 `json:"-"`
}

// ContactReceipt is returned after a message is accepted.
type ContactReceipt struct {
	Reference string `json:"reference"`
}
