package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/taskhub/backend/internal/database"
	"github.com/taskhub/backend/internal/models"
)

// ContactRepository persists contact form submissions.
type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
}

// SQLContactRepository is the database/sql implementation of ContactRepository.
type SQLContactRepository struct {
	crud *database.CRUD
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *database.Pool) ContactRepository {
	return &SQLContactRepository{crud: database.NewCRUD(db)}
}

// Create stores a message
func (r *SQLContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := r.crud.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}
