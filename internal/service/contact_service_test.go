package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository/memory"
)

func TestContactService_Submit(t *testing.T) {
	store := memory.NewStore()
	mailer := &recordingMailer{}
	svc := NewContactService(store.Contacts(), NewEmailService(mailer, "", "TaskHub"), "ops@example.com")

	receipt, err := svc.Submit(context.Background(), "203.0.113.7", &models.ContactRequest{
		Name:    " Grace ",
		Email:   "grace@example.com",
		Message: "hello there",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(receipt.Reference)
	assert.NoError(t, err)

	saved := store.Contacts().All()
	require.Len(t, saved, 1)
	assert.Equal(t, "Grace", saved[0].Name)
	assert.Equal(t, "203.0.113.7", saved[0].ClientIP)
	assert.Equal(t, receipt.Reference, saved[0].Reference)
	assert.Nil(t, saved[0].UserID)

	require.Equal(t, 1, mailer.count())
	assert.Equal(t, "ops@example.com", mailer.last().To)
}

func TestContactService_MailFailureStillStores(t *testing.T) {
	store := memory.NewStore()
	mailer := &recordingMailer{err: errors.New("down")}
	svc := NewContactService(store.Contacts(), NewEmailService(mailer, "", ""), "ops@example.com")

	_, err := svc.Submit(context.Background(), "203.0.113.7", &models.ContactRequest{Name: "G", Email: "g@example.com", Message: "m"})
	require.NoError(t, err)
	assert.Len(t, store.Contacts().All(), 1)
}

func TestContactService_NoRecipient(t *testing.T) {
	store := memory.NewStore()
	mailer := &recordingMailer{}
	svc := NewContactService(store.Contacts(), NewEmailService(mailer, "", ""), "")

	_, err := svc.Submit(context.Background(), "", &models.ContactRequest{Name: "G", Email: "g@example.com", Message: "m"})
	require.NoError(t, err)
	assert.Zero(t, mailer.count())
}

func TestContactService_LinksSignedInSender(t *testing.T) {
	store := memory.NewStore()
	svc := NewContactService(store.Contacts(), NewEmailService(&recordingMailer{}, "", ""), "")

	userID := int64(42)
	_, err := svc.Submit(context.Background(), "203.0.113.7", &models.ContactRequest{Name: "G", Email: "g@example.com", Message: "m", UserID: &userID})
	require.NoError(t, err)

	saved := store.Contacts().All()
	require.Len(t, saved, 1)
	require.NotNil(t, saved[0].UserID)
	assert.Equal(t, int64(42), *saved[0].UserID)
}
