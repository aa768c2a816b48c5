package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/models"
)

func TestContactHandler_Submit(t *testing.T) {
	mockService := new(MockContactService)
	handler := NewContactHandler(mockService)
	mockService.On("Submit", mock.Anything, "203.0.113.9", mock.Anything).
		Return(&models.ContactReceipt{Reference: "ref-1"}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Grace", "email": "grace@example.com", "message": "hi",
	})
	req.RemoteAddr = "203.0.113.9:51234"

	w := httptest.NewRecorder()
	handler.Submit()(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"reference":"ref-1"}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestContactHandler_SignedInSender(t *testing.T) {
	mockService := new(MockContactService)
	handler := NewContactHandler(mockService)
	mockService.On("Submit", mock.Anything, mock.Anything, mock.MatchedBy(func(req *models.ContactRequest) bool {
		return req.UserID != nil && *req.UserID == 7
	})).Return(&models.ContactReceipt{Reference: "ref-2"}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Grace", "email": "grace@example.com", "message": "hi",
	})
	req = withIdentity(req, &auth.Identity{UserID: 7, Email: "grace@example.com", Position: "member"})

	w := httptest.NewRecorder()
	handler.Submit()(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	mockService.AssertExpectations(t)
}

func TestContactHandler_RejectsUnknownFields(t *testing.T) {
	mockService := new(MockContactService)
	handler := NewContactHandler(mockService)

	w := httptest.NewRecorder()
	handler.Submit()(w, jsonRequest(t, http.MethodPost, "/api/contact", map[string]string{
		"name": "Grace", "email": "grace@example.com", "message": "hi", "admin": "true",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", ClientIP(req))

	req.RemoteAddr = "198.51.100.4"
	assert.Equal(t, "198.51.100.4", ClientIP(req))
}
