package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/service"
)

// MockAuthService is a mock implementation of AuthServiceInterface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (*service.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*service.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockPasswordResetService is a mock implementation of PasswordResetServiceInterface
type MockPasswordResetService struct {
	mock.Mock
}

func (m *MockPasswordResetService) result(args mock.Arguments) (*models.ResetResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResetResult), args.Error(1)
}

func (m *MockPasswordResetService) RequestReset(ctx context.Context, email string) (*models.ResetResult, error) {
	return m.result(m.Called(ctx, email))
}

func (m *MockPasswordResetService) ResendReset(ctx context.Context, email string) (*models.ResetResult, error) {
	return m.result(m.Called(ctx, email))
}

func (m *MockPasswordResetService) VerifyReset(ctx context.Context, token, email string) (*models.ResetResult, error) {
	return m.result(m.Called(ctx, token, email))
}

func (m *MockPasswordResetService) RedeemReset(ctx context.Context, token, email, password string) (*models.ResetResult, error) {
	return m.result(m.Called(ctx, token, email, password))
}

// MockUserService is a mock implementation of UserServiceInterface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) UpdateUser(ctx context.Context, actor *auth.Identity, update *models.UserUpdateRequest) (*models.User, error) {
	args := m.Called(ctx, actor, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockContactService is a mock implementation of ContactServiceInterface
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Submit(ctx context.Context, clientIP string, req *models.ContactRequest) (*models.ContactReceipt, error) {
	args := m.Called(ctx, clientIP, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactReceipt), args.Error(1)
}

// Helper functions for testing

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withIdentity(r *http.Request, id *auth.Identity) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), id))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := decodeBody(t, w)
	require.Equal(t, false, body["success"])
	return body["error"].(map[string]interface{})
}
