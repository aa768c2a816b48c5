package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/service"
	"github.com/taskhub/backend/internal/utils"
)

func setupAuthTest() (*AuthHandler, *MockAuthService) {
	mockService := new(MockAuthService)
	return NewAuthHandler(mockService, time.Hour, false), mockService
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	handler, mockService := setupAuthTest()

	user := &models.User{ID: 1, Name: "Ada", Email: "ada@example.com", Position: "member"}
	mockService.On("Register", mock.Anything, mock.MatchedBy(func(req *models.RegisterRequest) bool {
		return req.Email == "ada@example.com"
	})).Return(&service.Session{User: user, Token: "jwt-token"}, nil)

	w := httptest.NewRecorder()
	handler.Register()(w, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret1", "position": "member",
	}))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ada@example.com", body["user"].(map[string]interface{})["email"])
	assert.NotContains(t, w.Body.String(), "password")

	cookie := findCookie(w, constants.AuthTokenCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, "jwt-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	mockService.AssertExpectations(t)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	handler, mockService := setupAuthTest()

	w := httptest.NewRecorder()
	handler.Register()(w, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ada", "email": "not-an-email", "password": "secret1",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constants.CodeValidationError, errorOf(t, w)["code"])
	mockService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestAuthHandler_RegisterConflict(t *testing.T) {
	handler, mockService := setupAuthTest()
	mockService.On("Register", mock.Anything, mock.Anything).
		Return(nil, utils.NewDuplicateError("User", "email", "ada@example.com"))

	w := httptest.NewRecorder()
	handler.Register()(w, jsonRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret1",
	}))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Nil(t, findCookie(w, constants.AuthTokenCookie))
}

func TestAuthHandler_LoginInvalidCredentials(t *testing.T) {
	handler, mockService := setupAuthTest()
	mockService.On("Login", mock.Anything, mock.Anything).Return(nil, utils.NewInvalidCredentialsError())

	w := httptest.NewRecorder()
	handler.Login()(w, jsonRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, constants.CodeInvalidCredentials, errorOf(t, w)["code"])
}

func TestAuthHandler_Logout(t *testing.T) {
	handler, _ := setupAuthTest()

	w := httptest.NewRecorder()
	handler.Logout()(w, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	cookie := findCookie(w, constants.AuthTokenCookie)
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)
}

func TestAuthHandler_Me(t *testing.T) {
	handler, mockService := setupAuthTest()
	mockService.On("Me", mock.Anything, int64(7)).Return(&models.User{ID: 7, Email: "ada@example.com"}, nil)

	w := httptest.NewRecorder()
	handler.Me()(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), &auth.Identity{UserID: 7})
	handler.Me()(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)
}
