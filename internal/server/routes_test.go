package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
)

func (e *testEnv) tokenFor(t *testing.T, position string) *http.Cookie {
	t.Helper()
	user := &models.User{
		Name:         position,
		Email:        position + "@taskhub.test",
		PasswordHash: "unused",
		Position:     position,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))

	token, _, err := e.srv.authProviders.JWTService.GenerateAccessToken(user)
	require.NoError(t, err)
	return &http.Cookie{Name: constants.AuthTokenCookie, Value: token}
}

func TestRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	protected := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPost, "/api/user/update"},
		{http.MethodGet, "/api/projects"},
		{http.MethodPost, "/api/projects"},
		{http.MethodGet, "/api/projects/1"},
		{http.MethodDelete, "/api/projects/1/tasks/2"},
		{http.MethodGet, "/api/routes"},
	}

	for _, tc := range protected {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := env.do(t, tc.method, tc.path, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthSessionRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Grace", "email": "grace@example.com", "password": "hopper1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	rec = env.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "grace@example.com", user["email"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", sessionCookie(t, rec).Value)
}

func TestProjectRoutes(t *testing.T) {
	env := newTestEnv(t)
	owner := env.tokenFor(t, constants.PositionManager)
	stranger := env.tokenFor(t, constants.PositionDeveloper)

	rec := env.do(t, http.MethodPost, "/api/projects", map[string]string{"name": "Launch"}, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode(t, rec)["data"].(map[string]interface{})
	projectPath := fmt.Sprintf("/api/projects/%d", int64(project["id"].(float64)))

	rec = env.do(t, http.MethodPost, projectPath+"/tasks", map[string]string{"title": "Write docs"}, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, constants.TaskStatusTodo, task["status"])

	rec = env.do(t, http.MethodGet, projectPath+"/tasks", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	listing := decode(t, rec)
	assert.Len(t, listing["data"], 1)
	assert.Equal(t, float64(1), listing["meta"].(map[string]interface{})["total_items"])

	rec = env.do(t, http.MethodGet, projectPath, nil, stranger)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, projectPath, nil, owner)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, projectPath, nil, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactRateLimit(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]string{"name": "Lin", "email": "lin@example.com", "message": "Hello there"}

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/contact", body)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/api/contact", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))

	assert.Len(t, env.store.Contacts().All(), 2)
	require.Len(t, env.outbox.messages(), 2)
	assert.Equal(t, "support@taskhub.test", env.outbox.messages()[0].To)

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `taskhub_rate_limited_total{scope="contact"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/contact"`)
}

func TestContactLinksSignedInSender(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.tokenFor(t, constants.PositionDesigner)
	body := map[string]string{"name": "Lin", "email": "lin@example.com", "message": "Hello there"}

	rec := env.do(t, http.MethodPost, "/api/contact", body, cookie)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/contact", body, &http.Cookie{Name: constants.AuthTokenCookie, Value: "garbage"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	saved := env.store.Contacts().All()
	require.Len(t, saved, 2)
	require.NotNil(t, saved[0].UserID)
	assert.Nil(t, saved[1].UserID)
}

func TestForgotLimiterIsSeparateFromContact(t *testing.T) {
	env := newTestEnv(t)
	contact := map[string]string{"name": "Lin", "email": "lin@example.com", "message": "Hello"}
	for i := 0; i < 3; i++ {
		env.do(t, http.MethodPost, "/api/contact", contact)
	}

	rec := env.do(t, http.MethodPost, "/api/forgot", map[string]string{"email": "lin@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsCanBeDisabled(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.AppConfig) { cfg.Metrics.Enabled = false })

	rec := env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAPIRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/routes", nil, env.tokenFor(t, constants.PositionMember))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/routes", nil, env.tokenFor(t, constants.PositionAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	raw := decode(t, rec)["data"].(map[string]interface{})["routes"].([]interface{})
	routes := make([]string, 0, len(raw))
	for _, r := range raw {
		routes = append(routes, r.(string))
	}
	for _, want := range []string{
		"POST " + constants.AuthRegisterPath,
		"POST " + constants.AuthLoginPath,
		"POST " + constants.AuthLogoutPath,
		"GET " + constants.AuthMePath,
		"POST " + constants.ForgotPath,
		"POST " + constants.ForgotResendPath,
		"POST " + constants.ResetPath,
		"POST " + constants.ResetVerifyPath,
		"POST " + constants.UserUpdatePath,
		"POST " + constants.ContactPath,
		"GET " + constants.ProjectsBasePath,
		"PUT " + constants.ProjectDetailPath,
		"POST " + constants.TasksBasePath,
		"DELETE " + constants.TaskDetailPath,
		"GET " + constants.HealthPath,
	} {
		assert.Contains(t, routes, want)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	rec = env.do(t, http.MethodGet, "/api/forgot", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCorsMiddleware(t *testing.T) {
	handler := corsMiddleware([]string{"https://app.test"}, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{"allowed simple request", http.MethodGet, "https://app.test", false, http.StatusTeapot, "https://app.test"},
		{"allowed preflight", http.MethodOptions, "https://app.test", true, http.StatusNoContent, "https://app.test"},
		{"foreign origin", http.MethodGet, "https://evil.test", false, http.StatusTeapot, ""},
		{"foreign preflight falls through", http.MethodOptions, "https://evil.test", true, http.StatusTeapot, ""},
		{"no origin", http.MethodGet, "", false, http.StatusTeapot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/projects", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantOrigin != "" {
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			}
			if tt.preflight && tt.wantStatus == http.StatusNoContent {
				assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "DELETE"))
			}
		})
	}
}

func TestCorsWildcard(t *testing.T) {
	handler := corsMiddleware([]string{"*"}, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://anywhere.test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://anywhere.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}
