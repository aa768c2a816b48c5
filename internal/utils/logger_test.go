package utils_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/utils"
)

// captureLogs redirects the global logger into a buffer for the duration of fn.
func captureLogs(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	original := log.Logger
	originalLevel := zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer func() {
		log.Logger = original
		zerolog.SetGlobalLevel(originalLevel)
	}()

	fn()
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	originalLevel := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(originalLevel)

	cfg := &config.AppConfig{
		App:     config.AppSettings{Name: "taskhub", Version: "1.0.0", Environment: "testing"},
		Logging: config.LoggingSettings{Level: "warn", Format: "json"},
	}

	utils.InitLogger(cfg)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	cfg.Logging.Level = "nonsense"
	utils.InitLogger(cfg)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestLogDBQueryRedactsSensitiveArgs(t *testing.T) {
	out := captureLogs(t, func() {
		utils.LogDBQuery("UPDATE users SET password_hash = $1 WHERE id = $2", []interface{}{"$2a$10$secret", int64(4)}, time.Millisecond, nil)
	})

	assert.NotContains(t, out, "$2a$10$secret")
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, `"level":"debug"`)

	out = captureLogs(t, func() {
		utils.LogDBQuery("SELECT id FROM projects WHERE name = $1", []interface{}{"roadmap"}, time.Millisecond, errors.New("boom"))
	})
	assert.Contains(t, out, "roadmap")
	assert.Contains(t, out, `"level":"error"`)
}

func TestLogHTTPRequestLevels(t *testing.T) {
	tests := []struct {
		status int
		path   string
		level  string
	}{
		{200, "/api/projects", "info"},
		{404, "/api/projects/9", "warn"},
		{503, "/api/forgot", "error"},
		{200, "/static/app.js", "debug"},
	}

	for _, tt := range tests {
		out := captureLogs(t, func() {
			utils.LogHTTPRequest("req-1", "GET", tt.path, "127.0.0.1", "test", tt.status, time.Millisecond)
		})
		assert.Contains(t, out, `"level":"`+tt.level+`"`, tt.path)
	}
}

func TestLogAuthMasksEmail(t *testing.T) {
	out := captureLogs(t, func() {
		utils.LogAuth("login", 12, "alice@example.com", false, "bad password")
	})

	assert.Contains(t, out, "a***e@example.com")
	assert.NotContains(t, out, "alice@example.com")
	assert.Contains(t, out, "bad password")
	assert.Contains(t, out, `"level":"warn"`)
}

func TestLogPanic(t *testing.T) {
	out := captureLogs(t, func() {
		utils.LogPanic(errors.New("boom"), []byte("goroutine 1"), "req-1", "POST", "/api/reset")
	})

	assert.Contains(t, out, `"panic":"boom"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"path":"/api/reset"`)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	original := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = original }()

	logger := utils.RequestLogger("req-9", "42", "POST", "/api/reset")
	logger.Info().Msg("hello")

	line := buf.String()
	assert.True(t, strings.Contains(line, `"request_id":"req-9"`))
	assert.True(t, strings.Contains(line, `"user_id":"42"`))
}
