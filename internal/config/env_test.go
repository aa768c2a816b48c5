package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test-env")
	t.Setenv("APP_NAME", "test-app")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "test-db-host")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("RESET_RESEND_COOLDOWN", "90s")
	t.Setenv("CONTACT_MAX_REQUESTS", "7")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("ALLOWED_ORIGINS", "https://example.com, https://api.example.com")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")
	t.Setenv("HASH_ITERATIONS", "2")

	config := &AppConfig{}
	if err := LoadEnv(config); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if config.App.Environment != "test-env" || config.App.Name != "test-app" {
		t.Errorf("App = %+v", config.App)
	}
	if config.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", config.Server.Port)
	}
	if config.Database.Host != "test-db-host" {
		t.Errorf("Database.Host = %s, want test-db-host", config.Database.Host)
	}
	if config.JWT.Expiry != 30*time.Minute {
		t.Errorf("JWT.Expiry = %v, want 30m", config.JWT.Expiry)
	}
	if config.PasswordReset.ResendCooldown != 90*time.Second {
		t.Errorf("PasswordReset.ResendCooldown = %v, want 90s", config.PasswordReset.ResendCooldown)
	}
	if config.Contact.MaxRequests != 7 {
		t.Errorf("Contact.MaxRequests = %d, want 7", config.Contact.MaxRequests)
	}
	if config.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %s, want localhost:6379", config.Redis.Addr)
	}
	if want := []string{"https://example.com", "https://api.example.com"}; !reflect.DeepEqual(config.CORS.AllowedOrigins, want) {
		t.Errorf("CORS.AllowedOrigins = %v, want %v", config.CORS.AllowedOrigins, want)
	}
	if !config.CORS.AllowCredentials {
		t.Error("CORS.AllowCredentials = false, want true")
	}
	if config.PasswordHash.Iterations != 2 {
		t.Errorf("PasswordHash.Iterations = %d, want 2", config.PasswordHash.Iterations)
	}
}

func TestApplyEnv(t *testing.T) {
	type section struct {
		Secret   string        `env:"TEST_SECRET"`
		Limit    int           `env:"TEST_LIMIT"`
		Enabled  bool          `env:"TEST_ENABLED"`
		Window   time.Duration `env:"TEST_WINDOW"`
		Ratio    float64       `env:"TEST_RATIO"`
		Origins  []string      `env:"TEST_ORIGINS"`
		Untagged string
	}

	t.Setenv("TEST_SECRET", "s3cret")
	t.Setenv("TEST_LIMIT", "42")
	t.Setenv("TEST_ENABLED", "true")
	t.Setenv("TEST_WINDOW", "15m")
	t.Setenv("TEST_RATIO", "0.5")
	t.Setenv("TEST_ORIGINS", "a,b")

	s := &section{Untagged: "kept"}
	applied, err := applyEnv(s)
	if err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}

	want := section{Secret: "s3cret", Limit: 42, Enabled: true, Window: 15 * time.Minute, Ratio: 0.5, Origins: []string{"a", "b"}, Untagged: "kept"}
	if !reflect.DeepEqual(*s, want) {
		t.Errorf("applyEnv() = %+v, want %+v", *s, want)
	}
	if len(applied) != 6 {
		t.Errorf("applied = %v, want 6 names", applied)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	tests := []struct {
		name   string
		target interface{}
		value  string
	}{
		{"Invalid int", &struct {
			V int `env:"TEST_VALUE"`
		}{}, "not-an-int"},
		{"Int overflow", &struct {
			V int8 `env:"TEST_VALUE"`
		}{}, "300"},
		{"Invalid bool", &struct {
			V bool `env:"TEST_VALUE"`
		}{}, "not-a-bool"},
		{"Invalid duration", &struct {
			V time.Duration `env:"TEST_VALUE"`
		}{}, "not-a-duration"},
		{"Invalid float", &struct {
			V float64 `env:"TEST_VALUE"`
		}{}, "not-a-float"},
		{"Unsupported type", &struct {
			V map[string]string `env:"TEST_VALUE"`
		}{}, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_VALUE", tt.value)

			_, err := applyEnv(tt.target)
			if err == nil {
				t.Fatal("applyEnv() error = nil, want error")
			}
			if !strings.HasPrefix(err.Error(), "TEST_VALUE: ") {
				t.Errorf("error %q does not name the variable", err)
			}
		})
	}
}
