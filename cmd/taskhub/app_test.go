package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/mail"
	"github.com/taskhub/backend/internal/repository/memory"
	"github.com/taskhub/backend/internal/server"
	"github.com/taskhub/backend/internal/session"
)

type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last() mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent[len(o.sent)-1]
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App:          config.AppSettings{Environment: constants.EnvTesting, Name: "taskhub", Version: "test"},
		Server:       config.ServerSettings{Host: "127.0.0.1", ReadTimeout: time.Second, WriteTimeout: time.Second, ShutdownTimeout: time.Second},
		Database:     config.DatabaseSettings{Driver: constants.DriverMemory},
		JWT:          config.JWTSettings{Secret: "cli-secret", Expiry: time.Hour, Issuer: "taskhub-test"},
		PasswordHash: config.HashSettings{Algorithm: constants.HashAlgorithmBcrypt, Cost: bcrypt.MinCost},
		PasswordReset: config.PasswordResetSettings{
			TokenExpiry:       time.Hour,
			ResendCooldown:    30 * time.Second,
			ResetURL:          "https://app.test/reset?token=%s&email=%s",
			MinPasswordLength: 6,
		},
		Mail:    config.MailSettings{From: "no-reply@taskhub.test", FromName: "TaskHub"},
		Contact: config.ContactSettings{Window: time.Hour, MaxRequests: 50, Recipient: "support@taskhub.test"},
	}
}

type harness struct {
	url         string
	sessionFile string
	srv         *server.Server
	outbox      *outbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	repos := server.MemoryRepositories(store)
	box := &outbox{}

	srv, err := server.New(testConfig(), server.Options{Repositories: &repos, Mailer: box})
	require.NoError(t, err)

	api := httptest.NewServer(srv.GetRouter())
	t.Cleanup(api.Close)

	return &harness{
		url:         api.URL,
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
		srv:         srv,
		outbox:      box,
	}
}

// mail waits for background reset emails and returns the outbox.
func (h *harness) mail(t *testing.T) *outbox {
	t.Helper()
	require.NoError(t, h.srv.DrainMail(context.Background()))
	return h.outbox
}

// run executes one CLI invocation. passwords answer the no-echo prompts in order.
func (h *harness) run(t *testing.T, stdin string, passwords []string, args ...string) (string, error) {
	t.Helper()

	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, errors.New("no password queued")
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}

	var out, errOut bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out, &errOut)
	argv := append([]string{"taskhub", "--server", h.url, "--session-file", h.sessionFile}, args...)
	err := app.Run(argv)
	return out.String(), err
}

var linkPattern = regexp.MustCompile(`https://app\.test/reset\?\S+`)

func TestCLISessionLifecycle(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", nil, "whoami", "/projects")
	require.NoError(t, err)
	assert.Contains(t, out, "State: anonymous")
	assert.Contains(t, out, "Route /projects: redirect to /login")

	out, err = h.run(t, "Ada\n", []string{"lovelace", "lovelace"}, "register", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ada <ada@example.com> (member)")

	snap, err := session.NewFileStorage(h.sessionFile).Load()
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Token)

	out, err = h.run(t, "", nil, "whoami", "--refresh", "/login")
	require.NoError(t, err)
	assert.Contains(t, out, "State: authenticated")
	assert.Contains(t, out, "Route /login: redirect to /dashboard")

	out, err = h.run(t, "", nil, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	out, err = h.run(t, "", nil, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	_, err = h.run(t, "", []string{"wrong-password"}, "login", "-e", "ada@example.com")
	require.Error(t, err)

	out, err = h.run(t, "ada@example.com\n", []string{"lovelace"}, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ada")
}

func TestCLILoginRejectsShortPasswordLocally(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", []string{"abc"}, "login", "--email", "ada@example.com")
	assert.ErrorIs(t, err, session.ErrPasswordTooShort)
}

func TestCLIPasswordReset(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "Ada\n", []string{"lovelace", "lovelace"}, "register", "--email", "ada@example.com")
	require.NoError(t, err)
	_, err = h.run(t, "", nil, "logout")
	require.NoError(t, err)

	out, err := h.run(t, "", nil, "forgot", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "a reset link is on its way")
	require.Equal(t, 1, h.mail(t).count())

	out, err = h.run(t, "", nil, "resend", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "sent recently")
	assert.Equal(t, 1, h.mail(t).count())

	link := linkPattern.FindString(h.mail(t).last().Text)
	require.NotEmpty(t, link)

	_, err = h.run(t, "", []string{"analytical", "different"}, "reset", "--link", link)
	assert.EqualError(t, err, "passwords do not match")

	out, err = h.run(t, "", []string{"analytical", "analytical"}, "reset", "--link", link)
	require.NoError(t, err)
	assert.Contains(t, out, "Password updated")

	_, err = h.run(t, "", []string{"again-new", "again-new"}, "reset", "--link", link)
	assert.EqualError(t, err, "token already used")

	out, err = h.run(t, "", []string{"analytical"}, "login", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ada")
}

func TestParseResetLink(t *testing.T) {
	token, email, err := parseResetLink("https://app.test/reset?token=abc123&email=ada%40example.com")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.Equal(t, "ada@example.com", email)

	_, _, err = parseResetLink("https://app.test/reset?token=abc123")
	assert.Error(t, err)

	_, _, err = parseResetLink("://bad")
	assert.Error(t, err)
}
