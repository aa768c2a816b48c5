// Package session holds the client side of authentication: a persisted
// snapshot of the signed-in user, the state machine that owns it, and the
// route gate that turns that state into navigation decisions.
//
// The snapshot only drives what the client shows. The server re-derives the
// caller from the session cookie on every privileged request.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// State is the provider's position in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Settled reports whether initialization has finished.
func (s State) Settled() bool {
	return s == StateAuthenticated || s == StateAnonymous
}

var (
	// ErrInvalidEmail is returned before any network call when the email is malformed.
	ErrInvalidEmail = errors.New("please enter a valid email address")
	// ErrPasswordTooShort is returned before any network call for short passwords.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters long", constants.DefaultMinPasswordLength)
	// ErrLoginFailed is shown when the server gave no usable message.
	ErrLoginFailed = errors.New("login failed, please try again")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("not logged in")
)

// Listener is called after every state change with the new state.
type Listener func(State)

// Provider owns the client-held session.
type Provider struct {
	mu        sync.RWMutex
	state     State
	snapshot  *Snapshot
	storage   Storage
	auth      Authenticator
	listeners []Listener
	now       func() time.Time
}

// NewProvider returns a provider in StateUninitialized.
func NewProvider(storage Storage, auth Authenticator) *Provider {
	return &Provider{
		storage: storage,
		auth:    auth,
		now:     time.Now,
	}
}

// OnChange registers fn for state changes.
func (p *Provider) OnChange(fn Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// State returns the current state.
func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Profile returns the signed-in user, or nil when anonymous.
func (p *Provider) Profile() *Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snapshot == nil {
		return nil
	}
	profile := p.snapshot.Profile
	return &profile
}

// Token returns the stored session credential, or "" when anonymous.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snapshot == nil {
		return ""
	}
	return p.snapshot.Token
}

// Init rehydrates the snapshot from storage. A missing or unreadable snapshot
// settles as anonymous; Init never fails.
func (p *Provider) Init() State {
	p.mu.Lock()
	if p.state != StateUninitialized {
		state := p.state
		p.mu.Unlock()
		return state
	}
	p.state = StateInitializing
	p.mu.Unlock()
	p.notify(StateInitializing)

	snap, err := p.storage.Load()
	switch {
	case err == nil && snap.valid():
		return p.settle(snap)
	case err != nil && !errors.Is(err, ErrNoSnapshot):
		log.Warn().Err(err).Msg("Discarding unreadable session snapshot")
		_ = p.storage.Clear()
	case err == nil:
		log.Debug().Msg("Discarding incomplete session snapshot")
		_ = p.storage.Clear()
	}
	return p.settle(nil)
}

// Login checks the input shape, then asks the server. On failure the state
// is left untouched and the returned error carries the server's message when
// it sent one.
func (p *Provider) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	snap, err := p.auth.Login(ctx, email, password)
	if err != nil {
		return serverError(err, ErrLoginFailed)
	}
	return p.adopt(snap)
}

// Register creates an account and adopts the session it returns.
func (p *Provider) Register(ctx context.Context, name, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return err
	}

	snap, err := p.auth.Register(ctx, models.RegisterRequest{Name: strings.TrimSpace(name), Email: email, Password: password})
	if err != nil {
		return serverError(err, errors.New("registration failed, please try again"))
	}
	return p.adopt(snap)
}

// Logout clears the snapshot and settles as anonymous. The server call is
// best effort; local state is cleared even when it fails.
func (p *Provider) Logout(ctx context.Context) error {
	if token := p.Token(); token != "" {
		if err := p.auth.Logout(ctx, token); err != nil {
			log.Debug().Err(err).Msg("Server logout failed")
		}
	}

	err := p.storage.Clear()
	p.settle(nil)
	return err
}

// Refresh asks the server who the stored token belongs to and updates the
// profile. A 401 means the session is gone and the provider becomes anonymous.
func (p *Provider) Refresh(ctx context.Context) (*Profile, error) {
	token := p.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	profile, err := p.auth.Me(ctx, token)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == constants.StatusUnauthorized {
			_ = p.storage.Clear()
			p.settle(nil)
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	if err := p.adopt(&Snapshot{Profile: *profile, Token: token}); err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *Provider) adopt(snap *Snapshot) error {
	snap.SavedAt = p.now().UTC()
	if !snap.valid() {
		return ErrLoginFailed
	}
	if err := p.storage.Save(snap); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	p.settle(snap)
	return nil
}

func (p *Provider) settle(snap *Snapshot) State {
	p.mu.Lock()
	p.snapshot = snap
	if snap != nil {
		p.state = StateAuthenticated
	} else {
		p.state = StateAnonymous
	}
	state := p.state
	p.mu.Unlock()

	p.notify(state)
	return state
}

func (p *Provider) notify(state State) {
	p.mu.RLock()
	listeners := append([]Listener(nil), p.listeners...)
	p.mu.RUnlock()
	for _, fn := range listeners {
		fn(state)
	}
}

func validateCredentials(email, password string) error {
	if email == "" || !utils.IsValidEmail(email) {
		return ErrInvalidEmail
	}
	if len(password) < constants.DefaultMinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// serverError surfaces the server's own message when there is one.
func serverError(err, fallback error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	log.Debug().Err(err).Msg("Session request failed")
	return fallback
}
