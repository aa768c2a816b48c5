package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNoSnapshot is returned by Storage.Load when nothing is persisted.
var ErrNoSnapshot = errors.New("no session snapshot")

// Profile is the public part of a user record the client keeps.
type Profile struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

// Snapshot is what survives a restart. Token is the session credential the
// server issued; the profile is display data only and the server re-derives
// identity from the token on every call.
type Snapshot struct {
	Profile Profile   `json:"profile"`
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

func (s *Snapshot) valid() bool {
	return s != nil && s.Token != "" && s.Profile.ID > 0 && s.Profile.Email != ""
}

// Storage persists the snapshot on the client.
type Storage interface {
	Load() (*Snapshot, error)
	Save(snapshot *Snapshot) error
	Clear() error
}

// FileStorage keeps the snapshot as a JSON file readable only by the owner.
type FileStorage struct {
	path string
}

// NewFileStorage returns a FileStorage writing to path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// DefaultPath is ~/.taskhub/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".taskhub", "session.json"), nil
}

// Path returns the file location.
func (f *FileStorage) Path() string {
	return f.path
}

// Load reads the snapshot. A missing file yields ErrNoSnapshot.
func (f *FileStorage) Load() (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &snap, nil
}

// Save replaces the file atomically through a temp file and rename.
func (f *FileStorage) Save(snapshot *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}

	return os.Rename(tmp.Name(), f.path)
}

// Clear removes the file. Clearing a missing file is not an error.
func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryStorage keeps the snapshot in memory.
type MemoryStorage struct {
	mu       sync.Mutex
	snapshot *Snapshot
}

// Load returns a copy of the stored snapshot.
func (m *MemoryStorage) Load() (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	snap := *m.snapshot
	return &snap, nil
}

// Save stores a copy of snapshot.
func (m *MemoryStorage) Save(snapshot *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := *snapshot
	m.snapshot = &snap
	return nil
}

// Clear drops the stored snapshot.
func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	return nil
}
