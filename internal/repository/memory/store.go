// Package memory holds in-process implementations of the repository
// interfaces. They back the service tests and local runs without a database.
// Data lives for the lifetime of the Store.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository"
)

var (
	_ repository.UserRepository          = (*UserRepo)(nil)
	_ repository.PasswordResetRepository = (*ResetTokenRepo)(nil)
	_ repository.ProjectRepository       = (*ProjectRepo)(nil)
	_ repository.TaskRepository          = (*TaskRepo)(nil)
	_ repository.ContactRepository       = (*ContactRepo)(nil)
)

// Store is the shared state behind every memory repository. One lock guards
// all tables so cross-table operations such as reset redemption stay atomic.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]models.User
	tokens   map[int64]models.ResetToken
	projects map[int64]models.Project
	tasks    map[int64]models.Task
	contacts []models.ContactMessage
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[int64]models.User),
		tokens:   make(map[int64]models.ResetToken),
		projects: make(map[int64]models.Project),
		tasks:    make(map[int64]models.Task),
	}
}

// id must be called with mu held.
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users returns the user repository view.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// ResetTokens returns the reset token repository view.
func (s *Store) ResetTokens() *ResetTokenRepo { return &ResetTokenRepo{s: s} }

// Projects returns the project repository view.
func (s *Store) Projects() *ProjectRepo { return &ProjectRepo{s: s} }

// Tasks returns the task repository view.
func (s *Store) Tasks() *TaskRepo { return &TaskRepo{s: s} }

// Contacts returns the contact repository view.
func (s *Store) Contacts() *ContactRepo { return &ContactRepo{s: s} }

func sameEmail(a, b string) bool {
	return strings.EqualFold(a, b)
}

func sortedIDs[T any](m map[int64]T, keep func(T) bool) []int64 {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func page(ids []int64, limit, offset int) []int64 {
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}
