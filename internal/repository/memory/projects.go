package memory

import (
	"context"
	"time"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// ProjectRepo implements repository.ProjectRepository.
type ProjectRepo struct {
	s *Store
}

func (r *ProjectRepo) Create(_ context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	project.ID = r.s.id()
	project.CreatedAt = now
	project.UpdatedAt = now
	r.s.projects[project.ID] = *project
	return nil
}

func (r *ProjectRepo) GetByID(_ context.Context, id int64) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	project, ok := r.s.projects[id]
	if !ok {
		return nil, utils.NewNotFoundError("Project", id)
	}
	return &project, nil
}

func (r *ProjectRepo) ListByOwner(_ context.Context, ownerID int64, p utils.PaginationParams) ([]*models.Project, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := sortedIDs(r.s.projects, func(pr models.Project) bool { return pr.OwnerID == ownerID })
	out := []*models.Project{}
	for _, id := range page(ids, p.PageSize, p.Offset()) {
		project := r.s.projects[id]
		out = append(out, &project)
	}
	return out, int64(len(ids)), nil
}

func (r *ProjectRepo) Update(_ context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.projects[project.ID]
	if !ok {
		return utils.NewNotFoundError("Project", project.ID)
	}
	project.CreatedAt = current.CreatedAt
	project.UpdatedAt = time.Now()
	r.s.projects[project.ID] = *project
	return nil
}

// Delete removes the project and its tasks.
func (r *ProjectRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[id]; !ok {
		return utils.NewNotFoundError("Project", id)
	}
	delete(r.s.projects, id)
	for taskID, task := range r.s.tasks {
		if task.ProjectID == id {
			delete(r.s.tasks, taskID)
		}
	}
	return nil
}

// TaskRepo implements repository.TaskRepository.
type TaskRepo struct {
	s *Store
}

func (r *TaskRepo) Create(_ context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[task.ProjectID]; !ok {
		return utils.NewNotFoundError("Project", task.ProjectID)
	}
	now := time.Now()
	task.ID = r.s.id()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepo) GetByID(_ context.Context, id int64) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	task, ok := r.s.tasks[id]
	if !ok {
		return nil, utils.NewNotFoundError("Task", id)
	}
	return &task, nil
}

func (r *TaskRepo) ListByProject(_ context.Context, projectID int64, p utils.PaginationParams) ([]*models.Task, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := sortedIDs(r.s.tasks, func(t models.Task) bool { return t.ProjectID == projectID })
	out := []*models.Task{}
	for _, id := range page(ids, p.PageSize, p.Offset()) {
		task := r.s.tasks[id]
		out = append(out, &task)
	}
	return out, int64(len(ids)), nil
}

func (r *TaskRepo) Update(_ context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.tasks[task.ID]
	if !ok {
		return utils.NewNotFoundError("Task", task.ID)
	}
	task.CreatedAt = current.CreatedAt
	task.UpdatedAt = time.Now()
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return utils.NewNotFoundError("Task", id)
	}
	delete(r.s.tasks, id)
	return nil
}

// ContactRepo implements repository.ContactRepository.
type ContactRepo struct {
	s *Store
}

func (r *ContactRepo) Create(_ context.Context, msg *models.ContactMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	msg.ID = r.s.id()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.s.contacts = append(r.s.contacts, *msg)
	return nil
}

// All returns the stored messages in submission order.
func (r *ContactRepo) All() []models.ContactMessage {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]models.ContactMessage(nil), r.s.contacts...)
}
