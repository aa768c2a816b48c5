package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskhub/backend/internal/database"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// ProjectRepository defines methods for interacting with projects
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	ListByOwner(ctx context.Context, ownerID int64, page utils.PaginationParams) ([]*models.Project, int64, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id int64) error
}

// SQLProjectRepository stores projects through the generic CRUD helper.
type SQLProjectRepository struct {
	crud *database.CRUD
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *database.Pool) ProjectRepository {
	return &SQLProjectRepository{crud: database.NewCRUD(db)}
}

// notFound converts the CRUD sentinel into the API error.
func notFound(err error, resource string, id int64) error {
	if errors.Is(err, database.ErrRecordNotFound) {
		return utils.NewNotFoundError(resource, id)
	}
	return err
}

// Create inserts a project
func (r *SQLProjectRepository) Create(ctx context.Context, project *models.Project) error {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	if err := r.crud.Create(ctx, project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetByID loads one project
func (r *SQLProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	project := &models.Project{}
	if err := r.crud.GetByID(ctx, project, id); err != nil {
		return nil, notFound(err, "Project", id)
	}
	return project, nil
}

// ListByOwner returns one page of a user's projects and the total count
func (r *SQLProjectRepository) ListByOwner(ctx context.Context, ownerID int64, page utils.PaginationParams) ([]*models.Project, int64, error) {
	conditions := database.Conditions{"owner_id": ownerID}

	total, err := r.crud.Count(ctx, &models.Project{}, conditions)
	if err != nil {
		return nil, 0, err
	}

	projects := []*models.Project{}
	if err := r.crud.ListPage(ctx, &models.Project{}, &projects, conditions, page.PageSize, page.Offset()); err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Update saves a project
func (r *SQLProjectRepository) Update(ctx context.Context, project *models.Project) error {
	project.UpdatedAt = time.Now()
	if err := r.crud.Update(ctx, project); err != nil {
		return notFound(err, "Project", project.ID)
	}
	return nil
}

// Delete removes a project. Its tasks go with it through the foreign key.
func (r *SQLProjectRepository) Delete(ctx context.Context, id int64) error {
	if err := r.crud.Delete(ctx, &models.Project{}, id); err != nil {
		return notFound(err, "Project", id)
	}
	return nil
}

// TaskRepository defines methods for interacting with tasks
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	ListByProject(ctx context.Context, projectID int64, page utils.PaginationParams) ([]*models.Task, int64, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
}

// SQLTaskRepository stores tasks through the generic CRUD helper.
type SQLTaskRepository struct {
	crud *database.CRUD
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *database.Pool) TaskRepository {
	return &SQLTaskRepository{crud: database.NewCRUD(db)}
}

// Create inserts a task
func (r *SQLTaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := r.crud.Create(ctx, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID loads one task
func (r *SQLTaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	task := &models.Task{}
	if err := r.crud.GetByID(ctx, task, id); err != nil {
		return nil, notFound(err, "Task", id)
	}
	return task, nil
}

// ListByProject returns one page of a project's tasks and the total count
func (r *SQLTaskRepository) ListByProject(ctx context.Context, projectID int64, page utils.PaginationParams) ([]*models.Task, int64, error) {
	conditions := database.Conditions{"project_id": projectID}

	total, err := r.crud.Count(ctx, &models.Task{}, conditions)
	if err != nil {
		return nil, 0, err
	}

	tasks := []*models.Task{}
	if err := r.crud.ListPage(ctx, &models.Task{}, &tasks, conditions, page.PageSize, page.Offset()); err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update saves a task
func (r *SQLTaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()
	if err := r.crud.Update(ctx, task); err != nil {
		return notFound(err, "Task", task.ID)
	}
	return nil
}

// Delete removes a task
func (r *SQLTaskRepository) Delete(ctx context.Context, id int64) error {
	if err := r.crud.Delete(ctx, &models.Task{}, id); err != nil {
		return notFound(err, "Task", id)
	}
	return nil
}
