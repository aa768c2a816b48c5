package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository"
	"github.com/taskhub/backend/internal/utils"
)

// ProjectService manages projects and their tasks. Every call is scoped to
// the owner; projects of other users are reported as not found.
type ProjectService struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projects repository.ProjectRepository, tasks repository.TaskRepository) *ProjectService {
	return &ProjectService{projects: projects, tasks: tasks}
}

// CreateProject creates a project owned by ownerID.
func (s *ProjectService) CreateProject(ctx context.Context, ownerID int64, in *models.ProjectInput) (*models.Project, error) {
	project := &models.Project{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// GetProject returns one of the owner's projects.
func (s *ProjectService) GetProject(ctx context.Context, ownerID, id int64) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != ownerID {
		return nil, utils.NewNotFoundError("Project", id)
	}
	return project, nil
}

// ListProjects returns a page of the owner's projects and the total count.
func (s *ProjectService) ListProjects(ctx context.Context, ownerID int64, page utils.PaginationParams) ([]*models.Project, int64, error) {
	projects, total, err := s.projects.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// UpdateProject replaces the editable fields of a project.
func (s *ProjectService) UpdateProject(ctx context.Context, ownerID, id int64, in *models.ProjectInput) (*models.Project, error) {
	project, err := s.GetProject(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	project.Name = strings.TrimSpace(in.Name)
	project.Description = in.Description

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// DeleteProject removes a project and its tasks.
func (s *ProjectService) DeleteProject(ctx context.Context, ownerID, id int64) error {
	if _, err := s.GetProject(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// CreateTask adds a task to one of the owner's projects.
func (s *ProjectService) CreateTask(ctx context.Context, ownerID, projectID int64, in *models.TaskInput) (*models.Task, error) {
	if _, err := s.GetProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID:   projectID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.StatusOrDefault(),
		DueDate:     in.DueDate,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// ListTasks returns a page of a project's tasks.
func (s *ProjectService) ListTasks(ctx context.Context, ownerID, projectID int64, page utils.PaginationParams) ([]*models.Task, int64, error) {
	if _, err := s.GetProject(ctx, ownerID, projectID); err != nil {
		return nil, 0, err
	}
	tasks, total, err := s.tasks.ListByProject(ctx, projectID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// GetTask returns a task if it belongs to the given project of the owner.
func (s *ProjectService) GetTask(ctx context.Context, ownerID, projectID, taskID int64) (*models.Task, error) {
	if _, err := s.GetProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.ProjectID != projectID {
		return nil, utils.NewNotFoundError("Task", taskID)
	}
	return task, nil
}

// UpdateTask replaces the editable fields of a task.
func (s *ProjectService) UpdateTask(ctx context.Context, ownerID, projectID, taskID int64, in *models.TaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, ownerID, projectID, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = strings.TrimSpace(in.Title)
	task.Description = in.Description
	task.Status = in.StatusOrDefault()
	task.DueDate = in.DueDate

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// DeleteTask removes a task.
func (s *ProjectService) DeleteTask(ctx context.Context, ownerID, projectID, taskID int64) error {
	if _, err := s.GetTask(ctx, ownerID, projectID, taskID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
