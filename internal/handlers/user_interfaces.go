package handlers

import (
	"context"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// UserServiceInterface defines the methods required from the user service.
type UserServiceInterface interface {
	// UpdateUser applies a profile change on behalf of actor.
	UpdateUser(ctx context.Context, actor *auth.Identity, update *models.UserUpdateRequest) (*models.User, error)
}

// ContactServiceInterface accepts contact form submissions.
type ContactServiceInterface interface {
	Submit(ctx context.Context, clientIP string, req *models.ContactRequest) (*models.ContactReceipt, error)
}

// ProjectServiceInterface defines owner-scoped project and task operations.
type ProjectServiceInterface interface {
	CreateProject(ctx context.Context, ownerID int64, in *models.ProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, ownerID, id int64) (*models.Project, error)
	ListProjects(ctx context.Context, ownerID int64, page utils.PaginationParams) ([]*models.Project, int64, error)
	UpdateProject(ctx context.Context, ownerID, id int64, in *models.ProjectInput) (*models.Project, error)
	DeleteProject(ctx context.Context, ownerID, id int64) error

	CreateTask(ctx context.Context, ownerID, projectID int64, in *models.TaskInput) (*models.Task, error)
	GetTask(ctx context.Context, ownerID, projectID, taskID int64) (*models.Task, error)
	ListTasks(ctx context.Context, ownerID, projectID int64, page utils.PaginationParams) ([]*models.Task, int64, error)
	UpdateTask(ctx context.Context, ownerID, projectID, taskID int64, in *models.TaskInput) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, projectID, taskID int64) error
}
