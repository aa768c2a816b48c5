package models

import (
	"time"

	"github.com/taskhub/backend/internal/constants"
)

// Project groups tasks and belongs to one user.
type Project struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the database table name for the Project model.
func (p *Project) TableName() string {
	return constants.TableProjects
}

// ProjectInput is the body for creating or replacing a project.
type ProjectInput struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=5000"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID          int64      `json:"id" db:"id"`
	ProjectID   int64      `json:"project_id" db:"project_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the database table name for the Task model.
func (t *Task) TableName() string {
	return constants.TableTasks
}

// TaskInput is the body for creating or replacing a task. An empty status
// means todo.
type TaskInput struct {
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Status      string     `json:"status" validate:"omitempty,task_status"`
	DueDate     *time.Time `json:"due_date"`
}

// StatusOrDefault returns the requested status or todo.
func (in *TaskInput) StatusOrDefault() string {
	if in.Status == "" {
		return constants.TaskStatusTodo
	}
	return in.Status
}
