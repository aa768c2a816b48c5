package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taskhub/backend/internal/auth"
	"github.com/taskhub/backend/internal/constants"
	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

// ProjectHandler serves /api/projects and the nested task routes. Failures
// on these routes include their cause in the error details.
type ProjectHandler struct {
	projectService ProjectServiceInterface
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// page is one page of a listing plus the values for its meta block.
type page[T any] struct {
	items  []T
	params utils.PaginationParams
	total  int64
}

func writePage[T any](w http.ResponseWriter, status int, p page[T]) {
	utils.Paginated(w, status, p.items, p.params.Page, p.params.PageSize, int(p.total))
}

func ownerID(r *http.Request) (int64, error) {
	id, ok := auth.GetUserID(r)
	if !ok {
		return 0, utils.NewUnauthorizedError(constants.MsgAuthRequired)
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, utils.NewValidationError(name, "Must be a positive integer")
	}
	return id, nil
}

// scope resolves the caller and the given path ids.
func scope(r *http.Request, names ...string) (int64, []int64, error) {
	owner, err := ownerID(r)
	if err != nil {
		return 0, nil, err
	}
	ids := make([]int64, len(names))
	for i, name := range names {
		if ids[i], err = pathID(r, name); err != nil {
			return 0, nil, err
		}
	}
	return owner, ids, nil
}

// ListProjects handles GET /api/projects.
func (h *ProjectHandler) ListProjects() http.HandlerFunc {
	return Handle(Endpoint[NoBody, page[*models.Project]]{
		ExposeDetails: true,
		Write:         writePage[*models.Project],
		Call: func(_ http.ResponseWriter, r *http.Request, _ *NoBody) (page[*models.Project], error) {
			owner, err := ownerID(r)
			if err != nil {
				return page[*models.Project]{}, err
			}
			params := utils.GetPaginationParams(r)
			items, total, err := h.projectService.ListProjects(r.Context(), owner, params)
			return page[*models.Project]{items: items, params: params, total: total}, err
		},
	})
}

// CreateProject handles POST /api/projects.
func (h *ProjectHandler) CreateProject() http.HandlerFunc {
	return Handle(Endpoint[models.ProjectInput, *models.Project]{
		Status:        http.StatusCreated,
		ExposeDetails: true,
		Write:         Envelope[*models.Project],
		Call: func(_ http.ResponseWriter, r *http.Request, in *models.ProjectInput) (*models.Project, error) {
			owner, err := ownerID(r)
			if err != nil {
				return nil, err
			}
			return h.projectService.CreateProject(r.Context(), owner, in)
		},
	})
}

// GetProject handles GET /api/projects/{id}.
func (h *ProjectHandler) GetProject() http.HandlerFunc {
	return Handle(Endpoint[NoBody, *models.Project]{
		ExposeDetails: true,
		Write:         Envelope[*models.Project],
		Call: func(_ http.ResponseWriter, r *http.Request, _ *NoBody) (*models.Project, error) {
			owner, ids, err := scope(r, "id")
			if err != nil {
				return nil, err
			}
			return h.projectService.GetProject(r.Context(), owner, ids[0])
		},
	})
}

// UpdateProject handles PUT /api/projects/{id}.
func (h *ProjectHandler) UpdateProject() http.HandlerFunc {
	return Handle(Endpoint[models.ProjectInput, *models.Project]{
		ExposeDetails: true,
		Write:         Envelope[*models.Project],
		Call: func(_ http.ResponseWriter, r *http.Request, in *models.ProjectInput) (*models.Project, error) {
			owner, ids, err := scope(r, "id")
			if err != nil {
				return nil, err
			}
			return h.projectService.UpdateProject(r.Context(), owner, ids[0], in)
		},
	})
}

// DeleteProject handles DELETE /api/projects/{id}.
func (h *ProjectHandler) DeleteProject() http.HandlerFunc {
	return Handle(Endpoint[NoBody, struct{}]{
		Status:        http.StatusNoContent,
		ExposeDetails: true,
		Call: func(_ http.ResponseWriter, r *http.Request, _ *NoBody) (struct{}, error) {
			owner, ids, err := scope(r, "id")
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, h.projectService.DeleteProject(r.Context(), owner, ids[0])
		},
	})
}

// ListTasks handles GET /api/projects/{id}/tasks.
func (h *ProjectHandler) ListTasks() http.HandlerFunc {
	return Handle(Endpoint[NoBody, page[*models.Task]]{
		ExposeDetails: true,
		Write:         writePage[*models.Task],
		Call: func(_ http.ResponseWriter, r *http.Request, _ *NoBody) (page[*models.Task], error) {
			owner, ids, err := scope(r, "id")
			if err != nil {
				return page[*models.Task]{}, err
			}
			params := utils.GetPaginationParams(r)
			items, total, err := h.projectService.ListTasks(r.Context(), owner, ids[0], params)
			return page[*models.Task]{items: items, params: params, total: total}, err
		},
	})
}

// CreateTask handles POST /api/projects/{id}/tasks.
func (h *ProjectHandler) CreateTask() http.HandlerFunc {
	return Handle(Endpoint[models.TaskInput, *models.Task]{
		Status:        http.StatusCreated,
		ExposeDetails: true,
		Write:         Envelope[*models.Task],
		Call: func(_ http.ResponseWriter, r *http.Request, in *models.TaskInput) (*models.Task, error) {
			owner, ids, err := scope(r, "id")
			if err != nil {
				return nil, err
			}
			return h.projectService.CreateTask(r.Context(), owner, ids[0], in)
		},
	})
}

// GetTask handles GET /api/projects/{id}/tasks/{taskID}.
func (h *ProjectHandler) GetTask() http.HandlerFunc {
	return Handle(Endpoint[NoBody, *models.Task]{
		ExposeDetails: true,
		Write:         Envelope[*models.Task],
		Call: func(_ http.ResponseWriter, r *http.Request, _ *NoBody) (*models.Task, error) {
			owner, ids, err := scope(r, "id", "taskID")
			if err != nil {
				return nil, err
			}
			return h.projectService.GetTask(r.Context(), owner, ids[0], ids[1])
		},
	})
}

// UpdateTask handles PUT /api/projects/{id}/tasks/{taskID}.
func (h *ProjectHandler) UpdateTask() http.HandlerFunc {
	return Handle(Endpoint[models.TaskInput, *models.Task]{
		ExposeDetails: true,
		Write:         Envelope[*models.Task],
		Call: func(_ http.ResponseWriter, r *http.Request, in *models.TaskInput) (*models.Task, error) {
			owner, ids, err := scope(r, "id", "taskID")
			if err != nil {
				return nil, err
			}
			return h.projectService.UpdateTask(r.Context(), owner, ids[0], ids[1], in)
		},
	})
}

// DeleteTask handles DELETE /api/projects/{id}/tasks/{taskID}.
func (h *ProjectHandler) DeleteTask() http.HandlerFunc {
	return Handle(Endpoint[NoBody, struct{}]{
		Status:        http.StatusNoContent,
		ExposeDetails: true,
		Call: func(_ http.ResponseWriter, r *http.Request, _ *NoBody) (struct{}, error) {
			owner, ids, err := scope(r, "id", "taskID")
			if err != nil {
				return struct{}{}, err
			}
			return struct{}{}, h.projectService.DeleteTask(r.Context(), owner, ids[0], ids[1])
		},
	})
}
