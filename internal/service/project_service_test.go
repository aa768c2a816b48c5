package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/repository/memory"
	"github.com/taskhub/backend/internal/utils"
)

func newTestProjectService() *ProjectService {
	store := memory.NewStore()
	return NewProjectService(store.Projects(), store.Tasks())
}

func TestProjectService_OwnerScoping(t *testing.T) {
	svc := newTestProjectService()
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, 1, &models.ProjectInput{Name: " Launch "})
	require.NoError(t, err)
	assert.Equal(t, "Launch", project.Name)

	_, err = svc.GetProject(ctx, 2, project.ID)
	assert.True(t, utils.IsNotFoundError(err))

	_, err = svc.UpdateProject(ctx, 2, project.ID, &models.ProjectInput{Name: "x"})
	assert.True(t, utils.IsNotFoundError(err))

	assert.True(t, utils.IsNotFoundError(svc.DeleteProject(ctx, 2, project.ID)))

	got, err := svc.GetProject(ctx, 1, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Launch", got.Name)
}

func TestProjectService_ListPaginates(t *testing.T) {
	svc := newTestProjectService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.CreateProject(ctx, 1, &models.ProjectInput{Name: "p"})
		require.NoError(t, err)
	}
	_, err := svc.CreateProject(ctx, 2, &models.ProjectInput{Name: "other"})
	require.NoError(t, err)

	projects, total, err := svc.ListProjects(ctx, 1, utils.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, projects, 2)
}

func TestProjectService_Tasks(t *testing.T) {
	svc := newTestProjectService()
	ctx := context.Background()

	project, err := svc.CreateProject(ctx, 1, &models.ProjectInput{Name: "Launch"})
	require.NoError(t, err)
	otherProject, err := svc.CreateProject(ctx, 1, &models.ProjectInput{Name: "Other"})
	require.NoError(t, err)

	task, err := svc.CreateTask(ctx, 1, project.ID, &models.TaskInput{Title: "Write docs"})
	require.NoError(t, err)
	assert.Equal(t, "todo", task.Status)

	_, err = svc.CreateTask(ctx, 2, project.ID, &models.TaskInput{Title: "nope"})
	assert.True(t, utils.IsNotFoundError(err))

	_, err = svc.GetTask(ctx, 1, otherProject.ID, task.ID)
	assert.True(t, utils.IsNotFoundError(err))

	updated, err := svc.UpdateTask(ctx, 1, project.ID, task.ID, &models.TaskInput{Title: "Write docs", Status: "done"})
	require.NoError(t, err)
	assert.Equal(t, "done", updated.Status)

	tasks, total, err := svc.ListTasks(ctx, 1, project.ID, utils.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "done", tasks[0].Status)

	require.NoError(t, svc.DeleteTask(ctx, 1, project.ID, task.ID))
	_, err = svc.GetTask(ctx, 1, project.ID, task.ID)
	assert.True(t, utils.IsNotFoundError(err))

	require.NoError(t, svc.DeleteProject(ctx, 1, project.ID))
}
