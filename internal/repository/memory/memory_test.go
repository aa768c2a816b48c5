package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/internal/utils"
)

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	user := models.NewUser("Ada", "Ada@Example.com", "member")
	require.NoError(t, users.Create(ctx, user))
	assert.NotZero(t, user.ID)

	dup := models.NewUser("Other", "ada@example.com", "member")
	assert.True(t, utils.IsDuplicateError(users.Create(ctx, dup)))

	found, err := users.GetByEmail(ctx, "ADA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "Ada@Example.com", found.Email, "stored case is preserved")

	found.Name = "changed outside"
	again, _ := users.GetByID(ctx, user.ID)
	assert.Equal(t, "Ada", again.Name, "callers get copies")

	_, err = users.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, utils.IsNotFoundError(err))

	exists, err := users.ExistsByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func mustIssue(t *testing.T, tokens *ResetTokenRepo, token *models.ResetToken) {
	t.Helper()
	issued, err := tokens.Issue(context.Background(), token, 0)
	require.NoError(t, err)
	require.True(t, issued)
}

func TestResetTokenRepoIssueCooldown(t *testing.T) {
	ctx := context.Background()
	tokens := NewStore().ResetTokens()
	now := time.Now()

	issued, err := tokens.Issue(ctx, models.NewResetToken(1, "first", now, time.Hour), 30*time.Second)
	require.NoError(t, err)
	assert.True(t, issued)

	issued, err = tokens.Issue(ctx, models.NewResetToken(1, "early", now.Add(29*time.Second), time.Hour), 30*time.Second)
	require.NoError(t, err)
	assert.False(t, issued)

	issued, err = tokens.Issue(ctx, models.NewResetToken(2, "other user", now.Add(time.Second), time.Hour), 30*time.Second)
	require.NoError(t, err)
	assert.True(t, issued)

	issued, err = tokens.Issue(ctx, models.NewResetToken(1, "later", now.Add(30*time.Second), time.Hour), 30*time.Second)
	require.NoError(t, err)
	assert.True(t, issued)
	assert.Equal(t, 2, tokens.CountForUser(1))
}

func TestResetTokenRepoIssueConcurrent(t *testing.T) {
	ctx := context.Background()
	tokens := NewStore().ResetTokens()
	now := time.Now()

	var issued int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := tokens.Issue(ctx, models.NewResetToken(1, "h", now, time.Hour), time.Minute)
			if err == nil && ok {
				atomic.AddInt32(&issued, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), issued)
	assert.Equal(t, 1, tokens.CountForUser(1))
}

func TestResetTokenRepoLatest(t *testing.T) {
	ctx := context.Background()
	tokens := NewStore().ResetTokens()
	now := time.Now()

	latest, err := tokens.LatestForUser(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, latest)

	mustIssue(t, tokens, models.NewResetToken(1, "old", now, time.Hour))
	mustIssue(t, tokens, models.NewResetToken(1, "new", now.Add(time.Minute), time.Hour))
	mustIssue(t, tokens, models.NewResetToken(2, "other", now.Add(time.Hour), time.Hour))

	latest, err = tokens.LatestForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.TokenHash)
	assert.Equal(t, 2, tokens.CountForUser(1))
}

func TestResetTokenRepoRedeemOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	user := models.NewUser("Ada", "ada@example.com", "member")
	require.NoError(t, store.Users().Create(ctx, user))
	token := models.NewResetToken(user.ID, "h", time.Now(), time.Hour)
	mustIssue(t, store.ResetTokens(), token)

	var wins, used int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.ResetTokens().Redeem(ctx, token.ID, user.ID, "new-hash")
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, utils.ErrTokenUsed):
				atomic.AddInt32(&used, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(19), used)

	stored, _ := store.Users().GetByID(ctx, user.ID)
	assert.Equal(t, "new-hash", stored.PasswordHash)
}

func TestResetTokenRepoDeleteExpired(t *testing.T) {
	ctx := context.Background()
	tokens := NewStore().ResetTokens()
	now := time.Now()

	mustIssue(t, tokens, models.NewResetToken(1, "stale", now.Add(-48*time.Hour), time.Hour))
	mustIssue(t, tokens, models.NewResetToken(1, "fresh", now, time.Hour))

	removed, err := tokens.DeleteExpiredBefore(ctx, now.Add(-24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, tokens.CountForUser(1))
}

func TestProjectAndTaskRepos(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	projects, tasks := store.Projects(), store.Tasks()

	for i := 0; i < 3; i++ {
		require.NoError(t, projects.Create(ctx, &models.Project{OwnerID: 1, Name: "p"}))
	}
	require.NoError(t, projects.Create(ctx, &models.Project{OwnerID: 2, Name: "other"}))

	list, total, err := projects.ListByOwner(ctx, 1, utils.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 1)

	first, _, _ := projects.ListByOwner(ctx, 1, utils.PaginationParams{Page: 1, PageSize: 1})
	projectID := first[0].ID

	task := &models.Task{ProjectID: projectID, Title: "write", Status: "todo"}
	require.NoError(t, tasks.Create(ctx, task))

	err = tasks.Create(ctx, &models.Task{ProjectID: 999, Title: "orphan"})
	assert.True(t, utils.IsNotFoundError(err))

	require.NoError(t, projects.Delete(ctx, projectID))
	_, err = tasks.GetByID(ctx, task.ID)
	assert.True(t, utils.IsNotFoundError(err), "tasks are removed with their project")
}

func TestContactRepo(t *testing.T) {
	contacts := NewStore().Contacts()

	require.NoError(t, contacts.Create(context.Background(), &models.ContactMessage{Name: "A", Email: "a@b.c", Message: "hi"}))

	all := contacts.All()
	require.Len(t, all, 1)
	assert.NotZero(t, all[0].ID)
	assert.False(t, all[0].CreatedAt.IsZero())
}
