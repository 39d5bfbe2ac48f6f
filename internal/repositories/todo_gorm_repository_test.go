package repositories_test

import (
	"context"
	"testing"
	"time"

	"todoapp/internal/apperrors"
	"todoapp/internal/models"
	"todoapp/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTodoRepo(t *testing.T) (*repositories.GORMTodoRepository, *models.User, *models.User) {
	t.Helper()
	db := openTestDB(t)
	users := repositories.NewGORMUserRepository(db)
	return repositories.NewGORMTodoRepository(db), createUser(t, users, "alice"), createUser(t, users, "bob")
}

func TestGORMTodoRepository_CreateDefaultsAndFind(t *testing.T) {
	repo, alice, _ := setupTodoRepo(t)
	ctx := context.Background()

	todo := &models.Todo{Title: "Buy milk", UserID: alice.ID}
	require.NoError(t, repo.Create(ctx, todo))
	assert.NotEmpty(t, todo.ID)
	assert.Equal(t, models.TodoStatusPending, todo.Status)

	found, err := repo.FindByIDForOwner(ctx, todo.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.ID, found.ID)
	assert.Equal(t, "Buy milk", found.Title)
	assert.Nil(t, found.Description)
	assert.Equal(t, alice.ID, found.UserID)
	assert.Equal(t, models.TodoStatusPending, found.Status)
}

func TestGORMTodoRepository_ForeignOwnerLooksMissing(t *testing.T) {
	repo, alice, bob := setupTodoRepo(t)
	ctx := context.Background()

	todo := &models.Todo{Title: "Alice's", UserID: alice.ID}
	require.NoError(t, repo.Create(ctx, todo))

	_, foreignErr := repo.FindByIDForOwner(ctx, todo.ID, bob.ID)
	_, missingErr := repo.FindByIDForOwner(ctx, "does-not-exist", bob.ID)
	assert.True(t, apperrors.IsNotFound(foreignErr))
	assert.True(t, apperrors.IsNotFound(missingErr))

	_, err := repo.UpdatePartial(ctx, todo.ID, bob.ID, models.TodoPatch{Title: strPtr("hijacked")})
	assert.True(t, apperrors.IsNotFound(err))

	err = repo.DeleteForOwner(ctx, todo.ID, bob.ID)
	assert.True(t, apperrors.IsNotFound(err))

	// Alice's todo is untouched.
	found, err := repo.FindByIDForOwner(ctx, todo.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice's", found.Title)
}

func TestGORMTodoRepository_ListForOwner(t *testing.T) {
	repo, alice, bob := setupTodoRepo(t)
	ctx := context.Background()

	first := &models.Todo{Title: "first", UserID: alice.ID}
	require.NoError(t, repo.Create(ctx, first))
	time.Sleep(5 * time.Millisecond)
	second := &models.Todo{Title: "second", UserID: alice.ID, Status: models.TodoStatusDone}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, &models.Todo{Title: "bob's", UserID: bob.ID}))

	all, err := repo.ListForOwner(ctx, alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Title, "newest first")
	assert.Equal(t, "first", all[1].Title)
	for _, todo := range all {
		assert.Equal(t, alice.ID, todo.UserID)
	}

	done, err := repo.ListForOwner(ctx, alice.ID, statusPtr(models.TodoStatusDone))
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, second.ID, done[0].ID)

	inProgress, err := repo.ListForOwner(ctx, alice.ID, statusPtr(models.TodoStatusInProgress))
	require.NoError(t, err)
	assert.NotNil(t, inProgress)
	assert.Empty(t, inProgress)

	none, err := repo.ListForOwner(ctx, "nobody", nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGORMTodoRepository_UpdatePartial(t *testing.T) {
	repo, alice, _ := setupTodoRepo(t)
	ctx := context.Background()

	todo := &models.Todo{Title: "A", Description: strPtr("details"), UserID: alice.ID}
	require.NoError(t, repo.Create(ctx, todo))
	time.Sleep(5 * time.Millisecond)

	updated, err := repo.UpdatePartial(ctx, todo.ID, alice.ID, models.TodoPatch{Status: statusPtr(models.TodoStatusDone)})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "details", *updated.Description)
	assert.Equal(t, models.TodoStatusDone, updated.Status)
	assert.True(t, updated.UpdatedAt.After(todo.UpdatedAt), "updated_at is refreshed")
	assert.WithinDuration(t, todo.CreatedAt, updated.CreatedAt, time.Millisecond)

	updated, err = repo.UpdatePartial(ctx, todo.ID, alice.ID, models.TodoPatch{Title: strPtr("B"), Description: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Title)
	assert.Equal(t, "", *updated.Description)
	assert.Equal(t, models.TodoStatusDone, updated.Status)

	unchanged, err := repo.UpdatePartial(ctx, todo.ID, alice.ID, models.TodoPatch{})
	require.NoError(t, err)
	assert.Equal(t, "B", unchanged.Title)
	assert.True(t, unchanged.UpdatedAt.Equal(updated.UpdatedAt), "an empty patch writes nothing")

	_, err = repo.UpdatePartial(ctx, "missing", alice.ID, models.TodoPatch{Title: strPtr("x")})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.UpdatePartial(ctx, "missing", alice.ID, models.TodoPatch{})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGORMTodoRepository_DeleteTwice(t *testing.T) {
	repo, alice, _ := setupTodoRepo(t)
	ctx := context.Background()

	todo := &models.Todo{Title: "gone soon", UserID: alice.ID}
	require.NoError(t, repo.Create(ctx, todo))

	require.NoError(t, repo.DeleteForOwner(ctx, todo.ID, alice.ID))

	err := repo.DeleteForOwner(ctx, todo.ID, alice.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.FindByIDForOwner(ctx, todo.ID, alice.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
