package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskdesk/internal/database/testutil"
)

func newCatalogServices(t *testing.T) (*CategoryService, *TaskService) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	categories, err := NewCategoryService(db)
	require.NoError(t, err)
	tasks, err := NewTaskService(db)
	require.NoError(t, err)
	return categories, tasks
}

func TestCategoryLifecycle(t *testing.T) {
	categories, _ := newCatalogServices(t)
	ctx := context.Background()

	created, err := categories.Create(ctx, " Cleaning ")
	require.NoError(t, err)
	require.Equal(t, "Cleaning", created.Name)

	_, err = categories.Create(ctx, "Cleaning")
	require.ErrorIs(t, err, ErrCategoryExists)
	require.Equal(t, http.StatusConflict, statusOf(err))

	_, err = categories.Create(ctx, "")
	require.ErrorIs(t, err, ErrCategoryNameRequired)
	_, err = categories.Create(ctx, strings.Repeat("x", 51))
	require.ErrorIs(t, err, ErrCategoryNameTooLong)

	other, err := categories.Create(ctx, "Garden")
	require.NoError(t, err)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = categories.Update(ctx, other.ID, "Cleaning")
	require.ErrorIs(t, err, ErrCategoryExists)

	renamed, err := categories.Update(ctx, other.ID, "Outdoor")
	require.NoError(t, err)
	require.Equal(t, "Outdoor", renamed.Name)

	_, err = categories.Update(ctx, "missing", "Whatever")
	require.ErrorIs(t, err, ErrCategoryNotFound)

	require.NoError(t, categories.Delete(ctx, other.ID))
	_, err = categories.Get(ctx, other.ID)
	require.ErrorIs(t, err, ErrCategoryNotFound)
	require.ErrorIs(t, categories.Delete(ctx, other.ID), ErrCategoryNotFound)
}

func TestCategoryDeleteBlockedByTasks(t *testing.T) {
	categories, tasks := newCatalogServices(t)
	ctx := context.Background()

	category, err := categories.Create(ctx, "Cleaning")
	require.NoError(t, err)
	_, err = tasks.Create(ctx, CreateTaskInput{Name: "Windows", CategoryID: category.ID, Price: 10})
	require.NoError(t, err)

	err = categories.Delete(ctx, category.ID)
	require.ErrorIs(t, err, ErrCategoryInUse)
	require.Equal(t, http.StatusConflict, statusOf(err))
}

func TestTaskLifecycle(t *testing.T) {
	categories, tasks := newCatalogServices(t)
	ctx := context.Background()

	category, err := categories.Create(ctx, "Cleaning")
	require.NoError(t, err)

	task, err := tasks.Create(ctx, CreateTaskInput{Name: "Windows", CategoryID: category.ID, Price: 19.99})
	require.NoError(t, err)
	require.Equal(t, category.ID, task.CategoryID)
	require.InDelta(t, 19.99, task.Price, 0.001)

	_, err = tasks.Create(ctx, CreateTaskInput{Name: "Windows", CategoryID: category.ID, Price: 5})
	require.ErrorIs(t, err, ErrTaskExists)

	_, err = tasks.Create(ctx, CreateTaskInput{Name: "Floors", CategoryID: "missing", Price: 5})
	require.ErrorIs(t, err, ErrCategoryNotFound)
	require.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = tasks.Create(ctx, CreateTaskInput{Name: "Floors", CategoryID: category.ID, Price: 0})
	require.ErrorIs(t, err, ErrInvalidPrice)
	require.Equal(t, http.StatusBadRequest, statusOf(err))

	floors, err := tasks.Create(ctx, CreateTaskInput{Name: "Floors", CategoryID: category.ID, Price: 30})
	require.NoError(t, err)

	list, err := tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	price := 25.5
	updated, err := tasks.Update(ctx, task.ID, UpdateTaskInput{Price: &price})
	require.NoError(t, err)
	require.InDelta(t, 25.5, updated.Price, 0.001)
	require.Equal(t, "Windows", updated.Name)

	negative := -1.0
	_, err = tasks.Update(ctx, task.ID, UpdateTaskInput{Price: &negative})
	require.ErrorIs(t, err, ErrInvalidPrice)

	taken := "Floors"
	_, err = tasks.Update(ctx, task.ID, UpdateTaskInput{Name: &taken})
	require.ErrorIs(t, err, ErrTaskExists)

	same := "Floors"
	unchanged, err := tasks.Update(ctx, floors.ID, UpdateTaskInput{Name: &same})
	require.NoError(t, err)
	require.Equal(t, "Floors", unchanged.Name)

	_, err = tasks.Update(ctx, "missing", UpdateTaskInput{Price: &price})
	require.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, tasks.Delete(ctx, task.ID))
	_, err = tasks.Get(ctx, task.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)
	require.ErrorIs(t, tasks.Delete(ctx, task.ID), ErrTaskNotFound)
}
