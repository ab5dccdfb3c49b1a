package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskService_RequiresDependencies(t *testing.T) {
	h := newHarness(t)
	limits := validation.DefaultLimits()

	_, err := service.NewTaskService(nil, h.tasks, h.emitter, nil, limits, nil)
	assert.ErrorContains(t, err, "projects cannot be nil")

	_, err = service.NewTaskService(h.projects, nil, h.emitter, nil, limits, nil)
	assert.ErrorContains(t, err, "tasks cannot be nil")

	_, err = service.NewTaskService(h.projects, h.tasks, nil, nil, limits, nil)
	assert.ErrorContains(t, err, "emitter cannot be nil")
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")

		task, err := h.taskSvc.CreateTask(ctx, p.ID, service.CreateTaskInput{Title: " Write copy "})
		require.NoError(t, err)
		assert.NotZero(t, task.ID)
		assert.Equal(t, "Write copy", task.Title)
		assert.Equal(t, domain.TaskStatusTodo, task.Status)
		assert.Nil(t, task.Deadline)
		assert.Nil(t, task.Description)
		assert.Equal(t, p.ID, task.ProjectID)
		assert.True(t, testNow.Equal(task.CreatedAt))

		assert.Equal(t, []string{events.ProjectCreated, events.TaskCreated}, h.log.types())
	})

	t.Run("status aliases and deadline", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")

		task, err := h.taskSvc.CreateTask(ctx, p.ID, service.CreateTaskInput{
			Title:       "Write copy",
			Description: strPtr("landing page"),
			Status:      "Doing",
			Deadline:    strPtr("2024-01-01"),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusInProgress, task.Status)
		require.NotNil(t, task.Deadline)
		assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(*task.Deadline))

		got, found, err := h.taskSvc.GetTask(ctx, p.ID, task.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, domain.TaskStatusInProgress, got.Status)
		require.NotNil(t, got.Deadline)
		assert.True(t, task.Deadline.Equal(*got.Deadline))
		require.NotNil(t, got.Description)
		assert.Equal(t, "landing page", *got.Description)
	})

	t.Run("date-time deadline is normalized to UTC", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")

		task := h.task(t, p.ID, service.CreateTaskInput{Title: "t", Deadline: strPtr("2024-03-01T10:00:00+02:00")})
		require.NotNil(t, task.Deadline)
		assert.Equal(t, time.UTC, task.Deadline.Location())
		assert.Equal(t, 8, task.Deadline.Hour())
	})

	t.Run("unknown project", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.taskSvc.CreateTask(ctx, 7, service.CreateTaskInput{Title: ""})

		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "Project", nf.Entity)
	})

	t.Run("first failure wins", func(t *testing.T) {
		cases := []struct {
			name  string
			input service.CreateTaskInput
			field string
		}{
			{"empty title", service.CreateTaskInput{Title: " ", Status: "bogus"}, "title"},
			{"long title", service.CreateTaskInput{Title: strings.Repeat("w ", 31)}, "title"},
			{"long description", service.CreateTaskInput{
				Title: "ok", Description: strPtr(strings.Repeat("w ", 151)), Status: "bogus",
			}, "description"},
			{"bad status", service.CreateTaskInput{Title: "ok", Status: "later", Deadline: strPtr("nope")}, "status"},
			{"bad deadline", service.CreateTaskInput{Title: "ok", Deadline: strPtr("31/12/2025")}, "deadline"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				h := newHarness(t)
				p := h.project(t, "Launch")

				_, err := h.taskSvc.CreateTask(ctx, p.ID, tc.input)
				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tc.field, vErr.Field)

				tasks, err := h.taskSvc.ListTasks(ctx, p.ID)
				require.NoError(t, err)
				assert.Empty(t, tasks)
			})
		}
	})
}

func TestEditTask(t *testing.T) {
	ctx := context.Background()

	t.Run("updates provided fields", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		task := h.task(t, p.ID, service.CreateTaskInput{Title: "Write copy", Deadline: strPtr("2024-12-31")})

		h.clock.Advance(time.Hour)
		updated, err := h.taskSvc.EditTask(ctx, p.ID, task.ID, service.EditTaskInput{
			Status: strPtr("in-progress"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Write copy", updated.Title)
		assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
		require.NotNil(t, updated.Deadline)
		assert.True(t, testNow.Add(time.Hour).Equal(updated.UpdatedAt))
	})

	t.Run("blank deadline clears it", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		task := h.task(t, p.ID, service.CreateTaskInput{Title: "t", Deadline: strPtr("2024-12-31")})

		updated, err := h.taskSvc.EditTask(ctx, p.ID, task.ID, service.EditTaskInput{Deadline: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, updated.Deadline)

		got, _, err := h.taskSvc.GetTask(ctx, p.ID, task.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Deadline)
	})

	t.Run("task of another project is not found", func(t *testing.T) {
		h := newHarness(t)
		a := h.project(t, "A")
		b := h.project(t, "B")
		task := h.task(t, a.ID, service.CreateTaskInput{Title: "Write copy"})

		_, err := h.taskSvc.EditTask(ctx, b.ID, task.ID, service.EditTaskInput{Title: strPtr("Stolen")})
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "Task", nf.Entity)
		assert.Equal(t, b.ID, nf.ParentID)

		got, found, err := h.taskSvc.GetTask(ctx, a.ID, task.ID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Write copy", got.Title)
	})

	t.Run("missing project reported before missing task", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.taskSvc.EditTask(ctx, 5, 6, service.EditTaskInput{})
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "Project", nf.Entity)
	})

	t.Run("invalid status leaves task unchanged", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		task := h.task(t, p.ID, service.CreateTaskInput{Title: "Write copy"})

		_, err := h.taskSvc.EditTask(ctx, p.ID, task.ID, service.EditTaskInput{
			Title:  strPtr("Renamed"),
			Status: strPtr("someday"),
		})
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))

		got, _, err := h.taskSvc.GetTask(ctx, p.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Write copy", got.Title)
	})

	t.Run("store failure surfaces as repository error", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		task := h.task(t, p.ID, service.CreateTaskInput{Title: "Write copy"})

		h.tasks = failingTaskStore{TaskStore: h.tasks, err: errors.New("io failure")}
		h.build(t)

		_, err := h.taskSvc.EditTask(ctx, p.ID, task.ID, service.EditTaskInput{Title: strPtr("x")})
		assert.Equal(t, domain.CodeDatabaseOperation, domain.CodeOf(err))
		assert.ErrorIs(t, err, domain.ErrRepository)
	})
}

func TestDeleteTask(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.project(t, "A")
	b := h.project(t, "B")
	task := h.task(t, a.ID, service.CreateTaskInput{Title: "Write copy"})

	err := h.taskSvc.DeleteTask(ctx, b.ID, task.ID)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))

	require.NoError(t, h.taskSvc.DeleteTask(ctx, a.ID, task.ID))

	_, found, err := h.taskSvc.GetTask(ctx, a.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, found)

	err = h.taskSvc.DeleteTask(ctx, a.ID, task.ID)
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Task", nf.Entity)
}

func TestGetTask_OwnershipAndAbsence(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	a := h.project(t, "A")
	b := h.project(t, "B")
	task := h.task(t, a.ID, service.CreateTaskInput{Title: "Write copy"})

	got, found, err := h.taskSvc.GetTask(ctx, b.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)

	_, found, err = h.taskSvc.GetTask(ctx, a.ID, 9999)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListTasks_CreationOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := h.project(t, "Launch")

	first := h.task(t, p.ID, service.CreateTaskInput{Title: "first"})
	h.clock.Advance(time.Minute)
	second := h.task(t, p.ID, service.CreateTaskInput{Title: "second"})

	tasks, err := h.taskSvc.ListTasks(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, first.ID, tasks[0].ID)
	assert.Equal(t, second.ID, tasks[1].ID)

	_, err = h.taskSvc.ListTasks(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAutoCloseOverdue(t *testing.T) {
	ctx := context.Background()

	t.Run("closes a past-due task", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		task := h.task(t, p.ID, service.CreateTaskInput{Title: "Write copy", Deadline: strPtr("2024-01-01")})

		closed, err := h.taskSvc.AutoCloseOverdue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, closed)

		got, _, err := h.taskSvc.GetTask(ctx, p.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusDone, got.Status)
		assert.True(t, testNow.Equal(got.UpdatedAt))

		closed, err = h.taskSvc.AutoCloseOverdue(ctx)
		require.NoError(t, err)
		assert.Zero(t, closed)

		assert.Equal(t, 1, countType(h.log.types(), events.TasksAutoClosed))
	})

	t.Run("only past-due unfinished tasks are touched", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		overdue := h.task(t, p.ID, service.CreateTaskInput{Title: "a", Status: "doing", Deadline: strPtr("2024-05-01")})
		cancelled := h.task(t, p.ID, service.CreateTaskInput{Title: "b", Status: "cancelled", Deadline: strPtr("2024-05-01")})
		alreadyDone := h.task(t, p.ID, service.CreateTaskInput{Title: "c", Status: "done", Deadline: strPtr("2024-05-01")})
		future := h.task(t, p.ID, service.CreateTaskInput{Title: "d", Deadline: strPtr("2024-12-31")})
		noDeadline := h.task(t, p.ID, service.CreateTaskInput{Title: "e"})
		atNow := h.task(t, p.ID, service.CreateTaskInput{Title: "f", Deadline: strPtr(testNow.Format(time.RFC3339))})

		closed, err := h.taskSvc.AutoCloseOverdue(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, closed)

		expect := map[int64]domain.TaskStatus{
			overdue.ID:     domain.TaskStatusDone,
			cancelled.ID:   domain.TaskStatusDone,
			alreadyDone.ID: domain.TaskStatusDone,
			future.ID:      domain.TaskStatusTodo,
			noDeadline.ID:  domain.TaskStatusTodo,
			atNow.ID:       domain.TaskStatusTodo,
		}
		for id, status := range expect {
			got, found, err := h.taskSvc.GetTask(ctx, p.ID, id)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, status, got.Status, "task %d", id)
		}
	})

	t.Run("failure closes nothing", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		task := h.task(t, p.ID, service.CreateTaskInput{Title: "a", Deadline: strPtr("2024-01-01")})

		real := h.tasks
		h.tasks = failingTaskStore{TaskStore: real, err: store.ErrConnection}
		h.build(t)

		closed, err := h.taskSvc.AutoCloseOverdue(ctx)
		assert.Zero(t, closed)
		assert.Equal(t, domain.CodeDatabaseConnection, domain.CodeOf(err))

		got, err := real.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusTodo, got.Status)
	})
}

func countType(types []string, want string) int {
	n := 0
	for _, t := range types {
		if t == want {
			n++
		}
	}
	return n
}
