package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProjectService_RequiresDependencies(t *testing.T) {
	h := newHarness(t)
	emitter := events.NewInMemoryEventEmitter(nil)

	_, err := service.NewProjectService(nil, h.tasks, emitter, nil, service.ProjectServiceConfig{}, nil)
	var svcErr *service.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, svcErr.Message, "projects")

	_, err = service.NewProjectService(h.projects, nil, emitter, nil, service.ProjectServiceConfig{}, nil)
	assert.ErrorContains(t, err, "tasks cannot be nil")

	_, err = service.NewProjectService(h.projects, h.tasks, nil, nil, service.ProjectServiceConfig{}, nil)
	assert.ErrorContains(t, err, "emitter cannot be nil")

	svc, err := service.NewProjectService(h.projects, h.tasks, emitter, nil, service.ProjectServiceConfig{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestCreateProject(t *testing.T) {
	ctx := context.Background()

	t.Run("stores trimmed values and timestamps", func(t *testing.T) {
		h := newHarness(t)
		p, err := h.projectSvc.CreateProject(ctx, "  Launch  ", strPtr("  Q3 release "))
		require.NoError(t, err)

		assert.NotZero(t, p.ID)
		assert.Equal(t, "Launch", p.Name)
		require.NotNil(t, p.Description)
		assert.Equal(t, "Q3 release", *p.Description)
		assert.True(t, testNow.Equal(p.CreatedAt))
		assert.True(t, testNow.Equal(p.UpdatedAt))

		got, err := h.projectSvc.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Launch", got.Name)
		assert.Equal(t, 0, got.TaskCount)
		assert.Equal(t, []string{events.ProjectCreated}, h.log.types())
	})

	t.Run("blank description is stored as absent", func(t *testing.T) {
		h := newHarness(t)
		p, err := h.projectSvc.CreateProject(ctx, "Launch", strPtr("   "))
		require.NoError(t, err)
		assert.Nil(t, p.Description)
	})

	t.Run("validation failures", func(t *testing.T) {
		long := strings.Repeat("word ", 31)
		cases := []struct {
			name        string
			projectName string
			description *string
			field       string
			message     string
		}{
			{"empty name", "   ", nil, "name", "Name cannot be empty"},
			{"too many words", long, nil, "name", "Name must be less than 30 words (current: 31)"},
			{"long description", "Launch", strPtr(strings.Repeat("w ", 151)), "description",
				"Description must be less than 150 words (current: 151)"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				h := newHarness(t)
				_, err := h.projectSvc.CreateProject(ctx, tc.projectName, tc.description)

				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, domain.CodeValidation, vErr.Code())
				assert.Equal(t, tc.field, vErr.Field)
				assert.Equal(t, tc.message, vErr.Message)

				list, err := h.projectSvc.ListProjects(ctx)
				require.NoError(t, err)
				assert.Empty(t, list)
				assert.Empty(t, h.log.types())
			})
		}
	})

	t.Run("name validated before description", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.projectSvc.CreateProject(ctx, "", strPtr(strings.Repeat("w ", 200)))
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "name", vErr.Field)
	})

	t.Run("duplicate name differs only in case", func(t *testing.T) {
		h := newHarness(t)
		h.project(t, "Launch")

		_, err := h.projectSvc.CreateProject(ctx, "LAUNCH", nil)
		require.Error(t, err)
		assert.Equal(t, domain.CodeDuplicateEntity, domain.CodeOf(err))
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Contains(t, err.Error(), "Project with name 'LAUNCH' already exists")

		list, err := h.projectSvc.ListProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("duplicate name differs only in non-ASCII case", func(t *testing.T) {
		h := newHarness(t)
		h.project(t, "Équipe")

		_, err := h.projectSvc.CreateProject(ctx, "équipe", nil)
		require.Error(t, err)
		assert.Equal(t, domain.CodeDuplicateEntity, domain.CodeOf(err))

		_, err = h.projectSvc.CreateProject(ctx, "ÉQUIPE", nil)
		assert.Equal(t, domain.CodeDuplicateEntity, domain.CodeOf(err))

		list, err := h.projectSvc.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Équipe", list[0].Name)
	})

	t.Run("limit is enforced before validation", func(t *testing.T) {
		h := newHarness(t)
		for i := 1; i <= service.DefaultMaxProjects; i++ {
			h.project(t, fmt.Sprintf("Project %d", i))
		}

		_, err := h.projectSvc.CreateProject(ctx, "Eleventh", nil)
		require.Error(t, err)
		assert.Equal(t, domain.CodeLimitExceeded, domain.CodeOf(err))
		assert.Contains(t, err.Error(), "Maximum number of projects (10) reached")

		_, err = h.projectSvc.CreateProject(ctx, "", nil)
		assert.Equal(t, domain.CodeLimitExceeded, domain.CodeOf(err))

		count, err := h.projects.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 10, count)
	})

	t.Run("configured limit", func(t *testing.T) {
		h := newHarness(t)
		svc, err := service.NewProjectService(h.projects, h.tasks, h.emitter, h.clock,
			service.ProjectServiceConfig{MaxProjects: 1}, logger.Discard())
		require.NoError(t, err)

		_, err = svc.CreateProject(ctx, "One", nil)
		require.NoError(t, err)
		_, err = svc.CreateProject(ctx, "Two", nil)
		assert.Equal(t, domain.CodeLimitExceeded, domain.CodeOf(err))
	})
}

func TestEditProject(t *testing.T) {
	ctx := context.Background()

	t.Run("updates provided fields only", func(t *testing.T) {
		h := newHarness(t)
		p, err := h.projectSvc.CreateProject(ctx, "Launch", strPtr("first"))
		require.NoError(t, err)

		h.clock.Advance(time23h)
		updated, err := h.projectSvc.EditProject(ctx, p.ID, service.EditProjectInput{Name: strPtr("Liftoff")})
		require.NoError(t, err)
		assert.Equal(t, "Liftoff", updated.Name)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "first", *updated.Description)
		assert.True(t, testNow.Add(time23h).Equal(updated.UpdatedAt))
		assert.True(t, testNow.Equal(updated.CreatedAt))

		got, err := h.projectSvc.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Liftoff", got.Name)
	})

	t.Run("blank description clears it", func(t *testing.T) {
		h := newHarness(t)
		p, err := h.projectSvc.CreateProject(ctx, "Launch", strPtr("first"))
		require.NoError(t, err)

		updated, err := h.projectSvc.EditProject(ctx, p.ID, service.EditProjectInput{Description: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, updated.Description)
	})

	t.Run("renaming to own name in another case is allowed", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")

		updated, err := h.projectSvc.EditProject(ctx, p.ID, service.EditProjectInput{Name: strPtr("LAUNCH")})
		require.NoError(t, err)
		assert.Equal(t, "LAUNCH", updated.Name)
	})

	t.Run("renaming onto another project's name fails", func(t *testing.T) {
		h := newHarness(t)
		h.project(t, "Launch")
		other := h.project(t, "Other")

		_, err := h.projectSvc.EditProject(ctx, other.ID, service.EditProjectInput{Name: strPtr("launch")})
		assert.Equal(t, domain.CodeDuplicateEntity, domain.CodeOf(err))

		got, err := h.projectSvc.GetProject(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, "Other", got.Name)
	})

	t.Run("invalid field leaves project untouched", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")

		_, err := h.projectSvc.EditProject(ctx, p.ID, service.EditProjectInput{
			Name:        strPtr("Renamed"),
			Description: strPtr(strings.Repeat("w ", 151)),
		})
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))

		got, err := h.projectSvc.GetProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Launch", got.Name)
	})

	t.Run("unknown project", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.projectSvc.EditProject(ctx, 999, service.EditProjectInput{Name: strPtr("x")})

		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "Project", nf.Entity)
		assert.Equal(t, int64(999), nf.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the project and its tasks", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		keep := h.project(t, "Keep")
		h.task(t, p.ID, service.CreateTaskInput{Title: "one"})
		h.task(t, p.ID, service.CreateTaskInput{Title: "two"})
		kept := h.task(t, keep.ID, service.CreateTaskInput{Title: "kept"})

		require.NoError(t, h.projectSvc.DeleteProject(ctx, p.ID))

		_, err := h.projectSvc.GetProject(ctx, p.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = h.taskSvc.ListTasks(ctx, p.ID)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))

		_, found, err := h.taskSvc.GetTask(ctx, keep.ID, kept.ID)
		require.NoError(t, err)
		assert.True(t, found)

		last := h.log.events[len(h.log.events)-1]
		assert.Equal(t, events.ProjectDeleted, last.Type)
		var payload events.ProjectPayload
		require.NoError(t, last.UnmarshalPayload(&payload))
		assert.Equal(t, int64(2), payload.TasksDeleted)
	})

	t.Run("unknown project", func(t *testing.T) {
		h := newHarness(t)
		err := h.projectSvc.DeleteProject(ctx, 42)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})

	t.Run("store failure rolls back task removal", func(t *testing.T) {
		h := newHarness(t)
		p := h.project(t, "Launch")
		h.task(t, p.ID, service.CreateTaskInput{Title: "one"})

		h.projects = failingProjectStore{ProjectStore: h.projects, deleteErr: errors.New("disk full")}
		h.build(t)

		err := h.projectSvc.DeleteProject(ctx, p.ID)
		var repoErr *domain.RepositoryError
		require.ErrorAs(t, err, &repoErr)
		assert.Equal(t, domain.CodeDatabaseOperation, repoErr.Code())
		assert.Equal(t, "delete_project", repoErr.Operation)

		tasks, err := h.taskSvc.ListTasks(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})
}

func TestListProjects_CreationOrderWithCounts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a := h.project(t, "Alpha")
	h.clock.Advance(time23h)
	b := h.project(t, "Beta")
	h.task(t, b.ID, service.CreateTaskInput{Title: "one"})
	h.task(t, b.ID, service.CreateTaskInput{Title: "two"})

	list, err := h.projectSvc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, 0, list[0].TaskCount)
	assert.Equal(t, b.ID, list[1].ID)
	assert.Equal(t, 2, list[1].TaskCount)
}
