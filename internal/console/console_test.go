package console

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/jobs"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/sqlstore"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T) (*Model, service.ProjectService, service.TaskService) {
	t.Helper()

	db := testdb.Open(t)
	projects := sqlstore.NewProjectStore(db.SQL, db.Dialect, nil)
	tasks := sqlstore.NewTaskStore(db.SQL, db.Dialect, nil)
	clock := domain.NewFixedClock(testNow)
	emitter := events.NewInMemoryEventEmitter(logger.Discard())

	projectSvc, err := service.NewProjectService(projects, tasks, emitter, clock,
		service.ProjectServiceConfig{}, logger.Discard())
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(projects, tasks, emitter, clock,
		validation.DefaultLimits(), logger.Discard())
	require.NoError(t, err)

	scheduler := jobs.NewScheduler(taskSvc, jobs.Config{}, logger.Discard())
	m := New(context.Background(), Deps{
		Projects:  projectSvc,
		Tasks:     taskSvc,
		AutoClose: scheduler,
		Clock:     clock,
	})
	return m, projectSvc, taskSvc
}

// drive runs cmd and feeds its message back into the model, the way the
// bubbletea runtime would.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m *Model, s string) {
	t.Helper()
	_, cmd := m.Update(key(s))
	drive(t, m, cmd)
}

func TestConsoleBrowsesProjectsAndTasks(t *testing.T) {
	m, projects, tasks := newTestModel(t)
	ctx := context.Background()

	_, err := projects.CreateProject(ctx, "Backlog", nil)
	require.NoError(t, err)
	launch, err := projects.CreateProject(ctx, "Launch", nil)
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, launch.ID, service.CreateTaskInput{Title: "Write copy"})
	require.NoError(t, err)

	drive(t, m, m.Init())
	require.Len(t, m.projects, 2)
	assert.Contains(t, m.View(), "Launch (1 tasks)")

	press(t, m, "down")
	press(t, m, "enter")
	assert.Equal(t, taskScreen, m.screen)
	require.Len(t, m.tasks, 1)
	view := m.View()
	assert.Contains(t, view, "Tasks in Launch")
	assert.Contains(t, view, "Write copy")

	press(t, m, "esc")
	assert.Equal(t, projectScreen, m.screen)
	assert.Equal(t, 1, m.cursor, "cursor returns to the opened project")
}

func TestConsoleAutoClose(t *testing.T) {
	m, projects, tasks := newTestModel(t)
	ctx := context.Background()

	p, err := projects.CreateProject(ctx, "Launch", nil)
	require.NoError(t, err)
	deadline := "2024-01-01"
	_, err = tasks.CreateTask(ctx, p.ID, service.CreateTaskInput{Title: "Write copy", Deadline: &deadline})
	require.NoError(t, err)

	drive(t, m, m.Init())
	press(t, m, "enter")
	assert.Contains(t, m.View(), "(overdue)")

	press(t, m, "a")
	assert.Contains(t, m.status, "1 task(s) closed")
	require.Len(t, m.tasks, 1)
	assert.Equal(t, domain.TaskStatusDone, m.tasks[0].Status)
	assert.NotContains(t, m.View(), "(overdue)")
}

func TestConsoleReturnsToProjectsWhenProjectDisappears(t *testing.T) {
	m, projects, _ := newTestModel(t)
	ctx := context.Background()

	p, err := projects.CreateProject(ctx, "Launch", nil)
	require.NoError(t, err)

	drive(t, m, m.Init())
	press(t, m, "enter")
	require.Equal(t, taskScreen, m.screen)

	require.NoError(t, projects.DeleteProject(ctx, p.ID))
	press(t, m, "r")

	assert.Equal(t, projectScreen, m.screen)
	assert.Empty(t, m.projects)
	assert.Contains(t, m.View(), "No projects yet.")
}

func TestConsoleCreatesProject(t *testing.T) {
	m, projects, _ := newTestModel(t)
	ctx := context.Background()

	drive(t, m, m.Init())
	press(t, m, "n")
	require.NotNil(t, m.form)
	assert.Contains(t, m.View(), "New project")

	press(t, m, "Launch")
	press(t, m, "tab")
	press(t, m, "Big release")
	press(t, m, "enter")

	assert.Nil(t, m.form)
	assert.NoError(t, m.err)
	assert.Contains(t, m.status, `Project "Launch" created`)
	require.Len(t, m.projects, 1)

	list, err := projects.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Description)
	assert.Equal(t, "Big release", *list[0].Description)
}

func TestConsoleFormKeepsInputOnValidationError(t *testing.T) {
	m, projects, _ := newTestModel(t)
	ctx := context.Background()

	_, err := projects.CreateProject(ctx, "Launch", nil)
	require.NoError(t, err)
	drive(t, m, m.Init())

	press(t, m, "n")
	press(t, m, "launch")
	press(t, m, "enter")
	press(t, m, "enter")

	require.NotNil(t, m.form, "form stays open after a rejected save")
	assert.Equal(t, domain.CodeDuplicateEntity, domain.CodeOf(m.err))
	assert.Contains(t, m.View(), "already exists")
	assert.Equal(t, "launch", m.form.fields[0].input.Value())

	press(t, m, "esc")
	assert.Nil(t, m.form)
	assert.NoError(t, m.err)
	assert.Equal(t, "Cancelled", m.status)
}

func TestConsoleEditsAndDeletesProject(t *testing.T) {
	m, projects, tasks := newTestModel(t)
	ctx := context.Background()

	p, err := projects.CreateProject(ctx, "Launch", nil)
	require.NoError(t, err)
	_, err = tasks.CreateTask(ctx, p.ID, service.CreateTaskInput{Title: "Write copy"})
	require.NoError(t, err)
	drive(t, m, m.Init())

	press(t, m, "e")
	require.NotNil(t, m.form)
	assert.Equal(t, "Launch", m.form.fields[0].input.Value())
	press(t, m, "ctrl+u")
	press(t, m, "Liftoff")
	press(t, m, "enter")
	press(t, m, "enter")

	require.Nil(t, m.form)
	got, err := projects.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Liftoff", got.Name)

	press(t, m, "d")
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), `Delete project "Liftoff" and its 1 task(s)?`)
	press(t, m, "n")
	assert.Nil(t, m.confirm)
	_, err = projects.GetProject(ctx, p.ID)
	require.NoError(t, err, "declined delete keeps the project")

	press(t, m, "d")
	press(t, m, "y")
	assert.Equal(t, "Project deleted", m.status)
	assert.Empty(t, m.projects)
	_, err = projects.GetProject(ctx, p.ID)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestConsoleManagesTasks(t *testing.T) {
	m, projects, tasks := newTestModel(t)
	ctx := context.Background()

	p, err := projects.CreateProject(ctx, "Launch", nil)
	require.NoError(t, err)
	drive(t, m, m.Init())
	press(t, m, "enter")
	require.Equal(t, taskScreen, m.screen)

	press(t, m, "n")
	press(t, m, "Write copy")
	press(t, m, "tab")
	press(t, m, "tab")
	press(t, m, "doing")
	press(t, m, "tab")
	press(t, m, "2024-07-01")
	press(t, m, "enter")

	require.Nil(t, m.form)
	require.Len(t, m.tasks, 1)
	created := m.tasks[0]
	assert.Equal(t, "Write copy", created.Title)
	assert.Equal(t, domain.TaskStatusInProgress, created.Status)
	require.NotNil(t, created.Deadline)
	assert.True(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC).Equal(*created.Deadline))

	press(t, m, "e")
	require.NotNil(t, m.form)
	assert.Equal(t, "in_progress", m.form.fields[2].input.Value())
	assert.Equal(t, "2024-07-01", m.form.fields[3].input.Value())
	press(t, m, "tab")
	press(t, m, "tab")
	press(t, m, "ctrl+u")
	press(t, m, "done")
	press(t, m, "enter")
	press(t, m, "enter")

	require.Nil(t, m.form)
	got, found, err := tasks.GetTask(ctx, p.ID, created.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.TaskStatusDone, got.Status)
	require.NotNil(t, got.Deadline, "unchanged deadline survives the edit")
	assert.True(t, created.Deadline.Equal(*got.Deadline))

	press(t, m, "d")
	assert.Contains(t, m.View(), `Delete task "Write copy"?`)
	press(t, m, "y")
	assert.Equal(t, "Task deleted", m.status)
	assert.Empty(t, m.tasks)
	assert.Equal(t, taskScreen, m.screen)
}

func TestFormatDeadline(t *testing.T) {
	assert.Empty(t, formatDeadline(nil))

	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-07-01", formatDeadline(&day))

	at := time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-07-01T09:30:00Z", formatDeadline(&at))

	parsed, err := validation.ParseDeadline(formatDeadline(&at))
	require.NoError(t, err)
	assert.True(t, at.Equal(parsed))
}

func TestConsoleQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(3, 0))
	assert.Equal(t, 1, clamp(5, 2))
	assert.Equal(t, 0, clamp(-1, 2))
	assert.Equal(t, 1, clamp(1, 2))
}
