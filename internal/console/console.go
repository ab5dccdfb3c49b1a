// Package console provides an interactive terminal front-end for managing
// projects and their tasks.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/jobs"
	"github.com/phrazzld/todo-api/internal/service"
)

// AutoCloser runs one auto-close pass.
type AutoCloser interface {
	RunNow(ctx context.Context) (jobs.RunResult, error)
}

// Deps are the services the console works with.
type Deps struct {
	Projects  service.ProjectService
	Tasks     service.TaskService
	AutoClose AutoCloser
	// Clock decides which deadlines are shown as overdue. Defaults to the
	// system clock.
	Clock domain.Clock
}

// ErrNotTTY is returned by Run when stdout is not a terminal.
var ErrNotTTY = errors.New("console requires a TTY")

// Run starts the console and blocks until the user quits or ctx ends.
func Run(ctx context.Context, deps Deps) error {
	if !IsTTY(os.Stdout) {
		return ErrNotTTY
	}
	program := tea.NewProgram(New(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

type screen int

const (
	projectScreen screen = iota
	taskScreen
)

// Model is the bubbletea model of the console.
type Model struct {
	ctx  context.Context
	deps Deps

	screen   screen
	cursor   int
	projects []*domain.Project
	project  *domain.Project
	tasks    []*domain.Task

	form    *form
	confirm *confirmation

	loading bool
	status  string
	err     error
}

type projectsLoadedMsg struct {
	projects []*domain.Project
	err      error
}

type tasksLoadedMsg struct {
	projectID int64
	tasks     []*domain.Task
	err       error
}

type autoClosedMsg struct {
	result jobs.RunResult
	err    error
}

// New returns a console model showing the project list.
func New(ctx context.Context, deps Deps) *Model {
	if deps.Clock == nil {
		deps.Clock = domain.SystemClock{}
	}
	return &Model{ctx: ctx, deps: deps, loading: true}
}

// Init loads the project list.
func (m *Model) Init() tea.Cmd {
	return m.loadProjects()
}

// Update handles key presses and the results of background loads.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case projectsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.projects = msg.projects
			m.cursor = clamp(m.cursor, len(m.projects))
		}

	case tasksLoadedMsg:
		if m.project == nil || m.project.ID != msg.projectID {
			return m, nil
		}
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			// The project is gone; fall back to the refreshed list.
			if domain.CodeOf(msg.err) == domain.CodeNotFound {
				m.err = nil
				m.status = msg.err.Error()
				m.screen = projectScreen
				m.project = nil
				m.cursor = 0
				return m, m.loadProjects()
			}
			return m, nil
		}
		m.tasks = msg.tasks
		m.cursor = clamp(m.cursor, len(m.tasks))

	case savedMsg:
		m.loading = false
		if msg.err != nil {
			// An open form stays open so the input can be corrected.
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.form = nil
		m.status = msg.status
		return m, m.reload()

	case autoClosedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = fmt.Sprintf("Auto-close finished: %d task(s) closed", msg.result.Closed)
		return m, m.reload()
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form != nil {
		return m, m.handleFormKey(msg)
	}
	if m.confirm != nil {
		return m, m.handleConfirmKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
	case "enter", "right", "l":
		if m.screen == projectScreen && m.cursor < len(m.projects) {
			m.project = m.projects[m.cursor]
			m.screen = taskScreen
			m.tasks = nil
			m.cursor = 0
			m.status = ""
			return m, m.loadTasks(m.project.ID)
		}
	case "esc", "backspace", "left", "h":
		if m.screen == taskScreen {
			m.screen = projectScreen
			m.cursor = m.indexOfProject()
			m.project = nil
			m.tasks = nil
			m.status = ""
			return m, m.loadProjects()
		}
	case "n":
		m.err = nil
		m.openCreate()
	case "e":
		m.err = nil
		m.openEdit()
	case "d":
		m.err = nil
		m.openDelete()
	case "r":
		m.status = ""
		return m, m.reload()
	case "a":
		if m.deps.AutoClose == nil {
			m.status = "Auto-close is not available"
			return m, nil
		}
		m.status = "Running auto-close..."
		return m, m.autoClose()
	}
	return m, nil
}

func (m *Model) rows() int {
	if m.screen == taskScreen {
		return len(m.tasks)
	}
	return len(m.projects)
}

func (m *Model) indexOfProject() int {
	for i, p := range m.projects {
		if m.project != nil && p.ID == m.project.ID {
			return i
		}
	}
	return 0
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	if m.screen == taskScreen && m.project != nil {
		return m.loadTasks(m.project.ID)
	}
	return m.loadProjects()
}

func (m *Model) loadProjects() tea.Cmd {
	ctx, projects := m.ctx, m.deps.Projects
	return func() tea.Msg {
		list, err := projects.ListProjects(ctx)
		return projectsLoadedMsg{projects: list, err: err}
	}
}

func (m *Model) loadTasks(projectID int64) tea.Cmd {
	ctx, tasks := m.ctx, m.deps.Tasks
	return func() tea.Msg {
		list, err := tasks.ListTasks(ctx, projectID)
		return tasksLoadedMsg{projectID: projectID, tasks: list, err: err}
	}
}

func (m *Model) autoClose() tea.Cmd {
	ctx, closer := m.ctx, m.deps.AutoClose
	m.loading = true
	return func() tea.Msg {
		result, err := closer.RunNow(ctx)
		return autoClosedMsg{result: result, err: err}
	}
}

func clamp(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	statusStyles = map[domain.TaskStatus]lipgloss.Style{
		domain.TaskStatusTodo:       lipgloss.NewStyle(),
		domain.TaskStatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		domain.TaskStatusDone:       mutedStyle,
		domain.TaskStatusCancelled:  mutedStyle.Strikethrough(true),
	}
)

// View renders the current screen.
func (m *Model) View() string {
	var b strings.Builder

	if m.form != nil {
		b.WriteString(m.form.view())
		if m.err != nil {
			b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
		}
		b.WriteString(mutedStyle.Render("tab next field | enter save | esc cancel") + "\n")
		return b.String()
	}

	switch m.screen {
	case projectScreen:
		b.WriteString(titleStyle.Render("Projects") + "\n\n")
		m.writeProjects(&b)
	case taskScreen:
		b.WriteString(titleStyle.Render("Tasks in "+m.project.Name) + "\n\n")
		m.writeTasks(&b)
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.confirm != nil {
		b.WriteString("\n" + overdueStyle.Render(m.confirm.prompt) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render(m.help()) + "\n")
	return b.String()
}

func (m *Model) writeProjects(b *strings.Builder) {
	if m.loading && m.projects == nil {
		b.WriteString("  Loading...\n")
		return
	}
	if len(m.projects) == 0 {
		b.WriteString("  No projects yet.\n")
		return
	}
	for i, p := range m.projects {
		line := fmt.Sprintf("%s (%d tasks)", p.Name, p.TaskCount)
		b.WriteString(m.row(i, line) + "\n")
	}
}

func (m *Model) writeTasks(b *strings.Builder) {
	if m.loading && m.tasks == nil {
		b.WriteString("  Loading...\n")
		return
	}
	if len(m.tasks) == 0 {
		b.WriteString("  No tasks in this project.\n")
		return
	}
	now := m.deps.Clock.Now()
	for i, t := range m.tasks {
		style, ok := statusStyles[t.Status]
		if !ok {
			style = lipgloss.NewStyle()
		}
		line := fmt.Sprintf("[%s] %s", style.Render(t.Status.String()), t.Title)
		if t.Deadline != nil {
			deadline := "due " + t.Deadline.Format("2006-01-02 15:04")
			if t.IsOverdue(now) {
				deadline = overdueStyle.Render(deadline + " (overdue)")
			}
			line += "  " + deadline
		}
		b.WriteString(m.row(i, line) + "\n")
	}
}

func (m *Model) row(i int, line string) string {
	if i == m.cursor {
		return selectedStyle.Render("> ") + line
	}
	return "  " + line
}

func (m *Model) help() string {
	if m.screen == taskScreen {
		return "up/down move | n new | e edit | d delete | esc back | r refresh | a auto-close | q quit"
	}
	return "up/down move | enter open | n new | e edit | d delete | r refresh | a auto-close | q quit"
}
