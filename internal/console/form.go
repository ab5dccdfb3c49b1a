package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/service"
)

type fieldSpec struct {
	label       string
	placeholder string
	value       string
}

type formField struct {
	label string
	input textinput.Model
}

// form is a set of text fields submitted together. Submitting returns a
// command that reports back with savedMsg; the form stays open until the
// save succeeds.
type form struct {
	title  string
	fields []formField
	focus  int
	submit func(values []string) tea.Cmd
}

func newForm(title string, submit func([]string) tea.Cmd, specs ...fieldSpec) *form {
	f := &form{title: title, submit: submit}
	for _, spec := range specs {
		in := textinput.New()
		in.Prompt = "  "
		in.Placeholder = spec.placeholder
		in.Width = 60
		in.Cursor.SetMode(cursor.CursorStatic)
		in.SetValue(spec.value)
		f.fields = append(f.fields, formField{label: spec.label, input: in})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

func (f *form) move(delta int) {
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Focus()
}

func (f *form) last() bool {
	return f.focus == len(f.fields)-1
}

func (f *form) values() []string {
	out := make([]string, len(f.fields))
	for i, fl := range f.fields {
		out[i] = fl.input.Value()
	}
	return out
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *form) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title) + "\n\n")
	for i, fl := range f.fields {
		label := fl.label
		if i == f.focus {
			label = selectedStyle.Render(label)
		}
		b.WriteString(label + "\n" + fl.input.View() + "\n\n")
	}
	return b.String()
}

// confirmation asks a yes/no question before running action.
type confirmation struct {
	prompt string
	action tea.Cmd
}

type savedMsg struct {
	status string
	err    error
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		m.form = nil
		m.err = nil
		m.status = "Cancelled"
		return nil
	case "tab", "down":
		m.form.move(1)
		return nil
	case "shift+tab", "up":
		m.form.move(-1)
		return nil
	case "enter":
		if !m.form.last() {
			m.form.move(1)
			return nil
		}
		m.loading = true
		return m.form.submit(m.form.values())
	}
	return m.form.update(msg)
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "y", "Y":
		action := m.confirm.action
		m.confirm = nil
		m.loading = true
		return action
	case "n", "N", "esc":
		m.confirm = nil
		m.status = "Cancelled"
	}
	return nil
}

func (m *Model) openCreate() {
	if m.screen == taskScreen {
		projectID := m.project.ID
		m.form = newForm("New task in "+m.project.Name,
			func(v []string) tea.Cmd { return m.createTask(projectID, v) },
			fieldSpec{label: "Title"},
			fieldSpec{label: "Description", placeholder: "optional"},
			fieldSpec{label: "Status", placeholder: "todo"},
			fieldSpec{label: "Deadline", placeholder: "YYYY-MM-DD, optional"},
		)
		return
	}
	m.form = newForm("New project", m.createProject,
		fieldSpec{label: "Name"},
		fieldSpec{label: "Description", placeholder: "optional"},
	)
}

func (m *Model) openEdit() {
	if m.cursor >= m.rows() {
		return
	}
	if m.screen == taskScreen {
		t := m.tasks[m.cursor]
		projectID, taskID := t.ProjectID, t.ID
		m.form = newForm("Edit task",
			func(v []string) tea.Cmd { return m.editTask(projectID, taskID, v) },
			fieldSpec{label: "Title", value: t.Title},
			fieldSpec{label: "Description", placeholder: "empty clears", value: deref(t.Description)},
			fieldSpec{label: "Status", value: t.Status.String()},
			fieldSpec{label: "Deadline", placeholder: "empty clears", value: formatDeadline(t.Deadline)},
		)
		return
	}
	p := m.projects[m.cursor]
	projectID := p.ID
	m.form = newForm("Edit project",
		func(v []string) tea.Cmd { return m.editProject(projectID, v) },
		fieldSpec{label: "Name", value: p.Name},
		fieldSpec{label: "Description", placeholder: "empty clears", value: deref(p.Description)},
	)
}

func (m *Model) openDelete() {
	if m.cursor >= m.rows() {
		return
	}
	if m.screen == taskScreen {
		t := m.tasks[m.cursor]
		m.confirm = &confirmation{
			prompt: fmt.Sprintf("Delete task %q? (y/n)", t.Title),
			action: m.deleteTask(t.ProjectID, t.ID),
		}
		return
	}
	p := m.projects[m.cursor]
	m.confirm = &confirmation{
		prompt: fmt.Sprintf("Delete project %q and its %d task(s)? (y/n)", p.Name, p.TaskCount),
		action: m.deleteProject(p.ID),
	}
}

func (m *Model) createProject(v []string) tea.Cmd {
	ctx, projects := m.ctx, m.deps.Projects
	name, description := v[0], v[1]
	return func() tea.Msg {
		p, err := projects.CreateProject(ctx, name, &description)
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{status: fmt.Sprintf("Project %q created", p.Name)}
	}
}

func (m *Model) editProject(id int64, v []string) tea.Cmd {
	ctx, projects := m.ctx, m.deps.Projects
	input := service.EditProjectInput{Name: &v[0], Description: &v[1]}
	return func() tea.Msg {
		p, err := projects.EditProject(ctx, id, input)
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{status: fmt.Sprintf("Project %q updated", p.Name)}
	}
}

func (m *Model) deleteProject(id int64) tea.Cmd {
	ctx, projects := m.ctx, m.deps.Projects
	return func() tea.Msg {
		if err := projects.DeleteProject(ctx, id); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{status: "Project deleted"}
	}
}

func (m *Model) createTask(projectID int64, v []string) tea.Cmd {
	ctx, tasks := m.ctx, m.deps.Tasks
	input := service.CreateTaskInput{Title: v[0], Description: &v[1], Status: v[2], Deadline: &v[3]}
	return func() tea.Msg {
		t, err := tasks.CreateTask(ctx, projectID, input)
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{status: fmt.Sprintf("Task %q created", t.Title)}
	}
}

// editTask leaves the status untouched when its field is blank.
func (m *Model) editTask(projectID, taskID int64, v []string) tea.Cmd {
	ctx, tasks := m.ctx, m.deps.Tasks
	input := service.EditTaskInput{Title: &v[0], Description: &v[1], Deadline: &v[3]}
	if strings.TrimSpace(v[2]) != "" {
		input.Status = &v[2]
	}
	return func() tea.Msg {
		t, err := tasks.EditTask(ctx, projectID, taskID, input)
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{status: fmt.Sprintf("Task %q updated", t.Title)}
	}
}

func (m *Model) deleteTask(projectID, taskID int64) tea.Cmd {
	ctx, tasks := m.ctx, m.deps.Tasks
	return func() tea.Msg {
		if err := tasks.DeleteTask(ctx, projectID, taskID); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{status: "Task deleted"}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// formatDeadline renders d so that validation.ParseDeadline reads it back
// unchanged.
func formatDeadline(d *time.Time) string {
	if d == nil {
		return ""
	}
	if d.Equal(d.Truncate(24 * time.Hour)) {
		return d.UTC().Format(validation.DateLayout)
	}
	return d.UTC().Format(time.RFC3339Nano)
}
