package service_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/sqlstore"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/phrazzld/todo-api/internal/testdb"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

const time23h = 23 * time.Hour

func strPtr(s string) *string { return &s }

// eventLog records every event emitted during a test.
type eventLog struct {
	mu     sync.Mutex
	events []*events.Event
}

func (l *eventLog) HandleEvent(_ context.Context, e *events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	projects store.ProjectStore
	tasks    store.TaskStore
	clock    *domain.FixedClock
	emitter  *events.InMemoryEventEmitter
	log      *eventLog

	projectSvc service.ProjectService
	taskSvc    service.TaskService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testdb.Open(t)
	h := &harness{
		projects: sqlstore.NewProjectStore(db.SQL, db.Dialect, nil),
		tasks:    sqlstore.NewTaskStore(db.SQL, db.Dialect, nil),
		clock:    domain.NewFixedClock(testNow),
		emitter:  events.NewInMemoryEventEmitter(logger.Discard()),
		log:      &eventLog{},
	}
	h.emitter.Subscribe(h.log)
	h.build(t)
	return h
}

// build (re)creates the services from the harness stores.
func (h *harness) build(t *testing.T) {
	t.Helper()
	var err error
	h.projectSvc, err = service.NewProjectService(h.projects, h.tasks, h.emitter, h.clock,
		service.ProjectServiceConfig{}, logger.Discard())
	require.NoError(t, err)
	h.taskSvc, err = service.NewTaskService(h.projects, h.tasks, h.emitter, h.clock,
		validation.DefaultLimits(), logger.Discard())
	require.NoError(t, err)
}

func (h *harness) project(t *testing.T, name string) *domain.Project {
	t.Helper()
	p, err := h.projectSvc.CreateProject(context.Background(), name, nil)
	require.NoError(t, err)
	return p
}

func (h *harness) task(t *testing.T, projectID int64, input service.CreateTaskInput) *domain.Task {
	t.Helper()
	task, err := h.taskSvc.CreateTask(context.Background(), projectID, input)
	require.NoError(t, err)
	return task
}

// failingProjectStore fails Delete on the pool and on every tx-bound copy.
type failingProjectStore struct {
	store.ProjectStore
	deleteErr error
}

func (s failingProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return failingProjectStore{ProjectStore: s.ProjectStore.WithTx(tx), deleteErr: s.deleteErr}
}

func (s failingProjectStore) Delete(context.Context, int64) error {
	return s.deleteErr
}

// failingTaskStore fails CloseOverdue and Update.
type failingTaskStore struct {
	store.TaskStore
	err error
}

func (s failingTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return failingTaskStore{TaskStore: s.TaskStore.WithTx(tx), err: s.err}
}

func (s failingTaskStore) CloseOverdue(context.Context, time.Time) (int64, error) {
	return 0, s.err
}

func (s failingTaskStore) Update(context.Context, *domain.Task) error {
	return s.err
}
