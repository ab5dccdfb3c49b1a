package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/phrazzld/todo-api/internal/api"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/domain/validation"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/jobs"
	"github.com/phrazzld/todo-api/internal/metrics"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/platform/sqlstore"
	"github.com/phrazzld/todo-api/internal/service"
	"github.com/phrazzld/todo-api/internal/testdb"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*httptest.Server
	clock   *domain.FixedClock
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testdb.Open(t)
	projects := sqlstore.NewProjectStore(db.SQL, db.Dialect, nil)
	tasks := sqlstore.NewTaskStore(db.SQL, db.Dialect, nil)
	clock := domain.NewFixedClock(testNow)
	log := logger.Discard()
	m := metrics.New()

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.Subscribe(m)

	projectSvc, err := service.NewProjectService(projects, tasks, emitter, clock,
		service.ProjectServiceConfig{Limits: validation.DefaultLimits()}, log)
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(projects, tasks, emitter, clock, validation.DefaultLimits(), log)
	require.NoError(t, err)

	scheduler := jobs.NewScheduler(taskSvc, jobs.Config{}, log)
	scheduler.SetObserver(m.ObserveAutoClose)

	router := api.NewRouter(api.RouterDeps{
		Projects:              projectSvc,
		Tasks:                 taskSvc,
		AutoClose:             scheduler,
		ManualTriggerInterval: time.Hour,
		DB:                    db.SQL,
		Metrics:               m,
		Logger:                log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, clock: clock, metrics: m}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) createProject(t *testing.T, name string) api.ProjectResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, api.APIPrefix+"/projects", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[api.ProjectResponse](t, resp)
}

func (s *testServer) createTask(t *testing.T, projectID int64, body map[string]any) api.TaskResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, taskPath(projectID), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[api.TaskResponse](t, resp)
}

func requireError(t *testing.T, resp *http.Response, status int, code string) shared.ErrorResponse {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	body := decode[shared.ErrorResponse](t, resp)
	require.Equal(t, code, body.Code)
	require.NotEmpty(t, body.TraceID)
	return body
}
