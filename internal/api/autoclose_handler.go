package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/jobs"
)

// DefaultManualTriggerInterval is the minimum spacing between on-demand
// auto-close runs when none is configured.
const DefaultManualTriggerInterval = 10 * time.Second

// AutoCloseRunner runs one auto-close pass on demand.
type AutoCloseRunner interface {
	RunNow(ctx context.Context) (jobs.RunResult, error)
}

// AutoCloseHandler exposes the administrative auto-close trigger.
type AutoCloseHandler struct {
	runner  AutoCloseRunner
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewAutoCloseHandler creates an AutoCloseHandler that accepts at most one
// trigger per interval. A non-positive interval uses
// DefaultManualTriggerInterval.
func NewAutoCloseHandler(runner AutoCloseRunner, interval time.Duration, logger *slog.Logger) *AutoCloseHandler {
	if interval <= 0 {
		interval = DefaultManualTriggerInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoCloseHandler{
		runner:  runner,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		logger:  logger.With("component", "autoclose_handler"),
	}
}

// Trigger handles POST /tasks/autoclose requests
func (h *AutoCloseHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, CodeRateLimited, "",
			"Auto-close was triggered recently, try again later", nil)
		return
	}

	result, err := h.runner.RunNow(r.Context())
	if errors.Is(err, jobs.ErrStopped) {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, CodeUnavailable, "",
			"Auto-close is shutting down", err)
		return
	}
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AutoCloseResponse{
		Closed: result.Closed,
		RunID:  result.RunID.String(),
	})
}
