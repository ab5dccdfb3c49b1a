package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// DefaultInterval is the auto-close period used when none is configured.
const DefaultInterval = 15 * time.Minute

// Trigger names what started a run.
type Trigger string

// Trigger values.
const (
	TriggerTick   Trigger = "tick"
	TriggerStart  Trigger = "start"
	TriggerManual Trigger = "manual"
)

var (
	// ErrAlreadyStarted is returned by Start when the loop is running.
	ErrAlreadyStarted = errors.New("scheduler already started")

	// ErrStopped is returned by Start and RunNow after Stop.
	ErrStopped = errors.New("scheduler stopped")
)

// AutoCloser closes overdue tasks and reports how many were closed.
// service.TaskService satisfies it.
type AutoCloser interface {
	AutoCloseOverdue(ctx context.Context) (int, error)
}

// Config holds the scheduler settings.
type Config struct {
	// Interval between runs. Zero or negative means DefaultInterval.
	Interval time.Duration

	// RunOnStart runs one batch immediately when the loop starts.
	RunOnStart bool
}

// RunResult describes one completed run.
type RunResult struct {
	RunID    uuid.UUID
	Trigger  Trigger
	Closed   int
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Scheduler periodically invokes an AutoCloser. A single-slot semaphore
// shared by the ticker loop and RunNow keeps runs from overlapping; a
// trigger that finds the slot taken waits for it.
type Scheduler struct {
	closer AutoCloser
	config Config
	logger *slog.Logger

	sem  chan struct{}
	done chan struct{}

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopped  bool
	wg       sync.WaitGroup
	observer func(RunResult)
}

// NewScheduler creates a Scheduler. It does not start the loop.
func NewScheduler(closer AutoCloser, config Config, logger *slog.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		closer: closer,
		config: config,
		logger: logger.With("component", "autoclose_scheduler"),
		sem:    make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// SetObserver registers a function called after every run, successful or
// not. It must be set before Start.
func (s *Scheduler) SetObserver(fn func(RunResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Interval returns the effective run interval.
func (s *Scheduler) Interval() time.Duration {
	return s.config.Interval
}

// Start launches the ticker loop. The loop ends when ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(loopCtx)

	s.logger.Info("scheduler started",
		"interval", s.config.Interval.String(),
		"run_on_start", s.config.RunOnStart)
	return nil
}

// Stop ends the loop and waits for every in-flight run, scheduled or
// on demand, to finish. Triggers still waiting for the slot give up with
// ErrStopped. It is safe to call more than once and before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.done)
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// RunNow performs one run on demand. If a run is already in flight it
// waits for it to finish first. It returns ctx.Err() if ctx ends while
// waiting and ErrStopped once Stop has been called.
func (s *Scheduler) RunNow(ctx context.Context) (RunResult, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return RunResult{}, ErrStopped
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return RunResult{}, ctx.Err()
	case <-s.done:
		return RunResult{}, ErrStopped
	}
	defer func() { <-s.sem }()

	result := s.run(ctx, TriggerManual)
	return result, result.Err
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.tryRun(ctx, TriggerStart)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("scheduler loop exiting", "reason", ctx.Err())
			return
		case <-ticker.C:
			s.tryRun(ctx, TriggerTick)
		}
	}
}

// tryRun defers the run until the slot is free. Ticks that fire while it
// waits are coalesced by the ticker.
func (s *Scheduler) tryRun(ctx context.Context, trigger Trigger) {
	select {
	case s.sem <- struct{}{}:
	default:
		s.logger.Debug("auto-close run deferred, previous run still in flight", "trigger", trigger)
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
	}
	defer func() { <-s.sem }()

	// The batch is atomic; cancelling the loop must not abort it midway.
	s.run(context.WithoutCancel(ctx), trigger)
}

func (s *Scheduler) run(ctx context.Context, trigger Trigger) RunResult {
	result := RunResult{
		RunID:   uuid.New(),
		Trigger: trigger,
		Started: time.Now(),
	}
	log := s.logger.With("run_id", result.RunID.String(), "trigger", string(trigger))
	ctx = logger.WithLogger(ctx, log)

	closed, err := s.callCloser(ctx)
	result.Closed = closed
	result.Err = err
	result.Duration = time.Since(result.Started)

	if err != nil {
		log.Error("auto-close run failed", "error", err, "duration", result.Duration)
	} else {
		log.Info("auto-close run finished", "closed", closed, "duration", result.Duration)
	}

	s.mu.Lock()
	observer := s.observer
	s.mu.Unlock()
	if observer != nil {
		observer(result)
	}
	return result
}

// callCloser converts a panic in the closer into an error so the loop
// keeps running.
func (s *Scheduler) callCloser(ctx context.Context) (closed int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()
	return s.closer.AutoCloseOverdue(ctx)
}

// PanicError reports a panic recovered from a run.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "auto-close run panicked: " + slog.AnyValue(e.Value).String()
}
