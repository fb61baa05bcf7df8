// Package jobs runs periodic maintenance inside the API process.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Task performs one maintenance pass and reports how many rows it touched.
type Task func(ctx context.Context) (int64, error)

// Scheduler wraps a cron runner with named tasks, per-run timeouts and metrics.
type Scheduler struct {
	cron    *cron.Cron
	logger  zerolog.Logger
	timeout time.Duration

	mu    sync.Mutex
	tasks map[string]Task
}

// NewScheduler builds a UTC scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(logger zerolog.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
		tasks:   make(map[string]Task),
	}
}

// Add registers task under name on a standard cron spec or descriptor such as "@hourly".
func (s *Scheduler) Add(name, spec string, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}
	if _, err := s.cron.AddFunc(spec, func() { _ = s.run(context.Background(), name, task) }); err != nil {
		return fmt.Errorf("schedule job %q: %w", name, err)
	}
	s.tasks[name] = task
	return nil
}

// RunNow executes a registered job immediately on the calling goroutine.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	task, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	return s.run(ctx, name, task)
}

func (s *Scheduler) run(ctx context.Context, name string, task Task) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	affected, err := task(ctx)
	jobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		jobRuns.WithLabelValues(name, "error").Inc()
		s.logger.Error().Err(err).Str("job", name).Msg("maintenance job failed")
		return err
	}
	jobRuns.WithLabelValues(name, "ok").Inc()
	jobLastSuccess.WithLabelValues(name).SetToCurrentTime()
	s.logger.Info().Str("job", name).Int64("affected", affected).Dur("took", time.Since(start)).Msg("maintenance job finished")
	return nil
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// cronLogger adapts zerolog to the cron.Logger interface.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
