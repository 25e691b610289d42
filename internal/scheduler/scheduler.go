// Package scheduler runs named recurring tasks. Every task is a supervised
// service with its own interval and a guard that skips a tick while the
// previous run is still going.
package scheduler

import (
	"context"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/varoOP/animebot/internal/domain"
	"github.com/varoOP/animebot/internal/metrics"
)

// ErrSkipped is returned by RunNow when the task is already running
var ErrSkipped = errors.New("task is already running")

// Task is a named unit of recurring work
type Task struct {
	Name string
	// Interval is the period between runs when Next is nil
	Interval time.Duration
	// Next returns the delay before each run, starting with the first.
	// Nil runs immediately and then every Interval.
	Next func(now time.Time) time.Duration
	Run  func(ctx context.Context) error
}

// Scheduler owns the tasks and the supervisor that keeps their loops alive
type Scheduler struct {
	log        zerolog.Logger
	notifier   domain.NotificationService
	supervisor *suture.Supervisor

	mu    sync.RWMutex
	tasks map[string]*task
}

// New creates a scheduler. notifier may be nil.
func New(log zerolog.Logger, notifier domain.NotificationService) *Scheduler {
	log = log.With().Str("module", "scheduler").Logger()

	return &Scheduler{
		log:      log,
		notifier: notifier,
		supervisor: suture.New("scheduler", suture.Spec{
			EventHook:        EventHook(log),
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			Timeout:          10 * time.Second,
		}),
		tasks: make(map[string]*task),
	}
}

// EventHook logs supervisor events with zerolog
func EventHook(log zerolog.Logger) suture.EventHook {
	return func(e suture.Event) {
		log.Warn().Fields(e.Map()).Msg(e.String())
	}
}

// Add registers t. Tasks added after Serve started are started right away.
func (s *Scheduler) Add(t Task) error {
	if t.Name == "" || t.Run == nil {
		return errors.New("task needs a name and a run function")
	}
	if t.Interval <= 0 {
		return errors.Errorf("task %s: interval must be positive", t.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.Name]; ok {
		return errors.Errorf("task %s already registered", t.Name)
	}

	ts := &task{Task: t, scheduler: s}
	s.tasks[t.Name] = ts
	s.supervisor.Add(ts)

	s.log.Debug().Str("task", t.Name).Dur("interval", t.Interval).Msg("task registered")
	return nil
}

// Names returns the registered task names, sorted
func (s *Scheduler) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RunNow runs one task once, outside its schedule but under the same guard
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	ts, ok := s.tasks[name]
	s.mu.RUnlock()
	if !ok {
		return errors.Errorf("unknown task %q", name)
	}
	return ts.execute(ctx, "manual")
}

// Serve runs every task loop until ctx is cancelled
func (s *Scheduler) Serve(ctx context.Context) error {
	return s.supervisor.Serve(ctx)
}

func (s *Scheduler) String() string {
	return "scheduler"
}

type task struct {
	Task
	scheduler *Scheduler
	running   atomic.Bool
}

// Serve is the task loop. The delay is recomputed after every run, so an
// aligned task follows wall clock changes. Runs happen on their own goroutine
// so a slow run makes later ticks skip instead of queueing up.
func (t *task) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	timer := time.NewTimer(t.delay(true))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = t.execute(ctx, "schedule")
		}()
		timer.Reset(t.delay(false))
	}
}

func (t *task) delay(first bool) time.Duration {
	if t.Next != nil {
		return t.Next(time.Now())
	}
	if first {
		return 0
	}
	return t.Interval
}

func (t *task) String() string {
	return "task:" + t.Name
}

func (t *task) execute(ctx context.Context, trigger string) error {
	s := t.scheduler
	if !t.running.CompareAndSwap(false, true) {
		metrics.JobRuns.WithLabelValues(t.Name, "skipped").Inc()
		s.log.Warn().Str("job", t.Name).Str("trigger", trigger).Msg("previous run still in progress, skipping")
		return ErrSkipped
	}
	defer t.running.Store(false)

	log := s.log.With().Str("job", t.Name).Str("run_id", uuid.NewString()).Logger()
	ctx = log.WithContext(ctx)

	log.Debug().Str("trigger", trigger).Msg("job started")
	start := time.Now()

	panicked, err := t.safeRun(ctx)

	elapsed := time.Since(start)
	metrics.JobDuration.WithLabelValues(t.Name).Observe(elapsed.Seconds())

	switch {
	case panicked:
		metrics.JobRuns.WithLabelValues(t.Name, "panic").Inc()
	case err != nil:
		metrics.JobRuns.WithLabelValues(t.Name, "error").Inc()
	default:
		metrics.JobRuns.WithLabelValues(t.Name, "ok").Inc()
		log.Debug().Dur("elapsed", elapsed).Msg("job finished")
		return nil
	}

	log.Error().Err(err).Dur("elapsed", elapsed).Msg("job failed")
	if s.notifier != nil && ctx.Err() == nil {
		if nerr := s.notifier.SendError(ctx, t.Name, err); nerr != nil {
			log.Warn().Err(nerr).Msg("could not send failure notification")
		}
	}
	return err
}

func (t *task) safeRun(ctx context.Context) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			err = errors.Errorf("panic: %v", r)
			zerolog.Ctx(ctx).Error().Str("stack", string(debug.Stack())).Msg("job panicked")
		}
	}()
	return false, t.Run(ctx)
}

// AlignToHour returns a Next function that waits for the next top of the
// given local hour. A start inside that hour waits for the following day.
func AlignToHour(hour int) func(now time.Time) time.Duration {
	return func(now time.Time) time.Duration {
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next.Sub(now)
	}
}
