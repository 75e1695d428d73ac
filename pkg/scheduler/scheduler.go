package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/fadedpez/blackjack/internal/logging"
)

// Task represents a scheduled task
type Task struct {
	Name     string
	Interval time.Duration
	Fn       func(context.Context) error
}

// Scheduler runs tasks on fixed intervals. A failing task is logged and
// runs again on its next tick.
type Scheduler struct {
	tasks   []*Task
	running bool
	mutex   sync.Mutex
	cancel  context.CancelFunc
	waiters []quartz.Waiter
	clock   quartz.Clock
	logger  *logging.Logger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock sets the clock that drives task intervals
func WithClock(clock quartz.Clock) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithLogger sets the scheduler logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// NewScheduler creates a new scheduler
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		tasks:  make([]*Task, 0),
		clock:  quartz.NewReal(),
		logger: logging.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTask adds a task to the scheduler. Tasks added after Start wait for the
// next Start.
func (s *Scheduler) AddTask(name string, interval time.Duration, fn func(context.Context) error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
}

// Start starts a ticker for every task. The first run of each task comes one
// interval after Start.
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.waiters = s.waiters[:0]

	for _, task := range s.tasks {
		task := task
		waiter := s.clock.TickerFunc(ctx, task.Interval, func() error {
			s.run(ctx, task)
			return nil
		}, "scheduler", task.Name)
		s.waiters = append(s.waiters, waiter)
	}

	s.logger.Info("Scheduler started with %d tasks", len(s.tasks))
}

// Stop stops the scheduler and waits for running tasks to return
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.cancel()
	s.running = false
	waiters := s.waiters
	s.waiters = nil
	s.mutex.Unlock()

	for _, waiter := range waiters {
		_ = waiter.Wait()
	}
	s.logger.Info("Scheduler stopped")
}

// Running reports whether Start has been called without a matching Stop
func (s *Scheduler) Running() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context, task *Task) {
	s.logger.Debug("Running scheduled task: %s", task.Name)
	if err := task.Fn(ctx); err != nil {
		s.logger.Error("Error running task %s: %v", task.Name, err)
	}
}
