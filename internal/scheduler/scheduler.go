package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Task interface for scheduled tasks
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler manages multiple scheduled tasks
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	clock  clockwork.Clock
	tasks  []Task
	wg     sync.WaitGroup
}

// New creates a new task scheduler. A nil clock uses real time.
func New(ctx context.Context, clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		clock:  clock,
		tasks:  make([]Task, 0),
	}
}

// AddTask adds a task to the scheduler
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting task scheduler")
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
	slog.Info("Task scheduler started", "task_count", len(s.tasks))
}

// Stop cancels all tasks and waits for any run in progress to return
func (s *Scheduler) Stop() {
	slog.Info("Stopping task scheduler")
	s.cancel()
	s.wg.Wait()
	slog.Info("Task scheduler stopped")
}

// runTask runs a single task immediately and then again each time its
// interval has elapsed after the previous run finished. Runs never overlap.
func (s *Scheduler) runTask(task Task) {
	defer s.wg.Done()

	for {
		if err := s.runOnce(task); err != nil {
			slog.Error("Error running task", "task", task.Name(), "error", err)
		}

		slog.Debug("Task sleeping", "task", task.Name(), "interval", task.Interval())
		select {
		case <-s.ctx.Done():
			return
		case <-s.clock.After(task.Interval()):
		}
	}
}

// runOnce turns a panic inside the task into an error so the loop survives it
func (s *Scheduler) runOnce(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.Run(s.ctx)
}
