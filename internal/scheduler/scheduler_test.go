package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTask counts runs and reports each one on a channel
type countingTask struct {
	interval time.Duration
	runs     atomic.Int32
	ran      chan int
	err      error
	panicOn  int32
}

func newCountingTask(interval time.Duration) *countingTask {
	return &countingTask{interval: interval, ran: make(chan int, 10)}
}

func (c *countingTask) Run(_ context.Context) error {
	n := c.runs.Add(1)
	c.ran <- int(n)
	if n == c.panicOn {
		panic("boom")
	}
	return c.err
}

func (c *countingTask) Interval() time.Duration { return c.interval }

func (c *countingTask) Name() string { return "counting" }

func waitRun(t *testing.T, task *countingTask, want int) {
	t.Helper()
	select {
	case n := <-task.ran:
		require.Equal(t, want, n)
	case <-time.After(2 * time.Second):
		t.Fatalf("task run %d did not happen", want)
	}
}

func assertNoRun(t *testing.T, task *countingTask) {
	t.Helper()
	select {
	case n := <-task.ran:
		t.Fatalf("unexpected run %d", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestScheduler_RunsImmediatelyThenEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(context.Background(), clock)
	task := newCountingTask(time.Minute)
	s.AddTask(task)

	s.Start()
	defer s.Stop()

	waitRun(t, task, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(30 * time.Second)
	assertNoRun(t, task)

	clock.Advance(30 * time.Second)
	waitRun(t, task, 2)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	waitRun(t, task, 3)
}

func TestScheduler_ContinuesAfterError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(context.Background(), clock)
	task := newCountingTask(time.Minute)
	task.err = assert.AnError
	s.AddTask(task)

	s.Start()
	defer s.Stop()

	waitRun(t, task, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	waitRun(t, task, 2)
}

func TestScheduler_ContinuesAfterPanic(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(context.Background(), clock)
	task := newCountingTask(time.Minute)
	task.panicOn = 1
	s.AddTask(task)

	s.Start()
	defer s.Stop()

	waitRun(t, task, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	waitRun(t, task, 2)
}

func TestScheduler_StopWhileSleeping(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(context.Background(), clock)
	task := newCountingTask(time.Hour)
	s.AddTask(task)

	s.Start()
	waitRun(t, task, 1)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Scheduler did not stop while sleeping")
	}
	assert.Equal(t, int32(1), task.runs.Load())
}

func TestScheduler_ParentContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, nil)
	task := newCountingTask(time.Hour)
	s.AddTask(task)

	s.Start()
	waitRun(t, task, 1)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Scheduler did not stop after parent context was cancelled")
	}
}
