package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestIntervalSchedulerRunsImmediatelyAndOnTick(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(10 * time.Millisecond)
	var runs atomic.Int32
	ticked := make(chan struct{}, 8)

	err := s.Start(context.Background(), func(time.Time) {
		runs.Add(1)
		select {
		case ticked <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 0; i < 3; i++ {
		select {
		case <-ticked:
		case <-time.After(2 * time.Second):
			t.Fatalf("job did not run (runs=%d)", runs.Load())
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job kept running after stop")
	}
}

func TestIntervalSchedulerStopsOnContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(time.Hour)
	first := make(chan struct{})
	if err := s.Start(ctx, func(time.Time) { close(first) }); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-first
	cancel()

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestIntervalSchedulerIdempotent(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Hour)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop before start: %v", err)
	}
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("nil job: %v", err)
	}

	var runs atomic.Int32
	job := func(time.Time) { runs.Add(1) }
	_ = s.Start(context.Background(), job)
	_ = s.Start(context.Background(), job)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if runs.Load() > 1 {
		t.Fatalf("second start spawned another loop: runs=%d", runs.Load())
	}
}
