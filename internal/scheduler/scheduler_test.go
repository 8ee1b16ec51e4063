package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-dashboard/internal/coordinator"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (r *countingRefresher) RefreshAll(context.Context) (coordinator.RefreshReport, error) {
	r.calls.Add(1)
	return coordinator.RefreshReport{
		Failed: []coordinator.RefreshFailure{{ID: "1", City: "Toronto", Err: errors.New("down")}},
	}, r.err
}

func TestSchedulerRunsRefresh(t *testing.T) {
	r := &countingRefresher{}
	s := New(r, 20*time.Millisecond, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least two runs, got %d", r.calls.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerKeepsRunningAfterError(t *testing.T) {
	r := &countingRefresher{err: errors.New("storage failure")}
	s := New(r, 20*time.Millisecond, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected repeated runs after an error, got %d", r.calls.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerDisabled(t *testing.T) {
	r := &countingRefresher{}
	s := New(r, 0, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	if n := r.calls.Load(); n != 0 {
		t.Fatalf("disabled scheduler must not run, got %d calls", n)
	}
}
