package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/pathik-bd/pathik-api/internal/logger"
)

type stubReconciler struct {
	calls int
	err   error
}

func (s *stubReconciler) Reconcile(ctx context.Context) (int, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	return 2, s.err
}

func TestRunCallsReconcileWithDeadline(t *testing.T) {
	logger.Discard()
	r := &stubReconciler{}
	s := NewReconcileScheduler(r, "0 0 3 * * *")
	s.run()
	if r.calls != 1 {
		t.Fatalf("expected 1 call, got %d", r.calls)
	}
}

func TestRunSurvivesError(t *testing.T) {
	logger.Discard()
	r := &stubReconciler{err: errors.New("db down")}
	s := NewReconcileScheduler(r, "0 0 3 * * *")
	s.run()
	if r.calls != 1 {
		t.Fatalf("expected 1 call, got %d", r.calls)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewReconcileScheduler(&stubReconciler{}, "not a cron")
	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestStartAcceptsSecondsSpec(t *testing.T) {
	logger.Discard()
	s := NewReconcileScheduler(&stubReconciler{}, "0 0 3 * * *")
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}
