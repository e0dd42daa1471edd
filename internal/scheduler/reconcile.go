// Package scheduler runs the periodic ledger reconciliation.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pathik-bd/pathik-api/internal/logger"
)

// Reconciler is what the job calls; *service.Ledger satisfies it.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// ReconcileScheduler rebuilds drifted ledger projections on a cron schedule.
type ReconcileScheduler struct {
	cron    *cron.Cron
	ledger  Reconciler
	spec    string
	timeout time.Duration
}

// NewReconcileScheduler takes a six-field cron expression (seconds first).
func NewReconcileScheduler(ledger Reconciler, spec string) *ReconcileScheduler {
	return &ReconcileScheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		ledger:  ledger,
		spec:    spec,
		timeout: 5 * time.Minute,
	}
}

func (s *ReconcileScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	logger.WithField("schedule", s.spec).Info("ledger reconcile scheduler started")
	return nil
}

func (s *ReconcileScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("ledger reconcile scheduler stopped")
}

func (s *ReconcileScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.ledger.Reconcile(ctx)
	if err != nil {
		logger.WithError(err).Error("ledger reconcile failed")
		return
	}
	logger.WithFields(logrus.Fields{
		"repaired": n,
		"took":     time.Since(start).String(),
	}).Info("ledger reconcile finished")
}
