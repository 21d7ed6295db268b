// Package scheduler drives the periodic due-billing sweep. The sweep
// itself lives in the billing service; this package only owns the
// cadence and process lifecycle.
package scheduler

import (
	"context"
	"time"

	billingdomain "github.com/smallbiznis/marketfee/internal/billing/domain"
	"github.com/smallbiznis/marketfee/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	BillingSvc billingdomain.Service
	BillingCfg config.BillingConfig
}

type Scheduler struct {
	log        *zap.Logger
	interval   time.Duration
	billingSvc billingdomain.Service
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:        p.Log.Named("scheduler"),
		interval:   time.Duration(p.BillingCfg.SchedulerIntervalSeconds) * time.Second,
		billingSvc: p.BillingSvc,
	}
}

// RunOnce performs a single due-billing sweep.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := s.billingSvc.RunDueBilling(ctx)
	s.log.Info("sweep complete", zap.Duration("took", time.Since(start)), zap.Error(err))
	return err
}

// RunForever sweeps on the configured interval until ctx is canceled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
