package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shieldmate/backend/internal/missions"
)

// Enforcer periodically runs the mission enforcement sweep: every
// pending_closure mission whose response window expired is
// force-completed, then both parties are notified.
type Enforcer struct {
	svc      *missions.Service
	interval time.Duration
	logger   *zap.Logger
}

// NewEnforcer creates an enforcement sweep runner.
func NewEnforcer(svc *missions.Service, interval time.Duration, logger *zap.Logger) *Enforcer {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enforcer{svc: svc, interval: interval, logger: logger}
}

// Run sweeps once immediately, then on every tick until ctx is done.
// The sweep is idempotent, so overlapping deployments running it
// concurrently is safe.
func (e *Enforcer) Run(ctx context.Context) {
	e.sweep(ctx)
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("enforcer stopping")
			return
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

func (e *Enforcer) sweep(ctx context.Context) {
	ids, err := e.svc.RunEnforcementSweep(ctx)
	if err != nil {
		e.logger.Error("enforcement sweep failed", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}
	e.svc.NotifyAutoClosed(ctx, ids)
}
