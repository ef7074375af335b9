package workers

import (
	"context"
	"time"

	"helios/internal/services/rebalance"
	"helios/pkg/logger"
)

// Locker guards the rebalance cycle across processes. Satisfied by the
// redis client adapter.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

const rebalanceLockKey = "rebalance"

// RebalanceWorker drives the rebalancing controller on a fixed cadence.
// The controller itself decides whether a cycle is actually due.
type RebalanceWorker struct {
	*BaseWorker
	controller *rebalance.Controller
	locker     Locker // optional
	lockTTL    time.Duration
}

// NewRebalanceWorker creates a rebalance worker. locker may be nil for
// single-process deployments.
func NewRebalanceWorker(controller *rebalance.Controller, locker Locker, interval time.Duration) *RebalanceWorker {
	return &RebalanceWorker{
		BaseWorker: NewBaseWorker("rebalance", interval, true),
		controller: controller,
		locker:     locker,
		lockTTL:    10 * time.Minute,
	}
}

// Run evaluates the rebalance trigger and executes a cycle when due
func (w *RebalanceWorker) Run(ctx context.Context) error {
	start := time.Now()

	if w.locker != nil {
		acquired, err := w.locker.AcquireLock(ctx, rebalanceLockKey, w.lockTTL)
		if err != nil {
			w.Log().Warnw("Failed to acquire rebalance lock, proceeding without it", "error", err)
		} else if !acquired {
			w.Log().Debug("Rebalance lock held elsewhere, skipping run")
			w.RecordRun(time.Since(start))
			return nil
		} else {
			defer w.releaseLock()
		}
	}

	if err := w.controller.RunCycle(ctx); err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	w.RecordRun(time.Since(start))
	return nil
}

func (w *RebalanceWorker) releaseLock() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.locker.ReleaseLock(ctx, rebalanceLockKey); err != nil {
		logger.Get().Warnw("Failed to release rebalance lock", "error", err)
	}
}
