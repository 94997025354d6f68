package embedding

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler periodically resets embedding jobs stuck in_progress past a
// grace period back to pending, so a crashed worker never strands jobs
// forever (spec §4.D Reconciliation).
type Reconciler struct {
	Jobs         JobStore
	Interval     time.Duration
	GraceSeconds int
	Logger       *slog.Logger
}

func (r *Reconciler) withDefaults() {
	if r.Interval <= 0 {
		r.Interval = time.Minute
	}
	if r.GraceSeconds <= 0 {
		r.GraceSeconds = 300
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
}

// Run reclaims orphaned jobs on a fixed interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	r.withDefaults()
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *Reconciler) reconcileOnce(ctx context.Context) {
	n, err := r.Jobs.ReclaimOrphaned(ctx, r.GraceSeconds)
	if err != nil {
		r.Logger.Error("reconcile orphaned embedding jobs failed", "error", err)
		return
	}
	if n > 0 {
		r.Logger.Info("reclaimed orphaned embedding jobs", "count", n)
	}
}
