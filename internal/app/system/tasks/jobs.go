// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// OutboxMaintainer is the slice of the outbox store the maintenance jobs use.
type OutboxMaintainer interface {
	RequeueStale(ctx context.Context, staleThreshold time.Duration) (int64, error)
	PruneSent(ctx context.Context, cutoff time.Time) (int64, error)
}

// Pruner deletes records older than a cutoff.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxRequeueJob returns notifications stuck in sending to the queue.
func OutboxRequeueJob(store OutboxMaintainer, staleThreshold time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "outbox-requeue-stale",
		Interval: staleThreshold / 2,
		Run: func(ctx context.Context) error {
			n, err := store.RequeueStale(ctx, staleThreshold)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Warn("re-queued stale notifications",
					zap.Int64("count", n),
					zap.Duration("threshold", staleThreshold))
			}
			return nil
		},
	}
}

// OutboxPruneJob deletes sent notifications older than retention.
func OutboxPruneJob(store OutboxMaintainer, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "outbox-prune-sent",
		Interval: time.Hour,
		Delay:    time.Minute,
		Run: func(ctx context.Context) error {
			n, err := store.PruneSent(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned sent notifications", zap.Int64("deleted", n))
			}
			return nil
		},
	}
}

// AuditRetentionJob deletes audit events older than retention.
func AuditRetentionJob(store Pruner, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 6 * time.Hour,
		Delay:    2 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := store.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned audit events",
					zap.Int64("deleted", n),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}

// TrafficRetentionJob deletes intake traffic buckets older than retention.
func TrafficRetentionJob(store Pruner, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "traffic-retention",
		Interval: 24 * time.Hour,
		Delay:    5 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := store.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned traffic buckets", zap.Int64("deleted", n))
			}
			return nil
		},
	}
}
