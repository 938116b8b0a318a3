package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/acecpas/workbench/internal/config"
)

// BulkApprover fans a bulk approval pass out over a bounded worker pool so a
// large deal cannot monopolize database connections. One row failing never
// stops the pass; failures are logged and the row is left as it was.
type BulkApprover struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// NewBulkApprover creates a worker pool of the configured size
func NewBulkApprover(cfg config.WorkerPoolConfig, logger *slog.Logger) (*BulkApprover, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, err
	}

	return &BulkApprover{
		pool:   pool,
		logger: logger,
	}, nil
}

// Run executes approve for every id across the pool and waits for all of
// them. It returns the number of ids approve reported as approved; errors
// only reduce that count.
func (b *BulkApprover) Run(ctx context.Context, ids []uuid.UUID, approve func(ctx context.Context, id uuid.UUID) (bool, error)) int {
	var wg sync.WaitGroup
	var approved atomic.Int64

	for _, id := range ids {
		id := id
		wg.Add(1)

		task := func() {
			defer wg.Done()

			ok, err := approve(ctx, id)
			if err != nil {
				b.logger.Error("Bulk approval failed for mapping, skipping",
					"mapping_id", id.String(),
					"error", err,
				)
				return
			}
			if ok {
				approved.Add(1)
			}
		}

		if err := b.pool.Submit(task); err != nil {
			// Pool rejected the task (released or overloaded); run inline
			// so the pass still covers every id.
			b.logger.Warn("Worker pool rejected task, running inline",
				"mapping_id", id.String(),
				"error", err,
			)
			task()
		}
	}

	wg.Wait()
	return int(approved.Load())
}

// Shutdown releases the worker pool
func (b *BulkApprover) Shutdown() {
	b.logger.Info("Shutting down bulk approval worker pool", "running_workers", b.pool.Running())
	b.pool.Release()
}

// Running returns the number of running workers in the pool
func (b *BulkApprover) Running() int {
	return b.pool.Running()
}
