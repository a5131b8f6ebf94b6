// internal/app/system/workers/auditretention.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pruner deletes audit events older than a cutoff.
type Pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetention is a background worker that drops audit events older
// than maxAge.
type AuditRetention struct {
	store    Pruner
	log      *zap.Logger
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuditRetention creates a retention worker.
//
// Parameters:
//   - store: the audit store
//   - logger: zap logger for logging
//   - interval: how often to prune (e.g., 1 hour)
//   - maxAge: how long events are kept (e.g., 90 days)
func NewAuditRetention(store Pruner, logger *zap.Logger, interval, maxAge time.Duration) *AuditRetention {
	return &AuditRetention{
		store:    store,
		log:      logger,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start prunes once, then keeps pruning every interval until Stop.
func (w *AuditRetention) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("audit retention worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *AuditRetention) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("audit retention worker stopped")
}

func (w *AuditRetention) run() {
	defer w.wg.Done()

	w.prune()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.prune()
		}
	}
}

// Prune deletes expired events once and returns the count.
func (w *AuditRetention) Prune(ctx context.Context) (int64, error) {
	return w.store.DeleteBefore(ctx, w.now().UTC().Add(-w.maxAge))
}

func (w *AuditRetention) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.Prune(ctx)
	if err != nil {
		w.log.Error("failed to prune audit events", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("pruned audit events", zap.Int64("count", count))
	}
}
