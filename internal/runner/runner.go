// Package runner schedules job functions on background goroutines with
// cooperative cancellation.
package runner

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Background implements leads.Runner with one goroutine per job. Cancel works
// by cancelling the job's context; the job function decides when to observe
// it.
type Background struct {
	mu      sync.Mutex
	active  map[string]context.CancelFunc
	wg      sync.WaitGroup
	logger  *zap.Logger
	onPanic func(jobID string, v any)
}

// NewBackground builds a runner. onPanic, if non-nil, is invoked after a job
// function panics so the caller can mark the job failed.
func NewBackground(logger *zap.Logger, onPanic func(jobID string, v any)) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Background{
		active:  make(map[string]context.CancelFunc),
		logger:  logger,
		onPanic: onPanic,
	}
}

// Submit schedules run on its own goroutine and returns immediately.
func (b *Background) Submit(jobID string, run func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	b.active[jobID] = cancel
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			b.mu.Lock()
			delete(b.active, jobID)
			b.mu.Unlock()
			cancel()
		}()
		defer func() {
			if v := recover(); v != nil {
				b.logger.Error("job panicked", zap.String("job_id", jobID), zap.Any("panic", v))
				if b.onPanic != nil {
					b.onPanic(jobID, v)
				}
			}
		}()
		run(ctx)
	}()
}

// Cancel requests cancellation of an active job. It reports whether the job
// was still running.
func (b *Background) Cancel(jobID string) bool {
	b.mu.Lock()
	cancel, ok := b.active[jobID]
	b.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Shutdown cancels every active job and waits for them to drain, or returns
// the context error if that takes too long.
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	for _, cancel := range b.active {
		cancel()
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
