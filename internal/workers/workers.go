package workers

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

type Workers struct {
	workers []namedWorker

	mu      sync.Mutex
	started int

	logger *logger.Logger
}

type namedWorker struct {
	name string
	Worker
}

// New creates an empty aggregate.
func New(log *logger.Logger) *Workers {
	return &Workers{logger: log}
}

// Add appends w. Workers start in the order they were added, so a worker
// should be added after the ones it depends on. A nil w is skipped.
func (w *Workers) Add(name string, worker Worker) *Workers {
	if worker != nil {
		w.workers = append(w.workers, namedWorker{name: name, Worker: worker})
	}
	return w
}

// Start starts every worker in order. When one fails, the ones already
// started are stopped in reverse order and the error is returned. Starting
// a running aggregate is a no-op.
func (w *Workers) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started > 0 {
		return nil
	}

	for i, worker := range w.workers {
		if err := worker.Start(ctx); err != nil {
			w.stopLocked()
			return fmt.Errorf("start %s: %w", worker.name, err)
		}
		w.started = i + 1
		w.logger.Debug().Str("func", "Workers.Start").Str("worker", worker.name).Msg("worker started")
	}
	return nil
}

// Stop stops the started workers in reverse order. It is safe to call more
// than once.
func (w *Workers) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Workers) stopLocked() {
	for i := w.started - 1; i >= 0; i-- {
		w.workers[i].Stop()
		w.logger.Debug().Str("func", "Workers.Stop").Str("worker", w.workers[i].name).Msg("worker stopped")
	}
	w.started = 0
}
