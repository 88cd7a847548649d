package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

const defaultSyncInterval = 5 * time.Minute

type clientSyncJob struct {
	trigger  Trigger
	interval time.Duration
	paused   atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewClientSyncJob creates a clientSyncJob that asks trigger for a pass on a
// ticker. If interval is zero or negative it defaults to 5 minutes. The job
// is idle until Start is called.
func NewClientSyncJob(trigger Trigger, interval time.Duration, log *logger.Logger) ClientSyncJob {
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	return &clientSyncJob{trigger: trigger, interval: interval, logger: log}
}

// Start implements ClientSyncJob. It stops any previously running job, then
// launches a background goroutine that triggers a pass every interval. The
// goroutine exits when ctx is cancelled or Stop is called.
func (j *clientSyncJob) Start(ctx context.Context) error {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if j.paused.Load() {
					continue
				}
				j.trigger.Trigger(TriggerTimer)
			}
		}
	}()

	j.logger.Debug().Str("func", "clientSyncJob.Start").Dur("interval", j.interval).Msg("sync job started")
	return nil
}

// Stop implements ClientSyncJob. It cancels the background goroutine's context and
// blocks until the goroutine has fully exited. Safe to call when the job is not
// running (no-op in that case).
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// Pause implements ClientSyncJob. Ticks are skipped until Resume.
func (j *clientSyncJob) Pause() {
	j.paused.Store(true)
}

// Resume implements ClientSyncJob.
func (j *clientSyncJob) Resume() {
	j.paused.Store(false)
}
