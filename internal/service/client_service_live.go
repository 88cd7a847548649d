package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type liveChannel struct {
	dialer      adapter.LiveDialer
	records     store.RecordRepository
	coordinator SyncCoordinator
	monitor     ConnectivityMonitor
	policy      BackoffPolicy
	metrics     *metrics.Metrics

	state  atomic.Int32
	paused atomic.Bool
	wake   chan struct{}

	mu         sync.Mutex
	cancel     context.CancelFunc
	connCancel context.CancelFunc
	wg         sync.WaitGroup

	logger *logger.Logger
}

// LiveDeps groups the collaborators of the live channel manager.
type LiveDeps struct {
	Dialer      adapter.LiveDialer
	Records     store.RecordRepository
	Coordinator SyncCoordinator
	Monitor     ConnectivityMonitor
	Metrics     *metrics.Metrics
}

// NewLiveChannel creates a disconnected live channel manager. Nothing is
// dialed before Start.
func NewLiveChannel(deps LiveDeps, cfg config.ClientWorkers, log *logger.Logger) LiveChannel {
	return &liveChannel{
		dialer:      deps.Dialer,
		records:     deps.Records,
		coordinator: deps.Coordinator,
		monitor:     deps.Monitor,
		policy:      NewBackoffPolicy(cfg),
		metrics:     deps.Metrics,
		wake:        make(chan struct{}, 1),
		logger:      log,
	}
}

func (l *liveChannel) State() models.ChannelState {
	return models.ChannelState(l.state.Load())
}

func (l *liveChannel) setState(s models.ChannelState) {
	if prev := models.ChannelState(l.state.Swap(int32(s))); prev != s {
		l.logger.Debug().
			Str("func", "liveChannel.setState").
			Str("from", prev.String()).
			Str("state", s.String()).
			Msg("live channel state changed")
	}
}

// Start implements [LiveChannel].
func (l *liveChannel) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	states, unsubscribe := l.monitor.Subscribe()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer unsubscribe()
		l.run(runCtx, states)
	}()
	return nil
}

// Stop implements [LiveChannel]. It closes the connection, drops a pending
// reconnect timer and waits for the manager to exit.
func (l *liveChannel) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
}

// Pause implements [LiveChannel].
func (l *liveChannel) Pause() {
	l.paused.Store(true)

	l.mu.Lock()
	if l.connCancel != nil {
		l.connCancel()
	}
	l.mu.Unlock()
}

// Resume implements [LiveChannel].
func (l *liveChannel) Resume() {
	l.paused.Store(false)
	l.signal()
}

func (l *liveChannel) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *liveChannel) run(ctx context.Context, states <-chan models.ConnectivityState) {
	retry := l.policy.newRetrier()
	usable := l.monitor.State().Usable()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		l.setState(models.ChannelDisconnected)
	}()

	// wait blocks until d elapses (d < 0 waits forever), the manager is
	// woken, or connectivity becomes usable. It returns false when ctx ends.
	wait := func(d time.Duration) bool {
		var fire <-chan time.Time
		if d >= 0 {
			timer = time.NewTimer(d)
			fire = timer.C
		}
		defer func() {
			if timer != nil {
				timer.Stop()
				timer = nil
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return false
			case <-l.wake:
				return true
			case <-fire:
				return true
			case s, ok := <-states:
				if !ok {
					states = nil
					continue
				}
				wasUsable := usable
				usable = s.Usable()
				if usable && !wasUsable {
					return true
				}
			}
		}
	}

	for ctx.Err() == nil {
		if l.paused.Load() {
			if !wait(-1) {
				return
			}
			retry.reset()
			continue
		}

		l.setState(models.ChannelConnecting)
		conn, err := l.dialer.DialLive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.setState(models.ChannelDisconnected)
			l.monitor.ReportChannel(false)

			d, ok := retry.next()
			if !ok {
				l.logger.Warn().Err(err).Str("func", "liveChannel.run").Msg("live channel retry budget spent, waiting for connectivity")
				if !wait(-1) {
					return
				}
				retry.reset()
				continue
			}

			l.logger.Debug().Err(err).Str("func", "liveChannel.run").Dur("retry_in", d).Msg("live channel dial failed")
			l.metrics.RecordLiveReconnect()
			if !wait(d) {
				return
			}
			continue
		}

		retry.reset()
		l.setState(models.ChannelConnected)
		l.monitor.ReportChannel(true)
		l.logger.Info().Str("func", "liveChannel.run").Msg("live channel connected")

		// deltas published while the channel was down are only reachable by pulling
		l.coordinator.Trigger(TriggerLive)

		err = l.consume(ctx, conn)
		_ = conn.Close()

		l.setState(models.ChannelDisconnected)
		l.monitor.ReportChannel(false)
		if ctx.Err() != nil {
			return
		}
		l.logger.Info().Err(err).Str("func", "liveChannel.run").Msg("live channel disconnected")

		// a remote that drops every connection at once must not be redialed in a hot loop
		if d, ok := retry.next(); ok && !l.paused.Load() {
			if !wait(d) {
				return
			}
		}
	}
}

// consume reads deltas until the connection fails or is paused.
func (l *liveChannel) consume(ctx context.Context, conn adapter.LiveConn) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	l.connCancel = cancel
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.connCancel = nil
		l.mu.Unlock()
	}()

	// Pause may have landed between the dial and the registration above.
	if l.paused.Load() {
		return nil
	}

	for {
		delta, err := conn.Read(connCtx)
		switch {
		case connCtx.Err() != nil:
			return connCtx.Err()
		case errors.Is(err, models.ErrProtocolFailure):
			// the skipped frame may carry a delta; a pull fetches it
			l.logger.Warn().Err(err).Str("func", "liveChannel.consume").Msg("skipping malformed live frame")
			l.metrics.RecordDelta("live", "malformed")
			l.coordinator.Trigger(TriggerLiveGap)
			continue
		case err != nil:
			return err
		}

		if l.seen(connCtx, delta) {
			l.metrics.RecordDelta("live", "duplicate")
			continue
		}

		if err = l.coordinator.Deliver(connCtx, delta); err != nil {
			if errors.Is(err, ErrStopped) || connCtx.Err() != nil {
				return err
			}
			l.logger.Err(err).
				Str("func", "liveChannel.consume").
				Str("entity", delta.Key().String()).
				Int64("revision", delta.Revision).
				Msg("failed to deliver live delta")
		}
	}
}

// seen reports whether the store already holds delta's revision or a newer
// one. A failed lookup lets the delta through; reconciliation ignores stale
// revisions anyway.
func (l *liveChannel) seen(ctx context.Context, delta models.RemoteDelta) bool {
	rec, err := l.records.Get(ctx, delta.Key())
	if err != nil {
		return false
	}
	return delta.Revision <= rec.Revision
}
