// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/workers"
	"github.com/MKhiriev/go-offline-sync/models"
)

type engineState int

const (
	engineCreated engineState = iota
	engineRunning
	engineShutdown
)

// Deps groups what an engine is built on.
type Deps struct {
	Storages *store.Storages
	Remote   adapter.RemoteAdapter

	// Dialer opens the live channel. Nil runs the engine without one.
	Dialer adapter.LiveDialer

	// Metrics defaults to a fresh registry.
	Metrics *metrics.Metrics
}

// Engine is the offline-first sync engine. All methods are safe for
// concurrent use.
type Engine struct {
	services *service.ClientServices
	records  store.RecordRepository
	workers  *workers.Workers
	metrics  *metrics.Metrics

	// closers are released by Shutdown, after every worker stopped.
	closers []io.Closer

	mu    sync.Mutex
	state engineState
	done  chan struct{}

	logger *logger.Logger
}

// NewEngine wires an engine over deps. Nothing runs before Start.
func NewEngine(deps Deps, cfg config.ClientWorkers, log *logger.Logger) *Engine {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	services := service.NewClientServices(service.ClientDeps{
		Storages: deps.Storages,
		Remote:   deps.Remote,
		Dialer:   deps.Dialer,
		Metrics:  deps.Metrics,
	}, cfg, log)

	// dependencies first: the coordinator subscribes to the monitor and the
	// live channel delivers into the coordinator
	w := workers.New(log.Component("workers")).
		Add("connectivity", services.Monitor).
		Add("coordinator", services.Coordinator)
	if services.LiveChannel != nil {
		w.Add("live", services.LiveChannel)
	}
	w.Add("sync_job", services.SyncJob)

	return &Engine{
		services: services,
		records:  deps.Storages.Records,
		workers:  w,
		metrics:  deps.Metrics,
		done:     make(chan struct{}),
		logger:   log.Component("engine"),
	}
}

// Start recovers the queue left by a previous run and launches the
// background components. Mutations that were in flight or failed
// retryably when the process stopped are queued again, in order.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case engineRunning:
		return ErrEngineStarted
	case engineShutdown:
		return ErrEngineShutdown
	}

	recovered, err := e.services.Queue.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover pending queue: %w", err)
	}
	if recovered > 0 {
		e.logger.Info().Str("func", "Engine.Start").Int64("recovered", recovered).Msg("requeued interrupted mutations")
	}

	if err = e.workers.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}

	e.state = engineRunning
	e.logger.Info().Str("func", "Engine.Start").Msg("sync engine started")
	return nil
}

// Shutdown tears down the live channel, cancels every timer and in-flight
// call, ends the observer streams and closes the local store. It waits
// until teardown finishes or ctx ends; teardown keeps going in the
// background in the latter case. Calling it again returns at once.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.state == engineShutdown {
		e.mu.Unlock()
		return nil
	}
	e.state = engineShutdown
	e.mu.Unlock()

	go func() {
		defer close(e.done)

		e.workers.Stop()
		e.services.Notifier.Close()

		for _, c := range e.closers {
			if err := c.Close(); err != nil {
				e.logger.Err(err).Str("func", "Engine.Shutdown").Msg("error closing resource")
			}
		}
		e.logger.Info().Str("func", "Engine.Shutdown").Msg("sync engine shut down")
	}()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) shutDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == engineShutdown
}

// Enqueue records a local mutation durably together with its optimistic
// overlay and schedules a drain. A storage failure leaves nothing behind
// and is also published as a storage event.
func (e *Engine) Enqueue(ctx context.Context, in models.MutationInput) (int64, error) {
	if e.shutDown() {
		return 0, ErrEngineShutdown
	}

	seq, err := e.services.Queue.Enqueue(ctx, in)
	if err != nil {
		if errors.Is(err, models.ErrStorageFailure) {
			e.services.Notifier.Events.Publish(models.NewEntityEvent(models.EventStorage,
				models.EntityKey{Collection: in.Collection, EntityID: in.EntityID}, err))
		}
		return 0, err
	}

	e.services.Coordinator.Trigger(service.TriggerEnqueue)
	return seq, nil
}

// Get returns the local record of an entity, overlay included.
func (e *Engine) Get(ctx context.Context, collection, entityID string) (models.Record, error) {
	return e.records.Get(ctx, models.EntityKey{Collection: collection, EntityID: entityID})
}

// PendingCount returns the number of mutations the remote has not
// acknowledged yet, held conflicts included.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	return e.services.Queue.PendingCount(ctx)
}

// Connectivity returns the current connectivity classification.
func (e *Engine) Connectivity() models.ConnectivityState {
	return e.services.Monitor.State()
}

// SyncState returns the coordinator's current state.
func (e *Engine) SyncState() models.SyncState {
	return e.services.Coordinator.State()
}

// LiveState returns the live channel's state; disconnected when the
// engine runs without one.
func (e *Engine) LiveState() models.ChannelState {
	if e.services.LiveChannel == nil {
		return models.ChannelDisconnected
	}
	return e.services.LiveChannel.State()
}

// ReportReachability feeds the platform's network reachability signal.
func (e *Engine) ReportReachability(reachable bool) {
	e.services.Monitor.ReportReachability(reachable)
}

// ForceSync schedules an immediate pass. The handle may be awaited or
// ignored.
func (e *Engine) ForceSync() *service.SyncHandle {
	return e.services.Coordinator.ForceSync()
}

// ResolveConflict settles a held mutation: [models.ResolutionDiscard]
// accepts the remote state, [models.ResolutionRebase] re-sends the local
// intent on top of the current remote revision.
func (e *Engine) ResolveConflict(ctx context.Context, seq int64, resolution models.Resolution) error {
	if e.shutDown() {
		return ErrEngineShutdown
	}
	return e.services.Coordinator.Resolve(ctx, seq, resolution)
}

// Pause suspends the periodic timer and live channel reconnects. The queue
// stays open and ForceSync still works.
func (e *Engine) Pause() {
	e.services.SyncJob.Pause()
	if e.services.LiveChannel != nil {
		e.services.LiveChannel.Pause()
	}
	e.logger.Debug().Str("func", "Engine.Pause").Msg("sync engine paused")
}

// Resume restarts the timer and live channel and syncs at once when the
// link is usable.
func (e *Engine) Resume() {
	e.services.SyncJob.Resume()
	if e.services.LiveChannel != nil {
		e.services.LiveChannel.Resume()
	}
	if e.services.Monitor.State().Usable() {
		e.services.Coordinator.Trigger(service.TriggerResume)
	}
	e.logger.Debug().Str("func", "Engine.Resume").Msg("sync engine resumed")
}

// Changes streams the visible state changes of entities published after the
// iteration starts. Ranging over it again opens a fresh subscription.
func (e *Engine) Changes(ctx context.Context) iter.Seq[models.ChangeEvent] {
	return e.services.Notifier.Changes.Subscribe(ctx)
}

// Events streams failures and aggregate status changes.
func (e *Engine) Events(ctx context.Context) iter.Seq[models.EngineEvent] {
	return e.services.Notifier.Events.Subscribe(ctx)
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}
