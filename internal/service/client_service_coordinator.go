package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	// maxDrainRounds bounds the PeekBatch rounds of one pass.
	maxDrainRounds = 256
	// maxPullPages bounds the pages pulled per collection in one pass.
	maxPullPages = 1024
)

// SyncHandle lets a caller await the pass scheduled by ForceSync.
type SyncHandle struct {
	done chan struct{}
	err  error
}

func newSyncHandle() *SyncHandle {
	return &SyncHandle{done: make(chan struct{})}
}

func (h *SyncHandle) resolve(err error) {
	h.err = err
	close(h.done)
}

// Done is closed once the pass finished.
func (h *SyncHandle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the pass finished or ctx is done and returns the pass
// error.
func (h *SyncHandle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type triggerRequest struct {
	reason TriggerReason
	handle *SyncHandle
}

type liveDelivery struct {
	ctx    context.Context
	delta  models.RemoteDelta
	result chan error
}

type resolveRequest struct {
	ctx        context.Context
	seq        int64
	resolution models.Resolution
	result     chan error
}

type passResult struct {
	err       error
	cancelled bool
}

type syncCoordinator struct {
	queue    PendingQueue
	records  store.RecordRepository
	remote   adapter.RemoteAdapter
	monitor  ConnectivityMonitor
	notifier *Notifier
	eviction EvictionPolicy
	policy   BackoffPolicy
	metrics  *metrics.Metrics

	collections  []string
	drainBatch   int
	drainWorkers int
	maxAttempts  int

	state    atomic.Int32
	triggers chan triggerRequest
	live     chan liveDelivery
	resolves chan resolveRequest

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	exited  chan struct{}
	wg      sync.WaitGroup

	logger *logger.Logger
}

// CoordinatorDeps groups the collaborators of the sync coordinator.
type CoordinatorDeps struct {
	Queue    PendingQueue
	Records  store.RecordRepository
	Remote   adapter.RemoteAdapter
	Monitor  ConnectivityMonitor
	Notifier *Notifier
	Eviction EvictionPolicy
	Metrics  *metrics.Metrics
}

// NewSyncCoordinator creates an idle coordinator. Nothing runs before Start.
func NewSyncCoordinator(deps CoordinatorDeps, cfg config.ClientWorkers, log *logger.Logger) SyncCoordinator {
	return &syncCoordinator{
		queue:        deps.Queue,
		records:      deps.Records,
		remote:       deps.Remote,
		monitor:      deps.Monitor,
		notifier:     deps.Notifier,
		eviction:     deps.Eviction,
		policy:       NewBackoffPolicy(cfg),
		metrics:      deps.Metrics,
		collections:  cfg.Collections,
		drainBatch:   max(cfg.DrainBatch, 1),
		drainWorkers: max(cfg.DrainWorkers, 1),
		maxAttempts:  max(cfg.MaxAttempts, 1),
		triggers:     make(chan triggerRequest, 16),
		live:         make(chan liveDelivery),
		resolves:     make(chan resolveRequest),
		stopped:      make(chan struct{}),
		exited:       make(chan struct{}),
		logger:       log,
	}
}

func (c *syncCoordinator) State() models.SyncState {
	return models.SyncState(c.state.Load())
}

func (c *syncCoordinator) setState(s models.SyncState) {
	if prev := models.SyncState(c.state.Swap(int32(s))); prev != s {
		c.logger.Debug().
			Str("func", "syncCoordinator.setState").
			Str("from", prev.String()).
			Str("state", s.String()).
			Msg("sync state changed")
	}
}

// Start implements [SyncCoordinator]. It subscribes to the connectivity
// monitor and launches the coordinator loop.
func (c *syncCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		return nil
	}
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	states, unsubscribe := c.monitor.Subscribe()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(c.exited)
		defer unsubscribe()
		c.run(loopCtx, states)
	}()
	return nil
}

// Stop implements [SyncCoordinator]. It cancels a running pass, waits for
// the loop to exit and fails every handle still waiting with [ErrStopped].
func (c *syncCoordinator) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	select {
	case <-c.stopped:
	default:
		close(c.stopped)
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// Trigger implements [Trigger]. Requests are coalesced: any number of
// triggers while a pass is pending lead to one pass.
func (c *syncCoordinator) Trigger(reason TriggerReason) {
	select {
	case c.triggers <- triggerRequest{reason: reason}:
	default:
	}
}

// ForceSync implements [SyncCoordinator]. The handle resolves when the next
// pass that starts after this call finishes. While the link is not usable
// the pass waits for it.
func (c *syncCoordinator) ForceSync() *SyncHandle {
	h := newSyncHandle()
	select {
	case <-c.stopped:
		h.resolve(ErrStopped)
		return h
	default:
	}

	select {
	case c.triggers <- triggerRequest{reason: TriggerForced, handle: h}:
	case <-c.stopped:
		h.resolve(ErrStopped)
	case <-c.exited:
		h.resolve(ErrStopped)
	}
	return h
}

// Deliver implements [SyncCoordinator].
func (c *syncCoordinator) Deliver(ctx context.Context, delta models.RemoteDelta) error {
	d := liveDelivery{ctx: ctx, delta: delta, result: make(chan error, 1)}
	select {
	case c.live <- d:
	case <-c.stopped:
		return ErrStopped
	case <-c.exited:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-d.result
}

// Resolve implements [SyncCoordinator].
func (c *syncCoordinator) Resolve(ctx context.Context, seq int64, resolution models.Resolution) error {
	r := resolveRequest{ctx: ctx, seq: seq, resolution: resolution, result: make(chan error, 1)}
	select {
	case c.resolves <- r:
	case <-c.stopped:
		return ErrStopped
	case <-c.exited:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-r.result
}

// run is the coordinator loop. It is the only goroutine that starts passes,
// so at most one pass runs at any time.
func (c *syncCoordinator) run(ctx context.Context, states <-chan models.ConnectivityState) {
	var (
		pending     bool
		waiters     []*SyncHandle
		passWaiters []*SyncHandle
		passCancel  context.CancelFunc
		passDone    chan passResult
		retryTimer  *time.Timer
		retryC      <-chan time.Time
		degraded    bool
	)
	retry := c.policy.newRetrier()
	usable := c.monitor.State().Usable()

	stopRetry := func() {
		if retryTimer != nil {
			retryTimer.Stop()
			retryTimer, retryC = nil, nil
		}
	}

	defer func() {
		stopRetry()
		if passCancel != nil {
			passCancel()
			<-passDone
		}
		for _, h := range append(passWaiters, waiters...) {
			h.resolve(ErrStopped)
		}
		c.setState(models.SyncIdle)
	}()

	for {
		if pending && passDone == nil && usable {
			pending = false
			stopRetry()
			passWaiters, waiters = waiters, nil

			var passCtx context.Context
			passCtx, passCancel = context.WithCancel(ctx)
			passDone = make(chan passResult, 1)
			go func(done chan<- passResult) {
				err := c.pass(passCtx)
				done <- passResult{err: err, cancelled: passCtx.Err() != nil}
			}(passDone)
		}

		select {
		case <-ctx.Done():
			return

		case s, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			wasUsable := usable
			usable = s.Usable()
			switch {
			case usable && !wasUsable:
				pending = true
			case !usable && passCancel != nil:
				c.logger.Info().Str("func", "syncCoordinator.run").Str("connectivity", s.String()).Msg("link lost, cancelling pass")
				passCancel()
			}

		case req := <-c.triggers:
			pending = true
			if req.handle != nil {
				waiters = append(waiters, req.handle)
			}

		case <-retryC:
			retryTimer, retryC = nil, nil
			pending = true

		case res := <-passDone:
			passCancel()
			passCancel, passDone = nil, nil

			switch {
			case res.cancelled:
				c.metrics.RecordPass(metrics.PassCancelled)
				waiters = append(passWaiters, waiters...)
				passWaiters = nil
				if degraded {
					c.setState(models.SyncDegraded)
				} else {
					c.setState(models.SyncIdle)
				}
				continue

			case res.err != nil && models.Retryable(res.err):
				c.metrics.RecordPass(metrics.PassDegraded)
				c.setState(models.SyncDegraded)
				if !degraded {
					degraded = true
					c.notifier.Events.Publish(models.NewStatusEvent(models.EventDegraded, res.err))
				}
				if d, ok := retry.next(); ok {
					retryTimer = time.NewTimer(d)
					retryC = retryTimer.C
					c.logger.Warn().Err(res.err).Str("func", "syncCoordinator.run").Dur("retry_in", d).Msg("sync pass failed, backing off")
				} else {
					c.logger.Warn().Err(res.err).Str("func", "syncCoordinator.run").Msg("sync retry budget spent, waiting for the next trigger")
				}

			case res.err != nil:
				c.metrics.RecordPass(metrics.PassFailed)
				c.logger.Err(res.err).Str("func", "syncCoordinator.run").Msg("sync pass failed")
				if degraded {
					c.setState(models.SyncDegraded)
				} else {
					c.setState(models.SyncIdle)
				}

			default:
				c.metrics.RecordPass(metrics.PassOK)
				retry.reset()
				if degraded {
					degraded = false
					c.notifier.Events.Publish(models.NewStatusEvent(models.EventRecovered, nil))
				}
				c.setState(models.SyncIdle)
			}

			for _, h := range passWaiters {
				h.resolve(res.err)
			}
			passWaiters = nil

		case d := <-c.live:
			gap, err := c.reconcileLive(d.ctx, d.delta, passDone != nil)
			d.result <- err
			if gap {
				pending = true
			}

		case r := <-c.resolves:
			err := c.resolve(r.ctx, r.seq, r.resolution)
			r.result <- err
			if err == nil && r.resolution == models.ResolutionRebase {
				pending = true
			}
		}
	}
}

// pass runs one Draining, Pulling, Reconciling cycle.
func (c *syncCoordinator) pass(ctx context.Context) error {
	start := time.Now()
	traceID := utils.NewUUIDGenerator().Generate()
	ctx = utils.WithTraceID(ctx, traceID)

	c.setState(models.SyncDraining)
	if err := c.drain(ctx); err != nil {
		return err
	}

	for _, collection := range c.collections {
		if err := c.pullCollection(ctx, collection); err != nil {
			return err
		}
	}

	c.evict(ctx)

	c.logger.Debug().
		Str("func", "syncCoordinator.pass").
		Str("trace_id", traceID).
		Dur("took", time.Since(start)).
		Msg("sync pass finished")
	return nil
}

// drain sends queued mutations until the queue has nothing drainable left.
// Entities drain concurrently, bounded by drainWorkers; the mutations of one
// entity go strictly in sequence order.
func (c *syncCoordinator) drain(ctx context.Context) error {
	for range maxDrainRounds {
		batch, err := c.queue.PeekBatch(ctx, c.drainBatch)
		if err != nil {
			return c.storageFailure(ctx, "peek batch", err)
		}
		if len(batch) == 0 {
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.drainWorkers)
		for _, group := range groupByEntity(batch) {
			g.Go(func() error {
				return c.drainEntity(gctx, group)
			})
		}
		if err = g.Wait(); err != nil {
			return err
		}
	}

	c.logger.Warn().Str("func", "syncCoordinator.drain").Int("rounds", maxDrainRounds).Msg("drain round limit reached, continuing next pass")
	return nil
}

// groupByEntity splits a batch per entity, keeping sequence order inside
// each group and ordering groups by their oldest mutation.
func groupByEntity(batch []models.Mutation) [][]models.Mutation {
	index := make(map[models.EntityKey]int)
	var groups [][]models.Mutation
	for _, m := range batch {
		i, ok := index[m.Key()]
		if !ok {
			i = len(groups)
			index[m.Key()] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	return groups
}

func (c *syncCoordinator) drainEntity(ctx context.Context, group []models.Mutation) error {
	for _, m := range group {
		marked, err := c.queue.MarkInFlight(ctx, m.Seq)
		if err != nil {
			return c.storageFailure(ctx, "mark in flight", err)
		}
		if len(marked) == 0 {
			return nil
		}

		acked, err := c.send(ctx, marked[0])
		if err != nil || !acked {
			return err
		}
	}
	return nil
}

// send pushes one in-flight mutation and settles it. It returns an error only
// when the whole drain must stop: a transport failure or a storage failure.
func (c *syncCoordinator) send(ctx context.Context, m models.Mutation) (bool, error) {
	ack, pushErr := c.remote.PushMutation(ctx, m.Request())

	// the outcome must be recorded even when the pass is being cancelled
	bookCtx := context.WithoutCancel(ctx)
	key := m.Key()
	log := c.logger.With().
		Int64("seq", m.Seq).
		Str("collection", m.Collection).
		Str("entity_id", m.EntityID).
		Logger()

	switch classifyPushError(pushErr, ctx.Err() != nil) {
	case outcomeAcknowledged:
		if err := c.queue.MarkAcknowledged(bookCtx, m.Seq, ack); err != nil {
			return false, c.storageFailure(bookCtx, "acknowledge", err)
		}
		c.metrics.RecordMutation(metrics.MutationAcknowledged)
		log.Debug().Str("func", "syncCoordinator.send").Int64("revision", ack.Revision).Bool("duplicate", ack.Duplicate).Msg("mutation acknowledged")
		c.notifier.publishRecord(bookCtx, c.records, key)
		return true, nil

	case outcomeUnsent:
		if _, _, err := c.queue.Release(bookCtx, m.Seq); err != nil {
			return false, c.storageFailure(bookCtx, "release", err)
		}
		log.Debug().Err(pushErr).Str("func", "syncCoordinator.send").Msg("mutation not delivered, back to queue")
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, pushErr

	case outcomeConflict:
		held, changed, err := c.queue.MarkFailed(bookCtx, m.Seq, false, pushErr)
		if err != nil {
			return false, c.storageFailure(bookCtx, "hold conflict", err)
		}
		if changed {
			c.metrics.RecordMutation(metrics.MutationConflict)
			log.Warn().Err(pushErr).Str("func", "syncCoordinator.send").Msg("mutation conflicts with remote, holding it")
			c.notifier.Events.Publish(models.NewMutationEvent(models.EventConflict, held, pushErr))
			c.notifier.publishRecord(bookCtx, c.records, key)
		}
		return false, nil

	case outcomeRejected:
		failed, changed, err := c.queue.MarkFailed(bookCtx, m.Seq, false, pushErr)
		if err != nil {
			return false, c.storageFailure(bookCtx, "reject", err)
		}
		if !changed {
			return false, nil
		}
		c.metrics.RecordMutation(metrics.MutationRejected)
		log.Warn().Err(pushErr).Str("func", "syncCoordinator.send").Msg("mutation rejected by remote")
		c.notifier.Events.Publish(models.NewMutationEvent(models.EventRejected, failed, pushErr))
		if _, err = c.queue.Discard(bookCtx, m.Seq); err != nil {
			return false, c.storageFailure(bookCtx, "drop rejected", err)
		}
		c.notifier.publishRecord(bookCtx, c.records, key)
		return false, nil

	default:
		if m.Attempts+1 >= c.maxAttempts {
			exhausted, changed, err := c.queue.MarkFailed(bookCtx, m.Seq, false, pushErr)
			if err != nil {
				return false, c.storageFailure(bookCtx, "hold exhausted", err)
			}
			if changed {
				c.metrics.RecordMutation(metrics.MutationExhausted)
				log.Warn().Err(pushErr).Str("func", "syncCoordinator.send").Int("attempts", exhausted.Attempts).Msg("mutation out of attempts, holding it")
				c.notifier.Events.Publish(models.NewMutationEvent(models.EventExhausted, exhausted, pushErr))
				c.notifier.publishRecord(bookCtx, c.records, key)
			}
			return false, pushErr
		}

		if _, _, err := c.queue.MarkFailed(bookCtx, m.Seq, true, pushErr); err != nil {
			return false, c.storageFailure(bookCtx, "record retry", err)
		}
		c.metrics.RecordMutation(metrics.MutationRetried)
		log.Debug().Err(pushErr).Str("func", "syncCoordinator.send").Msg("mutation send failed, will retry")
		if !errors.Is(pushErr, models.ErrTransportFailure) && !errors.Is(pushErr, models.ErrProtocolFailure) {
			pushErr = fmt.Errorf("%w: %w", models.ErrTransportFailure, pushErr)
		}
		return false, pushErr
	}
}

// pullCollection pulls and reconciles every delta newer than the collection
// watermark, page by page.
func (c *syncCoordinator) pullCollection(ctx context.Context, collection string) error {
	since, err := c.records.Watermark(ctx, collection)
	if err != nil {
		return c.storageFailure(ctx, "read watermark", err)
	}

	for range maxPullPages {
		c.setState(models.SyncPulling)
		page, err := c.remote.PullDeltas(ctx, models.PullRequest{Collection: collection, Since: since, Limit: c.drainBatch})
		if err != nil {
			return fmt.Errorf("pull %s since %d: %w", collection, since, err)
		}

		c.setState(models.SyncReconciling)
		for _, delta := range page.Deltas {
			if _, err = c.apply(ctx, delta, "pull"); err != nil {
				return err
			}
		}

		if page.Watermark > since {
			if err = c.records.AdvanceWatermark(ctx, collection, page.Watermark); err != nil {
				return c.storageFailure(ctx, "advance watermark", err)
			}
			since = page.Watermark
		} else if page.HasMore {
			return fmt.Errorf("pull %s since %d: %w", collection, since, ErrNoProgress)
		}

		if !page.HasMore {
			return nil
		}
	}

	c.logger.Warn().Str("func", "syncCoordinator.pullCollection").Str("collection", collection).Msg("pull page limit reached, continuing next pass")
	return nil
}

// apply reconciles one remote delta with local state.
func (c *syncCoordinator) apply(ctx context.Context, delta models.RemoteDelta, source string) (store.ApplyOutcome, error) {
	outcome, err := c.records.ApplyRemote(ctx, delta)
	if err != nil {
		return outcome, c.storageFailure(ctx, "apply remote delta", err)
	}
	c.metrics.RecordDelta(source, outcome.String())

	if outcome == store.Applied {
		c.notifier.publishRecord(ctx, c.records, delta.Key())
	}
	return outcome, nil
}

// reconcileLive applies a pushed delta. It reports a gap when the delta is
// ahead of the collection watermark by more than one revision, in which
// case a pull is needed to fill it.
func (c *syncCoordinator) reconcileLive(ctx context.Context, delta models.RemoteDelta, passRunning bool) (bool, error) {
	if !passRunning {
		c.setState(models.SyncReconciling)
		defer c.setState(models.SyncIdle)
	}

	if _, err := c.apply(ctx, delta, "live"); err != nil {
		return false, err
	}

	watermark, err := c.records.Watermark(ctx, delta.Collection)
	if err != nil {
		return false, c.storageFailure(ctx, "read watermark", err)
	}
	switch {
	case delta.Revision <= watermark:
		return false, nil
	case delta.Revision == watermark+1:
		if err = c.records.AdvanceWatermark(ctx, delta.Collection, delta.Revision); err != nil {
			return false, c.storageFailure(ctx, "advance watermark", err)
		}
		return false, nil
	default:
		return true, nil
	}
}

// resolve settles a held mutation as the collaborator decided.
func (c *syncCoordinator) resolve(ctx context.Context, seq int64, resolution models.Resolution) error {
	m, err := c.queue.Get(ctx, seq)
	if err != nil {
		return err
	}
	if !m.Held() {
		return fmt.Errorf("%w: seq %d is %s", store.ErrNotHeld, seq, m.Status)
	}

	switch resolution {
	case models.ResolutionDiscard:
		_, err = c.queue.Discard(ctx, seq)
	case models.ResolutionRebase:
		_, err = c.queue.Rebase(ctx, seq)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownResolution, resolution)
	}
	if err != nil {
		return err
	}

	c.logger.Info().
		Str("func", "syncCoordinator.resolve").
		Int64("seq", seq).
		Str("entity_id", m.EntityID).
		Str("resolution", resolution.String()).
		Msg("held mutation resolved")

	c.notifier.publishRecord(ctx, c.records, m.Key())
	return nil
}

// evict drops the records the eviction policy picks. Entities with pending
// mutations are skipped by the store.
func (c *syncCoordinator) evict(ctx context.Context) {
	if c.eviction == nil {
		return
	}

	for _, collection := range c.collections {
		keys, err := c.eviction.Candidates(ctx, collection)
		if err != nil {
			c.logger.Err(err).Str("func", "syncCoordinator.evict").Str("collection", collection).Msg("eviction policy failed")
			continue
		}
		for _, key := range keys {
			err = c.records.Evict(ctx, key)
			switch {
			case errors.Is(err, store.ErrPendingMutations):
			case err != nil:
				c.logger.Err(err).Str("func", "syncCoordinator.evict").Str("entity", key.String()).Msg("failed to evict record")
			default:
				c.notifier.Changes.Publish(models.NewRemovedEvent(key))
			}
		}
	}
}

// storageFailure surfaces a local storage error to observers and returns it
// wrapped with the failed step.
func (c *syncCoordinator) storageFailure(ctx context.Context, step string, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	c.notifier.Events.Publish(models.NewStatusEvent(models.EventStorage, err))
	return fmt.Errorf("%s: %w", step, err)
}
