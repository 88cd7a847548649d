package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/mock"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// newTestStorages opens a migrated SQLite store in a temporary directory.
func newTestStorages(t *testing.T) *store.Storages {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cache.db")
	s, err := store.NewStorages(context.Background(), config.ClientStorage{DB: config.ClientDB{DSN: dsn}}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func jsonPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// recorder keeps every value published on a hub.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func record[T any](t *testing.T, h *Hub[T]) *recorder[T] {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := &recorder[T]{}
	before := h.Subscribers()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := range h.Subscribe(ctx) {
			r.mu.Lock()
			r.values = append(r.values, v)
			r.mu.Unlock()
		}
	}()
	require.Eventually(t, func() bool { return h.Subscribers() > before }, time.Second, time.Millisecond)
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return r
}

func (r *recorder[T]) all() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.values)
}

func (r *recorder[T]) count(match func(T) bool) int {
	n := 0
	for _, v := range r.all() {
		if match(v) {
			n++
		}
	}
	return n
}

func eventKind(kind models.EngineEventKind) func(models.EngineEvent) bool {
	return func(e models.EngineEvent) bool { return e.Kind == kind }
}

var testWorkers = config.ClientWorkers{
	BackoffBase:  10 * time.Millisecond,
	BackoffMax:   40 * time.Millisecond,
	MaxRetries:   3,
	MaxAttempts:  3,
	DrainBatch:   10,
	DrainWorkers: 4,
	Collections:  []string{"courses"},
}

type coordinatorHarness struct {
	storages    *store.Storages
	queue       PendingQueue
	remote      *mock.MockRemoteAdapter
	monitor     *connectivityMonitor
	notifier    *Notifier
	metrics     *metrics.Metrics
	events      *recorder[models.EngineEvent]
	coordinator *syncCoordinator
}

func newCoordinatorHarness(t *testing.T, cfg config.ClientWorkers) *coordinatorHarness {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := &coordinatorHarness{
		storages: newTestStorages(t),
		remote:   mock.NewMockRemoteAdapter(ctrl),
		notifier: NewNotifier(),
		metrics:  metrics.New(),
	}
	h.monitor = NewConnectivityMonitor(config.ClientWorkers{}, nil, h.metrics, logger.Nop()).(*connectivityMonitor)
	h.queue = NewPendingQueue(h.storages.Mutations, utils.NewUUIDGenerator(), h.notifier, h.metrics, logger.Nop())
	h.events = record(t, h.notifier.Events)
	h.coordinator = NewSyncCoordinator(CoordinatorDeps{
		Queue:    h.queue,
		Records:  h.storages.Records,
		Remote:   h.remote,
		Monitor:  h.monitor,
		Notifier: h.notifier,
		Metrics:  h.metrics,
	}, cfg, logger.Nop()).(*syncCoordinator)

	t.Cleanup(func() {
		h.coordinator.Stop()
		h.monitor.Stop()
		h.notifier.Close()
	})
	return h
}

func (h *coordinatorHarness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.coordinator.Start(context.Background()))
}

func (h *coordinatorHarness) online() {
	h.monitor.ReportChannel(true)
}

func (h *coordinatorHarness) offline() {
	h.monitor.ReportReachability(false)
}

func (h *coordinatorHarness) enqueue(t *testing.T, op models.MutationOp, id string, body any) models.Mutation {
	t.Helper()
	in := models.MutationInput{Collection: "courses", EntityID: id, Op: op}
	if body != nil {
		in.Payload = jsonPayload(t, body)
	}
	seq, err := h.queue.Enqueue(context.Background(), in)
	require.NoError(t, err)
	m, err := h.queue.Get(context.Background(), seq)
	require.NoError(t, err)
	return m
}

func (h *coordinatorHarness) expectEmptyPulls() {
	h.remote.EXPECT().PullDeltas(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PullRequest) (models.PullResponse, error) {
			return models.PullResponse{Collection: req.Collection, Watermark: req.Since}, nil
		}).AnyTimes()
}

func (h *coordinatorHarness) forceSync(t *testing.T) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.coordinator.ForceSync().Wait(ctx)
}

func ackFor(req models.MutationRequest, revision int64) models.MutationAck {
	return models.MutationAck{
		Token:      req.Token,
		Collection: req.Collection,
		EntityID:   req.EntityID,
		Revision:   revision,
		Deleted:    req.Op == models.OpDelete,
	}
}
