package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	handlerhttp "github.com/MKhiriev/go-offline-sync/internal/handler/http"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
)

const courses = "courses"

// testRemote runs the reference remote behind an httptest server that can be
// switched off and can lose acknowledgements after applying a mutation.
type testRemote struct {
	services *service.Services
	server   *httptest.Server

	mu       sync.Mutex
	down     bool
	dropAcks int
	requests map[string]int
}

func newTestRemote(t *testing.T) *testRemote {
	t.Helper()

	services, err := service.NewServices(config.ServerConfig{Version: "test"}, logger.Nop())
	require.NoError(t, err)

	r := &testRemote{services: services, requests: make(map[string]int)}
	api := handlerhttp.NewHandler(services, "", nil, logger.Nop()).Init()

	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.requests[req.Method+" "+req.URL.Path]++
		down := r.down
		drop := req.URL.Path == handlerhttp.MutationsPath && r.dropAcks > 0
		if drop {
			r.dropAcks--
		}
		r.mu.Unlock()

		switch {
		case down:
			http.Error(w, "remote is down", http.StatusServiceUnavailable)
		case drop:
			api.ServeHTTP(httptest.NewRecorder(), req)
			http.Error(w, "ack lost", http.StatusGatewayTimeout)
		default:
			api.ServeHTTP(w, req)
		}
	}))
	t.Cleanup(r.server.Close)

	return r
}

func (r *testRemote) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

func (r *testRemote) loseAcks(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropAcks = n
}

func (r *testRemote) count(method, path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[method+" "+path]
}

func (r *testRemote) liveAddress() string {
	return "ws" + strings.TrimPrefix(r.server.URL, "http") + handlerhttp.LivePath
}

// write applies a mutation as another client would.
func (r *testRemote) write(t *testing.T, token string, op models.MutationOp, id string, base int64, payload string) models.MutationAck {
	t.Helper()
	req := models.MutationRequest{
		Token:        token,
		Collection:   courses,
		EntityID:     id,
		Op:           op,
		BaseRevision: base,
	}
	if payload != "" {
		req.Payload = json.RawMessage(payload)
	}
	ack, err := r.services.RemoteService.ApplyMutation(context.Background(), req)
	require.NoError(t, err)
	return ack
}

// testConfig returns an engine config pointed at remote with its store in
// dir. Reachability is driven by the test; the live channel is off unless
// the caller sets LiveAddress.
func testConfig(remote *testRemote, dir string) *config.ClientConfig {
	return &config.ClientConfig{
		Adapter: config.ClientAdapter{
			HTTPAddress:    remote.server.URL,
			RequestTimeout: 2 * time.Second,
		},
		Storage: config.ClientStorage{DB: config.ClientDB{DSN: filepath.Join(dir, "cache.db")}},
		Workers: config.ClientWorkers{
			SyncInterval: time.Hour,
			BackoffBase:  10 * time.Millisecond,
			BackoffMax:   50 * time.Millisecond,
			MaxRetries:   20,
			MaxAttempts:  10,
			DrainBatch:   10,
			DrainWorkers: 4,
			Collections:  []string{courses},
		},
	}
}

// startEngine opens and starts an engine; it is shut down on cleanup.
func startEngine(t *testing.T, cfg *config.ClientConfig) *Engine {
	t.Helper()
	e, err := Open(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(ctx)
	})
	return e
}

// goOnline reports the network reachable and waits for a completed pass.
func goOnline(t *testing.T, e *Engine) {
	t.Helper()
	e.ReportReachability(true)
	syncNow(t, e)
}

func syncNow(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.ForceSync().Wait(ctx))
}

func enqueue(t *testing.T, e *Engine, op models.MutationOp, id, payload string) int64 {
	t.Helper()
	in := models.MutationInput{Collection: courses, EntityID: id, Op: op}
	if payload != "" {
		in.Payload = json.RawMessage(payload)
	}
	seq, err := e.Enqueue(context.Background(), in)
	require.NoError(t, err)
	return seq
}

func pending(t *testing.T, e *Engine) int {
	t.Helper()
	n, err := e.PendingCount(context.Background())
	require.NoError(t, err)
	return n
}

func get(t *testing.T, e *Engine, id string) models.Record {
	t.Helper()
	rec, err := e.Get(context.Background(), courses, id)
	require.NoError(t, err)
	return rec
}

// eventLog collects engine events from the moment it is created.
type eventLog struct {
	mu     sync.Mutex
	events []models.EngineEvent
}

func watchEvents(t *testing.T, e *Engine) *eventLog {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := &eventLog{}
	hub := e.services.Notifier.Events
	before := hub.Subscribers()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range e.Events(ctx) {
			l.mu.Lock()
			l.events = append(l.events, ev)
			l.mu.Unlock()
		}
	}()
	require.Eventually(t, func() bool { return hub.Subscribers() > before }, time.Second, time.Millisecond)
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l
}

func (l *eventLog) of(kind models.EngineEventKind) []models.EngineEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.EngineEvent
	for _, ev := range l.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return slices.Clip(out)
}
