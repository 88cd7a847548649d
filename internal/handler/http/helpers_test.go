package http

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
)

// newTestHandler builds a Handler over the in-memory remote.
func newTestHandler(t *testing.T, authToken string) (*Handler, *service.Services, *metrics.Metrics) {
	t.Helper()

	services, err := service.NewServices(config.ServerConfig{Version: "1.2.3"}, logger.Nop())
	require.NoError(t, err)

	m := metrics.New()
	return NewHandler(services, authToken, m, logger.Nop()), services, m
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func pushMutation(t *testing.T, router http.Handler, req models.MutationRequest) *httptest.ResponseRecorder {
	t.Helper()
	return doJSON(t, router, http.MethodPost, MutationsPath, req, map[string]string{idempotencyKeyHeader: req.Token})
}

func createCourse(token, id, body string) models.MutationRequest {
	return models.MutationRequest{
		Token:      token,
		Collection: "courses",
		EntityID:   id,
		Op:         models.OpCreate,
		Payload:    json.RawMessage(body),
	}
}

// stubAppInfo implements service.AppInfoService.
type stubAppInfo struct {
	version string
}

func (s stubAppInfo) GetAppVersion(context.Context) string {
	return s.version
}

// feedRemote is a RemoteService whose live feed is driven by the test.
type feedRemote struct {
	service.RemoteService

	subscribed chan []string
	feed       chan models.RemoteDelta
}

func newFeedRemote() *feedRemote {
	return &feedRemote{
		subscribed: make(chan []string, 1),
		feed:       make(chan models.RemoteDelta),
	}
}

func (f *feedRemote) Subscribe(ctx context.Context, collections []string) iter.Seq[models.RemoteDelta] {
	return func(yield func(models.RemoteDelta) bool) {
		f.subscribed <- collections
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-f.feed:
				if !ok || !yield(d) {
					return
				}
			}
		}
	}
}
