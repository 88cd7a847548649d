// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

func newTestAdapter(t *testing.T, serverURL string, tokens TokenSource) *httpRemoteAdapter {
	t.Helper()
	a, err := NewHTTPRemoteAdapter(config.ClientAdapter{HTTPAddress: serverURL, RequestTimeout: time.Second}, tokens, logger.Nop())
	require.NoError(t, err)
	return a.(*httpRemoteAdapter)
}

func mutationRequest() models.MutationRequest {
	return models.MutationRequest{
		Token:        "tok-1",
		Collection:   "courses",
		EntityID:     "7",
		Op:           models.OpUpdate,
		Payload:      json.RawMessage(`{"title":"Go"}`),
		BaseRevision: 3,
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "adds scheme", raw: "localhost:8080", want: "http://localhost:8080"},
		{name: "trims slash", raw: " https://remote.example/ ", want: "https://remote.example"},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "no host", raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPushMutation_Success(t *testing.T) {
	req := mutationRequest()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, MutationsPath, r.URL.Path)
		assert.Equal(t, "tok-1", r.Header.Get(IdempotencyKeyHeader))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "trace-42", r.Header.Get(TraceIDHeader))

		var got models.MutationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, req.BaseRevision, got.BaseRevision)
		assert.JSONEq(t, string(req.Payload), string(got.Payload))

		_, _ = utils.WriteJSON(w, models.MutationAck{Token: got.Token, Collection: got.Collection, EntityID: got.EntityID, Revision: 4}, http.StatusOK)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, StaticToken("secret"))
	ack, err := a.PushMutation(utils.WithTraceID(context.Background(), "trace-42"), req)

	require.NoError(t, err)
	assert.Equal(t, int64(4), ack.Revision)
	assert.Equal(t, "tok-1", ack.Token)
}

func TestPushMutation_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    error
		class   error
		retries bool
	}{
		{name: "conflict", status: http.StatusConflict, want: ErrConflict, class: models.ErrConflictFailure},
		{name: "bad request", status: http.StatusBadRequest, want: ErrBadRequest, class: models.ErrRejected},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, want: ErrBadRequest, class: models.ErrRejected},
		{name: "unauthorized", status: http.StatusUnauthorized, want: ErrUnauthorized, class: models.ErrAuthFailure},
		{name: "forbidden", status: http.StatusForbidden, want: ErrForbidden, class: models.ErrAuthFailure},
		{name: "not found", status: http.StatusNotFound, want: ErrNotFound, class: models.ErrRejected},
		{name: "too many requests", status: http.StatusTooManyRequests, want: ErrUnavailable, class: models.ErrTransportFailure, retries: true},
		{name: "internal error", status: http.StatusInternalServerError, want: ErrUnavailable, class: models.ErrTransportFailure, retries: true},
		{name: "bad gateway", status: http.StatusBadGateway, want: ErrUnavailable, class: models.ErrTransportFailure, retries: true},
		{name: "teapot", status: http.StatusTeapot, want: ErrBadResponse, class: models.ErrProtocolFailure, retries: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = utils.WriteError(w, errors.New("nope"), tt.status)
			}))
			defer srv.Close()

			_, err := newTestAdapter(t, srv.URL, nil).PushMutation(context.Background(), mutationRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.class)
			assert.Equal(t, tt.retries, models.Retryable(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestPushMutation_MalformedAck(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>"},
		{name: "foreign token", body: `{"token":"other","revision":4}`},
		{name: "missing revision", body: `{"token":"tok-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestAdapter(t, srv.URL, nil).PushMutation(context.Background(), mutationRequest())
			assert.ErrorIs(t, err, models.ErrProtocolFailure)
			assert.True(t, models.Retryable(err))
		})
	}
}

func TestPushMutation_TimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestAdapter(t, srv.URL, nil).PushMutation(ctx, mutationRequest())
	assert.ErrorIs(t, err, models.ErrTransportFailure)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestPushMutation_TokenSourceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL, failingTokens{}).PushMutation(context.Background(), mutationRequest())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) { return "", errors.New("expired") }

func TestPullDeltas_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DeltasPath, r.URL.Path)
		assert.Equal(t, "courses", r.URL.Query().Get("collection"))
		assert.Equal(t, "10", r.URL.Query().Get("since"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Empty(t, r.Header.Get("Authorization"))

		_, _ = utils.WriteJSON(w, models.PullResponse{
			Collection: "courses",
			Deltas: []models.RemoteDelta{
				{EntityID: "7", Revision: 11, Payload: json.RawMessage(`{"a":1}`)},
				{Collection: "courses", EntityID: "8", Revision: 12, Deleted: true},
			},
			Watermark: 12,
			HasMore:   true,
		}, http.StatusOK)
	}))
	defer srv.Close()

	page, err := newTestAdapter(t, srv.URL, StaticToken(" ")).PullDeltas(context.Background(), models.PullRequest{Collection: "courses", Since: 10, Limit: 2})
	require.NoError(t, err)

	require.Len(t, page.Deltas, 2)
	assert.Equal(t, "courses", page.Deltas[0].Collection)
	assert.True(t, page.Deltas[1].Deleted)
	assert.Equal(t, int64(12), page.Watermark)
	assert.True(t, page.HasMore)
}

func TestPullDeltas_Errors(t *testing.T) {
	t.Run("wrong collection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = utils.WriteJSON(w, models.PullResponse{Collection: "lessons"}, http.StatusOK)
		}))
		defer srv.Close()

		_, err := newTestAdapter(t, srv.URL, nil).PullDeltas(context.Background(), models.PullRequest{Collection: "courses"})
		assert.ErrorIs(t, err, ErrBadResponse)
	})

	t.Run("unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestAdapter(t, srv.URL, nil).PullDeltas(context.Background(), models.PullRequest{Collection: "courses"})
		assert.ErrorIs(t, err, models.ErrTransportFailure)
	})

	t.Run("remote down", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newTestAdapter(t, url, nil).PullDeltas(context.Background(), models.PullRequest{Collection: "courses"})
		assert.ErrorIs(t, err, ErrNetwork)
	})
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, HealthPath, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, newTestAdapter(t, srv.URL, nil).Ping(context.Background()))
}

func TestNewHTTPRemoteAdapter_InvalidAddress(t *testing.T) {
	_, err := NewHTTPRemoteAdapter(config.ClientAdapter{}, nil, logger.Nop())
	assert.Error(t, err)
}
