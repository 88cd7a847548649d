package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// Routes served by the remote.
const (
	MutationsPath = "/api/mutations"
	DeltasPath    = "/api/deltas"
	HealthPath    = "/api/health"
	LivePath      = "/api/live"

	IdempotencyKeyHeader = "Idempotency-Key"
	TraceIDHeader        = "X-Trace-ID"
)

type httpRemoteAdapter struct {
	client *utils.HTTPClient
	tokens TokenSource

	logger *logger.Logger
}

// NewHTTPRemoteAdapter constructs an HTTP/REST implementation of
// [RemoteAdapter]. It normalises the base URL from cfg.HTTPAddress and bounds
// every request by cfg.RequestTimeout. tokens may be nil.
//
// Returns an error if cfg.HTTPAddress is empty or cannot be parsed as a valid
// URL.
func NewHTTPRemoteAdapter(cfg config.ClientAdapter, tokens TokenSource, log *logger.Logger) (RemoteAdapter, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &httpRemoteAdapter{
		client: utils.NewHTTPClient(baseURL, cfg.RequestTimeout),
		tokens: tokens,
		logger: log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// request prepares a request carrying ctx, the bearer token and the trace id.
func (h *httpRemoteAdapter) request(ctx context.Context) (*resty.Request, error) {
	req := h.client.R().SetContext(ctx)

	auth, err := bearer(ctx, h.tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: token source: %w", ErrUnauthorized, err)
	}
	if auth != "" {
		req.SetHeader("Authorization", auth)
	}
	if traceID, ok := utils.GetTraceIDFromContext(ctx); ok {
		req.SetHeader(TraceIDHeader, traceID)
	}

	return req, nil
}

// PushMutation implements [RemoteAdapter]. It POSTs req to /api/mutations with
// the idempotency token in the Idempotency-Key header.
func (h *httpRemoteAdapter) PushMutation(ctx context.Context, req models.MutationRequest) (models.MutationAck, error) {
	r, err := h.request(ctx)
	if err != nil {
		return models.MutationAck{}, err
	}

	resp, err := r.
		SetHeader("Content-Type", "application/json").
		SetHeader(IdempotencyKeyHeader, req.Token).
		SetBody(req).
		Post(MutationsPath)
	if err != nil {
		h.logger.Debug().Err(err).Str("func", "httpRemoteAdapter.PushMutation").
			Str("token", req.Token).Msg("mutation request did not complete")
		return models.MutationAck{}, mapTransportError("push mutation", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.MutationAck{}, err
	}

	var ack models.MutationAck
	if err = json.Unmarshal(resp.Body(), &ack); err != nil {
		return models.MutationAck{}, fmt.Errorf("%w: decode mutation ack: %w", ErrBadResponse, err)
	}
	if ack.Token != req.Token || ack.Revision <= 0 {
		return models.MutationAck{}, fmt.Errorf("%w: ack for token %q with revision %d", ErrBadResponse, ack.Token, ack.Revision)
	}

	return ack, nil
}

// PullDeltas implements [RemoteAdapter]. It GETs /api/deltas with the
// collection, since and limit query parameters.
func (h *httpRemoteAdapter) PullDeltas(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	r, err := h.request(ctx)
	if err != nil {
		return models.PullResponse{}, err
	}

	r.SetQueryParam("collection", req.Collection).
		SetQueryParam("since", strconv.FormatInt(req.Since, 10))
	if req.Limit > 0 {
		r.SetQueryParam("limit", strconv.Itoa(req.Limit))
	}

	resp, err := r.Get(DeltasPath)
	if err != nil {
		return models.PullResponse{}, mapTransportError("pull deltas", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PullResponse{}, err
	}

	var page models.PullResponse
	if err = json.Unmarshal(resp.Body(), &page); err != nil {
		return models.PullResponse{}, fmt.Errorf("%w: decode deltas: %w", ErrBadResponse, err)
	}
	if page.Collection != "" && page.Collection != req.Collection {
		return models.PullResponse{}, fmt.Errorf("%w: asked for %q, got %q", ErrBadResponse, req.Collection, page.Collection)
	}
	page.Collection = req.Collection
	for i := range page.Deltas {
		if page.Deltas[i].Collection == "" {
			page.Deltas[i].Collection = req.Collection
		}
	}

	return page, nil
}

// Ping implements [RemoteAdapter] with GET /api/health.
func (h *httpRemoteAdapter) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get(HealthPath)
	if err != nil {
		return mapTransportError("ping", err)
	}
	return mapHTTPError(resp)
}
