// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// maxLiveFrame bounds a single push frame.
const maxLiveFrame = 1 << 20

type webSocketDialer struct {
	address     string
	collections []string
	timeout     time.Duration
	tokens      TokenSource

	logger *logger.Logger
}

// NewWebSocketDialer constructs a [LiveDialer] for the WebSocket endpoint at
// cfg.LiveAddress. The remote only pushes deltas of the listed collections.
func NewWebSocketDialer(cfg config.ClientAdapter, collections []string, tokens TokenSource, log *logger.Logger) (LiveDialer, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.LiveAddress))
	if err != nil {
		return nil, fmt.Errorf("invalid live address: %w", err)
	}
	if (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return nil, fmt.Errorf("invalid live address %q: want ws:// or wss://", cfg.LiveAddress)
	}

	return &webSocketDialer{
		address:     u.String(),
		collections: collections,
		timeout:     cfg.RequestTimeout,
		tokens:      tokens,
		logger:      log,
	}, nil
}

// DialLive implements [LiveDialer]. The handshake is bounded by the request
// timeout; the returned connection lives until closed.
func (d *webSocketDialer) DialLive(ctx context.Context) (LiveConn, error) {
	header := http.Header{}
	auth, err := bearer(ctx, d.tokens)
	if err != nil {
		return nil, fmt.Errorf("%w: token source: %w", ErrUnauthorized, err)
	}
	if auth != "" {
		header.Set("Authorization", auth)
	}
	if traceID, ok := utils.GetTraceIDFromContext(ctx); ok {
		header.Set(TraceIDHeader, traceID)
	}

	dialCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	conn, resp, err := websocket.Dial(dialCtx, d.dialURL(), &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, fmt.Errorf("dial live: %w", ErrUnauthorized)
			case http.StatusForbidden:
				return nil, fmt.Errorf("dial live: %w", ErrForbidden)
			}
		}
		return nil, mapTransportError("dial live", err)
	}
	conn.SetReadLimit(maxLiveFrame)

	d.logger.Debug().Str("func", "webSocketDialer.DialLive").Str("address", d.address).Msg("live channel open")

	return &webSocketConn{conn: conn}, nil
}

func (d *webSocketDialer) dialURL() string {
	if len(d.collections) == 0 {
		return d.address
	}
	u, _ := url.Parse(d.address)
	q := u.Query()
	q.Set("collections", strings.Join(d.collections, ","))
	u.RawQuery = q.Encode()
	return u.String()
}

type webSocketConn struct {
	conn *websocket.Conn
}

// Read implements [LiveConn]. A frame that is not a delta is a protocol
// failure; the connection stays usable after it.
func (c *webSocketConn) Read(ctx context.Context) (models.RemoteDelta, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return models.RemoteDelta{}, fmt.Errorf("%w: %w: %w", ErrLiveClosed, models.ErrTransportFailure, err)
		}
		return models.RemoteDelta{}, mapTransportError("read live", err)
	}
	if typ != websocket.MessageText {
		return models.RemoteDelta{}, fmt.Errorf("%w: unexpected live frame type %v", ErrBadResponse, typ)
	}

	var delta models.RemoteDelta
	if err = json.Unmarshal(data, &delta); err != nil {
		return models.RemoteDelta{}, fmt.Errorf("%w: decode live delta: %w", ErrBadResponse, err)
	}
	if delta.Collection == "" || delta.EntityID == "" || delta.Revision <= 0 {
		return models.RemoteDelta{}, fmt.Errorf("%w: incomplete live delta %s rev %d", ErrBadResponse, delta.Key(), delta.Revision)
	}

	return delta, nil
}

// Close implements [LiveConn].
func (c *webSocketConn) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "client closing")
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
