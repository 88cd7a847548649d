// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for talking to the
// authoritative remote.
//
// [RemoteAdapter] decouples the sync coordinator from the request/response
// protocol and [LiveDialer] from the push channel. The package ships an
// HTTP/REST implementation ([NewHTTPRemoteAdapter]) and a WebSocket
// implementation ([NewWebSocketDialer]).
//
// Every error returned by this package wraps one of the failure classes in
// models (see errors.go) so callers can branch with [errors.Is] without
// knowing which transport produced it.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_adapter_mock.go -package=mock

// RemoteAdapter defines request/response communication with the remote.
type RemoteAdapter interface {
	// PushMutation sends one mutation. The request token is sent as the
	// idempotency key, so resending after an unknown outcome is safe.
	// Returns an error wrapping [models.ErrConflictFailure] when the remote
	// revision moved past req.BaseRevision, [models.ErrRejected] when the
	// remote refused the change for good, [models.ErrAuthFailure] when it
	// refused the credentials, and [models.ErrTransportFailure] or
	// [models.ErrProtocolFailure] for failures worth retrying.
	PushMutation(ctx context.Context, req models.MutationRequest) (models.MutationAck, error)

	// PullDeltas fetches one page of deltas newer than req.Since.
	PullDeltas(ctx context.Context, req models.PullRequest) (models.PullResponse, error)

	// Ping checks that the remote answers at all.
	Ping(ctx context.Context) error
}

// LiveDialer opens the push channel.
type LiveDialer interface {
	DialLive(ctx context.Context) (LiveConn, error)
}

// LiveConn is an open push channel. Read blocks until a delta arrives, the
// context is done or the connection drops.
type LiveConn interface {
	Read(ctx context.Context) (models.RemoteDelta, error)
	Close() error
}

// TokenSource supplies the bearer token attached to every remote call.
// Obtaining and refreshing tokens is left to the host application.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
