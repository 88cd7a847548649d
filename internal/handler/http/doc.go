// Package http implements the HTTP transport of the reference remote.
//
// It exposes the mutation, delta and health endpoints used by the sync
// engine's remote adapter, plus the WebSocket live channel. Request tracing,
// access logging, bearer authentication and response compression are
// handled here before requests reach the service layer.
package http
