// Package server runs the reference remote's HTTP servers.
//
// It owns the API server and the optional Prometheus exposition server,
// including startup, signal handling and graceful shutdown. Hijacked live
// channel connections are closed through the servers' base context, since
// [http.Server.Shutdown] does not track them.
package server
