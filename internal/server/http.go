package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

type httpServer struct {
	name   string
	server *http.Server

	// cancelBase ends the context of every request, hijacked ones included.
	cancelBase context.CancelFunc

	logger *logger.Logger
}

// newHTTPServer prepares a server for addr. readTimeout bounds reading the
// request headers only; live channel connections stay open indefinitely.
func newHTTPServer(name, addr string, handler http.Handler, readTimeout time.Duration, logger *logger.Logger) *httpServer {
	baseCtx, cancel := context.WithCancel(context.Background())

	return &httpServer{
		name: name,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readTimeout,
			BaseContext:       func(net.Listener) context.Context { return baseCtx },
		},
		cancelBase: cancel,
		logger:     logger,
	}
}

func (h *httpServer) listen() (net.Listener, error) {
	return net.Listen("tcp", h.server.Addr)
}

// serve blocks until the server is shut down. A clean shutdown returns nil.
func (h *httpServer) serve(l net.Listener) error {
	h.logger.Info().Str("server", h.name).Str("address", l.Addr().String()).Msg("launching HTTP server")

	if err := h.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *httpServer) shutdown(ctx context.Context) {
	h.cancelBase()
	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Err(err).Str("server", h.name).Msg("HTTP server shutdown")
	}
}
