package server

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/handler"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

type server struct {
	servers []*httpServer
	logger  *logger.Logger
}

func NewServer(handlers *handler.Handlers, cfg config.ServerConfig, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	return newServer(handlers, cfg, logger)
}

func newServer(handlers *handler.Handlers, cfg config.ServerConfig, logger *logger.Logger) (*server, error) {
	servers := &server{logger: logger}

	if cfg.HTTPAddress != "" && handlers.HTTP != nil {
		servers.servers = append(servers.servers,
			newHTTPServer("api", cfg.HTTPAddress, handlers.HTTP.Init(), cfg.RequestTimeout, logger))
	}
	if cfg.Metrics.Address != "" && handlers.Metrics != nil {
		servers.servers = append(servers.servers,
			newHTTPServer("metrics", cfg.Metrics.Address, handlers.Metrics.Handler(), cfg.RequestTimeout, logger))
	}

	if len(servers.servers) == 0 {
		return nil, errNoServersAreCreated
	}

	return servers, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := s.run(ctx); err != nil {
		s.logger.Err(err).Msg("error running server")
	}
}

func (s *server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, srv := range s.servers {
		srv.shutdown(ctx)
	}
}

// run serves until ctx ends or a server fails, then shuts every server down.
func (s *server) run(ctx context.Context) error {
	if len(s.servers) == 0 {
		return errNoServersToRun
	}

	// bind every address first so a taken port fails startup at once
	listeners := make([]net.Listener, 0, len(s.servers))
	for _, srv := range s.servers {
		l, err := srv.listen()
		if err != nil {
			for _, opened := range listeners {
				opened.Close()
			}
			return fmt.Errorf("listen %s server: %w", srv.name, err)
		}
		listeners = append(listeners, l)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range s.servers {
		g.Go(func() error {
			return srv.serve(listeners[i])
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.Shutdown()
		return nil
	})

	err := g.Wait()
	s.logger.Info().Msg("server shut down gracefully")
	return err
}
