// Package handler builds the transport handlers of the reference remote.
package handler

import (
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/handler/http"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

type Handlers struct {
	HTTP *http.Handler

	// Metrics is nil unless a metrics address is configured.
	Metrics *metrics.Metrics
}

func NewHandlers(services *service.Services, cfg config.ServerConfig, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.Metrics.Address != "" {
		handlers.Metrics = metrics.New()
	}
	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, cfg.AuthToken, handlers.Metrics, logger)
	}

	if handlers.HTTP == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
