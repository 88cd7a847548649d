package http

import (
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

type Handler struct {
	services *service.Services

	// authToken, when not empty, is required as a bearer token on the API routes.
	authToken string
	metrics   *metrics.Metrics

	logger *logger.Logger
}

// NewHandler creates the HTTP handler. m may be nil to skip request metrics.
func NewHandler(services *service.Services, authToken string, m *metrics.Metrics, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:  services,
		authToken: authToken,
		metrics:   m,
		logger:    logger,
	}
}
