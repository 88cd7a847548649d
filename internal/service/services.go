package service

import (
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// Services bundles the services of the reference remote.
type Services struct {
	RemoteService  RemoteService
	AppInfoService AppInfoService
}

func NewServices(cfg config.ServerConfig, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error creating app info service: %w", err)
	}

	return &Services{
		RemoteService:  NewRemoteValidationService().Wrap(NewRemoteService(logger)),
		AppInfoService: appInfo,
	}, nil
}
