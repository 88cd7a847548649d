package service

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

// appInfoService reports the remote's build version to clients probing it.
type appInfoService string

func NewAppInfoService(cfg config.ServerConfig, logger *logger.Logger) (AppInfoService, error) {
	if cfg.Version == "" {
		return nil, ErrVersionIsNotSpecified
	}
	logger.Debug().Str("version", cfg.Version).Msg("remote version set")

	return appInfoService(cfg.Version), nil
}

func (s appInfoService) GetAppVersion(context.Context) string {
	return string(s)
}
