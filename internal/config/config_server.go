package config

import (
	"fmt"
	"time"
)

// ServerConfig is the configuration of the reference remote server.
type ServerConfig struct {
	HTTPAddress    string
	RequestTimeout time.Duration
	Version        string
	AuthToken      string
	Metrics        ClientMetrics
}

// GetServerConfig loads the structured config and projects the server part.
func GetServerConfig(args []string) (*ServerConfig, error) {
	cfg, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := &ServerConfig{
		HTTPAddress:    cfg.Server.HTTPAddress,
		RequestTimeout: cfg.Server.RequestTimeout,
		Version:        cfg.App.Version,
		AuthToken:      cfg.Server.AuthToken,
		Metrics:        ClientMetrics{Address: cfg.Metrics.Address},
	}

	return serverCfg, serverCfg.validate()
}
