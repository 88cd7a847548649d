package config

import (
	"fmt"
	"strings"
	"time"
)

// ClientApp holds logging settings of the embedded engine.
type ClientApp struct {
	LogFile  string
	LogLevel string
}

// ClientAdapter holds the remote endpoints the engine talks to.
type ClientAdapter struct {
	HTTPAddress    string
	LiveAddress    string
	RequestTimeout time.Duration
	AuthToken      string
}

// ClientDB holds the local SQLite location.
type ClientDB struct {
	DSN string
}

// ClientStorage groups local persistence settings.
type ClientStorage struct {
	DB ClientDB
}

// ClientWorkers holds sync scheduling and connectivity tuning of the engine.
type ClientWorkers struct {
	SyncInterval     time.Duration
	DebounceWindow   time.Duration
	ProbeInterval    time.Duration
	LatencyThreshold time.Duration
	BackoffBase      time.Duration
	BackoffMax       time.Duration
	BackoffJitter    float64
	MaxRetries       int
	MaxAttempts      int
	DrainBatch       int
	DrainWorkers     int
	CacheLimit       int
	Collections      []string
}

// ClientMetrics holds the Prometheus exposition address; empty disables it.
type ClientMetrics struct {
	Address string
}

// ClientConfig is the validated configuration of the sync engine client.
type ClientConfig struct {
	App     ClientApp
	Adapter ClientAdapter
	Storage ClientStorage
	Workers ClientWorkers
	Metrics ClientMetrics
}

// GetClientConfig loads the structured config and projects the client part.
func GetClientConfig(args []string) (*ClientConfig, error) {
	cfg, err := GetStructuredConfig(args)
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

// NewClientConfig projects a structured config onto [ClientConfig].
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	w := cfg.Workers
	return &ClientConfig{
		App: ClientApp{
			LogFile:  cfg.App.LogFile,
			LogLevel: cfg.App.LogLevel,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			LiveAddress:    liveAddress(cfg.Adapter),
			RequestTimeout: cfg.Adapter.RequestTimeout,
			AuthToken:      cfg.Adapter.AuthToken,
		},
		Storage: ClientStorage{
			DB: ClientDB{DSN: cfg.Storage.DB.DSN},
		},
		Workers: ClientWorkers{
			SyncInterval:     w.SyncInterval,
			DebounceWindow:   w.DebounceWindow,
			ProbeInterval:    w.ProbeInterval,
			LatencyThreshold: w.LatencyThreshold,
			BackoffBase:      w.BackoffBase,
			BackoffMax:       w.BackoffMax,
			BackoffJitter:    w.BackoffJitter,
			MaxRetries:       w.MaxRetries,
			MaxAttempts:      w.MaxAttempts,
			DrainBatch:       w.DrainBatch,
			DrainWorkers:     w.DrainWorkers,
			CacheLimit:       w.CacheLimit,
			Collections:      w.Collections,
		},
		Metrics: ClientMetrics{Address: cfg.Metrics.Address},
	}
}

// liveAddress derives the WebSocket endpoint from the HTTP base URL when no
// explicit live address is configured.
func liveAddress(a Adapter) string {
	if a.LiveAddress != "" || a.HTTPAddress == "" {
		return a.LiveAddress
	}
	base := strings.TrimRight(a.HTTPAddress, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/api/live"
}
