// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container shared by the
// sync engine client and the reference server. It is populated by merging
// values from environment variables, command-line flags and an optional JSON
// file, then defaults.
//
// Sections carry an envPrefix tag and scalar fields an env tag, both read by
// caarlos0/env.
type StructuredConfig struct {
	// App holds process-level settings: logging and version.
	App App `envPrefix:"APP_"`

	// Storage holds the local SQLite database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds the reference server listen address and timeouts.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds the remote endpoints the engine talks to.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds sync scheduling, backoff and connectivity tuning.
	Workers Workers `envPrefix:"WORKERS_"`

	// Metrics holds the Prometheus exposition settings.
	Metrics Metrics `envPrefix:"METRICS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds process-level settings.
type App struct {
	// LogFile is the rotating log file of the engine. Empty means stdout.
	LogFile string `env:"LOG_FILE"`

	// LogLevel is a zerolog level name ("debug", "info", ...).
	LogLevel string `env:"LOG_LEVEL"`

	// Version is reported by the reference server's version endpoint.
	Version string `env:"VERSION"`
}

// Storage groups the configuration of the local store.
type Storage struct {
	DB DB `envPrefix:"DB_"`
}

// DB holds the SQLite database location.
type DB struct {
	// DSN is a file path or a "file:" URI understood by go-sqlite3.
	DSN string `env:"DSN"`
}

// Server holds the reference server settings.
type Server struct {
	HTTPAddress string `env:"ADDRESS"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// AuthToken, when set, is the bearer token every API request must carry.
	AuthToken string `env:"AUTH_TOKEN"`
}

// Adapter holds the remote endpoints used by the engine.
type Adapter struct {
	// HTTPAddress is the base URL of the remote request/response API.
	HTTPAddress string `env:"ADDRESS"`

	// LiveAddress is the WebSocket URL of the live push channel.
	// When empty it is derived from HTTPAddress.
	LiveAddress string `env:"LIVE_ADDRESS"`

	// RequestTimeout bounds a single remote request.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// AuthToken is an optional static bearer token.
	AuthToken string `env:"AUTH_TOKEN"`
}

// Workers holds sync scheduling and connectivity tuning.
type Workers struct {
	// SyncInterval is the period of the background sync trigger.
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// DebounceWindow is how long connectivity must stay up before it is
	// reported as usable.
	DebounceWindow time.Duration `env:"DEBOUNCE_WINDOW"`

	// ProbeInterval is the period of the reachability probe.
	ProbeInterval time.Duration `env:"PROBE_INTERVAL"`

	// LatencyThreshold marks the link degraded when the average probe RTT
	// exceeds it.
	LatencyThreshold time.Duration `env:"LATENCY_THRESHOLD"`

	BackoffBase   time.Duration `env:"BACKOFF_BASE"`
	BackoffMax    time.Duration `env:"BACKOFF_MAX"`
	BackoffJitter float64       `env:"BACKOFF_JITTER"`

	// MaxRetries is the number of live-channel reconnect attempts before the
	// manager waits for connectivity to come back.
	MaxRetries int `env:"MAX_RETRIES"`

	// MaxAttempts is the number of transport failures a single mutation may
	// accumulate before it is dropped as exhausted.
	MaxAttempts int `env:"MAX_ATTEMPTS"`

	// DrainBatch is the number of mutations read from the queue per batch.
	DrainBatch int `env:"DRAIN_BATCH"`

	// DrainWorkers is the number of entities drained concurrently.
	DrainWorkers int `env:"DRAIN_WORKERS"`

	// CacheLimit caps the cached records per collection. Zero disables
	// eviction.
	CacheLimit int `env:"CACHE_LIMIT"`

	// Collections are pulled on every sync pass.
	Collections []string `env:"COLLECTIONS" envSeparator:","`
}

// Metrics holds the Prometheus exposition settings.
type Metrics struct {
	// Address is where /metrics is served. Empty disables exposition.
	Address string `env:"ADDRESS"`
}

// GetStructuredConfig loads configuration from environment variables,
// command-line flags and an optional JSON file, then fills defaults.
// Earlier sources take precedence over later ones.
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		withDefaults().
		build()
}
