package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk JSON layout of the configuration file.
// Durations are written as strings ("30s") or integer nanoseconds.
type StructuredJSONConfig struct {
	App struct {
		LogFile  string `json:"log_file"`
		LogLevel string `json:"log_level"`
		Version  string `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
		AuthToken      string   `json:"auth_token"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		LiveAddress    string   `json:"live_address"`
		RequestTimeout Duration `json:"request_timeout"`
		AuthToken      string   `json:"auth_token"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SyncInterval     Duration `json:"sync_interval"`
		DebounceWindow   Duration `json:"debounce_window"`
		ProbeInterval    Duration `json:"probe_interval"`
		LatencyThreshold Duration `json:"latency_threshold"`
		BackoffBase      Duration `json:"backoff_base"`
		BackoffMax       Duration `json:"backoff_max"`
		BackoffJitter    float64  `json:"backoff_jitter"`
		MaxRetries       int      `json:"max_retries"`
		MaxAttempts      int      `json:"max_attempts"`
		DrainBatch       int      `json:"drain_batch"`
		DrainWorkers     int      `json:"drain_workers"`
		CacheLimit       int      `json:"cache_limit"`
		Collections      []string `json:"collections"`
	} `json:"workers,omitempty"`

	Metrics struct {
		Address string `json:"address"`
	} `json:"metrics,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	w := jsonCfg.Workers
	cfg := &StructuredConfig{
		App: App{
			LogFile:  jsonCfg.App.LogFile,
			LogLevel: jsonCfg.App.LogLevel,
			Version:  jsonCfg.App.Version,
		},
		Storage: Storage{
			DB: DB{DSN: jsonCfg.Storage.DB.DSN},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
			AuthToken:      jsonCfg.Server.AuthToken,
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			LiveAddress:    jsonCfg.Adapter.LiveAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
			AuthToken:      jsonCfg.Adapter.AuthToken,
		},
		Workers: Workers{
			SyncInterval:     time.Duration(w.SyncInterval),
			DebounceWindow:   time.Duration(w.DebounceWindow),
			ProbeInterval:    time.Duration(w.ProbeInterval),
			LatencyThreshold: time.Duration(w.LatencyThreshold),
			BackoffBase:      time.Duration(w.BackoffBase),
			BackoffMax:       time.Duration(w.BackoffMax),
			BackoffJitter:    w.BackoffJitter,
			MaxRetries:       w.MaxRetries,
			MaxAttempts:      w.MaxAttempts,
			DrainBatch:       w.DrainBatch,
			DrainWorkers:     w.DrainWorkers,
			CacheLimit:       w.CacheLimit,
			Collections:      w.Collections,
		},
		Metrics: Metrics{Address: jsonCfg.Metrics.Address},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling
// from strings like "1h", "30s" as well as integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
