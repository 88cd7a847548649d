// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

func (cfg *StructuredConfig) validate() error {
	if cfg.Workers.BackoffJitter < 0 || cfg.Workers.BackoffJitter >= 1 {
		return fmt.Errorf("%w: backoff jitter must be in [0, 1)", ErrInvalidWorkerConfigs)
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if strings.TrimSpace(cfg.Storage.DB.DSN) == "" || strings.Contains(cfg.Storage.DB.DSN, ":memory:") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	w := cfg.Workers
	if w.SyncInterval <= 0 || w.BackoffBase <= 0 || w.BackoffMax < w.BackoffBase {
		return ErrInvalidWorkerConfigs
	}
	if w.MaxRetries < 1 || w.MaxAttempts < 1 || w.DrainBatch < 1 || w.DrainWorkers < 1 || w.CacheLimit < 0 {
		return ErrInvalidWorkerConfigs
	}

	if len(w.Collections) == 0 {
		return ErrNoCollections
	}

	return nil
}

func (cfg *ServerConfig) validate() error {
	if cfg.HTTPAddress == "" || cfg.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}
	return nil
}
