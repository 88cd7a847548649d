// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv fills cfg from the environment. Keys come from the `env` and
// `envPrefix` tags of [StructuredConfig], so the sync interval is read from
// WORKERS_SYNC_INTERVAL and the collection list from the comma separated
// WORKERS_COLLECTIONS.
func parseEnv(cfg *StructuredConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("error getting env configs: %w", err)
	}
	return nil
}
