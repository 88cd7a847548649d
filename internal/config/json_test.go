package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParseJSON_Success(t *testing.T) {
	p := writeJSONFile(t, `{
		"app": {"log_file": "engine.log", "log_level": "warn"},
		"storage": {"db": {"dsn": "cache.db"}},
		"server": {"http_address": "localhost:8080", "request_timeout": "30s"},
		"adapter": {"http_address": "http://remote", "request_timeout": 5000000000},
		"workers": {
			"sync_interval": "45s",
			"backoff_base": "1s",
			"backoff_max": "2m",
			"backoff_jitter": 0.3,
			"max_attempts": 4,
			"collections": ["courses"]
		},
		"metrics": {"address": ":9100"}
	}`)

	cfg, err := parseJSON(p)
	require.NoError(t, err)

	assert.Equal(t, "engine.log", cfg.App.LogFile)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, "cache.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "http://remote", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 5*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 45*time.Second, cfg.Workers.SyncInterval)
	assert.Equal(t, time.Second, cfg.Workers.BackoffBase)
	assert.Equal(t, 2*time.Minute, cfg.Workers.BackoffMax)
	assert.InDelta(t, 0.3, cfg.Workers.BackoffJitter, 1e-9)
	assert.Equal(t, 4, cfg.Workers.MaxAttempts)
	assert.Equal(t, []string{"courses"}, cfg.Workers.Collections)
	assert.Equal(t, ":9100", cfg.Metrics.Address)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_MissingFile(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading a json file")
}

func TestParseJSON_InvalidBody(t *testing.T) {
	p := writeJSONFile(t, `{"workers": {"sync_interval": "later"}}`)

	_, err := parseJSON(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding json configs")
}

func TestDuration_RoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"1m30s"`, string(data))

	var got Duration
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, d, got)

	assert.Error(t, json.Unmarshal([]byte(`true`), &got))
}
