package client

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

// Open builds an engine from cfg: it opens and migrates the local store and
// creates the HTTP adapter and, when a live address is known, the WebSocket
// dialer. The store is closed by Shutdown.
func Open(ctx context.Context, cfg *config.ClientConfig, log *logger.Logger) (*Engine, error) {
	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	tokens := adapter.StaticToken(cfg.Adapter.AuthToken)

	remote, err := adapter.NewHTTPRemoteAdapter(cfg.Adapter, tokens, log.Component("adapter"))
	if err != nil {
		_ = storages.Close()
		return nil, fmt.Errorf("create remote adapter: %w", err)
	}

	var dialer adapter.LiveDialer
	if cfg.Adapter.LiveAddress != "" {
		dialer, err = adapter.NewWebSocketDialer(cfg.Adapter, cfg.Workers.Collections, tokens, log.Component("live_dialer"))
		if err != nil {
			_ = storages.Close()
			return nil, fmt.Errorf("create live dialer: %w", err)
		}
	}

	engine := NewEngine(Deps{
		Storages: storages,
		Remote:   remote,
		Dialer:   dialer,
	}, cfg.Workers, log)
	engine.closers = append(engine.closers, storages)

	return engine, nil
}
