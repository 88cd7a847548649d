package service

import (
	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/metrics"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

// ClientDeps groups what the engine services are built on.
type ClientDeps struct {
	Storages *store.Storages
	Remote   adapter.RemoteAdapter

	// Dialer opens the live channel. Nil disables it.
	Dialer adapter.LiveDialer

	Metrics *metrics.Metrics
}

// ClientServices bundles the components of the sync engine.
type ClientServices struct {
	Notifier    *Notifier
	Queue       PendingQueue
	Monitor     ConnectivityMonitor
	Coordinator SyncCoordinator
	LiveChannel LiveChannel
	SyncJob     ClientSyncJob
}

func NewClientServices(deps ClientDeps, cfg config.ClientWorkers, log *logger.Logger) *ClientServices {
	notifier := NewNotifier()
	queue := NewPendingQueue(deps.Storages.Mutations, utils.NewUUIDGenerator(), notifier, deps.Metrics, log.Component("queue"))
	monitor := NewConnectivityMonitor(cfg, deps.Remote, deps.Metrics, log.Component("connectivity"))

	coordinator := NewSyncCoordinator(CoordinatorDeps{
		Queue:    queue,
		Records:  deps.Storages.Records,
		Remote:   deps.Remote,
		Monitor:  monitor,
		Notifier: notifier,
		Eviction: NewCapacityEviction(deps.Storages.Records, cfg.CacheLimit),
		Metrics:  deps.Metrics,
	}, cfg, log.Component("coordinator"))

	services := &ClientServices{
		Notifier:    notifier,
		Queue:       queue,
		Monitor:     monitor,
		Coordinator: coordinator,
		SyncJob:     NewClientSyncJob(coordinator, cfg.SyncInterval, log.Component("sync_job")),
	}

	if deps.Dialer != nil {
		services.LiveChannel = NewLiveChannel(LiveDeps{
			Dialer:      deps.Dialer,
			Records:     deps.Storages.Records,
			Coordinator: coordinator,
			Monitor:     monitor,
			Metrics:     deps.Metrics,
		}, cfg, log.Component("live"))
	}

	return services
}
