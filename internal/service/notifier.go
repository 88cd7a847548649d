package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// Notifier carries the two observer streams of the engine.
type Notifier struct {
	Changes *Hub[models.ChangeEvent]
	Events  *Hub[models.EngineEvent]
}

// NewNotifier creates a notifier with empty hubs.
func NewNotifier() *Notifier {
	return &Notifier{
		Changes: NewHub[models.ChangeEvent](),
		Events:  NewHub[models.EngineEvent](),
	}
}

// Close ends every subscription of both streams.
func (n *Notifier) Close() {
	n.Changes.Close()
	n.Events.Close()
}

// publishRecord reads key back and publishes its visible state. A failed
// read is published as a storage event instead.
func (n *Notifier) publishRecord(ctx context.Context, records store.RecordRepository, key models.EntityKey) {
	rec, err := records.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		n.Changes.Publish(models.NewRemovedEvent(key))
	case err != nil:
		n.Events.Publish(models.NewEntityEvent(models.EventStorage, key, err))
	default:
		n.Changes.Publish(models.NewChangeEvent(rec))
	}
}
