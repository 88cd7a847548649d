package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type capacityEviction struct {
	records store.RecordRepository
	limit   int
}

// NewCapacityEviction returns a policy that keeps at most limit records per
// collection, dropping the least recently updated ones first. A limit of zero
// or less keeps everything.
func NewCapacityEviction(records store.RecordRepository, limit int) EvictionPolicy {
	return &capacityEviction{records: records, limit: limit}
}

func (e *capacityEviction) Candidates(ctx context.Context, collection string) ([]models.EntityKey, error) {
	if e.limit <= 0 {
		return nil, nil
	}

	n, err := e.records.Count(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", collection, err)
	}
	if n <= e.limit {
		return nil, nil
	}

	return e.records.EvictionCandidates(ctx, collection, n-e.limit)
}
