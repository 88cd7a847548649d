package service

import (
	"bytes"
	"context"
	"fmt"
	"iter"
	"slices"
	"sort"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

type remoteEntity struct {
	revision int64
	payload  []byte
	deleted  bool
}

type ledgerEntry struct {
	req     models.MutationRequest
	ack     models.MutationAck
	applied int
}

type remoteCollection struct {
	revision int64
	entities map[string]*remoteEntity

	// log holds every committed change in revision order.
	log []models.RemoteDelta
}

type remoteService struct {
	mu          sync.Mutex
	collections map[string]*remoteCollection
	ledger      map[string]*ledgerEntry
	feed        *Hub[models.RemoteDelta]

	logger *logger.Logger
}

// NewRemoteService creates an empty in-memory remote. Revisions are counted
// per collection, so a collection watermark is a plain revision number.
func NewRemoteService(log *logger.Logger) RemoteService {
	return &remoteService{
		collections: make(map[string]*remoteCollection),
		ledger:      make(map[string]*ledgerEntry),
		feed:        NewHub[models.RemoteDelta](),
		logger:      log,
	}
}

func (s *remoteService) collection(name string) *remoteCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &remoteCollection{entities: make(map[string]*remoteEntity)}
		s.collections[name] = c
	}
	return c
}

func (s *remoteService) ApplyMutation(ctx context.Context, req models.MutationRequest) (models.MutationAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.ledger[req.Token]; ok {
		if !sameMutation(entry.req, req) {
			return models.MutationAck{}, fmt.Errorf("%w: %s", ErrTokenReused, req.Token)
		}
		ack := entry.ack
		ack.Duplicate = true
		return ack, nil
	}

	c := s.collection(req.Collection)
	current := c.entities[req.EntityID]
	var currentRevision int64
	if current != nil {
		currentRevision = current.revision
	}

	if req.BaseRevision != currentRevision {
		return models.MutationAck{}, fmt.Errorf("%w: %s/%s is at %d, mutation based on %d",
			ErrRevisionConflict, req.Collection, req.EntityID, currentRevision, req.BaseRevision)
	}

	live := current != nil && !current.deleted
	switch req.Op {
	case models.OpCreate:
		if live {
			return models.MutationAck{}, fmt.Errorf("%w: %s/%s", ErrEntityExists, req.Collection, req.EntityID)
		}
	case models.OpUpdate, models.OpDelete:
		if !live {
			return models.MutationAck{}, fmt.Errorf("%w: %s/%s", ErrEntityNotFound, req.Collection, req.EntityID)
		}
	}

	c.revision++
	entity := &remoteEntity{revision: c.revision, deleted: req.Op == models.OpDelete}
	if !entity.deleted {
		entity.payload = slices.Clone(req.Payload)
	}
	c.entities[req.EntityID] = entity

	delta := models.RemoteDelta{
		Collection: req.Collection,
		EntityID:   req.EntityID,
		Revision:   entity.revision,
		Payload:    entity.payload,
		Deleted:    entity.deleted,
	}
	c.log = append(c.log, delta)

	ack := models.MutationAck{
		Token:      req.Token,
		Collection: req.Collection,
		EntityID:   req.EntityID,
		Revision:   entity.revision,
		Deleted:    entity.deleted,
	}
	s.ledger[req.Token] = &ledgerEntry{req: req, ack: ack, applied: 1}

	logger.FromContext(ctx).Debug().
		Str("func", "remoteService.ApplyMutation").
		Str("collection", req.Collection).
		Str("entity_id", req.EntityID).
		Str("op", string(req.Op)).
		Int64("revision", entity.revision).
		Msg("mutation applied")

	s.feed.Publish(delta)
	return ack, nil
}

// sameMutation reports whether two requests carry the same change. The
// base revision is left out: a rebased retry keeps its token.
func sameMutation(a, b models.MutationRequest) bool {
	return a.Collection == b.Collection &&
		a.EntityID == b.EntityID &&
		a.Op == b.Op &&
		bytes.Equal(a.Payload, b.Payload)
}

func (s *remoteService) Deltas(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := models.PullResponse{Collection: req.Collection, Watermark: req.Since, Deltas: []models.RemoteDelta{}}
	c, ok := s.collections[req.Collection]
	if !ok {
		return resp, nil
	}

	start := sort.Search(len(c.log), func(i int) bool { return c.log[i].Revision > req.Since })
	end := min(start+limit, len(c.log))

	resp.Deltas = slices.Clone(c.log[start:end])
	resp.HasMore = end < len(c.log)
	if resp.HasMore {
		resp.Watermark = c.log[end-1].Revision
	} else {
		resp.Watermark = max(req.Since, c.revision)
	}
	return resp, nil
}

func (s *remoteService) Subscribe(ctx context.Context, collections []string) iter.Seq[models.RemoteDelta] {
	feed := s.feed.Subscribe(ctx)
	return func(yield func(models.RemoteDelta) bool) {
		for delta := range feed {
			if len(collections) > 0 && !slices.Contains(collections, delta.Collection) {
				continue
			}
			if !yield(delta) {
				return
			}
		}
	}
}

func (s *remoteService) AppliedCount(token string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.ledger[token]; ok {
		return entry.applied
	}
	return 0
}
