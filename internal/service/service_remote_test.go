package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

func mutationRequest(token string, op models.MutationOp, id string, base int64, payload string) models.MutationRequest {
	req := models.MutationRequest{Token: token, Collection: "courses", EntityID: id, Op: op, BaseRevision: base}
	if payload != "" {
		req.Payload = json.RawMessage(payload)
	}
	return req
}

func TestRemoteService_CreateUpdateDelete(t *testing.T) {
	s := NewRemoteService(logger.Nop())
	ctx := context.Background()

	ack, err := s.ApplyMutation(ctx, mutationRequest("t1", models.OpCreate, "7", 0, `{"title":"Go"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), ack.Revision)
	assert.False(t, ack.Duplicate)

	ack, err = s.ApplyMutation(ctx, mutationRequest("t2", models.OpUpdate, "7", 1, `{"title":"Go 2"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(2), ack.Revision)

	ack, err = s.ApplyMutation(ctx, mutationRequest("t3", models.OpDelete, "7", 2, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(3), ack.Revision)
	assert.True(t, ack.Deleted)

	// a tombstone can be recreated on top of its revision
	_, err = s.ApplyMutation(ctx, mutationRequest("t4", models.OpCreate, "7", 3, `{"title":"back"}`))
	require.NoError(t, err)
}

func TestRemoteService_RevisionConflict(t *testing.T) {
	s := NewRemoteService(logger.Nop())
	ctx := context.Background()

	_, err := s.ApplyMutation(ctx, mutationRequest("t1", models.OpCreate, "7", 0, `{}`))
	require.NoError(t, err)
	_, err = s.ApplyMutation(ctx, mutationRequest("t2", models.OpUpdate, "7", 1, `{"v":1}`))
	require.NoError(t, err)

	_, err = s.ApplyMutation(ctx, mutationRequest("t3", models.OpUpdate, "7", 1, `{"v":"stale"}`))
	assert.ErrorIs(t, err, ErrRevisionConflict)

	_, err = s.ApplyMutation(ctx, mutationRequest("t4", models.OpCreate, "7", 0, `{}`))
	assert.ErrorIs(t, err, ErrRevisionConflict)

	// a conflicting token was never applied and may be sent again
	assert.Zero(t, s.AppliedCount("t3"))
	_, err = s.ApplyMutation(ctx, mutationRequest("t3", models.OpUpdate, "7", 2, `{"v":"stale"}`))
	assert.NoError(t, err)
}

func TestRemoteService_MissingAndExistingEntities(t *testing.T) {
	s := NewRemoteService(logger.Nop())
	ctx := context.Background()

	_, err := s.ApplyMutation(ctx, mutationRequest("t1", models.OpUpdate, "404", 0, `{}`))
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = s.ApplyMutation(ctx, mutationRequest("t2", models.OpDelete, "404", 0, ""))
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = s.ApplyMutation(ctx, mutationRequest("t3", models.OpCreate, "7", 0, `{}`))
	require.NoError(t, err)
	_, err = s.ApplyMutation(ctx, mutationRequest("t4", models.OpCreate, "7", 1, `{}`))
	assert.ErrorIs(t, err, ErrEntityExists)
}

func TestRemoteService_AtMostOncePerToken(t *testing.T) {
	s := NewRemoteService(logger.Nop())
	ctx := context.Background()
	req := mutationRequest("once", models.OpCreate, "7", 0, `{"title":"Go"}`)

	var wg sync.WaitGroup
	acks := make([]models.MutationAck, 8)
	for i := range acks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ack, err := s.ApplyMutation(ctx, req)
			assert.NoError(t, err)
			acks[i] = ack
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, s.AppliedCount("once"))
	duplicates := 0
	for _, ack := range acks {
		assert.Equal(t, int64(1), ack.Revision)
		if ack.Duplicate {
			duplicates++
		}
	}
	assert.Equal(t, len(acks)-1, duplicates)

	page, err := s.Deltas(ctx, models.PullRequest{Collection: "courses"})
	require.NoError(t, err)
	assert.Len(t, page.Deltas, 1)
}

func TestRemoteService_TokenReuse(t *testing.T) {
	s := NewRemoteService(logger.Nop())
	ctx := context.Background()

	_, err := s.ApplyMutation(ctx, mutationRequest("t1", models.OpCreate, "7", 0, `{}`))
	require.NoError(t, err)

	_, err = s.ApplyMutation(ctx, mutationRequest("t1", models.OpCreate, "8", 0, `{}`))
	assert.ErrorIs(t, err, ErrTokenReused)
}

func TestRemoteService_DeltasPaging(t *testing.T) {
	s := NewRemoteService(logger.Nop())
	ctx := context.Background()

	for i := range 5 {
		_, err := s.ApplyMutation(ctx, mutationRequest(fmt.Sprintf("t%d", i), models.OpCreate, fmt.Sprint(i), 0, `{}`))
		require.NoError(t, err)
	}
	_, err := s.ApplyMutation(ctx, models.MutationRequest{Token: "other", Collection: "lessons", EntityID: "1", Op: models.OpCreate, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)

	page, err := s.Deltas(ctx, models.PullRequest{Collection: "courses", Since: 0, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Deltas, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(2), page.Watermark)

	page, err = s.Deltas(ctx, models.PullRequest{Collection: "courses", Since: page.Watermark, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Deltas, 3)
	assert.Equal(t, int64(3), page.Deltas[0].Revision)
	assert.False(t, page.HasMore)
	assert.Equal(t, int64(5), page.Watermark)

	page, err = s.Deltas(ctx, models.PullRequest{Collection: "courses", Since: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Deltas)
	assert.Equal(t, int64(5), page.Watermark)

	page, err = s.Deltas(ctx, models.PullRequest{Collection: "unknown", Since: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Deltas)
	assert.Equal(t, int64(9), page.Watermark)
}

func TestRemoteService_SubscribeFiltersCollections(t *testing.T) {
	s := NewRemoteService(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan models.RemoteDelta, 4)
	started := make(chan struct{})
	go func() {
		close(started)
		for d := range s.Subscribe(ctx, []string{"courses"}) {
			got <- d
		}
	}()
	<-started
	hub := s.(*remoteService).feed
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)

	_, err := s.ApplyMutation(ctx, models.MutationRequest{Token: "l", Collection: "lessons", EntityID: "1", Op: models.OpCreate, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	_, err = s.ApplyMutation(ctx, mutationRequest("c", models.OpCreate, "7", 0, `{"title":"Go"}`))
	require.NoError(t, err)

	select {
	case d := <-got:
		assert.Equal(t, "courses", d.Collection)
		assert.Equal(t, int64(1), d.Revision)
	case <-time.After(time.Second):
		t.Fatal("no delta streamed")
	}
	assert.Empty(t, got)
}

func TestRemoteValidationService(t *testing.T) {
	s := NewRemoteValidationService().Wrap(NewRemoteService(logger.Nop()))
	ctx := context.Background()

	_, err := s.ApplyMutation(ctx, mutationRequest("", models.OpCreate, "7", 0, `{}`))
	assert.ErrorIs(t, err, validators.ErrInvalidToken)

	_, err = s.Deltas(ctx, models.PullRequest{Collection: "courses", Since: -1})
	assert.ErrorIs(t, err, validators.ErrInvalidSince)

	ack, err := s.ApplyMutation(ctx, mutationRequest("t1", models.OpCreate, "7", 0, `{}`))
	require.NoError(t, err)
	assert.Equal(t, 1, s.AppliedCount(ack.Token))
}
