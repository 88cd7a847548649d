package service

import (
	"context"
	"iter"

	"github.com/MKhiriev/go-offline-sync/models"
)

// RemoteService is the authoritative store behind the reference remote.
type RemoteService interface {
	// ApplyMutation applies req at most once per token. A replayed token
	// returns the original acknowledgment with Duplicate set.
	ApplyMutation(ctx context.Context, req models.MutationRequest) (models.MutationAck, error)

	// Deltas returns one page of changes of a collection newer than req.Since.
	Deltas(ctx context.Context, req models.PullRequest) (models.PullResponse, error)

	// Subscribe streams every change of the given collections committed
	// after the subscription started. An empty list means all collections.
	Subscribe(ctx context.Context, collections []string) iter.Seq[models.RemoteDelta]

	// AppliedCount returns how many times the mutation carrying token was
	// applied, which is never more than one.
	AppliedCount(token string) int
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}

// RemoteServiceWrapper defines middleware composition for RemoteService.
// Implementations wrap an existing RemoteService to add behavior such as
// logging or validating.
type RemoteServiceWrapper interface {
	Wrap(RemoteService) RemoteService
}
