package models

import "encoding/json"

// MutationRequest is the wire form of a mutation sent to the remote.
type MutationRequest struct {
	// Token is the idempotency token; the remote applies a token at most once.
	Token      string          `json:"token"`
	Collection string          `json:"collection"`
	EntityID   string          `json:"entity_id"`
	Op         MutationOp      `json:"op"`
	Payload    json.RawMessage `json:"payload,omitempty"`

	// BaseRevision is the revision the change was made against. The remote
	// rejects the request with a conflict when its revision has moved on.
	BaseRevision int64 `json:"base_revision"`
}

// MutationAck is the remote's acknowledgment of an applied mutation.
type MutationAck struct {
	Token      string `json:"token"`
	Collection string `json:"collection"`
	EntityID   string `json:"entity_id"`

	// Revision is the revision the remote assigned to the entity.
	Revision int64 `json:"revision"`
	Deleted  bool  `json:"deleted"`

	// Duplicate is set when the token had already been applied and the remote
	// replayed the original acknowledgment.
	Duplicate bool `json:"duplicate,omitempty"`
}

// RemoteDelta is a single remote change, pulled or pushed over the live channel.
type RemoteDelta struct {
	Collection string          `json:"collection"`
	EntityID   string          `json:"entity_id"`
	Revision   int64           `json:"revision"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Deleted    bool            `json:"deleted"`
}

// Key returns the entity key of the delta.
func (d RemoteDelta) Key() EntityKey {
	return EntityKey{Collection: d.Collection, EntityID: d.EntityID}
}

// PullRequest asks for deltas of one collection newer than Since.
type PullRequest struct {
	Collection string `json:"collection"`
	Since      int64  `json:"since"`
	Limit      int    `json:"limit"`
}

// PullResponse carries one page of deltas.
type PullResponse struct {
	Collection string        `json:"collection"`
	Deltas     []RemoteDelta `json:"deltas"`

	// Watermark is the highest revision covered by this page.
	Watermark int64 `json:"watermark"`
	HasMore   bool  `json:"has_more"`
}
