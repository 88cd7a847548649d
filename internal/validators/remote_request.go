package validators

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
)

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate to restrict validation to a subset
// of fields (field-level scoping).
const (
	// FieldToken targets the idempotency token of a mutation.
	FieldToken = "token"

	// FieldCollection targets the collection of a mutation or pull request.
	FieldCollection = "collection"

	// FieldEntityID targets the entity identifier of a mutation.
	FieldEntityID = "entity_id"

	// FieldOp targets the operation of a mutation.
	FieldOp = "op"

	// FieldPayload targets the opaque JSON payload. Create and update
	// require one; delete accepts none.
	FieldPayload = "payload"

	// FieldBaseRevision targets the revision a mutation was made against.
	FieldBaseRevision = "base_revision"

	// FieldSince targets the watermark of a pull request.
	FieldSince = "since"

	// FieldLimit targets the page size of a pull request.
	FieldLimit = "limit"
)

// RemoteRequestValidator implements the Validator interface for the wire
// requests accepted by the reference remote: MutationRequest and
// PullRequest.
//
// It supports both value and pointer forms and allows optional field-level
// scoping via variadic field name arguments.
type RemoteRequestValidator struct {
}

// NewRemoteRequestValidator constructs a new RemoteRequestValidator and
// returns it as the Validator interface.
func NewRemoteRequestValidator() Validator {
	return &RemoteRequestValidator{}
}

// Validate dispatches validation to the appropriate type-specific method
// based on the dynamic type of obj.
//
// Returns ErrUnsupportedType if obj does not match any known model.
func (v *RemoteRequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.MutationRequest:
		return v.validateMutationRequest(ctx, value, fields...)
	case *models.MutationRequest:
		return v.validateMutationRequest(ctx, *value, fields...)

	case models.PullRequest:
		return v.validatePullRequest(ctx, value, fields...)
	case *models.PullRequest:
		return v.validatePullRequest(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validateMutationRequest validates a mutation pushed by a client.
//
// Default validated fields: Token, Collection, EntityID, Op, Payload,
// BaseRevision.
func (v *RemoteRequestValidator) validateMutationRequest(_ context.Context, req models.MutationRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldToken, FieldCollection, FieldEntityID, FieldOp, FieldPayload, FieldBaseRevision}
	}

	for _, f := range fields {
		switch f {
		case FieldToken:
			if strings.TrimSpace(req.Token) == "" {
				return ErrInvalidToken
			}
		case FieldCollection:
			if strings.TrimSpace(req.Collection) == "" {
				return ErrInvalidCollection
			}
		case FieldEntityID:
			if strings.TrimSpace(req.EntityID) == "" {
				return ErrInvalidEntityID
			}
		case FieldOp:
			if !req.Op.Valid() {
				return ErrInvalidOp
			}
		case FieldPayload:
			if len(req.Payload) == 0 {
				if req.Op == models.OpDelete {
					continue
				}
				return ErrMissingPayload
			}
			if !json.Valid(req.Payload) {
				return ErrInvalidPayload
			}
		case FieldBaseRevision:
			if req.BaseRevision < 0 {
				return ErrInvalidBaseRevision
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validatePullRequest validates a delta pull.
//
// Default validated fields: Collection, Since, Limit.
func (v *RemoteRequestValidator) validatePullRequest(_ context.Context, req models.PullRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldCollection, FieldSince, FieldLimit}
	}

	for _, f := range fields {
		switch f {
		case FieldCollection:
			if strings.TrimSpace(req.Collection) == "" {
				return ErrInvalidCollection
			}
		case FieldSince:
			if req.Since < 0 {
				return ErrInvalidSince
			}
		case FieldLimit:
			if req.Limit < 0 {
				return ErrInvalidLimit
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
