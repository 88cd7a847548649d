package validators

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is matched by every field-level validation error.
	ErrInvalidRequest = errors.New("invalid request")

	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidToken        = fmt.Errorf("%w: token is required", ErrInvalidRequest)
	ErrInvalidCollection   = fmt.Errorf("%w: collection is required", ErrInvalidRequest)
	ErrInvalidEntityID     = fmt.Errorf("%w: entity id is required", ErrInvalidRequest)
	ErrInvalidOp           = fmt.Errorf("%w: unknown operation", ErrInvalidRequest)
	ErrInvalidPayload      = fmt.Errorf("%w: payload must be valid JSON", ErrInvalidRequest)
	ErrMissingPayload      = fmt.Errorf("%w: payload is required", ErrInvalidRequest)
	ErrInvalidBaseRevision = fmt.Errorf("%w: base revision cannot be negative", ErrInvalidRequest)
	ErrInvalidSince        = fmt.Errorf("%w: since cannot be negative", ErrInvalidRequest)
	ErrInvalidLimit        = fmt.Errorf("%w: limit cannot be negative", ErrInvalidRequest)
)
