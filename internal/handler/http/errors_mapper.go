package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
)

// errorStatusMap maps remote errors to statuses the engine's adapter
// understands: 409 is a revision conflict the user may resolve, 400 and 422
// are definitive rejections.
var errorStatusMap = map[error]int{
	service.ErrRevisionConflict:      http.StatusConflict,
	service.ErrEntityNotFound:        http.StatusUnprocessableEntity,
	service.ErrEntityExists:          http.StatusUnprocessableEntity,
	service.ErrTokenReused:           http.StatusUnprocessableEntity,
	service.ErrTokenMismatch:         http.StatusBadRequest,
	service.ErrVersionIsNotSpecified: http.StatusBadRequest,

	validators.ErrInvalidRequest:  http.StatusBadRequest,
	validators.ErrUnsupportedType: http.StatusBadRequest,
	validators.ErrUnknownField:    http.StatusBadRequest,
	ErrInvalidJSON:                http.StatusBadRequest,
	ErrInvalidQuery:               http.StatusBadRequest,
	ErrMissingIdemKey:             http.StatusBadRequest,
	ErrEmptyAuthorizationHeader:   http.StatusUnauthorized,
	ErrInvalidAuthorizationHeader: http.StatusUnauthorized,
	ErrEmptyToken:                 http.StatusUnauthorized,
	ErrWrongToken:                 http.StatusUnauthorized,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
