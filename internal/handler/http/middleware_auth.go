package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

// auth checks the static bearer token shared by every client of the remote.
// With no token configured the remote is open.
func (h *Handler) auth(next http.Handler) http.Handler {
	if h.authToken == "" {
		return next
	}
	want := []byte(h.authToken)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r.Header.Get("Authorization"))
		if err == nil && subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			err = ErrWrongToken
		}
		if err != nil {
			logger.FromRequest(r).Warn().Err(err).Str("path", r.URL.Path).Msg("unauthorized sync request")
			utils.WriteError(w, err, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an "Authorization: <scheme> <token>"
// header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrEmptyAuthorizationHeader
	}
	_, token, ok := strings.Cut(header, " ")
	if !ok {
		return "", ErrInvalidAuthorizationHeader
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
