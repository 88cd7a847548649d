package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantStatus int
		wantNext   bool
	}{
		{name: "no token configured", configured: "", header: "", wantStatus: http.StatusOK, wantNext: true},
		{name: "valid token", configured: "secret", header: "Bearer secret", wantStatus: http.StatusOK, wantNext: true},
		{name: "missing header", configured: "secret", header: "", wantStatus: http.StatusUnauthorized},
		{name: "scheme only", configured: "secret", header: "Bearer", wantStatus: http.StatusUnauthorized},
		{name: "empty token", configured: "secret", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "wrong token", configured: "secret", header: "Bearer guess", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{authToken: tt.configured, logger: logger.Nop()}

			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/deltas", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.auth(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantNext, nextCalled)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "Bearer  padded ", want: "padded"},
		{header: "", wantErr: ErrEmptyAuthorizationHeader},
		{header: "abc", wantErr: ErrInvalidAuthorizationHeader},
		{header: "Bearer ", wantErr: ErrEmptyToken},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := bearerToken(tt.header)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.want, token)
		})
	}
}
