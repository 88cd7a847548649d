package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
)

func TestNewHandler(t *testing.T) {
	svc := &service.Services{}
	log := logger.Nop()

	h := NewHandler(svc, "secret", nil, log)

	require.NotNil(t, h)
	assert.Same(t, svc, h.services)
	assert.Equal(t, "secret", h.authToken)
	assert.Nil(t, h.metrics)
	assert.Equal(t, log, h.logger)
}

func TestInit_RegistersAllRoutes(t *testing.T) {
	h, _, _ := newTestHandler(t, "")
	router := h.Init()

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, MutationsPath},
		{http.MethodGet, DeltasPath + "?collection=courses"},
		{http.MethodGet, HealthPath},
		{http.MethodGet, VersionPath},
		// a plain GET is refused by the upgrade, which still proves the route exists
		{http.MethodGet, LivePath},
	}

	for _, tc := range routes {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

			assert.NotEqual(t, http.StatusNotFound, rec.Code)
			assert.NotEqual(t, http.StatusMethodNotAllowed, rec.Code)
		})
	}
}

func TestInit_UnknownRouteReturns404(t *testing.T) {
	h, _, _ := newTestHandler(t, "")

	rec := httptest.NewRecorder()
	h.Init().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInit_WrongMethodReturns404(t *testing.T) {
	h, _, _ := newTestHandler(t, "")

	rec := httptest.NewRecorder()
	h.Init().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, MutationsPath, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInit_HealthNeedsNoToken(t *testing.T) {
	h, _, _ := newTestHandler(t, "secret")

	rec := httptest.NewRecorder()
	h.Init().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"revision conflict", service.ErrRevisionConflict, http.StatusConflict},
		{"entity exists", service.ErrEntityExists, http.StatusUnprocessableEntity},
		{"entity missing", service.ErrEntityNotFound, http.StatusUnprocessableEntity},
		{"token reused", service.ErrTokenReused, http.StatusUnprocessableEntity},
		{"token mismatch", service.ErrTokenMismatch, http.StatusBadRequest},
		{"bad query", ErrInvalidQuery, http.StatusBadRequest},
		{"wrong token", ErrWrongToken, http.StatusUnauthorized},
		{"anything else", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}
