package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/models"
)

func TestPullDeltas_Pages(t *testing.T) {
	h, _, _ := newTestHandler(t, "")
	router := h.Init()

	for i := range 3 {
		id := fmt.Sprintf("course-%d", i)
		require.Equal(t, http.StatusOK, pushMutation(t, router, createCourse("tok-"+id, id, `{}`)).Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DeltasPath+"?collection=courses&since=0&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.PullResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, "courses", page.Collection)
	require.Len(t, page.Deltas, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(2), page.Watermark)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("%s?collection=courses&since=%d", DeltasPath, page.Watermark), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Deltas, 1)
	assert.Equal(t, "course-2", page.Deltas[0].EntityID)
	assert.False(t, page.HasMore)
	assert.Equal(t, int64(3), page.Watermark)
}

func TestPullDeltas_BadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing collection", ""},
		{"since is not a number", "?collection=courses&since=abc"},
		{"limit is not a number", "?collection=courses&limit=ten"},
		{"negative since", "?collection=courses&since=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandler(t, "")

			rec := httptest.NewRecorder()
			h.Init().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DeltasPath+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
