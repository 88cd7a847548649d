package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// pullDeltas serves one page of a collection's changes newer than since.
// Query: collection (required), since (default 0), limit (optional).
func (h *Handler) pullDeltas(w http.ResponseWriter, r *http.Request) {
	req, err := parsePullRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.services.RemoteService.Deltas(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, page, http.StatusOK)
}

func parsePullRequest(r *http.Request) (models.PullRequest, error) {
	q := r.URL.Query()
	req := models.PullRequest{Collection: q.Get("collection")}

	if raw := q.Get("since"); raw != "" {
		since, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.PullRequest{}, fmt.Errorf("%w: since: %w", ErrInvalidQuery, err)
		}
		req.Since = since
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return models.PullRequest{}, fmt.Errorf("%w: limit: %w", ErrInvalidQuery, err)
		}
		req.Limit = limit
	}

	return req, nil
}
