package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

const idempotencyKeyHeader = "Idempotency-Key"

// maxMutationBody bounds a mutation request body.
const maxMutationBody = 1 << 20

// pushMutation applies one mutation. The Idempotency-Key header must carry
// the body token; a replayed token answers with the original acknowledgment.
func (h *Handler) pushMutation(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	key := r.Header.Get(idempotencyKeyHeader)
	if key == "" {
		h.writeError(w, r, ErrMissingIdemKey)
		return
	}

	var req models.MutationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMutationBody)).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.pushMutation").Msg("invalid JSON was passed")
		h.writeError(w, r, fmt.Errorf("%w: %w", ErrInvalidJSON, err))
		return
	}
	if req.Token != key {
		h.writeError(w, r, service.ErrTokenMismatch)
		return
	}

	ack, err := h.services.RemoteService.ApplyMutation(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Debug().
		Str("func", "*Handler.pushMutation").
		Str("token", ack.Token).
		Int64("revision", ack.Revision).
		Bool("duplicate", ack.Duplicate).
		Msg("mutation applied")

	utils.WriteJSON(w, ack, http.StatusOK)
}

// writeError logs err and answers with the mapped status and a JSON body.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)

	event := logger.FromRequest(r).Warn()
	if status >= http.StatusInternalServerError {
		event = logger.FromRequest(r).Error()
	}
	event.Err(err).Int("status", status).Str("uri", r.URL.Path).Msg("request failed")

	utils.WriteError(w, err, status)
}
