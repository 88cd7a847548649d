package http

import (
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/utils"
)

const traceIDHeader = "X-Trace-ID"

var traceIDs = utils.NewUUIDGenerator()

// withTraceID tags the request logger with the caller's trace id, or a new
// one, and echoes it back. The engine sends one id per sync pass, so client
// and server lines of a pass share it.
func (h *Handler) withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if traceID == "" {
			traceID = traceIDs.Generate()
		}
		w.Header().Set(traceIDHeader, traceID)

		reqLog := h.logger.With().Str("trace_id", traceID).Logger()
		ctx := utils.WithTraceID(reqLog.WithContext(r.Context()), traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
