package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes of the reference remote.
const (
	MutationsPath = "/api/mutations"
	DeltasPath    = "/api/deltas"
	LivePath      = "/api/live"
	HealthPath    = "/api/health"
	VersionPath   = "/api/version"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get(HealthPath, h.health)
		r.Get(VersionPath, h.getServerVersion)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		// the live channel hijacks the connection, so it stays uncompressed
		r.Get(LivePath, h.live)

		r.Group(func(r chi.Router) {
			r.Use(withGZip)
			r.Post(MutationsPath, h.pushMutation)
			r.Get(DeltasPath, h.pullDeltas)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
