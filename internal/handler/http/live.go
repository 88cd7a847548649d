package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

// liveWriteTimeout bounds a single push frame write.
const liveWriteTimeout = 10 * time.Second

// live upgrades to a WebSocket and pushes every delta committed afterwards,
// filtered by the comma separated collections query parameter. Deltas
// committed before the upgrade are only reachable through pullDeltas.
func (h *Handler) live(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	collections := splitCollections(r.URL.Query().Get("collections"))

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Err(err).Str("func", "*Handler.live").Msg("websocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	// the client never sends frames; CloseRead cancels ctx when it goes away
	ctx := conn.CloseRead(r.Context())

	log.Info().Str("func", "*Handler.live").Strs("collections", collections).Msg("live subscriber connected")

	for delta := range h.services.RemoteService.Subscribe(ctx, collections) {
		if err = writeDelta(ctx, conn, delta); err != nil {
			log.Debug().Err(err).Str("func", "*Handler.live").Msg("live subscriber write failed")
			return
		}
	}

	if ctx.Err() != nil {
		log.Info().Str("func", "*Handler.live").Msg("live subscriber disconnected")
		return
	}
	conn.Close(websocket.StatusGoingAway, "server shutting down")
}

func writeDelta(ctx context.Context, conn *websocket.Conn, delta models.RemoteDelta) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, delta)
}

func splitCollections(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
