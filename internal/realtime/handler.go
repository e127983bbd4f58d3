package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/allyourbase/dialplan/internal/httputil"
)

// Handler writes session events as Server-Sent Events.
type Handler struct {
	hub    *Hub
	logger *slog.Logger
}

// NewHandler creates a new SSE handler over hub.
func NewHandler(hub *Hub, logger *slog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// Stream subscribes the request to session and writes each event as it is
// published. It returns when the client disconnects or the session ends.
// The caller has already checked that session exists.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request, session string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := h.hub.Subscribe(session)
	defer h.hub.Unsubscribe(client.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	fmt.Fprintf(w, "event: connected\ndata: {\"clientId\":%q,\"session\":%q}\n\n", client.ID, session)
	flusher.Flush()

	h.logger.Info("session stream connected", "clientID", client.ID, "session", session)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-client.Events():
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err, "clientID", client.ID)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Action, data)
			flusher.Flush()
		}
	}
}
