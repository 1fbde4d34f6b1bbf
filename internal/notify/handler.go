package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"autoshop/internal/domain"
	"autoshop/internal/session"
)

type Handlers struct {
	hub    *Hub
	recent *Recent
	logger *zap.Logger
}

func NewHandlers(hub *Hub, recent *Recent, logger *zap.Logger) *Handlers {
	return &Handlers{hub: hub, recent: recent, logger: logger}
}

type recentResponse struct {
	Notifications []Event `json:"notifications"`
}

func (h *Handlers) HandleRecent(w http.ResponseWriter, r *http.Request) {
	var user *domain.User
	if store, ok := session.FromContext(r.Context()); ok {
		user = store.CurrentUser()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := recentResponse{Notifications: h.recent.List(user)}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// HandleStream relays the hub events visible to the session's user to the
// browser as server-sent events. The stream ends when the client disconnects
// or the session logs out.
func (h *Handlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	store, ok := session.FromContext(r.Context())
	if !ok {
		h.logger.Error("notification stream outside a client session")
		http.Error(w, "no session", http.StatusInternalServerError)
		return
	}

	events := make(chan Event, 16)
	loggedOut := make(chan struct{})
	var closeOnce sync.Once
	sub := h.hub.Subscribe(func(e Event) {
		user := store.CurrentUser()
		if user == nil {
			closeOnce.Do(func() { close(loggedOut) })
			return
		}
		if !e.VisibleTo(user) {
			return
		}
		select {
		case events <- e:
		default:
			h.logger.Warn("dropping event for slow stream client", zap.String("type", e.Type))
		}
	})
	defer sub.Unsubscribe()

	// streams outlive the server's write timeout
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("write deadline not adjustable", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-loggedOut:
			h.logger.Debug("closing stream for logged out session")
			return
		case e := <-events:
			if err := writeEvent(w, e); err != nil {
				h.logger.Debug("stream client gone", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e Event) error {
	if e.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", e.ID); err != nil {
			return err
		}
	}
	data := e.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
	return err
}
