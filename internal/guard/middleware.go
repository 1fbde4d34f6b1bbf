package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"autoshop/internal/session"
)

type outcomeKey struct{}

// OutcomeFromContext returns the render outcome the guard attached to a
// request it let through.
func OutcomeFromContext(ctx context.Context) (Outcome, bool) {
	out, ok := ctx.Value(outcomeKey{}).(Outcome)
	return out, ok
}

// NewContext returns a copy of ctx carrying out.
func NewContext(ctx context.Context, out Outcome) context.Context {
	return context.WithValue(ctx, outcomeKey{}, out)
}

// Guard adapts navigators to HTTP page requests, one navigator per client.
type Guard struct {
	logger *zap.Logger

	mu         sync.Mutex
	navigators map[string]*Navigator
}

func New(logger *zap.Logger) *Guard {
	return &Guard{
		logger:     logger,
		navigators: make(map[string]*Navigator),
	}
}

func (g *Guard) navigator(store *session.Store) *Navigator {
	g.mu.Lock()
	defer g.mu.Unlock()
	nav, ok := g.navigators[store.ClientID()]
	if !ok || nav.session != SessionView(store) {
		nav = NewNavigator(store)
		g.navigators[store.ClientID()] = nav
	}
	return nav
}

// Forget drops the navigator of an evicted client.
func (g *Guard) Forget(clientID string) {
	g.mu.Lock()
	delete(g.navigators, clientID)
	g.mu.Unlock()
}

// Middleware guards page requests. Redirects become 302 responses, renders
// reach next with the outcome in the request context.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store, ok := session.FromContext(r.Context())
		if !ok {
			g.logger.Error("page request without client session", zap.String("path", r.URL.Path))
			g.writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "INTERNAL_ERROR",
				"message": "an unexpected error occurred",
			})
			return
		}
		logger := g.logger.With(zap.String("clientId", store.ClientID()), zap.String("path", r.URL.Path))

		out, current, err := g.navigator(store).Navigate(r.Context(), r.URL.Path)
		if err != nil {
			logger.Warn("navigation abandoned while session restores", zap.Error(err))
			w.Header().Set("Retry-After", "1")
			g.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":   "SESSION_RESTORING",
				"message": "session is still being restored",
			})
			return
		}
		if !current {
			logger.Debug("navigation superseded by a newer one")
		}

		switch out.Kind {
		case KindRedirect:
			if out.Denied != nil {
				logger.Info("navigation denied", zap.Error(out.Denied))
			}
			http.Redirect(w, r, out.Location(), http.StatusFound)
		case KindRender:
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), out)))
		default:
			logger.Error("unexpected guard outcome", zap.Stringer("kind", out.Kind))
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
}

type currentResponse struct {
	Path    string  `json:"path"`
	Outcome Outcome `json:"outcome"`
	Page    string  `json:"page,omitempty"`
	Layout  string  `json:"layout,omitempty"`
}

// HandleCurrent reports the client's most recent committed navigation.
func (g *Guard) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	out, path := g.navigator(store).Current()
	resp := currentResponse{Path: path, Outcome: out}
	if out.Kind == KindRender {
		resp.Page = out.Route.Page.String()
		resp.Layout = out.Route.Layout.String()
	}
	g.writeJSON(w, http.StatusOK, resp)
}

func (g *Guard) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		g.logger.Error("failed to encode response", zap.Error(err))
	}
}
