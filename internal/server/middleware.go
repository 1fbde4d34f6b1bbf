package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/internal/domain"
	"autoshop/internal/policy"
	"autoshop/internal/session"
)

// ClientSession binds each request to the session store of its browser
// client. Clients without a valid id cookie get a fresh one.
func ClientSession(registry *session.Registry, cookieName string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := ""
			if c, err := r.Cookie(cookieName); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					clientID = c.Value
				}
			}
			if clientID == "" {
				clientID = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    clientID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			store := registry.Get(clientID)
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), store)))
		})
	}
}

// RequestLogger logs one line per request once the response is written.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				fields := []zap.Field{
					zap.String("requestId", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				}
				if store, ok := session.FromContext(r.Context()); ok {
					if user := store.CurrentUser(); user != nil {
						fields = append(fields, zap.String("userId", user.ID))
					}
				}
				logger.Info("request", fields...)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

type recoveryResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Reset   string `json:"reset"`
}

// Recoverer turns a panicking handler into a generic error payload with a
// link back to the home page.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	out := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic while serving request",
					zap.String("requestId", middleware.GetReqID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				out.writeJSON(w, http.StatusInternalServerError, recoveryResponse{
					Error:   "INTERNAL_ERROR",
					Message: "something went wrong",
					Reset:   "/",
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles rejects API calls from anonymous clients with 401 and from
// users holding none of roles with 403. An empty set admits any
// authenticated user. No decision is made before the client's session
// restore has finished.
func RequireRoles(roles domain.RoleSet, logger *zap.Logger) func(http.Handler) http.Handler {
	out := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := middleware.GetReqID(r.Context())
			store, ok := session.FromContext(r.Context())
			if ok {
				select {
				case <-store.Ready():
				case <-r.Context().Done():
					w.Header().Set("Retry-After", "1")
					out.writeErrorResponse(w, traceID, http.StatusServiceUnavailable, "SESSION_RESTORING", "session is still being restored", nil)
					return
				}
			}
			if !ok || !store.IsAuthenticated() {
				out.writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
				return
			}
			if !policy.CanRender(store.CurrentUser(), roles) {
				logger.Info("api access denied",
					zap.String("path", r.URL.Path),
					zap.String("userId", store.CurrentUser().ID),
				)
				out.writeErrorResponse(w, traceID, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
