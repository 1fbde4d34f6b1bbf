// Package page renders the JSON view of every navigable page.
package page

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/internal/api"
	"autoshop/internal/domain"
	"autoshop/internal/dto"
	apperrors "autoshop/internal/errors"
	"autoshop/internal/guard"
	"autoshop/internal/route"
	"autoshop/internal/session"
)

type OrderQueries interface {
	List(ctx context.Context, token string, filters url.Values) ([]dto.OrderSummary, error)
	CountByStatus(ctx context.Context, token string) (map[domain.OrderStatus]int, error)
	Detail(ctx context.Context, token, id string) (*dto.OrderDetail, error)
}

type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

type View struct {
	Page   route.Page   `json:"page"`
	Layout route.Layout `json:"layout"`
	Path   string       `json:"path"`
	Params route.Params `json:"params,omitempty"`
	User   *domain.User `json:"user,omitempty"`
	Nav    []NavLink    `json:"nav,omitempty"`
	Data   interface{}  `json:"data,omitempty"`
}

// request is what a loader sees of the page request.
type request struct {
	token  string
	user   *domain.User
	params route.Params
	query  url.Values
}

type loader func(ctx context.Context, req request) (interface{}, error)

type Handler struct {
	resources *api.Resources
	orders    OrderQueries
	verifier  EmailVerifier
	logger    *zap.Logger
	loaders   map[route.Page]loader
}

func NewHandler(resources *api.Resources, orders OrderQueries, verifier EmailVerifier, logger *zap.Logger) *Handler {
	h := &Handler{
		resources: resources,
		orders:    orders,
		verifier:  verifier,
		logger:    logger,
	}
	h.loaders = h.pageLoaders()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := h.logger.With(zap.String("traceId", traceID), zap.String("path", r.URL.Path))

	out, ok := guard.OutcomeFromContext(r.Context())
	store, hasStore := session.FromContext(r.Context())
	if !ok || !hasStore {
		logger.Error("page rendered outside the guard")
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
		return
	}

	user := out.User
	view := View{
		Page:   out.Route.Page,
		Layout: out.Route.Layout,
		Path:   r.URL.Path,
		Params: out.Params,
		User:   user,
	}
	if view.Layout == route.LayoutDashboard {
		view.Nav = Navigation(user)
	}

	status := http.StatusOK
	if view.Page == route.PageNotFound {
		status = http.StatusNotFound
	}

	if load, ok := h.loaders[view.Page]; ok {
		data, err := load(r.Context(), request{
			token:  store.Token(),
			user:   user,
			params: out.Params,
			query:  r.URL.Query(),
		})
		if err != nil {
			h.handleLoadError(w, r, store, view, err, logger)
			return
		}
		view.Data = data
	}

	h.writeJSON(w, status, view)
}

func (h *Handler) handleLoadError(w http.ResponseWriter, r *http.Request, store *session.Store, view View, err error, logger *zap.Logger) {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		h.writeNotFound(w, view)
		return
	}

	if apiErr, ok := apperrors.IsAPIError(err); ok {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			// the upstream no longer accepts the token
			logger.Info("upstream rejected session token", zap.Error(err))
			store.Logout(r.Context())
			http.Redirect(w, r, guard.Redirect(route.LoginPath, r.URL.Path).Location(), http.StatusFound)
			return
		case http.StatusForbidden:
			http.Redirect(w, r, route.HomePath, http.StatusFound)
			return
		case http.StatusNotFound:
			h.writeNotFound(w, view)
			return
		}
		logger.Warn("page data unavailable", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", apiErr.Message)
		return
	}

	if ve, ok := apperrors.IsValidationError(err); ok {
		logger.Warn("page data failed validation", zap.Error(err))
		h.writeError(w, http.StatusUnprocessableEntity, "INVALID_DATA", ve.Message)
		return
	}

	logger.Error("loading page data", zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

func (h *Handler) writeNotFound(w http.ResponseWriter, view View) {
	view.Page = route.PageNotFound
	view.Layout = route.LayoutPublic
	view.Params = nil
	view.Nav = nil
	view.Data = nil
	h.writeJSON(w, http.StatusNotFound, view)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
