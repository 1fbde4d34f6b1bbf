package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/internal/api"
	apperrors "autoshop/internal/errors"
	"autoshop/internal/session"
)

// ResourceController proxies CRUD calls for one named collection to the
// data collaborator using the caller's session token.
type ResourceController struct {
	name     string
	resource *api.Resource[api.Record]
	logger   *zap.Logger
	responder
}

func NewResourceController(resources *api.Resources, name string, logger *zap.Logger) (*ResourceController, bool) {
	res, ok := resources.Named(name)
	if !ok {
		return nil, false
	}
	logger = logger.With(zap.String("resource", name))
	return &ResourceController{
		name:      name,
		resource:  res,
		logger:    logger,
		responder: responder{logger: logger},
	}, true
}

type listResponse struct {
	TraceID string       `json:"traceId"`
	Items   []api.Record `json:"items"`
}

func (c *ResourceController) HandleList(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	items, err := c.resource.GetAll(r.Context(), token(r), r.URL.Query())
	if err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}
	if items == nil {
		items = []api.Record{}
	}

	c.writeJSON(w, http.StatusOK, listResponse{TraceID: traceID, Items: items})
}

func (c *ResourceController) HandleGet(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	item, err := c.resource.GetByID(r.Context(), token(r), chi.URLParam(r, "id"))
	if err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, item)
}

func (c *ResourceController) HandleCreate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	body, ok := c.decodeRecord(w, r, traceID)
	if !ok {
		return
	}

	item, err := c.resource.Create(r.Context(), token(r), body)
	if err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	logger.Info("record created")
	c.writeJSON(w, http.StatusCreated, item)
}

func (c *ResourceController) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	body, ok := c.decodeRecord(w, r, traceID)
	if !ok {
		return
	}

	item, err := c.resource.Update(r.Context(), token(r), chi.URLParam(r, "id"), body)
	if err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, item)
}

func (c *ResourceController) HandleDelete(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id := chi.URLParam(r, "id")
	if err := c.resource.Delete(r.Context(), token(r), id); err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	logger.Info("record deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (c *ResourceController) decodeRecord(w http.ResponseWriter, r *http.Request, traceID string) (api.Record, bool) {
	var body api.Record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be a JSON object",
		})
		return nil, false
	}
	return body, true
}

// token is empty for anonymous callers of public routes.
func token(r *http.Request) string {
	if store, ok := session.FromContext(r.Context()); ok {
		return store.Token()
	}
	return ""
}
