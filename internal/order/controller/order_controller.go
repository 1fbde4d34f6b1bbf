package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/internal/domain"
	"autoshop/internal/dto"
	apperrors "autoshop/internal/errors"
	"autoshop/internal/policy"
	"autoshop/internal/session"
)

type OrderUseCase interface {
	Detail(ctx context.Context, token, id string) (*dto.OrderDetail, error)
	UpdateStatus(ctx context.Context, token, id, status string) (*dto.OrderSummary, error)
	StartTimer(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error)
	StopTimer(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error)
}

// supervisors may track time on behalf of another technician
var supervisors = domain.NewRoleSet(domain.RoleAdmin, domain.RoleManager)

type OrderController struct {
	useCase OrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase OrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *OrderController) HandleDetail(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	store, ok := c.session(w, r, traceID)
	if !ok {
		return
	}

	detail, err := c.useCase.Detail(r.Context(), store.Token(), chi.URLParam(r, "id"))
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, detail)
}

func (c *OrderController) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	store, ok := c.session(w, r, traceID)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}
	if req.Status == "" {
		c.writeValidationError(w, "status is required", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status is required",
		})
		return
	}

	summary, err := c.useCase.UpdateStatus(r.Context(), store.Token(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderResponse{
		TraceID:   traceID,
		Order:     *summary,
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrderController) HandleStartTimer(w http.ResponseWriter, r *http.Request) {
	c.handleTimer(w, r, c.useCase.StartTimer)
}

func (c *OrderController) HandleStopTimer(w http.ResponseWriter, r *http.Request) {
	c.handleTimer(w, r, c.useCase.StopTimer)
}

type timerFunc func(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error)

func (c *OrderController) handleTimer(w http.ResponseWriter, r *http.Request, fn timerFunc) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	store, ok := c.session(w, r, traceID)
	if !ok {
		return
	}
	user := store.CurrentUser()

	// Empty body means "my own timer"
	var req dto.TimerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}
	technicianID := req.TechnicianID
	if technicianID == "" && user != nil {
		technicianID = user.ID
	}
	if user != nil && technicianID != user.ID && !policy.CanRender(user, supervisors) {
		c.writeErrorResponse(w, traceID, http.StatusForbidden, "FORBIDDEN", "only admins and managers may track time for another technician", nil)
		return
	}

	detail, err := fn(r.Context(), store.Token(), chi.URLParam(r, "id"), chi.URLParam(r, "serviceId"), technicianID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, detail)
}

func (c *OrderController) session(w http.ResponseWriter, r *http.Request, traceID string) (*session.Store, bool) {
	store, ok := session.FromContext(r.Context())
	if !ok || !store.IsAuthenticated() {
		c.writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return nil, false
	}
	return store, true
}

func (c *OrderController) handleUseCaseError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	if ite, ok := apperrors.IsInvalidTransitionError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusConflict, "INVALID_TRANSITION", ite.Error(), map[string]string{
			"from": ite.From,
			"to":   ite.To,
		})
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}

	if apiErr, ok := apperrors.IsAPIError(err); ok {
		switch apiErr.Status {
		case http.StatusUnauthorized:
			c.writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", apiErr.Message, nil)
		case http.StatusForbidden:
			c.writeErrorResponse(w, traceID, http.StatusForbidden, "FORBIDDEN", apiErr.Message, nil)
		default:
			logger.Warn("upstream error", zap.Error(err))
			c.writeErrorResponse(w, traceID, http.StatusBadGateway, "UPSTREAM_ERROR", apiErr.Message, nil)
		}
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

func (c *OrderController) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code string, message string, details interface{}) {
	response := dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}

	c.writeJSON(w, statusCode, response)
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	response := validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	}

	c.writeJSON(w, http.StatusBadRequest, response)
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
