package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"autoshop/internal/dto"
	apperrors "autoshop/internal/errors"
)

// responder writes the JSON bodies shared by the API controllers.
type responder struct {
	logger *zap.Logger
}

func (r responder) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		r.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (r responder) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code, message string, details interface{}) {
	r.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func (r responder) writeValidationError(w http.ResponseWriter, traceID, message string, details ...apperrors.ValidationDetail) {
	r.writeErrorResponse(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// handleUpstreamError maps collaborator failures onto API responses. Client
// errors reported upstream pass through with their status.
func (r responder) handleUpstreamError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		r.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		r.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}

	if apiErr, ok := apperrors.IsAPIError(err); ok {
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			r.writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", apiErr.Message, nil)
		case apiErr.Status == http.StatusForbidden:
			r.writeErrorResponse(w, traceID, http.StatusForbidden, "FORBIDDEN", apiErr.Message, nil)
		case apiErr.Status == http.StatusNotFound:
			r.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", apiErr.Message, nil)
		case apiErr.Status >= 400 && apiErr.Status < 500:
			r.writeErrorResponse(w, traceID, apiErr.Status, "REJECTED", apiErr.Message, nil)
		default:
			logger.Warn("upstream error", zap.Error(err))
			r.writeErrorResponse(w, traceID, http.StatusBadGateway, "UPSTREAM_ERROR", apiErr.Message, nil)
		}
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	r.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}
