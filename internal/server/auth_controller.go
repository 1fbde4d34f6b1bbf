package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/internal/api"
	"autoshop/internal/domain"
	apperrors "autoshop/internal/errors"
	"autoshop/internal/route"
	"autoshop/internal/session"
)

// AccountAPI is the part of the auth collaborator that does not touch the
// session.
type AccountAPI interface {
	Register(ctx context.Context, reg api.Registration) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
}

const defaultLoginRedirect = "/dashboard"

type AuthController struct {
	accounts AccountAPI
	logger   *zap.Logger
	responder
}

func NewAuthController(accounts AccountAPI, logger *zap.Logger) *AuthController {
	return &AuthController{
		accounts:  accounts,
		logger:    logger,
		responder: responder{logger: logger},
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type loginResponse struct {
	TraceID  string       `json:"traceId"`
	User     *domain.User `json:"user"`
	Redirect string       `json:"redirect"`
}

// redirectTarget accepts only local paths so the login form cannot be used
// as an open redirect. Browsers read a backslash as a slash and drop tabs
// and newlines, so paths holding either are refused.
func redirectTarget(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, route.LoginPath) {
		return defaultLoginRedirect
	}
	if strings.ContainsAny(from, `\`) || strings.IndexFunc(from, isControl) >= 0 {
		return defaultLoginRedirect
	}
	return from
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

func (c *AuthController) HandleLogin(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	store, ok := c.store(w, r, traceID)
	if !ok {
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}
	if req.From == "" {
		req.From = r.URL.Query().Get("from")
	}

	user, err := store.Login(r.Context(), domain.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if ae, ok := apperrors.IsAuthError(err); ok {
			c.writeErrorResponse(w, traceID, http.StatusUnauthorized, "AUTH_FAILED", ae.Message, nil)
			return
		}
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, loginResponse{
		TraceID:  traceID,
		User:     user,
		Redirect: redirectTarget(req.From),
	})
}

func (c *AuthController) HandleLogout(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	store, ok := c.store(w, r, traceID)
	if !ok {
		return
	}
	store.Logout(r.Context())

	c.writeJSON(w, http.StatusOK, map[string]string{
		"traceId":  traceID,
		"redirect": route.LoginPath,
	})
}

func (c *AuthController) HandleMe(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	store, ok := c.store(w, r, traceID)
	if !ok {
		return
	}
	select {
	case <-store.Ready():
	case <-r.Context().Done():
		return
	}
	user := store.CurrentUser()
	if user == nil {
		c.writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", "not logged in", nil)
		return
	}

	c.writeJSON(w, http.StatusOK, user)
}

func (c *AuthController) HandleRegister(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req api.Registration
	if !c.decode(w, r, traceID, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	var details []apperrors.ValidationDetail
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	}
	if req.Email == "" {
		details = append(details, apperrors.ValidationDetail{Field: "email", Message: "email is required"})
	}
	if req.Password == "" {
		details = append(details, apperrors.ValidationDetail{Field: "password", Message: "password is required"})
	}
	if len(details) > 0 {
		c.writeValidationError(w, traceID, "invalid registration", details...)
		return
	}

	user, err := c.accounts.Register(r.Context(), req)
	if err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	logger.Info("account registered", zap.String("userId", user.ID))
	c.writeJSON(w, http.StatusCreated, user)
}

func (c *AuthController) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req struct {
		Email string `json:"email"`
	}
	if !c.decode(w, r, traceID, &req) {
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		c.writeValidationError(w, traceID, "email is required", apperrors.ValidationDetail{Field: "email", Message: "email is required"})
		return
	}

	if err := c.accounts.RequestPasswordReset(r.Context(), email); err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusAccepted, map[string]string{
		"traceId": traceID,
		"message": "if the address is registered, a reset link has been sent",
	})
}

func (c *AuthController) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req struct {
		Password string `json:"password"`
	}
	if !c.decode(w, r, traceID, &req) {
		return
	}
	if req.Password == "" {
		c.writeValidationError(w, traceID, "password is required", apperrors.ValidationDetail{Field: "password", Message: "password is required"})
		return
	}

	if err := c.accounts.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]string{
		"traceId":  traceID,
		"redirect": route.LoginPath,
	})
}

func (c *AuthController) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	if err := c.accounts.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		c.handleUpstreamError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"traceId":  traceID,
		"verified": true,
	})
}

func (c *AuthController) store(w http.ResponseWriter, r *http.Request, traceID string) (*session.Store, bool) {
	store, ok := session.FromContext(r.Context())
	if !ok {
		c.logger.Error("auth request without client session", zap.String("traceId", traceID))
		c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
		return nil, false
	}
	return store, true
}

func (c *AuthController) decode(w http.ResponseWriter, r *http.Request, traceID string, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		c.logger.Warn("invalid JSON body", zap.String("traceId", traceID), zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return true
}
