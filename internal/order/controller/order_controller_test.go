package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autoshop/internal/domain"
	"autoshop/internal/dto"
	apperrors "autoshop/internal/errors"
	"autoshop/internal/session"
)

type mockOrderUseCase struct {
	DetailFunc       func(ctx context.Context, token, id string) (*dto.OrderDetail, error)
	UpdateStatusFunc func(ctx context.Context, token, id, status string) (*dto.OrderSummary, error)
	StartTimerFunc   func(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error)
	StopTimerFunc    func(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error)
}

func (m *mockOrderUseCase) Detail(ctx context.Context, token, id string) (*dto.OrderDetail, error) {
	return m.DetailFunc(ctx, token, id)
}

func (m *mockOrderUseCase) UpdateStatus(ctx context.Context, token, id, status string) (*dto.OrderSummary, error) {
	return m.UpdateStatusFunc(ctx, token, id, status)
}

func (m *mockOrderUseCase) StartTimer(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error) {
	return m.StartTimerFunc(ctx, token, orderID, serviceID, technicianID)
}

func (m *mockOrderUseCase) StopTimer(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error) {
	return m.StopTimerFunc(ctx, token, orderID, serviceID, technicianID)
}

type stubAuth struct {
	user *domain.User
}

func (s *stubAuth) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthGrant, error) {
	return &domain.AuthGrant{User: s.user, AccessToken: "tok"}, nil
}

func (s *stubAuth) Logout(ctx context.Context, token string) error { return nil }

func (s *stubAuth) GetCurrentUser(ctx context.Context, token string) (*domain.User, error) {
	return s.user, nil
}

func loggedIn(t *testing.T, roles ...domain.Role) *session.Store {
	t.Helper()
	user := &domain.User{ID: "tech-1", Email: "tech@shop.test", Roles: roles}
	store := session.NewStore("client-1", &stubAuth{user: user}, session.NewMemoryTokenStore(), zap.NewNop())
	_, err := store.Login(context.Background(), domain.Credentials{Email: user.Email, Password: "pw"})
	require.NoError(t, err)
	return store
}

func routerFor(ctrl *OrderController) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/orders/{id}/detail", ctrl.HandleDetail)
	r.Patch("/api/orders/{id}/status", ctrl.HandleUpdateStatus)
	r.Post("/api/orders/{id}/services/{serviceId}/timer/start", ctrl.HandleStartTimer)
	r.Post("/api/orders/{id}/services/{serviceId}/timer/stop", ctrl.HandleStopTimer)
	return r
}

func do(t *testing.T, h http.Handler, store *session.Store, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if store != nil {
		req = req.WithContext(session.NewContext(req.Context(), store))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleUpdateStatus_Success(t *testing.T) {
	uc := &mockOrderUseCase{
		UpdateStatusFunc: func(ctx context.Context, token, id, status string) (*dto.OrderSummary, error) {
			assert.Equal(t, "tok", token)
			assert.Equal(t, "o1", id)
			assert.Equal(t, "in_progress", status)
			return &dto.OrderSummary{ID: id, Status: domain.OrderStatusInProgress}, nil
		},
	}

	rec := do(t, routerFor(NewOrderController(uc, zap.NewNop())), loggedIn(t, domain.RoleTechnician),
		http.MethodPatch, "/api/orders/o1/status", `{"status":"in_progress"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, domain.OrderStatusInProgress, resp.Order.Status)
}

func TestHandleUpdateStatus_InvalidTransition(t *testing.T) {
	uc := &mockOrderUseCase{
		UpdateStatusFunc: func(ctx context.Context, token, id, status string) (*dto.OrderSummary, error) {
			return nil, apperrors.NewInvalidTransitionError("completed", "pending")
		},
	}

	rec := do(t, routerFor(NewOrderController(uc, zap.NewNop())), loggedIn(t, domain.RoleManager),
		http.MethodPatch, "/api/orders/o1/status", `{"status":"pending"}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_TRANSITION", resp["code"])
	assert.Equal(t, map[string]interface{}{"from": "completed", "to": "pending"}, resp["details"])
}

func TestHandleUpdateStatus_BadBody(t *testing.T) {
	ctrl := NewOrderController(&mockOrderUseCase{}, zap.NewNop())
	router := routerFor(ctrl)
	store := loggedIn(t, domain.RoleAdmin)

	rec := do(t, router, store, http.MethodPatch, "/api/orders/o1/status", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, store, http.MethodPatch, "/api/orders/o1/status", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHandleUpdateStatus_Unauthenticated(t *testing.T) {
	rec := do(t, routerFor(NewOrderController(&mockOrderUseCase{}, zap.NewNop())), nil,
		http.MethodPatch, "/api/orders/o1/status", `{"status":"cancelled"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleDetail_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", apperrors.NewNotFoundError("order with id o1 not found"), http.StatusNotFound},
		{"upstream unauthorized", apperrors.NewAPIError(401, "jwt expired"), http.StatusUnauthorized},
		{"upstream failure", apperrors.NewAPIError(500, "boom"), http.StatusBadGateway},
		{"validation", apperrors.NewValidationError("invalid materials"), http.StatusBadRequest},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockOrderUseCase{
				DetailFunc: func(ctx context.Context, token, id string) (*dto.OrderDetail, error) {
					return nil, tt.err
				},
			}
			rec := do(t, routerFor(NewOrderController(uc, zap.NewNop())), loggedIn(t, domain.RoleAdmin),
				http.MethodGet, "/api/orders/o1/detail", "")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestHandleStartTimer_DefaultsToCurrentUser(t *testing.T) {
	uc := &mockOrderUseCase{
		StartTimerFunc: func(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error) {
			assert.Equal(t, "o1", orderID)
			assert.Equal(t, "s1", serviceID)
			assert.Equal(t, "tech-1", technicianID)
			return &dto.OrderDetail{}, nil
		},
	}

	rec := do(t, routerFor(NewOrderController(uc, zap.NewNop())), loggedIn(t, domain.RoleTechnician),
		http.MethodPost, "/api/orders/o1/services/s1/timer/start", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStopTimer_OtherTechnicianNeedsSupervisor(t *testing.T) {
	calls := 0
	uc := &mockOrderUseCase{
		StopTimerFunc: func(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error) {
			calls++
			assert.Equal(t, "tech-9", technicianID)
			return &dto.OrderDetail{}, nil
		},
	}
	router := routerFor(NewOrderController(uc, zap.NewNop()))

	rec := do(t, router, loggedIn(t, domain.RoleTechnician), http.MethodPost,
		"/api/orders/o1/services/s1/timer/stop", `{"technicianId":"tech-9"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, loggedIn(t, domain.RoleManager), http.MethodPost,
		"/api/orders/o1/services/s1/timer/stop", `{"technicianId":"tech-9"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}
