package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autoshop/internal/domain"
	"autoshop/internal/route"
	"autoshop/internal/session"
)

type stubAuth struct {
	user *domain.User
}

func (s *stubAuth) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthGrant, error) {
	return &domain.AuthGrant{User: s.user, AccessToken: "token"}, nil
}

func (s *stubAuth) Logout(ctx context.Context, token string) error {
	return nil
}

func (s *stubAuth) GetCurrentUser(ctx context.Context, token string) (*domain.User, error) {
	return s.user, nil
}

func restoredStore(t *testing.T, user *domain.User) *session.Store {
	t.Helper()
	store := session.NewStore("client-1", &stubAuth{user: user}, session.NewMemoryTokenStore(), zap.NewNop())
	require.NoError(t, store.Restore(context.Background()))
	if user != nil {
		_, err := store.Login(context.Background(), domain.Credentials{Email: user.Email, Password: "pw"})
		require.NoError(t, err)
	}
	return store
}

func serve(g *Guard, store *session.Store, path string) (*httptest.ResponseRecorder, *Outcome) {
	var rendered *Outcome
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out, ok := OutcomeFromContext(r.Context())
		if ok {
			rendered = &out
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if store != nil {
		req = req.WithContext(session.NewContext(req.Context(), store))
	}
	rec := httptest.NewRecorder()
	g.Middleware(next).ServeHTTP(rec, req)
	return rec, rendered
}

func TestMiddleware_RedirectsAnonymousToLogin(t *testing.T) {
	g := New(zap.NewNop())
	rec, rendered := serve(g, restoredStore(t, nil), "/orders/7")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?from=%2Forders%2F7", rec.Header().Get("Location"))
	assert.Nil(t, rendered)
}

func TestMiddleware_RedirectsDeniedRoleHome(t *testing.T) {
	g := New(zap.NewNop())
	rec, rendered := serve(g, restoredStore(t, userWith(domain.RoleTechnician)), "/employees")

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Nil(t, rendered)
}

func TestMiddleware_RendersAllowedRoute(t *testing.T) {
	g := New(zap.NewNop())
	rec, rendered := serve(g, restoredStore(t, userWith(domain.RoleTechnician)), "/orders/7")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, rendered)
	assert.Equal(t, route.PageOrderDetail, rendered.Route.Page)
	assert.Equal(t, "7", rendered.Params["id"])
}

func TestMiddleware_LogoutThenNavigateRedirects(t *testing.T) {
	g := New(zap.NewNop())
	store := restoredStore(t, userWith(domain.RoleAdmin))

	rec, _ := serve(g, store, "/reports")
	assert.Equal(t, http.StatusOK, rec.Code)

	store.Logout(context.Background())

	rec, _ = serve(g, store, "/reports")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?from=%2Freports", rec.Header().Get("Location"))
}

func TestMiddleware_MissingSession(t *testing.T) {
	g := New(zap.NewNop())
	rec, rendered := serve(g, nil, "/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Nil(t, rendered)
}

func TestMiddleware_RestoreNeverFinishes(t *testing.T) {
	g := New(zap.NewNop())
	store := session.NewStore("client-1", &stubAuth{}, session.NewMemoryTokenStore(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(session.NewContext(ctx, store))
	rec := httptest.NewRecorder()
	g.Middleware(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestHandleCurrent(t *testing.T) {
	g := New(zap.NewNop())
	store := restoredStore(t, userWith(domain.RoleCustomer))
	serve(g, store, "/my-account")

	req := httptest.NewRequest(http.MethodGet, "/api/navigation", nil)
	req = req.WithContext(session.NewContext(req.Context(), store))
	rec := httptest.NewRecorder()
	g.HandleCurrent(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/my-account", body["path"])
	assert.Equal(t, "my-account", body["page"])
	assert.Equal(t, "dashboard", body["layout"])
}

func TestForget(t *testing.T) {
	g := New(zap.NewNop())
	store := restoredStore(t, nil)
	first := g.navigator(store)
	assert.Same(t, first, g.navigator(store))

	g.Forget(store.ClientID())
	assert.NotSame(t, first, g.navigator(store))
}
