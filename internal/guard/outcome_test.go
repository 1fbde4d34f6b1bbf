package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoshop/internal/domain"
	"autoshop/internal/route"
	"autoshop/internal/session"
)

func userWith(roles ...domain.Role) *domain.User {
	return &domain.User{ID: "u-1", Name: "Test", Email: "test@shop.test", Roles: roles}
}

func TestDecide(t *testing.T) {
	restoredAnon := session.Snapshot{Restored: true}

	tests := []struct {
		name       string
		path       string
		snap       session.Snapshot
		wantKind   Kind
		wantTarget string
		wantFrom   string
		wantPage   route.Page
		wantDenied bool
	}{
		{
			name:     "restore pending on public route",
			path:     "/",
			snap:     session.Snapshot{},
			wantKind: KindLoading,
		},
		{
			name:     "restore pending on protected route",
			path:     "/orders",
			snap:     session.Snapshot{},
			wantKind: KindLoading,
		},
		{
			name:     "public route anonymous",
			path:     "/about",
			snap:     restoredAnon,
			wantKind: KindRender,
			wantPage: route.PageAbout,
		},
		{
			name:       "protected route anonymous",
			path:       "/orders/7",
			snap:       restoredAnon,
			wantKind:   KindRedirect,
			wantTarget: route.LoginPath,
			wantFrom:   "/orders/7",
		},
		{
			name:       "technician on admin route",
			path:       "/employees",
			snap:       session.Snapshot{Restored: true, User: userWith(domain.RoleTechnician)},
			wantKind:   KindRedirect,
			wantTarget: route.HomePath,
			wantDenied: true,
		},
		{
			name:       "customer on admin route",
			path:       "/employees",
			snap:       session.Snapshot{Restored: true, User: userWith(domain.RoleCustomer)},
			wantKind:   KindRedirect,
			wantTarget: route.HomePath,
			wantDenied: true,
		},
		{
			name:     "admin on admin route",
			path:     "/employees",
			snap:     session.Snapshot{Restored: true, User: userWith(domain.RoleAdmin)},
			wantKind: KindRender,
			wantPage: route.PageEmployees,
		},
		{
			name:     "receptionist on any-role route",
			path:     "/dashboard",
			snap:     session.Snapshot{Restored: true, User: userWith(domain.RoleReceptionist)},
			wantKind: KindRender,
			wantPage: route.PageDashboard,
		},
		{
			name:       "user without roles on any-role route",
			path:       "/dashboard",
			snap:       session.Snapshot{Restored: true, User: userWith()},
			wantKind:   KindRedirect,
			wantTarget: route.HomePath,
			wantDenied: true,
		},
		{
			name:     "multi-role user matches one",
			path:     "/my-bookings",
			snap:     session.Snapshot{Restored: true, User: userWith(domain.RoleTechnician, domain.RoleCustomer)},
			wantKind: KindRender,
			wantPage: route.PageMyBookings,
		},
		{
			name:     "unknown path",
			path:     "/no/such/page",
			snap:     restoredAnon,
			wantKind: KindRender,
			wantPage: route.PageNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, params := route.Match(tt.path)
			out := Decide(r, params, tt.path, tt.snap)

			assert.Equal(t, tt.wantKind, out.Kind)
			assert.Equal(t, tt.wantTarget, out.Target)
			assert.Equal(t, tt.wantFrom, out.From)
			if tt.wantKind == KindRender {
				assert.Equal(t, tt.wantPage, out.Route.Page)
			}
			if tt.wantDenied {
				if assert.NotNil(t, out.Denied) {
					assert.Equal(t, tt.path, out.Denied.Path)
				}
			} else {
				assert.Nil(t, out.Denied)
			}
		})
	}
}

func TestDecide_RenderCarriesParams(t *testing.T) {
	r, params := route.Match("/orders/42")
	out := Decide(r, params, "/orders/42", session.Snapshot{Restored: true, User: userWith(domain.RoleManager)})

	assert.Equal(t, KindRender, out.Kind)
	assert.Equal(t, route.Params{"id": "42"}, out.Params)
}

func TestOutcome_Location(t *testing.T) {
	assert.Equal(t, "/login?from=%2Forders%2F7", Redirect(route.LoginPath, "/orders/7").Location())
	assert.Equal(t, "/", Redirect(route.HomePath, "").Location())
}

func TestDecide_RenderCarriesDecidedUser(t *testing.T) {
	manager := userWith(domain.RoleManager)
	r, params := route.Match("/orders/42")
	out := Decide(r, params, "/orders/42", session.Snapshot{Restored: true, User: manager})
	assert.Same(t, manager, out.User)

	r, params = route.Match("/about")
	out = Decide(r, params, "/about", session.Snapshot{Restored: true})
	assert.Equal(t, KindRender, out.Kind)
	assert.Nil(t, out.User)
}

func TestKind_TextRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindLoading, KindRedirect, KindRender} {
		text, err := k.MarshalText()
		require.NoError(t, err)
		var got Kind
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, k, got)
	}
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("teleport")))
}
