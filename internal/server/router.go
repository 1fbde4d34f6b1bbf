package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"autoshop/internal/api"
	"autoshop/internal/domain"
	"autoshop/internal/guard"
	"autoshop/internal/notify"
	"autoshop/internal/order/controller"
	"autoshop/internal/session"
)

type Options struct {
	CookieName     string
	CookieSecure   bool
	AllowedOrigins []string
}

// Modules are the handlers mounted by the router.
type Modules struct {
	Sessions  *session.Registry
	Guard     *guard.Guard
	Pages     http.Handler
	Orders    *controller.OrderController
	Auth      *AuthController
	Resources *api.Resources
	Notify    *notify.Handlers
}

var (
	adminOnly        = domain.NewRoleSet(domain.RoleAdmin)
	adminManager     = domain.NewRoleSet(domain.RoleAdmin, domain.RoleManager)
	workshop         = domain.NewRoleSet(domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician)
	anyAuthenticated = domain.RoleSet{}
)

// resourceRoles gates the /api collections like the pages that show them.
var resourceRoles = map[string]domain.RoleSet{
	api.Employees:     adminOnly,
	api.Customers:     adminManager,
	api.Inventory:     adminManager,
	api.Invoices:      adminManager,
	api.Payments:      adminManager,
	api.Bookings:      adminManager,
	api.Vehicles:      workshop,
	api.Services:      workshop,
	api.Orders:        workshop,
	api.Notifications: anyAuthenticated,
}

func NewRouter(m Modules, opts Options, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(ClientSession(m.Sessions, opts.CookieName, opts.CookieSecure))
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", m.Auth.HandleLogin)
			r.Post("/logout", m.Auth.HandleLogout)
			r.Get("/me", m.Auth.HandleMe)
			r.Post("/register", m.Auth.HandleRegister)
			r.Post("/forgot-password", m.Auth.HandleForgotPassword)
			r.Post("/reset-password/{token}", m.Auth.HandleResetPassword)
			r.Post("/verify-email/{token}", m.Auth.HandleVerifyEmail)
		})

		r.Get("/navigation", m.Guard.HandleCurrent)

		for _, name := range api.Names() {
			ctrl, ok := NewResourceController(m.Resources, name, logger)
			if !ok {
				continue
			}
			roles := resourceRoles[name]
			r.Route("/"+name, func(r chi.Router) {
				// booking requests come from the public book-service page
				if name == api.Bookings {
					r.Post("/", ctrl.HandleCreate)
				}
				r.Group(func(r chi.Router) {
					r.Use(RequireRoles(roles, logger))
					switch name {
					case api.Orders:
						r.Get("/{id}/detail", m.Orders.HandleDetail)
						r.Patch("/{id}/status", m.Orders.HandleUpdateStatus)
						r.Post("/{id}/services/{serviceId}/timer/start", m.Orders.HandleStartTimer)
						r.Post("/{id}/services/{serviceId}/timer/stop", m.Orders.HandleStopTimer)
					case api.Notifications:
						r.Get("/recent", m.Notify.HandleRecent)
						r.Get("/stream", m.Notify.HandleStream)
					}
					r.Get("/", ctrl.HandleList)
					if name != api.Bookings {
						r.Post("/", ctrl.HandleCreate)
					}
					r.Get("/{id}", ctrl.HandleGet)
					r.Put("/{id}", ctrl.HandleUpdate)
					r.Delete("/{id}", ctrl.HandleDelete)
				})
			})
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(m.Guard.Middleware)
		r.Get("/", m.Pages.ServeHTTP)
		r.Get("/*", m.Pages.ServeHTTP)
	})

	return r
}
