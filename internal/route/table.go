// Package route holds the static table of navigable pages.
package route

import (
	"fmt"
	"strings"

	"autoshop/internal/domain"
)

type Layout int

const (
	LayoutPublic Layout = iota
	LayoutAuth
	LayoutDashboard
)

func (l Layout) String() string {
	switch l {
	case LayoutPublic:
		return "public"
	case LayoutAuth:
		return "auth"
	case LayoutDashboard:
		return "dashboard"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Layout) UnmarshalText(text []byte) error {
	for _, candidate := range []Layout{LayoutPublic, LayoutAuth, LayoutDashboard} {
		if candidate.String() == string(text) {
			*l = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown layout %q", text)
}

type Page int

const (
	PageHome Page = iota
	PageAbout
	PageContact
	PageBookService
	PageLogin
	PageRegister
	PageForgotPassword
	PageResetPassword
	PageVerifyEmail
	PageDashboard
	PageEmployees
	PageReports
	PageCustomers
	PageCustomerDetail
	PageInventory
	PageInvoices
	PageManageBookings
	PageVehicles
	PageVehicleDetail
	PageServices
	PageOrders
	PageOrderDetail
	PageMyAccount
	PageMyBookings
	PageNotFound
)

var pageNames = [...]string{
	PageHome:           "home",
	PageAbout:          "about",
	PageContact:        "contact",
	PageBookService:    "book-service",
	PageLogin:          "login",
	PageRegister:       "register",
	PageForgotPassword: "forgot-password",
	PageResetPassword:  "reset-password",
	PageVerifyEmail:    "verify-email",
	PageDashboard:      "dashboard",
	PageEmployees:      "employees",
	PageReports:        "reports",
	PageCustomers:      "customers",
	PageCustomerDetail: "customer-detail",
	PageInventory:      "inventory",
	PageInvoices:       "invoices",
	PageManageBookings: "manage-bookings",
	PageVehicles:       "vehicles",
	PageVehicleDetail:  "vehicle-detail",
	PageServices:       "services",
	PageOrders:         "orders",
	PageOrderDetail:    "order-detail",
	PageMyAccount:      "my-account",
	PageMyBookings:     "my-bookings",
	PageNotFound:       "not-found",
}

func (p Page) String() string {
	if p >= 0 && int(p) < len(pageNames) {
		return pageNames[p]
	}
	return fmt.Sprintf("Page(%d)", int(p))
}

func (p Page) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Page) UnmarshalText(text []byte) error {
	for i, name := range pageNames {
		if name == string(text) {
			*p = Page(i)
			return nil
		}
	}
	return fmt.Errorf("unknown page %q", text)
}

// Route describes one navigable path. An empty AllowedRoles admits any
// authenticated role.
type Route struct {
	Path         string
	RequiresAuth bool
	AllowedRoles domain.RoleSet
	Layout       Layout
	Page         Page
}

const (
	LoginPath = "/login"
	HomePath  = "/"
)

var (
	adminOnly        = domain.NewRoleSet(domain.RoleAdmin)
	adminManager     = domain.NewRoleSet(domain.RoleAdmin, domain.RoleManager)
	workshop         = domain.NewRoleSet(domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician)
	customerOnly     = domain.NewRoleSet(domain.RoleCustomer)
	anyAuthenticated = domain.RoleSet{}
)

var notFound = Route{Path: "*", Layout: LayoutPublic, Page: PageNotFound}

func publicRoute(path string, page Page) Route {
	return Route{Path: path, Layout: LayoutPublic, Page: page}
}

func authFormRoute(path string, page Page) Route {
	return Route{Path: path, Layout: LayoutAuth, Page: page}
}

func protectedRoute(path string, page Page, roles domain.RoleSet) Route {
	return Route{Path: path, RequiresAuth: true, AllowedRoles: roles, Layout: LayoutDashboard, Page: page}
}

var table = []Route{
	publicRoute("/", PageHome),
	publicRoute("/about", PageAbout),
	publicRoute("/contact", PageContact),
	publicRoute("/book-service", PageBookService),
	authFormRoute(LoginPath, PageLogin),
	authFormRoute("/register", PageRegister),
	authFormRoute("/forgot-password", PageForgotPassword),
	authFormRoute("/reset-password/:token", PageResetPassword),
	authFormRoute("/verify-email/:token", PageVerifyEmail),

	protectedRoute("/dashboard", PageDashboard, anyAuthenticated),

	protectedRoute("/employees", PageEmployees, adminOnly),
	protectedRoute("/reports", PageReports, adminOnly),

	protectedRoute("/customers", PageCustomers, adminManager),
	protectedRoute("/customers/:id", PageCustomerDetail, adminManager),
	protectedRoute("/inventory", PageInventory, adminManager),
	protectedRoute("/invoices", PageInvoices, adminManager),
	protectedRoute("/manage-bookings", PageManageBookings, adminManager),

	protectedRoute("/vehicles", PageVehicles, workshop),
	protectedRoute("/vehicles/:id", PageVehicleDetail, workshop),
	protectedRoute("/services", PageServices, workshop),
	protectedRoute("/orders", PageOrders, workshop),
	protectedRoute("/orders/:id", PageOrderDetail, workshop),

	protectedRoute("/my-account", PageMyAccount, customerOnly),
	protectedRoute("/my-bookings", PageMyBookings, customerOnly),
}

// Table returns a copy of the route surface, wildcard last.
func Table() []Route {
	out := make([]Route, 0, len(table)+1)
	out = append(out, table...)
	return append(out, notFound)
}

type Params map[string]string

// Match resolves a request path against the table. Unknown paths resolve to
// the not-found route.
func Match(path string) (Route, Params) {
	segs := split(path)
	for _, r := range table {
		if params, ok := matchSegments(split(r.Path), segs); ok {
			return r, params
		}
	}
	return notFound, Params{}
}

func matchSegments(pattern, segs []string) (Params, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	params := Params{}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return nil, false
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
