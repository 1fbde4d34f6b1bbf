package page

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"autoshop/internal/api"
	"autoshop/internal/domain"
	"autoshop/internal/dto"
	"autoshop/internal/route"
)

var workshopRoles = domain.NewRoleSet(domain.RoleAdmin, domain.RoleManager, domain.RoleTechnician)

func (h *Handler) pageLoaders() map[route.Page]loader {
	return map[route.Page]loader{
		route.PageLogin:          h.loadLogin,
		route.PageResetPassword:  h.loadResetPassword,
		route.PageVerifyEmail:    h.loadVerifyEmail,
		route.PageDashboard:      h.loadDashboard,
		route.PageEmployees:      h.list(api.Employees),
		route.PageReports:        h.loadReports,
		route.PageCustomers:      h.list(api.Customers),
		route.PageCustomerDetail: h.loadCustomerDetail,
		route.PageInventory:      h.list(api.Inventory),
		route.PageInvoices:       h.loadInvoices,
		route.PageManageBookings: h.list(api.Bookings),
		route.PageVehicles:       h.list(api.Vehicles),
		route.PageVehicleDetail:  h.loadVehicleDetail,
		route.PageServices:       h.list(api.Services),
		route.PageOrders:         h.loadOrders,
		route.PageOrderDetail:    h.loadOrderDetail,
		route.PageMyAccount:      h.loadMyAccount,
		route.PageMyBookings:     h.loadMyBookings,
	}
}

type listData struct {
	Items   []api.Record `json:"items"`
	Filters url.Values   `json:"filters,omitempty"`
}

func (h *Handler) list(name string) loader {
	return func(ctx context.Context, req request) (interface{}, error) {
		res, _ := h.resources.Named(name)
		items, err := res.GetAll(ctx, req.token, req.query)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []api.Record{}
		}
		return listData{Items: items, Filters: req.query}, nil
	}
}

func (h *Handler) loadLogin(_ context.Context, req request) (interface{}, error) {
	from := req.query.Get("from")
	if from == "" {
		return nil, nil
	}
	return map[string]string{"from": from}, nil
}

func (h *Handler) loadResetPassword(_ context.Context, req request) (interface{}, error) {
	return map[string]string{"token": req.params["token"]}, nil
}

type verifyData struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message,omitempty"`
}

func (h *Handler) loadVerifyEmail(ctx context.Context, req request) (interface{}, error) {
	if err := h.verifier.VerifyEmail(ctx, req.params["token"]); err != nil {
		h.logger.Info("email verification failed", zap.Error(err))
		return verifyData{Verified: false, Message: "verification link is invalid or has expired"}, nil
	}
	return verifyData{Verified: true}, nil
}

type dashboardData struct {
	OrdersByStatus map[domain.OrderStatus]int `json:"ordersByStatus,omitempty"`
}

func (h *Handler) loadDashboard(ctx context.Context, req request) (interface{}, error) {
	if !req.user.RoleSet().Intersects(workshopRoles) {
		return dashboardData{}, nil
	}
	counts, err := h.orders.CountByStatus(ctx, req.token)
	if err != nil {
		return nil, err
	}
	return dashboardData{OrdersByStatus: counts}, nil
}

type customerDetailData struct {
	Customer *api.Record  `json:"customer"`
	Vehicles []api.Record `json:"vehicles"`
}

func (h *Handler) loadCustomerDetail(ctx context.Context, req request) (interface{}, error) {
	customers, _ := h.resources.Named(api.Customers)
	customer, err := customers.GetByID(ctx, req.token, req.params["id"])
	if err != nil {
		return nil, err
	}
	vehicles, _ := h.resources.Named(api.Vehicles)
	owned, err := vehicles.GetAll(ctx, req.token, url.Values{"customerId": {req.params["id"]}})
	if err != nil {
		return nil, err
	}
	if owned == nil {
		owned = []api.Record{}
	}
	return customerDetailData{Customer: customer, Vehicles: owned}, nil
}

type vehicleDetailData struct {
	Vehicle *api.Record        `json:"vehicle"`
	Orders  []dto.OrderSummary `json:"orders"`
}

func (h *Handler) loadVehicleDetail(ctx context.Context, req request) (interface{}, error) {
	vehicles, _ := h.resources.Named(api.Vehicles)
	vehicle, err := vehicles.GetByID(ctx, req.token, req.params["id"])
	if err != nil {
		return nil, err
	}
	history, err := h.orders.List(ctx, req.token, url.Values{"vehicleId": {req.params["id"]}})
	if err != nil {
		return nil, err
	}
	return vehicleDetailData{Vehicle: vehicle, Orders: history}, nil
}

type orderListData struct {
	Items   []dto.OrderSummary `json:"items"`
	Filters url.Values         `json:"filters,omitempty"`
}

func (h *Handler) loadOrders(ctx context.Context, req request) (interface{}, error) {
	orders, err := h.orders.List(ctx, req.token, req.query)
	if err != nil {
		return nil, err
	}
	return orderListData{Items: orders, Filters: req.query}, nil
}

func (h *Handler) loadOrderDetail(ctx context.Context, req request) (interface{}, error) {
	return h.orders.Detail(ctx, req.token, req.params["id"])
}

func (h *Handler) loadMyAccount(_ context.Context, req request) (interface{}, error) {
	return map[string]interface{}{"account": req.user}, nil
}

func (h *Handler) loadMyBookings(ctx context.Context, req request) (interface{}, error) {
	if req.user == nil {
		return listData{Items: []api.Record{}}, nil
	}
	bookings, _ := h.resources.Named(api.Bookings)
	items, err := bookings.GetAll(ctx, req.token, url.Values{"customerId": {req.user.ID}})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []api.Record{}
	}
	return listData{Items: items}, nil
}
