package api

import (
	"context"
	"net/http"
	"net/url"

	"autoshop/internal/domain"
)

// Record is an upstream entity the server passes through without a typed
// model.
type Record map[string]interface{}

// Resource is the CRUD surface of one upstream collection.
type Resource[T any] struct {
	client *Client
	path   string
}

func NewResource[T any](client *Client, path string) *Resource[T] {
	return &Resource[T]{client: client, path: path}
}

func (r *Resource[T]) Path() string {
	return r.path
}

func (r *Resource[T]) GetAll(ctx context.Context, token string, filters url.Values) ([]T, error) {
	var items []T
	err := r.client.Do(ctx, Request{Method: http.MethodGet, Path: r.path, Token: token, Query: filters}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Resource[T]) GetByID(ctx context.Context, token, id string) (*T, error) {
	var item T
	err := r.client.Do(ctx, Request{Method: http.MethodGet, Path: r.itemPath(id), Token: token}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T]) Create(ctx context.Context, token string, data interface{}) (*T, error) {
	var item T
	err := r.client.Do(ctx, Request{Method: http.MethodPost, Path: r.path, Token: token, Body: data}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T]) Update(ctx context.Context, token, id string, data interface{}) (*T, error) {
	var item T
	err := r.client.Do(ctx, Request{Method: http.MethodPut, Path: r.itemPath(id), Token: token, Body: data}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Resource[T]) Delete(ctx context.Context, token, id string) error {
	return r.client.Do(ctx, Request{Method: http.MethodDelete, Path: r.itemPath(id), Token: token}, nil)
}

func (r *Resource[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// Resource names as exposed upstream and under /api on this server.
const (
	Customers     = "customers"
	Vehicles      = "vehicles"
	Employees     = "employees"
	Services      = "services"
	Inventory     = "inventory"
	Orders        = "orders"
	Invoices      = "invoices"
	Payments      = "payments"
	Notifications = "notifications"
	Bookings      = "bookings"
)

var resourceNames = []string{
	Customers, Vehicles, Employees, Services, Inventory,
	Orders, Invoices, Payments, Notifications, Bookings,
}

// Resources bundles the data collaborators. Orders and Invoices are typed
// for the pages that derive costs from them; every collection is also
// reachable untyped by name.
type Resources struct {
	Orders   *Resource[domain.Order]
	Invoices *Resource[domain.Invoice]

	byName map[string]*Resource[Record]
}

func NewResources(client *Client) *Resources {
	byName := make(map[string]*Resource[Record], len(resourceNames))
	for _, name := range resourceNames {
		byName[name] = NewResource[Record](client, "/"+name)
	}
	return &Resources{
		Orders:   NewResource[domain.Order](client, "/"+Orders),
		Invoices: NewResource[domain.Invoice](client, "/"+Invoices),
		byName:   byName,
	}
}

func (r *Resources) Named(name string) (*Resource[Record], bool) {
	res, ok := r.byName[name]
	return res, ok
}

func Names() []string {
	return append([]string(nil), resourceNames...)
}
