package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"autoshop/internal/domain"
	"autoshop/internal/errors"
)

// OrderAPI is the upstream orders collection.
type OrderAPI interface {
	GetAll(ctx context.Context, token string, filters url.Values) ([]domain.Order, error)
	GetByID(ctx context.Context, token, id string) (*domain.Order, error)
	Update(ctx context.Context, token, id string, data interface{}) (*domain.Order, error)
}

type UpstreamOrderRepository struct {
	orders OrderAPI
}

func NewUpstreamOrderRepository(orders OrderAPI) *UpstreamOrderRepository {
	return &UpstreamOrderRepository{orders: orders}
}

func (r *UpstreamOrderRepository) FindAll(ctx context.Context, token string, filters url.Values) ([]domain.Order, error) {
	orders, err := r.orders.GetAll(ctx, token, filters)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

func (r *UpstreamOrderRepository) FindByID(ctx context.Context, token, id string) (*domain.Order, error) {
	order, err := r.orders.GetByID(ctx, token, id)
	if err != nil {
		return nil, notFoundOr(err, id, "querying order by id")
	}
	return order, nil
}

type statusUpdate struct {
	Status domain.OrderStatus `json:"status"`
}

func (r *UpstreamOrderRepository) UpdateStatus(ctx context.Context, token, id string, status domain.OrderStatus) (*domain.Order, error) {
	order, err := r.orders.Update(ctx, token, id, statusUpdate{Status: status})
	if err != nil {
		return nil, notFoundOr(err, id, "updating order status")
	}
	return order, nil
}

type servicesUpdate struct {
	Services []domain.Service `json:"services"`
}

func (r *UpstreamOrderRepository) UpdateServices(ctx context.Context, token, id string, services []domain.Service) (*domain.Order, error) {
	order, err := r.orders.Update(ctx, token, id, servicesUpdate{Services: services})
	if err != nil {
		return nil, notFoundOr(err, id, "updating order services")
	}
	return order, nil
}

func notFoundOr(err error, id, action string) error {
	if apiErr, ok := errors.IsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	return fmt.Errorf("%s: %w", action, err)
}
