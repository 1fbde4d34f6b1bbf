package usecase

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"autoshop/internal/domain"
	"autoshop/internal/dto"
	"autoshop/internal/errors"
)

type OrderRepository interface {
	FindAll(ctx context.Context, token string, filters url.Values) ([]domain.Order, error)
	FindByID(ctx context.Context, token, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, token, id string, status domain.OrderStatus) (*domain.Order, error)
	UpdateServices(ctx context.Context, token, id string, services []domain.Service) (*domain.Order, error)
}

type CostCalculator interface {
	Summary(order domain.Order) (*dto.OrderSummary, error)
	Detail(order domain.Order) (*dto.OrderDetail, error)
}

type OrderUseCase struct {
	repo   OrderRepository
	costs  CostCalculator
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewOrderUseCase(repo OrderRepository, costs CostCalculator, logger *zap.Logger) *OrderUseCase {
	return &OrderUseCase{
		repo:   repo,
		costs:  costs,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

func (uc *OrderUseCase) List(ctx context.Context, token string, filters url.Values) ([]dto.OrderSummary, error) {
	orders, err := uc.repo.FindAll(ctx, token, filters)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderSummary, 0, len(orders))
	for _, o := range orders {
		summary, err := uc.costs.Summary(o)
		if err != nil {
			uc.logger.Warn("listing order without cost", zap.String("orderId", o.ID), zap.Error(err))
			out = append(out, unpricedSummary(o, err))
			continue
		}
		out = append(out, *summary)
	}
	return out, nil
}

func unpricedSummary(o domain.Order, err error) dto.OrderSummary {
	summary := dto.OrderSummary{
		ID:        o.ID,
		Customer:  o.Customer,
		Vehicle:   o.Vehicle,
		Status:    o.Status,
		Badge:     o.Status.Badge(),
		CreatedAt: o.CreatedAt,
		CostError: "cost unavailable",
	}
	if ve, ok := errors.IsValidationError(err); ok {
		summary.CostError = ve.Message
	}
	if idx, ok := o.Status.ProgressIndex(); ok {
		summary.ProgressIndex = &idx
	}
	return summary
}

// CountByStatus tallies orders per status. Every status is present.
func (uc *OrderUseCase) CountByStatus(ctx context.Context, token string) (map[domain.OrderStatus]int, error) {
	orders, err := uc.repo.FindAll(ctx, token, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		counts[s] = 0
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts, nil
}

func (uc *OrderUseCase) Detail(ctx context.Context, token, id string) (*dto.OrderDetail, error) {
	order, err := uc.repo.FindByID(ctx, token, id)
	if err != nil {
		return nil, err
	}
	return uc.costs.Detail(*order)
}

// UpdateStatus validates the move against the state machine before anything
// reaches the upstream. Illegal moves fail with an InvalidTransitionError.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, token, id, status string) (*dto.OrderSummary, error) {
	to, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	order, err := uc.repo.FindByID(ctx, token, id)
	if err != nil {
		return nil, err
	}

	if _, err := domain.Transition(order.Status, to); err != nil {
		uc.logger.Info("rejected order status transition",
			zap.String("orderId", id),
			zap.String("from", string(order.Status)),
			zap.String("to", string(to)),
		)
		return nil, err
	}

	updated, err := uc.repo.UpdateStatus(ctx, token, id, to)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("order status updated", zap.String("orderId", id), zap.String("from", string(order.Status)), zap.String("to", string(to)))

	return uc.costs.Summary(*updated)
}

// StartTimer opens a time entry for technicianID on one service of the order.
func (uc *OrderUseCase) StartTimer(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error) {
	return uc.changeTimer(ctx, token, orderID, serviceID, technicianID, func(s *domain.Service, now time.Time) error {
		return s.StartTimer(uc.newID(), technicianID, now)
	})
}

// StopTimer closes the running time entry of technicianID.
func (uc *OrderUseCase) StopTimer(ctx context.Context, token, orderID, serviceID, technicianID string) (*dto.OrderDetail, error) {
	return uc.changeTimer(ctx, token, orderID, serviceID, technicianID, func(s *domain.Service, now time.Time) error {
		return s.StopTimer(technicianID, now)
	})
}

func (uc *OrderUseCase) changeTimer(
	ctx context.Context,
	token, orderID, serviceID, technicianID string,
	change func(s *domain.Service, now time.Time) error,
) (*dto.OrderDetail, error) {
	if technicianID == "" {
		return nil, errors.NewValidationError("technicianId is required", errors.ValidationDetail{
			Field:   "technicianId",
			Message: "technicianId is required",
		})
	}

	order, err := uc.repo.FindByID(ctx, token, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, errors.NewValidationError("order is closed", errors.ValidationDetail{
			Field:   "status",
			Message: "time cannot be tracked on a " + string(order.Status) + " order",
		})
	}

	idx := -1
	for i := range order.Services {
		if order.Services[i].ID == serviceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.NewNotFoundError("service " + serviceID + " not found on order " + orderID)
	}

	if err := change(&order.Services[idx], uc.now()); err != nil {
		return nil, err
	}

	updated, err := uc.repo.UpdateServices(ctx, token, orderID, order.Services)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("time entries updated",
		zap.String("orderId", orderID),
		zap.String("serviceId", serviceID),
		zap.String("technicianId", technicianID),
	)
	return uc.costs.Detail(*updated)
}
