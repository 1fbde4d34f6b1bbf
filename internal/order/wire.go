package order

import (
	"go.uber.org/zap"

	"autoshop/internal/order/controller"
	orderrepo "autoshop/internal/order/repository"
	"autoshop/internal/order/service"
	"autoshop/internal/order/usecase"
)

type Module struct {
	Controller *controller.OrderController
	UseCase    *usecase.OrderUseCase
}

func NewModule(orders orderrepo.OrderAPI, taxRate float64, logger *zap.Logger) *Module {
	repo := orderrepo.NewUpstreamOrderRepository(orders)
	costs := service.NewCostService(taxRate)
	uc := usecase.NewOrderUseCase(repo, costs, logger)
	return &Module{
		Controller: controller.NewOrderController(uc, logger),
		UseCase:    uc,
	}
}
