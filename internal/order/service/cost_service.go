package service

import (
	"time"

	"github.com/shopspring/decimal"

	"autoshop/internal/billing"
	"autoshop/internal/domain"
	"autoshop/internal/dto"
)

// CostService turns fetched orders into display views with derived costs.
// Money is rounded once, when it is formatted.
type CostService struct {
	taxRate float64
	now     func() time.Time
}

func NewCostService(taxRate float64) *CostService {
	return &CostService{taxRate: taxRate, now: time.Now}
}

func money(d decimal.Decimal) string {
	return billing.Round2(d).StringFixed(2)
}

func progress(status domain.OrderStatus) *int {
	idx, ok := status.ProgressIndex()
	if !ok {
		return nil
	}
	return &idx
}

func (s *CostService) Summary(order domain.Order) (*dto.OrderSummary, error) {
	total, err := billing.OrderTotalCost(order)
	if err != nil {
		return nil, err
	}
	return &dto.OrderSummary{
		ID:            order.ID,
		Customer:      order.Customer,
		Vehicle:       order.Vehicle,
		Status:        order.Status,
		Badge:         order.Status.Badge(),
		ProgressIndex: progress(order.Status),
		TotalCost:     money(total),
		CreatedAt:     order.CreatedAt,
	}, nil
}

func (s *CostService) Detail(order domain.Order) (*dto.OrderDetail, error) {
	summary, err := s.Summary(order)
	if err != nil {
		return nil, err
	}

	now := s.now()
	services := make([]dto.ServiceCost, 0, len(order.Services))
	for _, svc := range order.Services {
		view, err := s.serviceCost(svc, now)
		if err != nil {
			return nil, err
		}
		services = append(services, view)
	}

	hours, err := billing.OrderTotalHours(order)
	if err != nil {
		return nil, err
	}

	lines, err := billing.OrderInvoiceLines(order)
	if err != nil {
		return nil, err
	}
	totals, err := billing.LineTotals(lines, s.taxRate)
	if err != nil {
		return nil, err
	}

	next := order.Status.Next()
	if next == nil {
		next = []domain.OrderStatus{}
	}

	return &dto.OrderDetail{
		OrderSummary:  *summary,
		ProgressSteps: domain.ProgressSteps,
		Terminal:      order.Status.IsTerminal(),
		NextStatuses:  next,
		Services:      services,
		TotalHours:    hours.StringFixed(2),
		InvoicePreview: dto.InvoicePreview{
			Subtotal:  totals.Subtotal.StringFixed(2),
			TaxRate:   totals.TaxRate.String(),
			TaxAmount: totals.TaxAmount.StringFixed(2),
			Total:     totals.Total.StringFixed(2),
		},
	}, nil
}

func (s *CostService) serviceCost(svc domain.Service, now time.Time) (dto.ServiceCost, error) {
	labor, err := billing.LaborCost(svc.Hours, svc.Rate)
	if err != nil {
		return dto.ServiceCost{}, err
	}
	materials, err := billing.MaterialsCost(svc.Materials)
	if err != nil {
		return dto.ServiceCost{}, err
	}
	tracked, err := billing.TrackedHours(svc.TimeEntries, now)
	if err != nil {
		return dto.ServiceCost{}, err
	}

	running := false
	for _, e := range svc.TimeEntries {
		if e.Running() {
			running = true
			break
		}
	}

	return dto.ServiceCost{
		ID:            svc.ID,
		Name:          svc.Name,
		Hours:         decimal.NewFromFloat(svc.Hours).StringFixed(2),
		Rate:          money(decimal.NewFromFloat(svc.Rate)),
		LaborCost:     money(labor),
		MaterialsCost: money(materials),
		TotalCost:     money(labor.Add(materials)),
		TrackedHours:  tracked.StringFixed(2),
		TimerRunning:  running,
		Materials:     nonNilMaterials(svc.Materials),
		TimeEntries:   nonNilEntries(svc.TimeEntries),
	}, nil
}

func nonNilMaterials(m []domain.Material) []domain.Material {
	if m == nil {
		return []domain.Material{}
	}
	return m
}

func nonNilEntries(e []domain.TimeEntry) []domain.TimeEntry {
	if e == nil {
		return []domain.TimeEntry{}
	}
	return e
}
