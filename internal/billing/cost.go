// Package billing derives labor, materials, order and invoice amounts from
// already-fetched data. Amounts are exact decimals and stay unrounded until
// Round2 is applied once, for display.
package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"autoshop/internal/domain"
	"autoshop/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to two places. Amounts here are never negative, so
// decimal's half-away-from-zero rounding is half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func LaborCost(hours, rate float64) (decimal.Decimal, error) {
	var details []errors.ValidationDetail
	if hours < 0 {
		details = append(details, errors.ValidationDetail{Field: "hours", Message: "hours must be non-negative"})
	}
	if rate < 0 {
		details = append(details, errors.ValidationDetail{Field: "rate", Message: "rate must be non-negative"})
	}
	if len(details) > 0 {
		return decimal.Zero, errors.NewValidationError("invalid labor input", details...)
	}
	return decimal.NewFromFloat(hours).Mul(decimal.NewFromFloat(rate)), nil
}

func MaterialsCost(materials []domain.Material) (decimal.Decimal, error) {
	var details []errors.ValidationDetail
	total := decimal.Zero
	for i, m := range materials {
		if m.Quantity < 0 {
			details = append(details, errors.ValidationDetail{
				Field:   fmt.Sprintf("materials[%d].quantity", i),
				Message: "quantity must be non-negative",
			})
		}
		if m.UnitPrice < 0 {
			details = append(details, errors.ValidationDetail{
				Field:   fmt.Sprintf("materials[%d].unitPrice", i),
				Message: "unitPrice must be non-negative",
			})
		}
		total = total.Add(decimal.NewFromInt(int64(m.Quantity)).Mul(decimal.NewFromFloat(m.UnitPrice)))
	}
	if len(details) > 0 {
		return decimal.Zero, errors.NewValidationError("invalid materials", details...)
	}
	return total, nil
}

func ServiceCost(s domain.Service) (decimal.Decimal, error) {
	labor, err := LaborCost(s.Hours, s.Rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service %s labor: %w", s.ID, err)
	}
	materials, err := MaterialsCost(s.Materials)
	if err != nil {
		return decimal.Zero, fmt.Errorf("service %s materials: %w", s.ID, err)
	}
	return labor.Add(materials), nil
}

func OrderTotalHours(o domain.Order) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, s := range o.Services {
		if s.Hours < 0 {
			return decimal.Zero, errors.NewValidationError("invalid service hours", errors.ValidationDetail{
				Field:   fmt.Sprintf("services[%d].hours", i),
				Message: "hours must be non-negative",
			})
		}
		total = total.Add(decimal.NewFromFloat(s.Hours))
	}
	return total, nil
}

func OrderTotalCost(o domain.Order) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range o.Services {
		cost, err := ServiceCost(s)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(cost)
	}
	return total, nil
}

// TrackedHours sums the time entries of a service. Running entries count up
// to now.
func TrackedHours(entries []domain.TimeEntry, now time.Time) (decimal.Decimal, error) {
	if err := domain.ValidateTimeEntries(entries); err != nil {
		return decimal.Zero, err
	}
	var elapsed time.Duration
	for _, e := range entries {
		end := now
		if !e.Running() {
			end = *e.EndTime
		}
		if end.After(e.StartTime) {
			elapsed += end.Sub(e.StartTime)
		}
	}
	return decimal.NewFromInt(int64(elapsed)).Div(decimal.NewFromInt(int64(time.Hour))), nil
}
