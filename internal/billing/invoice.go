package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"autoshop/internal/domain"
	"autoshop/internal/errors"
)

func InvoiceSubtotal(items []domain.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Amount))
	}
	return total
}

func taxAmount(subtotal decimal.Decimal, taxRatePercent float64) decimal.Decimal {
	return subtotal.Mul(decimal.NewFromFloat(taxRatePercent)).Div(hundred)
}

// InvoiceTaxAmount is the display value of the tax on subtotal.
func InvoiceTaxAmount(subtotal decimal.Decimal, taxRatePercent float64) decimal.Decimal {
	return Round2(taxAmount(subtotal, taxRatePercent))
}

// Totals holds display values. Each one is rounded exactly once from the
// unrounded computation, so Total is round(subtotal + tax), not the sum of
// the rounded parts.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	TaxAmount decimal.Decimal `json:"taxAmount"`
	Total     decimal.Decimal `json:"total"`
}

func ComputeInvoiceTotals(items []domain.InvoiceItem, taxRatePercent float64) (Totals, error) {
	if err := validateTaxRate(taxRatePercent); err != nil {
		return Totals{}, err
	}
	return totalsFromSubtotal(InvoiceSubtotal(items), taxRatePercent), nil
}

// LineTotals is ComputeInvoiceTotals for lines priced locally.
func LineTotals(lines []Line, taxRatePercent float64) (Totals, error) {
	if err := validateTaxRate(taxRatePercent); err != nil {
		return Totals{}, err
	}
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Amount)
	}
	return totalsFromSubtotal(subtotal, taxRatePercent), nil
}

func validateTaxRate(taxRatePercent float64) error {
	if taxRatePercent < 0 {
		return errors.NewValidationError("invalid tax rate", errors.ValidationDetail{
			Field:   "taxRate",
			Message: "taxRate must be non-negative",
		})
	}
	return nil
}

func totalsFromSubtotal(subtotal decimal.Decimal, taxRatePercent float64) Totals {
	tax := taxAmount(subtotal, taxRatePercent)
	return Totals{
		Subtotal:  Round2(subtotal),
		TaxRate:   decimal.NewFromFloat(taxRatePercent),
		TaxAmount: Round2(tax),
		Total:     Round2(subtotal.Add(tax)),
	}
}

// Discrepancy is a display value the server reported that differs from the
// local recomputation.
type Discrepancy struct {
	Field    string          `json:"field"`
	Expected decimal.Decimal `json:"expected"`
	Actual   decimal.Decimal `json:"actual"`
}

func (d Discrepancy) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", d.Field, d.Expected.StringFixed(2), d.Actual.StringFixed(2))
}

// CheckInvoice recomputes the invoice locally and lists every money field
// whose rounded server value disagrees.
func CheckInvoice(inv domain.Invoice) (Totals, []Discrepancy, error) {
	totals, err := ComputeInvoiceTotals(inv.Items, inv.TaxRate)
	if err != nil {
		return Totals{}, nil, err
	}

	fields := []struct {
		name     string
		expected decimal.Decimal
		actual   float64
	}{
		{"subtotal", totals.Subtotal, inv.Subtotal},
		{"taxAmount", totals.TaxAmount, inv.TaxAmount},
		{"total", totals.Total, inv.Total},
	}

	var out []Discrepancy
	for _, f := range fields {
		actual := Round2(decimal.NewFromFloat(f.actual))
		if !actual.Equal(f.expected) {
			out = append(out, Discrepancy{Field: f.name, Expected: f.expected, Actual: actual})
		}
	}
	return totals, out, nil
}

// Line is an invoice line priced from an order. Amounts stay exact until
// totals are rounded.
type Line struct {
	Description string
	Amount      decimal.Decimal
}

// OrderInvoiceLines turns each service of an order into an invoice line
// priced at its full cost.
func OrderInvoiceLines(o domain.Order) ([]Line, error) {
	lines := make([]Line, 0, len(o.Services))
	for _, s := range o.Services {
		cost, err := ServiceCost(s)
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{Description: s.Name, Amount: cost})
	}
	return lines, nil
}
