package page

import (
	"context"

	"github.com/shopspring/decimal"

	"autoshop/internal/billing"
	"autoshop/internal/domain"
	"autoshop/internal/dto"
)

func fixed(v float64) string {
	return billing.Round2(decimal.NewFromFloat(v)).StringFixed(2)
}

// InvoiceView recomputes an invoice and reports where the server's figures
// disagree. The server values stay authoritative.
func InvoiceView(inv domain.Invoice) dto.InvoiceView {
	view := dto.InvoiceView{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		OrderID:       inv.OrderID,
		Status:        inv.Status,
		Badge:         inv.Status.Badge(),
		DueDate:       inv.DueDate,
		Items:         inv.Items,
		TaxRate:       decimal.NewFromFloat(inv.TaxRate).String(),
		Reported: dto.InvoiceTotals{
			Subtotal:  fixed(inv.Subtotal),
			TaxAmount: fixed(inv.TaxAmount),
			Total:     fixed(inv.Total),
		},
	}
	if view.Items == nil {
		view.Items = []domain.InvoiceItem{}
	}

	totals, discrepancies, err := billing.CheckInvoice(inv)
	if err != nil {
		view.Discrepancies = []string{err.Error()}
		return view
	}
	view.Computed = dto.InvoiceTotals{
		Subtotal:  totals.Subtotal.StringFixed(2),
		TaxAmount: totals.TaxAmount.StringFixed(2),
		Total:     totals.Total.StringFixed(2),
	}
	view.Consistent = len(discrepancies) == 0
	for _, d := range discrepancies {
		view.Discrepancies = append(view.Discrepancies, d.String())
	}
	return view
}

type invoiceListData struct {
	Items        []dto.InvoiceView `json:"items"`
	Inconsistent int               `json:"inconsistent"`
}

func (h *Handler) loadInvoices(ctx context.Context, req request) (interface{}, error) {
	invoices, err := h.resources.Invoices.GetAll(ctx, req.token, req.query)
	if err != nil {
		return nil, err
	}
	data := invoiceListData{Items: make([]dto.InvoiceView, 0, len(invoices))}
	for _, inv := range invoices {
		view := InvoiceView(inv)
		if !view.Consistent {
			data.Inconsistent++
		}
		data.Items = append(data.Items, view)
	}
	return data, nil
}

type reportData struct {
	OrdersByStatus map[domain.OrderStatus]int      `json:"ordersByStatus"`
	InvoiceTotals  map[domain.InvoiceStatus]string `json:"invoiceTotals"`
	InvoiceCounts  map[domain.InvoiceStatus]int    `json:"invoiceCounts"`
	Revenue        string                          `json:"revenue"`
	Outstanding    string                          `json:"outstanding"`
}

// loadReports sums the reported invoice totals per status. Revenue is what
// has been paid, outstanding is pending plus overdue.
func (h *Handler) loadReports(ctx context.Context, req request) (interface{}, error) {
	counts, err := h.orders.CountByStatus(ctx, req.token)
	if err != nil {
		return nil, err
	}
	invoices, err := h.resources.Invoices.GetAll(ctx, req.token, nil)
	if err != nil {
		return nil, err
	}

	sums := map[domain.InvoiceStatus]decimal.Decimal{
		domain.InvoiceStatusPending: decimal.Zero,
		domain.InvoiceStatusPaid:    decimal.Zero,
		domain.InvoiceStatusOverdue: decimal.Zero,
	}
	invoiceCounts := make(map[domain.InvoiceStatus]int, len(sums))
	for status := range sums {
		invoiceCounts[status] = 0
	}
	for _, inv := range invoices {
		sums[inv.Status] = sums[inv.Status].Add(decimal.NewFromFloat(inv.Total))
		invoiceCounts[inv.Status]++
	}

	totals := make(map[domain.InvoiceStatus]string, len(sums))
	for status, sum := range sums {
		totals[status] = billing.Round2(sum).StringFixed(2)
	}
	outstanding := sums[domain.InvoiceStatusPending].Add(sums[domain.InvoiceStatusOverdue])

	return reportData{
		OrdersByStatus: counts,
		InvoiceTotals:  totals,
		InvoiceCounts:  invoiceCounts,
		Revenue:        billing.Round2(sums[domain.InvoiceStatusPaid]).StringFixed(2),
		Outstanding:    billing.Round2(outstanding).StringFixed(2),
	}, nil
}
