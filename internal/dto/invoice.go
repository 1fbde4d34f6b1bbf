package dto

import (
	"time"

	"autoshop/internal/domain"
)

type InvoiceTotals struct {
	Subtotal  string `json:"subtotal"`
	TaxAmount string `json:"taxAmount"`
	Total     string `json:"total"`
}

// InvoiceView shows the server's figures next to the local recomputation.
type InvoiceView struct {
	ID            string               `json:"id"`
	InvoiceNumber string               `json:"invoiceNumber"`
	OrderID       string               `json:"orderId,omitempty"`
	Status        domain.InvoiceStatus `json:"status"`
	Badge         domain.Tone          `json:"badge"`
	DueDate       *time.Time           `json:"dueDate,omitempty"`
	Items         []domain.InvoiceItem `json:"items"`
	TaxRate       string               `json:"taxRate"`
	Reported      InvoiceTotals        `json:"reported"`
	Computed      InvoiceTotals        `json:"computed"`
	Consistent    bool                 `json:"consistent"`
	Discrepancies []string             `json:"discrepancies,omitempty"`
}
