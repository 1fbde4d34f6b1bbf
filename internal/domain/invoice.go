package domain

import "time"

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

func (s InvoiceStatus) Badge() Tone {
	switch s {
	case InvoiceStatusPaid:
		return ToneSuccess
	case InvoiceStatusOverdue:
		return ToneDanger
	default:
		return ToneWarning
	}
}

type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Amount      float64 `json:"amount"`
}

// Invoice money fields are the server-authoritative values; they are
// recomputed locally only to check display consistency.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	OrderID       string        `json:"orderId,omitempty"`
	Items         []InvoiceItem `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	TaxRate       float64       `json:"taxRate"`
	TaxAmount     float64       `json:"taxAmount"`
	Total         float64       `json:"total"`
	Status        InvoiceStatus `json:"status"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
}
