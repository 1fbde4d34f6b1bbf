package dto

import (
	"time"

	"autoshop/internal/domain"
)

type OrderSummary struct {
	ID            string             `json:"id"`
	Customer      domain.Ref         `json:"customer"`
	Vehicle       domain.Ref         `json:"vehicle"`
	Status        domain.OrderStatus `json:"status"`
	Badge         domain.Tone        `json:"badge"`
	ProgressIndex *int               `json:"progressIndex"`
	TotalCost     string             `json:"totalCost"`
	CreatedAt     time.Time          `json:"createdAt"`
	// CostError is set, and TotalCost left empty, when the order's cost
	// data cannot be priced.
	CostError string `json:"costError,omitempty"`
}

type ServiceCost struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Hours         string             `json:"hours"`
	Rate          string             `json:"rate"`
	LaborCost     string             `json:"laborCost"`
	MaterialsCost string             `json:"materialsCost"`
	TotalCost     string             `json:"totalCost"`
	TrackedHours  string             `json:"trackedHours"`
	TimerRunning  bool               `json:"timerRunning"`
	Materials     []domain.Material  `json:"materials"`
	TimeEntries   []domain.TimeEntry `json:"timeEntries"`
}

type InvoicePreview struct {
	Subtotal  string `json:"subtotal"`
	TaxRate   string `json:"taxRate"`
	TaxAmount string `json:"taxAmount"`
	Total     string `json:"total"`
}

type OrderDetail struct {
	OrderSummary
	ProgressSteps  int                  `json:"progressSteps"`
	Terminal       bool                 `json:"terminal"`
	NextStatuses   []domain.OrderStatus `json:"nextStatuses"`
	Services       []ServiceCost        `json:"services"`
	TotalHours     string               `json:"totalHours"`
	InvoicePreview InvoicePreview       `json:"invoicePreview"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderResponse struct {
	TraceID   string       `json:"traceId"`
	Order     OrderSummary `json:"order"`
	Timestamp time.Time    `json:"timestamp"`
}

type TimerRequest struct {
	TechnicianID string `json:"technicianId"`
}
