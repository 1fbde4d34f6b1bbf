package domain

import (
	"fmt"
	"time"

	"autoshop/internal/errors"
)

type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "pending"
	OrderStatusInProgress   OrderStatus = "in_progress"
	OrderStatusQualityCheck OrderStatus = "quality_check"
	OrderStatusCompleted    OrderStatus = "completed"
	OrderStatusCancelled    OrderStatus = "cancelled"
)

// OrderStatuses lists the states in display order; cancelled goes last.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusQualityCheck,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusQualityCheck, OrderStatusCompleted, OrderStatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", errors.NewValidationError(fmt.Sprintf("unknown order status: %s", s), errors.ValidationDetail{
			Field:   "status",
			Message: "must be one of pending, in_progress, quality_check, completed, cancelled",
		})
	}
}

var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:      {OrderStatusInProgress: true, OrderStatusCancelled: true},
	OrderStatusInProgress:   {OrderStatusQualityCheck: true, OrderStatusCancelled: true},
	OrderStatusQualityCheck: {OrderStatusCompleted: true, OrderStatusCancelled: true},
	OrderStatusCompleted:    {},
	OrderStatusCancelled:    {},
}

func CanTransition(from, to OrderStatus) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Transition validates a status change. It never clamps: an illegal move
// returns an InvalidTransitionError and the original status is unchanged.
func Transition(from, to OrderStatus) (OrderStatus, error) {
	if !CanTransition(from, to) {
		return from, errors.NewInvalidTransitionError(string(from), string(to))
	}
	return to, nil
}

// Next lists the statuses s may move to, in display order.
func (s OrderStatus) Next() []OrderStatus {
	var out []OrderStatus
	for _, to := range OrderStatuses {
		if CanTransition(s, to) {
			out = append(out, to)
		}
	}
	return out
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ProgressIndex maps a status onto the four-step progress bar. Cancelled
// orders have no position.
func (s OrderStatus) ProgressIndex() (int, bool) {
	switch s {
	case OrderStatusPending:
		return 0, true
	case OrderStatusInProgress:
		return 1, true
	case OrderStatusQualityCheck:
		return 2, true
	case OrderStatusCompleted:
		return 3, true
	default:
		return 0, false
	}
}

// ProgressSteps is the number of positions on the progress bar.
const ProgressSteps = 4

type Tone int

const (
	ToneNeutral Tone = iota
	ToneInfo
	ToneWarning
	ToneSuccess
	ToneDanger
)

func (t Tone) String() string {
	switch t {
	case ToneNeutral:
		return "neutral"
	case ToneInfo:
		return "info"
	case ToneWarning:
		return "warning"
	case ToneSuccess:
		return "success"
	case ToneDanger:
		return "danger"
	}
	return fmt.Sprintf("Tone(%d)", int(t))
}

func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tone) UnmarshalText(text []byte) error {
	for _, candidate := range []Tone{ToneNeutral, ToneInfo, ToneWarning, ToneSuccess, ToneDanger} {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown tone %q", text)
}

func (s OrderStatus) Badge() Tone {
	switch s {
	case OrderStatusPending:
		return ToneNeutral
	case OrderStatusInProgress:
		return ToneInfo
	case OrderStatusQualityCheck:
		return ToneWarning
	case OrderStatusCompleted:
		return ToneSuccess
	case OrderStatusCancelled:
		return ToneDanger
	}
	return ToneNeutral
}

type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Order struct {
	ID        string      `json:"id"`
	Customer  Ref         `json:"customer"`
	Vehicle   Ref         `json:"vehicle"`
	Services  []Service   `json:"services"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
}
