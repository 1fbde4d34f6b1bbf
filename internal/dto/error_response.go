package dto

import "time"

type ErrorResponse struct {
	TraceID   string      `json:"traceId"`
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	Code      string      `json:"code"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
