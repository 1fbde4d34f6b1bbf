package domain

import (
	"fmt"
	"time"

	"autoshop/internal/errors"
)

type Material struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type TimeEntry struct {
	ID           string     `json:"id"`
	TechnicianID string     `json:"technicianId"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
}

func (e TimeEntry) Running() bool {
	return e.EndTime == nil
}

// Service is a billable unit of labor within an order.
type Service struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Hours       float64     `json:"hours"`
	Rate        float64     `json:"rate"`
	Materials   []Material  `json:"materials"`
	TimeEntries []TimeEntry `json:"timeEntries"`
}

func (s *Service) RunningEntry(technicianID string) (*TimeEntry, bool) {
	for i := range s.TimeEntries {
		e := &s.TimeEntries[i]
		if e.TechnicianID == technicianID && e.Running() {
			return e, true
		}
	}
	return nil, false
}

// StartTimer appends a running entry for the technician. At most one running
// entry per technician is allowed on a service.
func (s *Service) StartTimer(id, technicianID string, now time.Time) error {
	if _, ok := s.RunningEntry(technicianID); ok {
		return errors.NewValidationError("timer already running", errors.ValidationDetail{
			Field:   "technicianId",
			Message: fmt.Sprintf("technician %s already has a running timer on service %s", technicianID, s.ID),
		})
	}
	s.TimeEntries = append(s.TimeEntries, TimeEntry{
		ID:           id,
		TechnicianID: technicianID,
		StartTime:    now,
	})
	return nil
}

func (s *Service) StopTimer(technicianID string, now time.Time) error {
	e, ok := s.RunningEntry(technicianID)
	if !ok {
		return errors.NewNotFoundError(fmt.Sprintf("no running timer for technician %s", technicianID))
	}
	if now.Before(e.StartTime) {
		return errors.NewValidationError("timer cannot end before it starts", errors.ValidationDetail{
			Field:   "endTime",
			Message: "must not be before startTime",
		})
	}
	end := now
	e.EndTime = &end
	return nil
}

// ValidateTimeEntries reports technicians holding more than one running
// entry and entries that end before they start.
func ValidateTimeEntries(entries []TimeEntry) error {
	var details []errors.ValidationDetail
	running := make(map[string]int)
	for i, e := range entries {
		if e.Running() {
			running[e.TechnicianID]++
			if running[e.TechnicianID] == 2 {
				details = append(details, errors.ValidationDetail{
					Field:   fmt.Sprintf("timeEntries[%d]", i),
					Message: fmt.Sprintf("technician %s has more than one running timer", e.TechnicianID),
				})
			}
			continue
		}
		if e.EndTime.Before(e.StartTime) {
			details = append(details, errors.ValidationDetail{
				Field:   fmt.Sprintf("timeEntries[%d].endTime", i),
				Message: "must not be before startTime",
			})
		}
	}
	if len(details) > 0 {
		return errors.NewValidationError("invalid time entries", details...)
	}
	return nil
}

