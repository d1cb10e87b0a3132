package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// BlockingStatuses are the statuses that hold their interval on the calendar.
var BlockingStatuses = []AppointmentStatus{StatusPending, StatusConfirmed}

var ErrInvalidTransition = errors.New("invalid status transition")

type Appointment struct {
	gorm.Model
	UserID      uint              `json:"user_id" gorm:"index;not null"`
	User        User              `json:"user,omitempty" gorm:"foreignKey:UserID"`
	ServiceID   uint              `json:"service_id" gorm:"not null"`
	Service     Service           `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	ScheduledAt time.Time         `json:"scheduled_at" gorm:"index:idx_appointments_interval;not null"`
	EndAt       time.Time         `json:"end_at" gorm:"index:idx_appointments_interval;not null"`
	Status      AppointmentStatus `json:"status" gorm:"index;not null"`
	Type        AppointmentType   `json:"type"`
	Price       float64           `json:"price"`
	Location    string            `json:"location"`
	Notes       string            `json:"notes"`
}

func (a *Appointment) BeforeSave(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.Type == "" {
		a.Type = TypeFirst
	}
	a.ScheduledAt = a.ScheduledAt.UTC()
	a.EndAt = a.EndAt.UTC()
	return nil
}

// Blocks reports whether the appointment still occupies its interval.
func (a *Appointment) Blocks() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// CanTransition validates the status lifecycle:
// PENDING -> CONFIRMED|CANCELLED, CONFIRMED -> COMPLETED|CANCELLED.
func (a *Appointment) CanTransition(newStatus AppointmentStatus) error {
	switch a.Status {
	case StatusPending:
		if newStatus != StatusConfirmed && newStatus != StatusCancelled {
			return fmt.Errorf("%w: from PENDING to %s", ErrInvalidTransition, newStatus)
		}
	case StatusConfirmed:
		if newStatus != StatusCompleted && newStatus != StatusCancelled {
			return fmt.Errorf("%w: from CONFIRMED to %s", ErrInvalidTransition, newStatus)
		}
	case StatusCompleted, StatusCancelled:
		return fmt.Errorf("%w: no transitions allowed from %s", ErrInvalidTransition, a.Status)
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, a.Status)
	}
	return nil
}

// UpdateStatus moves the stored row from a.Status to newStatus. The write only
// applies while the row still carries a.Status, so a stale copy cannot revive
// an appointment that was cancelled or completed in the meantime.
func (a *Appointment) UpdateStatus(tx *gorm.DB, newStatus AppointmentStatus) error {
	if err := a.CanTransition(newStatus); err != nil {
		return err
	}
	result := tx.Model(a).Where("status = ?", a.Status).Update("status", newStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: appointment %d is no longer %s", ErrInvalidTransition, a.ID, a.Status)
	}
	a.Status = newStatus
	return nil
}
