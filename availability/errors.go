package availability

import "errors"

var (
	// ErrConflict means another PENDING or CONFIRMED appointment already
	// holds part of the requested interval.
	ErrConflict = errors.New("time slot no longer available")

	ErrInvalidRange        = errors.New("invalid availability range")
	ErrOutsideSchedule     = errors.New("appointment is outside opening hours or during break")
	ErrAppointmentNotFound = errors.New("appointment not found")
)
