package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

const ClockLayout = "15:04"

// MaxSlotMinutes caps slot and service lengths at one day.
const MaxSlotMinutes = 24 * 60

// WeeklySchedule is the opening template for one weekday. There is at most
// one row per weekday; rows are deactivated, never deleted.
type WeeklySchedule struct {
	gorm.Model
	DayOfWeek    DayOfWeek `json:"day_of_week" gorm:"uniqueIndex;not null"`
	StartTime    string    `json:"start_time" gorm:"not null"` // "HH:MM" 24h
	EndTime      string    `json:"end_time" gorm:"not null"`
	BreakStart   *string   `json:"break_start"`
	BreakEnd     *string   `json:"break_end"`
	SlotDuration int       `json:"slot_duration"` // minutes
	Active       bool      `json:"active"`
}

var ErrInvalidSchedule = errors.New("invalid schedule")

// Window is a template resolved onto a concrete calendar day.
type Window struct {
	Open       time.Time
	Close      time.Time
	BreakStart time.Time
	BreakEnd   time.Time
	HasBreak   bool
}

func (s *WeeklySchedule) HasBreak() bool {
	return s.BreakStart != nil && s.BreakEnd != nil
}

// Validate checks the template invariants: start < end and, when a break is
// configured, start <= breakStart < breakEnd <= end.
func (s *WeeklySchedule) Validate() error {
	if s.DayOfWeek < Sunday || s.DayOfWeek > Saturday {
		return fmt.Errorf("%w: day_of_week must be 0-6, got %d", ErrInvalidSchedule, s.DayOfWeek)
	}
	if s.SlotDuration <= 0 || s.SlotDuration > MaxSlotMinutes {
		return fmt.Errorf("%w: slot_duration must be between 1 and %d minutes", ErrInvalidSchedule, MaxSlotMinutes)
	}
	start, err := parseClock(s.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time: %v", ErrInvalidSchedule, err)
	}
	end, err := parseClock(s.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time: %v", ErrInvalidSchedule, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start_time must be before end_time", ErrInvalidSchedule)
	}

	if (s.BreakStart == nil) != (s.BreakEnd == nil) {
		return fmt.Errorf("%w: break_start and break_end must be set together", ErrInvalidSchedule)
	}
	if !s.HasBreak() {
		return nil
	}
	bs, err := parseClock(*s.BreakStart)
	if err != nil {
		return fmt.Errorf("%w: break_start: %v", ErrInvalidSchedule, err)
	}
	be, err := parseClock(*s.BreakEnd)
	if err != nil {
		return fmt.Errorf("%w: break_end: %v", ErrInvalidSchedule, err)
	}
	if bs < start || bs >= be || be > end {
		return fmt.Errorf("%w: break must satisfy start <= break_start < break_end <= end", ErrInvalidSchedule)
	}
	return nil
}

// WindowOn places the template on the calendar day of `day`, in day's location.
func (s *WeeklySchedule) WindowOn(day time.Time) (Window, error) {
	var w Window
	var err error
	if w.Open, err = clockOn(day, s.StartTime); err != nil {
		return w, err
	}
	if w.Close, err = clockOn(day, s.EndTime); err != nil {
		return w, err
	}
	if !s.HasBreak() {
		return w, nil
	}
	if w.BreakStart, err = clockOn(day, *s.BreakStart); err != nil {
		return w, err
	}
	if w.BreakEnd, err = clockOn(day, *s.BreakEnd); err != nil {
		return w, err
	}
	w.HasBreak = true
	return w, nil
}

// parseClock returns minutes since midnight.
func parseClock(v string) (int, error) {
	t, err := time.Parse(ClockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func clockOn(day time.Time, v string) (time.Time, error) {
	minutes, err := parseClock(v)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location()), nil
}
