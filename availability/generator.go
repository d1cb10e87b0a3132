package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/meinhoongagan/spa-booking/metrics"
	"github.com/meinhoongagan/spa-booking/models"
)

// Slot is a computed candidate window. It is never stored; availability is
// advisory until the Guard accepts a booking.
type Slot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// Generator turns the weekly template, blocked dates and booked intervals
// into bookable slots. All wall-clock values are read in loc.
type Generator struct {
	store Store
	loc   *time.Location
}

func NewGenerator(store Store, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.Local
	}
	return &Generator{store: store, loc: loc}
}

// GenerateSlots returns the slots of daysAhead calendar days starting at the
// day of rangeStart, in chronological order. overrideDuration replaces the
// template slot length when positive. Missing templates, inactive weekdays and
// blocked dates yield no slots rather than an error.
func (g *Generator) GenerateSlots(ctx context.Context, rangeStart time.Time, daysAhead, overrideDuration int) ([]Slot, error) {
	if daysAhead < 1 {
		return nil, fmt.Errorf("%w: daysAhead must be at least 1, got %d", ErrInvalidRange, daysAhead)
	}
	if overrideDuration < 0 || overrideDuration > models.MaxSlotMinutes {
		return nil, fmt.Errorf("%w: slot duration must be between 0 and %d minutes, got %d",
			ErrInvalidRange, models.MaxSlotMinutes, overrideDuration)
	}
	defer metrics.ObserveSlotGeneration(time.Now())

	slots := []Slot{}

	templates, err := g.templatesByDay(ctx)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return slots, nil
	}

	first := g.midnight(rangeStart)
	last := first.AddDate(0, 0, daysAhead)

	blocked, err := g.blockedSet(ctx, first, last)
	if err != nil {
		return nil, err
	}

	// one read for the whole range; occupancy is then tested in memory
	booked, err := g.store.ActiveAppointments(ctx, first, last)
	if err != nil {
		return nil, err
	}

	for d := 0; d < daysAhead; d++ {
		day := first.AddDate(0, 0, d)
		tpl, ok := templates[models.DayOfWeek(day.Weekday())]
		if !ok {
			continue
		}
		if blocked[day.Format(models.DateLayout)] {
			continue
		}

		duration := tpl.SlotDuration
		if overrideDuration > 0 {
			duration = overrideDuration
		}
		if duration <= 0 || duration > models.MaxSlotMinutes {
			return nil, fmt.Errorf("%w: %s template has slot duration %d", models.ErrInvalidSchedule, day.Weekday(), duration)
		}

		got, err := daySlots(tpl, day, time.Duration(duration)*time.Minute, booked)
		if err != nil {
			return nil, err
		}
		slots = append(slots, got...)
	}

	return slots, nil
}

func daySlots(tpl models.WeeklySchedule, day time.Time, step time.Duration, booked []models.Appointment) ([]Slot, error) {
	if step <= 0 || step > models.MaxSlotMinutes*time.Minute {
		return nil, fmt.Errorf("%w: slot step %s on %s", ErrInvalidRange, step, day.Weekday())
	}
	w, err := tpl.WindowOn(day)
	if err != nil {
		return nil, fmt.Errorf("schedule for %s: %w", day.Weekday(), err)
	}

	var slots []Slot
	cursor := w.Open
	for !cursor.Add(step).After(w.Close) {
		end := cursor.Add(step)

		// a slot must clear the break entirely; the grid restarts at breakEnd
		if w.HasBreak && IntervalsOverlap(cursor, end, w.BreakStart, w.BreakEnd) {
			cursor = w.BreakEnd
			continue
		}

		slots = append(slots, Slot{
			Start:     cursor,
			End:       end,
			Available: !occupied(booked, cursor, end),
		})
		cursor = end
	}
	return slots, nil
}

func occupied(booked []models.Appointment, start, end time.Time) bool {
	for i := range booked {
		if booked[i].Blocks() && IntervalsOverlap(booked[i].ScheduledAt, booked[i].EndAt, start, end) {
			return true
		}
	}
	return false
}

// WithinSchedule checks that [start, start+duration) fits inside an active,
// unblocked opening window and does not touch the break.
func (g *Generator) WithinSchedule(ctx context.Context, start time.Time, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidRange)
	}
	templates, err := g.templatesByDay(ctx)
	if err != nil {
		return err
	}

	local := start.In(g.loc)
	day := g.midnight(local)
	tpl, ok := templates[models.DayOfWeek(day.Weekday())]
	if !ok {
		return ErrOutsideSchedule
	}

	blocked, err := g.blockedSet(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	if blocked[day.Format(models.DateLayout)] {
		return ErrOutsideSchedule
	}

	w, err := tpl.WindowOn(day)
	if err != nil {
		return fmt.Errorf("schedule for %s: %w", day.Weekday(), err)
	}
	end := local.Add(duration)
	if local.Before(w.Open) || end.After(w.Close) {
		return ErrOutsideSchedule
	}
	if w.HasBreak && IntervalsOverlap(local, end, w.BreakStart, w.BreakEnd) {
		return ErrOutsideSchedule
	}
	return nil
}

func (g *Generator) templatesByDay(ctx context.Context) (map[models.DayOfWeek]models.WeeklySchedule, error) {
	schedules, err := g.store.ActiveSchedules(ctx)
	if err != nil {
		return nil, err
	}
	byDay := make(map[models.DayOfWeek]models.WeeklySchedule, len(schedules))
	for _, s := range schedules {
		if s.Active {
			byDay[s.DayOfWeek] = s
		}
	}
	return byDay, nil
}

func (g *Generator) blockedSet(ctx context.Context, from, to time.Time) (map[string]bool, error) {
	blocked, err := g.store.BlockedDates(ctx, from, to)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(blocked))
	for i := range blocked {
		set[blocked[i].Key(g.loc)] = true
	}
	return set, nil
}

func (g *Generator) midnight(t time.Time) time.Time {
	local := t.In(g.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, g.loc)
}
