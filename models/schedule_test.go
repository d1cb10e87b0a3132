package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestWeeklyScheduleValidate(t *testing.T) {
	tests := []struct {
		name     string
		schedule WeeklySchedule
		wantErr  bool
	}{
		{
			name:     "valid without break",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "08:00", EndTime: "18:00", SlotDuration: 60},
		},
		{
			name: "valid with break",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "08:00", EndTime: "18:00",
				BreakStart: strPtr("12:00"), BreakEnd: strPtr("13:00"), SlotDuration: 60},
		},
		{
			name: "break touching the edges",
			schedule: WeeklySchedule{DayOfWeek: Friday, StartTime: "08:00", EndTime: "12:00",
				BreakStart: strPtr("08:00"), BreakEnd: strPtr("12:00"), SlotDuration: 30},
		},
		{
			name:     "weekday out of range",
			schedule: WeeklySchedule{DayOfWeek: 7, StartTime: "08:00", EndTime: "18:00", SlotDuration: 60},
			wantErr:  true,
		},
		{
			name:     "zero slot duration",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "08:00", EndTime: "18:00"},
			wantErr:  true,
		},
		{
			name:     "slot longer than a day",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "08:00", EndTime: "18:00", SlotDuration: 1 << 53},
			wantErr:  true,
		},
		{
			name:     "start after end",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "18:00", EndTime: "08:00", SlotDuration: 60},
			wantErr:  true,
		},
		{
			name:     "malformed time",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "8h", EndTime: "18:00", SlotDuration: 60},
			wantErr:  true,
		},
		{
			name: "only break start",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "08:00", EndTime: "18:00",
				BreakStart: strPtr("12:00"), SlotDuration: 60},
			wantErr: true,
		},
		{
			name: "break outside opening hours",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "08:00", EndTime: "18:00",
				BreakStart: strPtr("17:30"), BreakEnd: strPtr("18:30"), SlotDuration: 60},
			wantErr: true,
		},
		{
			name: "empty break",
			schedule: WeeklySchedule{DayOfWeek: Monday, StartTime: "08:00", EndTime: "18:00",
				BreakStart: strPtr("12:00"), BreakEnd: strPtr("12:00"), SlotDuration: 60},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidSchedule), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWeeklyScheduleWindowOn(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)

	s := WeeklySchedule{StartTime: "08:00", EndTime: "18:00", BreakStart: strPtr("12:00"), BreakEnd: strPtr("13:30")}
	w, err := s.WindowOn(day)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, loc), w.Open)
	assert.Equal(t, time.Date(2025, 3, 10, 18, 0, 0, 0, loc), w.Close)
	assert.True(t, w.HasBreak)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, loc), w.BreakStart)
	assert.Equal(t, time.Date(2025, 3, 10, 13, 30, 0, 0, loc), w.BreakEnd)
}
