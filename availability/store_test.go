package availability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return database
}

func seedAppointment(t *testing.T, database *gorm.DB, start time.Time, minutes int, status models.AppointmentStatus) models.Appointment {
	t.Helper()
	a := models.Appointment{
		UserID:      1,
		ServiceID:   1,
		ScheduledAt: start,
		EndAt:       start.Add(time.Duration(minutes) * time.Minute),
		Status:      status,
	}
	require.NoError(t, database.Create(&a).Error)
	return a
}

func TestGormStoreActiveSchedules(t *testing.T) {
	database := newTestDB(t)
	store := NewGormStore(database)

	active := mondayTemplate(true, 60)
	inactive := mondayTemplate(false, 30)
	inactive.DayOfWeek = models.Sunday
	inactive.Active = false
	require.NoError(t, database.Create(&active).Error)
	require.NoError(t, database.Create(&inactive).Error)

	schedules, err := store.ActiveSchedules(context.Background())
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, models.Monday, schedules[0].DayOfWeek)
	require.NotNil(t, schedules[0].BreakStart)
	assert.Equal(t, "12:00", *schedules[0].BreakStart)
}

func TestGormStoreBlockedDates(t *testing.T) {
	database := newTestDB(t)
	store := NewGormStore(database)

	for _, d := range []time.Time{monday, monday.AddDate(0, 0, 3), monday.AddDate(0, 0, 10)} {
		require.NoError(t, database.Create(&models.BlockedDate{Date: d}).Error)
	}

	blocked, err := store.BlockedDates(context.Background(), monday, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, blocked, 2)
	assert.Equal(t, "2025-03-03", blocked[0].Key(brt))
	assert.Equal(t, "2025-03-06", blocked[1].Key(brt))
}

func TestGormStoreActiveAppointments(t *testing.T) {
	database := newTestDB(t)
	store := NewGormStore(database)

	seedAppointment(t, database, clock(monday, 9, 0), 60, models.StatusPending)
	seedAppointment(t, database, clock(monday, 10, 0), 60, models.StatusConfirmed)
	seedAppointment(t, database, clock(monday, 11, 0), 60, models.StatusCancelled)
	seedAppointment(t, database, clock(monday, 12, 0), 60, models.StatusCompleted)
	seedAppointment(t, database, clock(monday.AddDate(0, 0, 1), 9, 0), 60, models.StatusConfirmed)

	got, err := store.ActiveAppointments(context.Background(), monday, monday.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].ScheduledAt.Equal(clock(monday, 9, 0)))
	assert.Equal(t, models.StatusConfirmed, got[1].Status)

	// touching the range boundary does not count as overlap
	got, err = store.ActiveAppointments(context.Background(), clock(monday, 11, 0), clock(monday, 13, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGeneratorWithGormStore(t *testing.T) {
	database := newTestDB(t)
	tpl := mondayTemplate(true, 60)
	require.NoError(t, database.Create(&tpl).Error)
	seedAppointment(t, database, clock(monday, 10, 0), 60, models.StatusConfirmed)

	g := NewGenerator(NewGormStore(database), brt)
	slots, err := g.GenerateSlots(context.Background(), monday, 1, 0)
	require.NoError(t, err)
	require.Len(t, slots, 9)

	var unavailable []string
	for _, s := range slots {
		if !s.Available {
			unavailable = append(unavailable, s.Start.Format(models.ClockLayout))
		}
	}
	assert.Equal(t, []string{"10:00"}, unavailable)
}
