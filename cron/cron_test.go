package cron

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func setup(t *testing.T) (*gorm.DB, *models.User, *models.Service) {
	t.Helper()
	database, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))

	user := &models.User{Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, database.Create(user).Error)
	service := &models.Service{Name: "Drenagem", DurationMinutes: 60, Price: 120, Active: true}
	require.NoError(t, database.Create(service).Error)
	return database, user, service
}

func appointmentAt(t *testing.T, database *gorm.DB, user *models.User, service *models.Service, start time.Time, status models.AppointmentStatus) models.Appointment {
	t.Helper()
	a := models.Appointment{
		UserID:      user.ID,
		ServiceID:   service.ID,
		ScheduledAt: start,
		EndAt:       start.Add(time.Hour),
		Status:      status,
	}
	require.NoError(t, database.Create(&a).Error)
	return a
}

func TestSendReminders(t *testing.T) {
	database, user, service := setup(t)
	mailer := &recordingMailer{}
	jobs := New(database, mailer, time.UTC, 24*time.Hour)

	now := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	appointmentAt(t, database, user, service, now.Add(24*time.Hour), models.StatusConfirmed)
	appointmentAt(t, database, user, service, now.Add(24*time.Hour+5*time.Minute), models.StatusConfirmed)
	appointmentAt(t, database, user, service, now.Add(24*time.Hour), models.StatusPending)
	appointmentAt(t, database, user, service, now.Add(25*time.Hour), models.StatusConfirmed)

	assert.Equal(t, 2, jobs.SendReminders(now))
	assert.Equal(t, []string{"ana@example.com", "ana@example.com"}, mailer.sent)

	// the next run 15 minutes later must not resend the same appointments
	assert.Equal(t, 0, jobs.SendReminders(now.Add(15*time.Minute)))
}

func TestCompleteFinished(t *testing.T) {
	database, user, service := setup(t)
	jobs := New(database, &recordingMailer{}, time.UTC, 24*time.Hour)

	now := time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)
	done := appointmentAt(t, database, user, service, now.Add(-3*time.Hour), models.StatusConfirmed)
	running := appointmentAt(t, database, user, service, now.Add(-30*time.Minute), models.StatusConfirmed)
	pending := appointmentAt(t, database, user, service, now.Add(-3*time.Hour), models.StatusPending)

	assert.Equal(t, 1, jobs.CompleteFinished(now))

	statusOf := func(id uint) models.AppointmentStatus {
		var a models.Appointment
		require.NoError(t, database.First(&a, id).Error)
		return a.Status
	}
	assert.Equal(t, models.StatusCompleted, statusOf(done.ID))
	assert.Equal(t, models.StatusConfirmed, statusOf(running.ID))
	assert.Equal(t, models.StatusPending, statusOf(pending.ID))
}

func TestStartAndStop(t *testing.T) {
	database, _, _ := setup(t)
	jobs := New(database, &recordingMailer{}, time.UTC, time.Hour)
	require.NoError(t, jobs.Start())
	assert.Len(t, jobs.cron.Entries(), 2)
	jobs.Stop()
}
