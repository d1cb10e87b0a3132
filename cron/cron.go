package cron

import (
	"time"

	"github.com/meinhoongagan/spa-booking/metrics"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	reminderSchedule = "*/15 * * * *"
	completeSchedule = "*/10 * * * *"

	// half of the reminder interval, so each appointment falls in exactly one run
	reminderSlack = 7*time.Minute + 30*time.Second
)

// Jobs runs the periodic appointment maintenance.
type Jobs struct {
	db     *gorm.DB
	mailer utils.Mailer
	loc    *time.Location
	lead   time.Duration
	cron   *cron.Cron
}

func New(database *gorm.DB, mailer utils.Mailer, loc *time.Location, reminderLead time.Duration) *Jobs {
	return &Jobs{
		db:     database,
		mailer: mailer,
		loc:    loc,
		lead:   reminderLead,
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}
}

// Start schedules the reminder and auto-complete jobs.
func (j *Jobs) Start() error {
	if _, err := j.cron.AddFunc(reminderSchedule, func() { j.SendReminders(time.Now()) }); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc(completeSchedule, func() { j.CompleteFinished(time.Now()) }); err != nil {
		return err
	}
	j.cron.Start()
	log.Info().Dur("reminder_lead", j.lead).Msg("cron jobs started")
	return nil
}

// Stop waits for running jobs to finish.
func (j *Jobs) Stop() {
	<-j.cron.Stop().Done()
}

// SendReminders mails clients whose CONFIRMED appointment starts within
// [now+lead-slack, now+lead+slack). It returns the number of mails sent.
func (j *Jobs) SendReminders(now time.Time) int {
	from := now.Add(j.lead - reminderSlack)
	to := now.Add(j.lead + reminderSlack)

	var appointments []models.Appointment
	err := j.db.Preload("User").Preload("Service").
		Where("status = ? AND scheduled_at >= ? AND scheduled_at < ?", models.StatusConfirmed, from.UTC(), to.UTC()).
		Find(&appointments).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch appointments for reminders")
		return 0
	}

	sent := 0
	for _, a := range appointments {
		subject, body := utils.ReminderEmail(a.User.Name, a.Service.Name, a.ScheduledAt.In(j.loc))
		if err := j.mailer.Send(a.User.Email, subject, body); err != nil {
			log.Error().Err(err).Uint("appointment_id", a.ID).Msg("failed to send reminder")
			continue
		}
		sent++
	}
	if len(appointments) > 0 {
		log.Info().Int("found", len(appointments)).Int("sent", sent).Msg("appointment reminders processed")
	}
	return sent
}

// CompleteFinished marks CONFIRMED appointments that ended before now as
// COMPLETED and returns how many were updated.
func (j *Jobs) CompleteFinished(now time.Time) int {
	var finished []models.Appointment
	if err := j.db.Where("status = ? AND end_at < ?", models.StatusConfirmed, now.UTC()).Find(&finished).Error; err != nil {
		log.Error().Err(err).Msg("failed to fetch finished appointments")
		return 0
	}

	completed := 0
	for i := range finished {
		if err := finished[i].UpdateStatus(j.db, models.StatusCompleted); err != nil {
			log.Error().Err(err).Uint("appointment_id", finished[i].ID).Msg("failed to complete appointment")
			continue
		}
		metrics.IncStatusChange(string(models.StatusCompleted))
		completed++
	}
	if completed > 0 {
		log.Info().Int("completed", completed).Msg("finished appointments completed")
	}
	return completed
}
