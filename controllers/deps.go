package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/availability"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
)

// ScheduleCache is implemented by availability.CachedStore.
type ScheduleCache interface {
	Invalidate(ctx context.Context) error
}

// Dependencies are the collaborators handlers use besides db.DB.
type Dependencies struct {
	Generator     *availability.Generator
	Guard         *availability.Guard
	ScheduleCache ScheduleCache
	Mailer        utils.Mailer
	Uploader      utils.Uploader // nil when media upload is not configured
	JWTSecret     string
	Location      *time.Location
	MaxDaysAhead  int
}

var deps Dependencies

// Configure must be called once before routes are served.
func Configure(d Dependencies) {
	if d.Mailer == nil {
		d.Mailer = utils.LogMailer{}
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.MaxDaysAhead <= 0 {
		d.MaxDaysAhead = 90
	}
	deps = d
}

func invalidateSchedules(ctx context.Context) {
	if deps.ScheduleCache == nil {
		return
	}
	if err := deps.ScheduleCache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate schedule cache")
	}
}

// notify sends mail in the background; delivery failures never fail a request.
func notify(to, subject, body string) {
	if to == "" {
		return
	}
	mailer := deps.Mailer
	go func() {
		if err := mailer.Send(to, subject, body); err != nil {
			log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
		}
	}()
}

// paramID reads the numeric :id route parameter; 0 means absent or invalid.
func paramID(c *fiber.Ctx) uint {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0
	}
	return uint(id)
}
