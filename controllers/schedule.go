package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type scheduleInput struct {
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	BreakStart   *string `json:"break_start"`
	BreakEnd     *string `json:"break_end"`
	SlotDuration int     `json:"slot_duration"`
	Active       *bool   `json:"active"`
}

// GetSchedules returns every weekday template, active or not, Sunday first.
func GetSchedules(c *fiber.Ctx) error {
	var schedules []models.WeeklySchedule
	if err := db.DB.Order("day_of_week").Find(&schedules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to get schedules",
			Error:   err.Error(),
		})
	}
	return c.JSON(schedules)
}

// UpsertSchedule godoc
// @Summary Create or replace the template of one weekday
// @Description Templates are never deleted; send active=false to close a weekday.
// @Tags schedules
// @Accept json
// @Produce json
// @Param day path int true "0=Sunday ... 6=Saturday"
// @Success 200 {object} models.WeeklySchedule
// @Failure 400 {object} utils.ErrorResponse
// @Router /admin/schedules/{day} [put]
func UpsertSchedule(c *fiber.Ctx) error {
	day, err := strconv.Atoi(c.Params("day"))
	if err != nil || day < int(models.Sunday) || day > int(models.Saturday) {
		return badRequest(c, "Invalid day", errors.New("day must be 0 (Sunday) to 6 (Saturday)"))
	}

	input := new(scheduleInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Failed to parse request body", err)
	}

	schedule := models.WeeklySchedule{
		DayOfWeek:    models.DayOfWeek(day),
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		BreakStart:   blankToNil(input.BreakStart),
		BreakEnd:     blankToNil(input.BreakEnd),
		SlotDuration: input.SlotDuration,
		Active:       input.Active == nil || *input.Active,
	}
	if err := schedule.Validate(); err != nil {
		return badRequest(c, "Invalid schedule", err)
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.WeeklySchedule
		err := tx.Where("day_of_week = ?", schedule.DayOfWeek).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&schedule).Error
		case err != nil:
			return err
		}
		schedule.Model = existing.Model
		return tx.Save(&schedule).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to save schedule",
			Error:   err.Error(),
		})
	}

	invalidateSchedules(c.UserContext())
	log.Info().Int("day_of_week", day).Bool("active", schedule.Active).Msg("schedule updated")
	return c.JSON(schedule)
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
