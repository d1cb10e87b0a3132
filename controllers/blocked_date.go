package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// GetBlockedDates lists blocked dates, optionally within ?from=&to= (inclusive).
func GetBlockedDates(c *fiber.Ctx) error {
	query := db.DB.Order("date")
	if from := c.Query("from"); from != "" {
		day, err := utils.ParseDate(from, deps.Location)
		if err != nil {
			return badRequest(c, "Invalid from", err)
		}
		query = query.Where("date >= ?", day.UTC())
	}
	if to := c.Query("to"); to != "" {
		day, err := utils.ParseDate(to, deps.Location)
		if err != nil {
			return badRequest(c, "Invalid to", err)
		}
		query = query.Where("date <= ?", day.UTC())
	}

	var blocked []models.BlockedDate
	if err := query.Find(&blocked).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to get blocked dates",
			Error:   err.Error(),
		})
	}
	return c.JSON(blocked)
}

// CreateBlockedDate godoc
// @Summary Close a calendar day for booking
// @Description Existing appointments on that day are kept; the response reports how many.
// @Tags blocked-dates
// @Accept json
// @Produce json
// @Success 201 {object} models.BlockedDate
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /admin/blocked-dates [post]
func CreateBlockedDate(c *fiber.Ctx) error {
	type BlockedDateInput struct {
		Date   string `json:"date"`
		Reason string `json:"reason"`
	}
	input := new(BlockedDateInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Failed to parse request body", err)
	}

	day, err := utils.ParseDate(input.Date, deps.Location)
	if err != nil {
		return badRequest(c, "Invalid date", err)
	}

	var count int64
	if err := db.DB.Model(&models.BlockedDate{}).Where("date = ?", day.UTC()).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create blocked date",
			Error:   err.Error(),
		})
	}
	if count > 0 {
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Date is already blocked",
			Error:   "duplicate blocked date",
		})
	}

	blocked := models.BlockedDate{Date: day, Reason: input.Reason}
	var affected int64
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&blocked).Error; err != nil {
			return err
		}
		return tx.Model(&models.Appointment{}).
			Where("status IN ?", models.BlockingStatuses).
			Where("scheduled_at >= ? AND scheduled_at < ?", day.UTC(), day.AddDate(0, 0, 1).UTC()).
			Count(&affected).Error
	})
	if err != nil {
		log.Error().Err(err).Str("date", input.Date).Msg("failed to create blocked date")
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create blocked date",
			Error:   err.Error(),
		})
	}
	if affected > 0 {
		log.Warn().Str("date", input.Date).Int64("appointments", affected).Msg("blocked a day that has appointments")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"blocked_date":          blocked,
		"affected_appointments": affected,
	})
}

// DeleteBlockedDate reopens a blocked day.
func DeleteBlockedDate(c *fiber.Ctx) error {
	var blocked models.BlockedDate
	if err := db.DB.First(&blocked, paramID(c)).Error; err != nil {
		return notFoundOr500(c, err, "Blocked date not found")
	}
	if err := db.DB.Delete(&blocked).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to delete blocked date",
			Error:   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
