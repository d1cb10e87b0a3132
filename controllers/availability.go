package controllers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/availability"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
)

const defaultDaysAhead = 7

type availabilityQuery struct {
	DateStart    string `query:"dateStart"`
	DaysAhead    string `query:"daysAhead"`
	SlotDuration string `query:"slotDuration"`
	ServiceID    string `query:"serviceId"`
}

// GetAvailability godoc
// @Summary List bookable slots
// @Description Slots for daysAhead days from dateStart. A positive slotDuration
// @Description overrides the template length (0 keeps it); serviceId uses the service duration instead.
// @Tags availability
// @Produce json
// @Param dateStart query string true "YYYY-MM-DD or RFC 3339"
// @Param daysAhead query int false "defaults to 7"
// @Param slotDuration query int false "minutes"
// @Param serviceId query int false "service whose duration is used"
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /availability [get]
func GetAvailability(c *fiber.Ctx) error {
	q := new(availabilityQuery)
	if err := c.QueryParser(q); err != nil {
		return badRequest(c, "Invalid query parameters", err)
	}

	rangeStart, err := utils.ParseDate(q.DateStart, deps.Location)
	if err != nil {
		return badRequest(c, "Invalid dateStart", err)
	}

	daysAhead := defaultDaysAhead
	if q.DaysAhead != "" {
		daysAhead, err = strconv.Atoi(q.DaysAhead)
		if err != nil || daysAhead < 1 || daysAhead > deps.MaxDaysAhead {
			return badRequest(c, "Invalid daysAhead",
				fmt.Errorf("daysAhead must be an integer between 1 and %d", deps.MaxDaysAhead))
		}
	}

	override := 0
	switch {
	case q.SlotDuration != "":
		override, err = strconv.Atoi(q.SlotDuration)
		if err != nil || override < 0 || override > models.MaxSlotMinutes {
			return badRequest(c, "Invalid slotDuration",
				fmt.Errorf("slotDuration must be between 0 and %d minutes", models.MaxSlotMinutes))
		}
	case q.ServiceID != "":
		serviceID, err := strconv.ParseUint(q.ServiceID, 10, 64)
		if err != nil {
			return badRequest(c, "Invalid serviceId", err)
		}
		var service models.Service
		if err := db.DB.Where("active = ?", true).First(&service, uint(serviceID)).Error; err != nil {
			return notFoundOr500(c, err, "Service not found")
		}
		override = service.DurationMinutes
	}

	slots, err := deps.Generator.GenerateSlots(c.UserContext(), rangeStart, daysAhead, override)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidRange) {
			return badRequest(c, "Invalid availability range", err)
		}
		log.Error().Err(err).Time("date_start", rangeStart).Int("days_ahead", daysAhead).Msg("failed to generate slots")
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to compute availability",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"slots":     slots,
		"daysAhead": daysAhead,
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
		Message: message,
		Error:   err.Error(),
	})
}
