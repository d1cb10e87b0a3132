package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/availability"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/metrics"
	"github.com/meinhoongagan/spa-booking/middleware"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ConflictMessage is returned to clients when the requested slot was taken.
const ConflictMessage = "Horário indisponível"

type bookingInput struct {
	UserID      uint                   `json:"user_id"` // admins may book on behalf of a client
	ServiceID   uint                   `json:"service_id"`
	ScheduledAt string                 `json:"scheduled_at"`
	Type        models.AppointmentType `json:"type"`
	Location    string                 `json:"location"`
	Notes       string                 `json:"notes"`
}

// CreateAppointment godoc
// @Summary Book an appointment
// @Description Books [scheduled_at, scheduled_at + service duration) as PENDING.
// @Tags appointments
// @Accept json
// @Produce json
// @Success 201 {object} models.Appointment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /appointments [post]
func CreateAppointment(c *fiber.Ctx) error {
	input := new(bookingInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Failed to parse request body", err)
	}
	if input.ServiceID == 0 || input.ScheduledAt == "" {
		return badRequest(c, "Missing required fields", errors.New("service_id and scheduled_at are required"))
	}
	if input.Type == "" {
		input.Type = models.TypeFirst
	}
	if !input.Type.Valid() {
		return badRequest(c, "Invalid appointment type", errors.New("type must be FIRST or RETURN"))
	}

	start, err := utils.ParseTimestamp(input.ScheduledAt, deps.Location)
	if err != nil {
		return badRequest(c, "Invalid scheduled_at", err)
	}
	if !start.After(time.Now()) {
		return badRequest(c, "Invalid scheduled_at", errors.New("scheduled_at must be in the future"))
	}

	userID := middleware.CurrentUserID(c)
	if input.UserID != 0 && input.UserID != userID {
		if middleware.CurrentRole(c) != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(utils.ErrorResponse{
				Message: "You can only book appointments for yourself",
				Error:   "Forbidden",
			})
		}
		userID = input.UserID
	}

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return notFoundOr500(c, err, "User not found")
	}

	var service models.Service
	if err := db.DB.Where("active = ?", true).First(&service, input.ServiceID).Error; err != nil {
		return notFoundOr500(c, err, "Service not found")
	}

	ctx := c.UserContext()
	if err := deps.Generator.WithinSchedule(ctx, start, service.Duration()); err != nil {
		return bookingError(c, err)
	}

	appointment, err := deps.Guard.TryBook(ctx, availability.BookingRequest{
		UserID:    user.ID,
		ServiceID: service.ID,
		Start:     start,
		Duration:  service.Duration(),
		Type:      input.Type,
		Price:     service.PriceFor(input.Type),
		Location:  input.Location,
		Notes:     input.Notes,
	})
	if err != nil {
		return bookingError(c, err)
	}
	log.Info().Uint("appointment_id", appointment.ID).Uint("user_id", user.ID).Time("start", start).Msg("appointment booked")

	appointment.Service = service
	subject, body := utils.BookingReceivedEmail(user.Name, service.Name, start.In(deps.Location))
	notify(user.Email, subject, body)

	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// GetMyAppointments lists the caller's appointments, newest first. ?status= filters.
func GetMyAppointments(c *fiber.Ctx) error {
	query := db.DB.Preload("Service").Where("user_id = ?", middleware.CurrentUserID(c))
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var appointments []models.Appointment
	if err := query.Order("scheduled_at desc").Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch appointments",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointments)
}

// GetAllAppointments godoc
// @Summary List appointments (admin)
// @Description Optional filters: status, from and to (dates, inclusive).
// @Tags appointments
// @Produce json
// @Success 200 {array} models.Appointment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /appointments [get]
func GetAllAppointments(c *fiber.Ctx) error {
	query := db.DB.Preload("Service").Preload("User")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if from := c.Query("from"); from != "" {
		day, err := utils.ParseDate(from, deps.Location)
		if err != nil {
			return badRequest(c, "Invalid from", err)
		}
		query = query.Where("scheduled_at >= ?", day.UTC())
	}
	if to := c.Query("to"); to != "" {
		day, err := utils.ParseDate(to, deps.Location)
		if err != nil {
			return badRequest(c, "Invalid to", err)
		}
		query = query.Where("scheduled_at < ?", day.AddDate(0, 0, 1).UTC())
	}

	var appointments []models.Appointment
	if err := query.Order("scheduled_at").Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch appointments",
			Error:   err.Error(),
		})
	}
	for i := range appointments {
		appointments[i].User.Password = ""
	}
	return c.JSON(appointments)
}

// GetAppointment godoc
// @Summary Get an appointment by ID
// @Description Clients only see their own appointments.
// @Tags appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} models.Appointment
// @Failure 404 {object} utils.ErrorResponse
// @Router /appointments/{id} [get]
func GetAppointment(c *fiber.Ctx) error {
	appointment, err := loadOwnedAppointment(c)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(appointment)
}

// CancelAppointment cancels a PENDING or CONFIRMED appointment and frees its slot.
func CancelAppointment(c *fiber.Ctx) error {
	appointment, err := loadOwnedAppointment(c)
	if err != nil {
		return bookingError(c, err)
	}
	return changeStatus(c, appointment, models.StatusCancelled)
}

// UpdateAppointmentStatus godoc
// @Summary Move an appointment through its lifecycle (admin)
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} models.Appointment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments/{id}/status [patch]
func UpdateAppointmentStatus(c *fiber.Ctx) error {
	type StatusInput struct {
		Status models.AppointmentStatus `json:"status"`
	}
	input := new(StatusInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Failed to parse request body", err)
	}
	if input.Status == "" {
		return badRequest(c, "Missing required fields", errors.New("status is required"))
	}

	var appointment models.Appointment
	if err := db.DB.Preload("User").Preload("Service").First(&appointment, paramID(c)).Error; err != nil {
		return notFoundOr500(c, err, "Appointment not found")
	}
	return changeStatus(c, &appointment, input.Status)
}

// RescheduleAppointment moves a PENDING or CONFIRMED appointment to a new
// start, keeping its length (admin).
func RescheduleAppointment(c *fiber.Ctx) error {
	type RescheduleInput struct {
		ScheduledAt string `json:"scheduled_at"`
	}
	input := new(RescheduleInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Failed to parse request body", err)
	}
	start, err := utils.ParseTimestamp(input.ScheduledAt, deps.Location)
	if err != nil {
		return badRequest(c, "Invalid scheduled_at", err)
	}

	var current models.Appointment
	if err := db.DB.First(&current, paramID(c)).Error; err != nil {
		return notFoundOr500(c, err, "Appointment not found")
	}

	ctx := c.UserContext()
	if err := deps.Generator.WithinSchedule(ctx, start, current.EndAt.Sub(current.ScheduledAt)); err != nil {
		return bookingError(c, err)
	}
	moved, err := deps.Guard.Reschedule(ctx, current.ID, start)
	if err != nil {
		return bookingError(c, err)
	}
	log.Info().Uint("appointment_id", moved.ID).Time("start", start).Msg("appointment rescheduled")
	return c.JSON(moved)
}

func changeStatus(c *fiber.Ctx, appointment *models.Appointment, status models.AppointmentStatus) error {
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		return appointment.UpdateStatus(tx, status)
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
				Message: "Invalid status transition",
				Error:   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to update appointment",
			Error:   err.Error(),
		})
	}
	metrics.IncStatusChange(string(status))
	log.Info().Uint("appointment_id", appointment.ID).Str("status", string(status)).Msg("appointment status changed")

	if status == models.StatusConfirmed && appointment.User.Email != "" {
		subject, body := utils.BookingConfirmedEmail(appointment.User.Name, appointment.Service.Name, appointment.ScheduledAt.In(deps.Location))
		notify(appointment.User.Email, subject, body)
	}
	appointment.User.Password = ""
	return c.JSON(appointment)
}

// loadOwnedAppointment loads :id for its owner or an admin. Other callers
// get ErrAppointmentNotFound so ids of other clients are not disclosed.
func loadOwnedAppointment(c *fiber.Ctx) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := db.DB.Preload("Service").Preload("User").First(&appointment, paramID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, availability.ErrAppointmentNotFound
		}
		return nil, err
	}
	if appointment.UserID != middleware.CurrentUserID(c) && middleware.CurrentRole(c) != models.RoleAdmin {
		return nil, availability.ErrAppointmentNotFound
	}
	appointment.User.Password = ""
	return &appointment, nil
}

func bookingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, availability.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: ConflictMessage,
			Error:   err.Error(),
		})
	case errors.Is(err, availability.ErrOutsideSchedule):
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Horário fora do expediente",
			Error:   err.Error(),
		})
	case errors.Is(err, models.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(utils.ErrorResponse{
			Message: "Invalid status transition",
			Error:   err.Error(),
		})
	case errors.Is(err, availability.ErrInvalidRange):
		return badRequest(c, "Invalid appointment interval", err)
	case errors.Is(err, availability.ErrAppointmentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("appointment request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
		Message: "Failed to process appointment",
		Error:   err.Error(),
	})
}

func notFoundOr500(c *fiber.Ctx, err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: message,
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
		Message: "Database error",
		Error:   err.Error(),
	})
}
