package controllers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/spa-booking/db"
	"github.com/meinhoongagan/spa-booking/middleware"
	"github.com/meinhoongagan/spa-booking/models"
	"github.com/meinhoongagan/spa-booking/utils"
	"github.com/rs/zerolog/log"
)

const maxImageSize = 5 << 20

type serviceInput struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	ReturnPrice     float64 `json:"return_price"`
	Active          *bool   `json:"active"`
}

func (in *serviceInput) validate() error {
	if in.Name == "" {
		return errors.New("name is required")
	}
	if in.DurationMinutes <= 0 || in.DurationMinutes > models.MaxSlotMinutes {
		return fmt.Errorf("duration_minutes must be between 1 and %d", models.MaxSlotMinutes)
	}
	if in.Price < 0 || in.ReturnPrice < 0 {
		return errors.New("prices cannot be negative")
	}
	return nil
}

// GetAllServices returns active services; admins also see inactive ones.
func GetAllServices(c *fiber.Ctx) error {
	query := db.DB.Order("name")
	if c.Query("all") != "true" || middleware.CurrentRole(c) != models.RoleAdmin {
		query = query.Where("active = ?", true)
	}

	var services []models.Service
	if err := query.Find(&services).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to get services",
			Error:   err.Error(),
		})
	}
	return c.JSON(services)
}

func GetService(c *fiber.Ctx) error {
	var service models.Service
	if err := db.DB.First(&service, paramID(c)).Error; err != nil {
		return notFoundOr500(c, err, "Service not found")
	}
	return c.JSON(service)
}

// CreateService creates a new service
func CreateService(c *fiber.Ctx) error {
	input := new(serviceInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Failed to parse request body", err)
	}
	if err := input.validate(); err != nil {
		return badRequest(c, "Invalid service", err)
	}

	service := models.Service{
		Name:            input.Name,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		Price:           input.Price,
		ReturnPrice:     input.ReturnPrice,
		Active:          true,
	}
	if err := db.DB.Create(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create service",
			Error:   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(service)
}

// UpdateService replaces the editable fields of a service. Booked
// appointments keep the duration and price they were booked with.
func UpdateService(c *fiber.Ctx) error {
	var service models.Service
	if err := db.DB.First(&service, paramID(c)).Error; err != nil {
		return notFoundOr500(c, err, "Service not found")
	}

	input := new(serviceInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Failed to parse request body", err)
	}
	if err := input.validate(); err != nil {
		return badRequest(c, "Invalid service", err)
	}

	updates := map[string]interface{}{
		"name":             input.Name,
		"description":      input.Description,
		"duration_minutes": input.DurationMinutes,
		"price":            input.Price,
		"return_price":     input.ReturnPrice,
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if err := db.DB.Model(&service).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to update service",
			Error:   err.Error(),
		})
	}
	if err := db.DB.First(&service, service.ID).Error; err != nil {
		return notFoundOr500(c, err, "Service not found")
	}
	return c.JSON(service)
}

// DeleteService deactivates a service. Rows are kept so past appointments
// still resolve their service.
func DeleteService(c *fiber.Ctx) error {
	var service models.Service
	if err := db.DB.First(&service, paramID(c)).Error; err != nil {
		return notFoundOr500(c, err, "Service not found")
	}
	if err := db.DB.Model(&service).Update("active", false).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to deactivate service",
			Error:   err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadServiceImage godoc
// @Summary Upload the cover image of a service
// @Tags services
// @Accept multipart/form-data
// @Param image formData file true "image file"
// @Success 200 {object} models.Service
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /services/{id}/image [post]
func UploadServiceImage(c *fiber.Ctx) error {
	if deps.Uploader == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ErrorResponse{
			Message: "Image upload is not configured",
			Error:   "media storage disabled",
		})
	}

	var service models.Service
	if err := db.DB.First(&service, paramID(c)).Error; err != nil {
		return notFoundOr500(c, err, "Service not found")
	}

	header, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "Image is required", err)
	}
	if header.Size > maxImageSize {
		return badRequest(c, "Image too large", fmt.Errorf("image must be at most %d bytes", maxImageSize))
	}
	file, err := header.Open()
	if err != nil {
		return badRequest(c, "Failed to read image", err)
	}
	defer file.Close()

	url, err := deps.Uploader.Upload(c.UserContext(), file, utils.GeneratePublicID("service", service.ID), "spa/services")
	if err != nil {
		log.Error().Err(err).Uint("service_id", service.ID).Msg("image upload failed")
		return c.Status(fiber.StatusBadGateway).JSON(utils.ErrorResponse{
			Message: "Failed to upload image",
			Error:   err.Error(),
		})
	}

	if err := db.DB.Model(&service).Update("image_url", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to save image URL",
			Error:   err.Error(),
		})
	}
	service.ImageURL = url
	return c.JSON(service)
}
