package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorResponse is a struct for error response
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ErrorHandler renders errors that escape a handler in the ErrorResponse shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return c.Status(code).JSON(ErrorResponse{
		Message: message,
		Error:   err.Error(),
	})
}
