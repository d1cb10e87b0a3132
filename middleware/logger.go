package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger writes one line per request. It expects the requestid
// middleware to run first.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		var event *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		default:
			event = log.Info()
		}

		event.
			Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}
