package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestLogger writes one access log line per request. Server errors log at
// error level and client errors at warn level.
func RequestLogger() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			status = fiber.StatusInternalServerError
			if fiberErr, ok := chainErr.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		event := levelFor(status).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("ip", c.IP())

		if requestID := requestid.FromContext(c); requestID != "" {
			event = event.Str("request_id", requestID)
		}

		event.Msg("HTTP request")

		return chainErr
	}
}

func levelFor(status int) *zerolog.Event {
	switch {
	case status >= fiber.StatusInternalServerError:
		return log.Error()
	case status >= fiber.StatusBadRequest:
		return log.Warn()
	default:
		return log.Info()
	}
}
