package middleware

import (
	"errors"
	"time"

	"octofit/backend/metrics"

	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware records every request against its route template so
// /users/1 and /users/2 share a series.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var ferr *fiber.Error
			if errors.As(err, &ferr) {
				status = ferr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		metrics.RecordHTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
