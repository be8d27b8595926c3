package controllers

import (
	"context"
	"time"

	"octofit/backend/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// APIRoot lists the collection endpoints as absolute URLs.
func APIRoot(c *fiber.Ctx) error {
	base := c.BaseURL() + "/api/"
	return c.JSON(fiber.Map{
		"users":       base + "users/",
		"teams":       base + "teams/",
		"activities":  base + "activities/",
		"leaderboard": base + "leaderboard/",
		"workouts":    base + "workouts/",
	})
}

// Health reports 503 when the database cannot be reached.
func Health(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
