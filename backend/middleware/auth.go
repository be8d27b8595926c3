package middleware

import (
	"octofit/backend/config"
	"octofit/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const UserIDKey = "user_id"

// AuthMiddleware requires a valid bearer token when AUTH_REQUIRED is set and
// stores the token's user id under UserIDKey. Otherwise it passes requests
// through untouched.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.AuthRequired {
			return c.Next()
		}

		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}
