package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"contest-hub-system/models"
)

// RequireRole fetches the caller's user row on every request and denies the
// request unless the stored role matches. No caching: a role change must take
// effect on the very next request.
func RequireRole(db *gorm.DB, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := CallerEmail(c)
		if email == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
		}

		var user models.User
		if err := db.First(&user, "email = ?", email).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unknown identity"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		if user.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": role + " role required"})
		}
		return c.Next()
	}
}

// RequireSelf denies the request when the email named in the route param does
// not match the verified identity.
func RequireSelf(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Params(param) != CallerEmail(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not your resource"})
		}
		return c.Next()
	}
}
