package location

import (
	"github.com/maiimostafaa/voyager-sub001/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, m *Matcher, authMiddleware fiber.Handler) {
	r.Get("/match", authMiddleware, func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q required")
		}
		return c.JSON(m.FindPostsNearLocation(c.Context(), auth.UserID(c), q))
	})
}
