package trip

import (
	"errors"

	"github.com/maiimostafaa/voyager-sub001/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/", func(c *fiber.Ctx) error {
		var req Input
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		trip, err := svc.CreateTrip(c.Context(), auth.UserID(c), req)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(trip)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		trips, err := svc.ListTrips(c.Context(), auth.UserID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(trips)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		trip, err := svc.GetTrip(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(trip)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		var req Input
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		trip, err := svc.UpdateTrip(c.Context(), auth.UserID(c), c.Params("id"), req)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(trip)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.DeleteTrip(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/recommendations", func(c *fiber.Ctx) error {
		matched, err := svc.Recommendations(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(matched)
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidTrip), errors.Is(err, ErrInvalidDates):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
