package friends

import (
	"errors"

	"github.com/maiimostafaa/voyager-sub001/internal/auth"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"friend_ids": svc.ResolveFriendIDs(c.Context(), auth.UserID(c))})
	})

	r.Get("/requests", authMiddleware, func(c *fiber.Ctx) error {
		reqs, err := svc.PendingRequests(c.Context(), auth.UserID(c))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(reqs)
	})

	r.Post("/requests", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := c.BodyParser(&body); err != nil || body.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id required")
		}
		e, err := svc.RequestFriend(c.Context(), auth.UserID(c), body.UserID)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(e)
	})

	r.Post("/requests/:id/accept", authMiddleware, func(c *fiber.Ctx) error {
		e, err := svc.AcceptFriend(c.Context(), auth.UserID(c), c.Params("id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(e)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.RemoveFriend(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSelfRequest):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoRequest):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
