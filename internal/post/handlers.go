package post

import (
	"errors"
	"io"

	"github.com/maiimostafaa/voyager-sub001/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// RegisterTagRoutes serves the tag vocabulary at /tags.
func RegisterTagRoutes(r fiber.Router) {
	r.Get("/tags", func(c *fiber.Ctx) error {
		return c.JSON(Vocabulary)
	})
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req CreateInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var photos []Photo
		if form, err := c.MultipartForm(); err == nil {
			if len(req.Tags) == 0 {
				req.Tags = form.Value["tags"]
			}
			for _, fh := range form.File["photos"] {
				fh := fh
				photos = append(photos, Photo{
					Filename:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Open:        func() (io.ReadCloser, error) { return fh.Open() },
				})
			}
		}

		created, err := svc.Create(c.Context(), auth.UserID(c), req, photos)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req UpdateInput
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		p, err := svc.Update(c.Context(), auth.UserID(c), c.Params("id"), req)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(p)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), auth.UserID(c), c.Params("id")); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrMissingLocation), errors.Is(err, ErrUnknownTag):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
