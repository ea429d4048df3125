package storage

import (
	"io"

	"github.com/maiimostafaa/voyager-sub001/internal/auth"
	"github.com/maiimostafaa/voyager-sub001/internal/post"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts avatar uploads and, for a DiskStore, read access to
// the stored files.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/avatars", authMiddleware, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file required")
		}
		url, id, err := svc.UploadAvatar(c.Context(), auth.UserID(c), post.Photo{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":  id,
			"url": url,
		})
	})

	if disk, ok := svc.store.(*DiskStore); ok {
		r.Static("/", disk.Root())
	}
}
