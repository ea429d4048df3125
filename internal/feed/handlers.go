package feed

import (
	"errors"

	"github.com/maiimostafaa/voyager-sub001/internal/auth"
	"github.com/maiimostafaa/voyager-sub001/internal/post"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the read side under r: /feed, /feed/saved,
// /users/:id/posts and the like/save endpoints under /posts/:id.
func RegisterRoutes(r fiber.Router, asm *Assembler, reactions *Reactions, authMiddleware fiber.Handler) {
	r.Get("/feed", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(asm.BuildFriendsFeed(c.Context(), auth.UserID(c)))
	})

	r.Get("/feed/saved", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(asm.SavedFeed(c.Context(), auth.UserID(c)))
	})

	r.Get("/users/:id/posts", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(asm.ProfileFeed(c.Context(), auth.UserID(c), c.Params("id")))
	})

	like := func(on bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			state, err := reactions.SetLike(c.Context(), c.Params("id"), auth.UserID(c), on)
			if err != nil {
				return httpError(err)
			}
			return c.JSON(state)
		}
	}
	save := func(on bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			state, err := reactions.SetSave(c.Context(), c.Params("id"), auth.UserID(c), on)
			if err != nil {
				return httpError(err)
			}
			return c.JSON(state)
		}
	}

	r.Post("/posts/:id/like", authMiddleware, like(true))
	r.Delete("/posts/:id/like", authMiddleware, like(false))
	r.Post("/posts/:id/save", authMiddleware, save(true))
	r.Delete("/posts/:id/save", authMiddleware, save(false))
}

func httpError(err error) error {
	if errors.Is(err, post.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
