package stream

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/maiimostafaa/voyager-sub001/internal/debounce"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SearchFunc answers an interactive location search on behalf of viewerID.
type SearchFunc func(ctx context.Context, viewerID, query string) any

type inbound struct {
	Type string `json:"type"`
	Q    string `json:"q"`
}

func RegisterRoutes(r fiber.Router, hub *Hub, authMiddleware fiber.Handler, search SearchFunc, quiet time.Duration) {
	r.Get("/ws", authMiddleware, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, websocket.New(func(c *websocket.Conn) {
		userID, _ := c.Locals("user_id").(string)
		client := hub.Register(userID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		searches := debounce.New(quiet)
		defer searches.Stop()

		done := make(chan struct{})
		go func() {
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
			close(done)
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			var in inbound
			if json.Unmarshal(msg, &in) != nil || in.Type != "search" || search == nil {
				continue
			}
			q := strings.TrimSpace(in.Q)
			searches.Trigger(func() {
				results := search(ctx, userID, q)
				_ = hub.Publish(ctx, userID, Event{Type: EventLocationResults, Query: q, Results: results})
			})
		}

		searches.Stop()
		hub.Unregister(client)
		<-done
	}))
}
