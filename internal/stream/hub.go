package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	EventFeedInvalidate  = "feed.invalidate"
	EventLocationResults = "location.results"
)

const (
	channelPrefix  = "feed:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Event is the JSON frame pushed to websocket clients.
type Event struct {
	Type    string `json:"type"`
	Reason  string `json:"reason,omitempty"`
	PostID  string `json:"post_id,omitempty"`
	ActorID string `json:"actor_id,omitempty"`
	Query   string `json:"query,omitempty"`
	Results any    `json:"results,omitempty"`
}

// Hub fans events out to the websocket connections of a user. With Redis,
// events travel through pub/sub so every instance delivers to its own
// connections; without it delivery is local only.
type Hub struct {
	redis   *redis.Client
	log     *slog.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	cancel context.CancelFunc
	ready  chan struct{}
}

type Client struct {
	UserID string
	Send   chan []byte
}

func NewHub(redisClient *redis.Client, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:   redisClient,
		log:     log,
		clients: map[string]map[*Client]struct{}{},
		cancel:  cancel,
		ready:   make(chan struct{}),
	}

	if redisClient != nil {
		go h.subscribeRedis(ctx)
	} else {
		close(h.ready)
	}
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userClients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := userClients[client]; !ok {
		return
	}
	delete(userClients, client)
	if len(userClients) == 0 {
		delete(h.clients, client.UserID)
	}
	close(client.Send)
}

// Connected reports how many connections userID has on this instance.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish encodes ev and broadcasts it to every connection of userID.
func (h *Hub) Publish(ctx context.Context, userID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	h.Broadcast(ctx, userID, payload)
	return nil
}

func (h *Hub) Broadcast(ctx context.Context, userID string, payload []byte) {
	if h.redis == nil {
		h.deliver(userID, payload)
		return
	}
	if err := h.redis.Publish(ctx, redisChannel(userID), payload).Err(); err != nil {
		h.log.WarnContext(ctx, "redis publish failed, delivering locally",
			"userID", userID,
			"error", err)
		h.deliver(userID, payload)
	}
}

// Close stops the Redis subscription.
func (h *Hub) Close() {
	h.cancel()
}

// deliver drops the payload for clients whose buffer is full.
func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.redis.PSubscribe(ctx, channelPattern)
	defer pubsub.Close()

	_, err := pubsub.Receive(ctx)
	close(h.ready)
	if err != nil {
		h.log.Error("redis subscribe failed", "pattern", channelPattern, "error", err)
		return
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			userID := userIDFromChannel(msg.Channel)
			if userID == "" {
				continue
			}
			h.deliver(userID, []byte(msg.Payload))
		}
	}
}

func redisChannel(userID string) string {
	return channelPrefix + userID + channelSuffix
}

func userIDFromChannel(ch string) string {
	// feed:{user}:events
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
