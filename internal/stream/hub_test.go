package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for message")
	}
	return nil
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("user-1")
	other := hub.Register("user-2")
	defer hub.Unregister(client)
	defer hub.Unregister(other)

	hub.Broadcast(context.Background(), "user-1", []byte("hello"))

	if msg := receive(t, client); string(msg) != "hello" {
		t.Fatalf("unexpected message %q", msg)
	}
	select {
	case <-other.Send:
		t.Fatalf("message leaked to another user")
	default:
	}
}

func TestHubPublishEncodesEvent(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("user-1")
	defer hub.Unregister(client)

	if err := hub.Publish(context.Background(), "user-1", Event{Type: EventFeedInvalidate, Reason: "post.liked", PostID: "post-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(receive(t, client), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != EventFeedInvalidate || ev.PostID != "post-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "feed:abc:events" {
		t.Fatalf("unexpected channel %q", ch)
	}
	if userIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected user id")
	}
	for _, bad := range []string{"bad", "feed::events", "tracking:abc:broadcast"} {
		if userIDFromChannel(bad) != "" {
			t.Fatalf("expected empty user id for %q", bad)
		}
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("user-2")
	hub.Unregister(client)
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
	if hub.Connected("user-2") != 0 {
		t.Fatalf("expected no connections")
	}
}

func TestHubRedisFanOut(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	hub := NewHub(rdb, nil)
	defer hub.Close()
	ws := hub.Register("user-redis")
	defer hub.Unregister(ws)
	<-hub.ready

	hub.Broadcast(context.Background(), "user-redis", []byte("ping"))
	if msg := receive(t, ws); string(msg) != "ping" {
		t.Fatalf("unexpected message %q", msg)
	}

	// another instance publishing for the same user
	if err := rdb.Publish(context.Background(), "feed:user-redis:events", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	if msg := receive(t, ws); string(msg) != "pong" {
		t.Fatalf("unexpected message from redis %q", msg)
	}
}

func TestHubRedisPublishErrorDeliversLocally(t *testing.T) {
	server := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer rdb.Close()

	hub := NewHub(rdb, nil)
	defer hub.Close()
	ws := hub.Register("user-bad")
	defer hub.Unregister(ws)
	<-hub.ready

	hub.Broadcast(context.Background(), "user-bad", []byte("ping"))
	if msg := receive(t, ws); string(msg) != "ping" {
		t.Fatalf("unexpected message %q", msg)
	}
}
