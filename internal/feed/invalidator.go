package feed

import (
	"context"
	"log/slog"

	"github.com/maiimostafaa/voyager-sub001/internal/post"
	"github.com/maiimostafaa/voyager-sub001/internal/stream"
)

type Publisher interface {
	Publish(ctx context.Context, userID string, ev stream.Event) error
}

type AuthorLookup interface {
	Get(ctx context.Context, id string) (post.Post, error)
}

// Invalidator tells connected clients which feeds a mutation made stale.
// Saves only concern the actor; everything else also reaches the author and
// the author's friends, whose friends feeds contain the post.
type Invalidator struct {
	hub     Publisher
	friends FriendResolver
	posts   AuthorLookup
	log     *slog.Logger
}

func NewInvalidator(hub Publisher, friends FriendResolver, posts AuthorLookup, log *slog.Logger) *Invalidator {
	if log == nil {
		log = slog.Default()
	}
	return &Invalidator{hub: hub, friends: friends, posts: posts, log: log}
}

func (i *Invalidator) Invalidate(ctx context.Context, ev post.Event) {
	for _, userID := range i.recipients(ctx, ev) {
		err := i.hub.Publish(ctx, userID, stream.Event{
			Type:    stream.EventFeedInvalidate,
			Reason:  ev.Reason,
			PostID:  ev.PostID,
			ActorID: ev.ActorID,
		})
		if err != nil {
			i.log.WarnContext(ctx, "publish invalidation failed",
				"userID", userID,
				"reason", ev.Reason,
				"error", err)
		}
	}
}

func (i *Invalidator) recipients(ctx context.Context, ev post.Event) []string {
	users := []string{ev.ActorID}
	if ev.Reason == post.ReasonSaved || ev.Reason == post.ReasonUnsaved {
		return users
	}

	authorID := ev.AuthorID
	if authorID == "" {
		p, err := i.posts.Get(ctx, ev.PostID)
		if err != nil {
			i.log.WarnContext(ctx, "invalidation author lookup failed",
				"postID", ev.PostID,
				"error", err)
			return users
		}
		authorID = p.AuthorID
	}
	users = append(users, authorID)
	users = append(users, i.friends.ResolveFriendIDs(ctx, authorID)...)
	return dedupe(users)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
