package feed

import (
	"context"
	"log/slog"

	"github.com/maiimostafaa/voyager-sub001/internal/metrics"
	"github.com/maiimostafaa/voyager-sub001/internal/post"
)

type Assembler struct {
	friends FriendResolver
	posts   PostStore
	engine  *Engine
	log     *slog.Logger
}

func NewAssembler(friends FriendResolver, posts PostStore, engine *Engine, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{friends: friends, posts: posts, engine: engine, log: log}
}

// BuildFriendsFeed returns every post written by the viewer's friends,
// newest first, enriched for the viewer. A viewer without friends gets an
// empty feed and no post query is issued.
func (a *Assembler) BuildFriendsFeed(ctx context.Context, viewerID string) []FeedPost {
	friendIDs := a.friends.ResolveFriendIDs(ctx, viewerID)
	if len(friendIDs) == 0 {
		metrics.RecordFeedBuild(0, true)
		return []FeedPost{}
	}

	posts, err := a.posts.PostsByAuthors(ctx, friendIDs)
	if err != nil {
		a.log.WarnContext(ctx, "friends feed query failed",
			"viewerID", viewerID,
			"friends", len(friendIDs),
			"error", err)
		metrics.RecordFeedBuild(0, false)
		return []FeedPost{}
	}

	out := a.engine.Enrich(ctx, posts, viewerID)
	metrics.RecordFeedBuild(len(out), false)
	return out
}

// ProfileFeed lists userID's own posts as seen by viewerID.
func (a *Assembler) ProfileFeed(ctx context.Context, viewerID, userID string) []FeedPost {
	return a.load(ctx, "profile", viewerID, func() ([]post.Post, error) {
		return a.posts.PostsByUser(ctx, userID)
	})
}

// SavedFeed lists what viewerID saved, most recently saved first.
func (a *Assembler) SavedFeed(ctx context.Context, viewerID string) []FeedPost {
	return a.load(ctx, "saved", viewerID, func() ([]post.Post, error) {
		return a.posts.SavedPosts(ctx, viewerID)
	})
}

func (a *Assembler) load(ctx context.Context, kind, viewerID string, query func() ([]post.Post, error)) []FeedPost {
	posts, err := query()
	if err != nil {
		a.log.WarnContext(ctx, "feed query failed",
			"feed", kind,
			"viewerID", viewerID,
			"error", err)
		return []FeedPost{}
	}
	return a.engine.Enrich(ctx, posts, viewerID)
}
