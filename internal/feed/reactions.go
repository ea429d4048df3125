package feed

import (
	"context"
	"log/slog"
)

const (
	KindLike = "like"
	KindSave = "save"
)

type LikeState struct {
	PostID     string `json:"post_id"`
	IsLiked    bool   `json:"is_liked"`
	LikesCount int64  `json:"likes_count"`
}

type SaveState struct {
	PostID  string `json:"post_id"`
	IsSaved bool   `json:"is_saved"`
}

// Reactions applies like/save mutations so that requests for the same
// (kind, post, viewer) reach the database in the order they arrived.
type Reactions struct {
	remote Reactor
	posts  PostStore
	queue  *keyedQueue
	log    *slog.Logger
}

func NewReactions(remote Reactor, posts PostStore, log *slog.Logger) *Reactions {
	if log == nil {
		log = slog.Default()
	}
	return &Reactions{remote: remote, posts: posts, queue: newKeyedQueue(), log: log}
}

func (r *Reactions) SetLike(ctx context.Context, postID, viewerID string, liked bool) (LikeState, error) {
	if err := r.apply(ctx, KindLike, postID, viewerID, liked); err != nil {
		return LikeState{}, err
	}
	state := LikeState{PostID: postID, IsLiked: liked}
	counts, err := r.posts.LikeCounts(ctx, []string{postID})
	if err != nil {
		r.log.WarnContext(ctx, "like count lookup failed", "postID", postID, "error", err)
		return state, nil
	}
	for _, c := range counts {
		if c.PostID == postID {
			state.LikesCount = c.Count
		}
	}
	return state, nil
}

func (r *Reactions) SetSave(ctx context.Context, postID, viewerID string, saved bool) (SaveState, error) {
	if err := r.apply(ctx, KindSave, postID, viewerID, saved); err != nil {
		return SaveState{}, err
	}
	return SaveState{PostID: postID, IsSaved: saved}, nil
}

// Timeline wraps an already enriched feed for optimistic toggling. Its
// remote mutations share the ordering of direct SetLike/SetSave calls.
func (r *Reactions) Timeline(viewerID string, posts []FeedPost) *Timeline {
	return newTimeline(viewerID, posts, r)
}

func (r *Reactions) apply(ctx context.Context, kind, postID, viewerID string, on bool) error {
	t := r.queue.reserve(reactionKey(kind, postID, viewerID))
	t.wait()
	defer t.release()
	return r.mutate(ctx, kind, postID, viewerID, on)
}

func (r *Reactions) mutate(ctx context.Context, kind, postID, viewerID string, on bool) error {
	switch {
	case kind == KindLike && on:
		return r.remote.Like(ctx, postID, viewerID)
	case kind == KindLike:
		return r.remote.Unlike(ctx, postID, viewerID)
	case on:
		return r.remote.Save(ctx, postID, viewerID)
	default:
		return r.remote.Unsave(ctx, postID, viewerID)
	}
}
