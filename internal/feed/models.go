package feed

import (
	"context"

	"github.com/maiimostafaa/voyager-sub001/internal/post"
	"github.com/maiimostafaa/voyager-sub001/internal/profile"
)

// FeedPost is a post joined with everything a card needs. IsLiked and
// IsSaved are relative to the viewer the post was enriched for.
type FeedPost struct {
	post.Post
	User       profile.Summary `json:"user"`
	Tags       []string        `json:"tags"`
	Images     []string        `json:"images"`
	LikesCount int64           `json:"likes_count"`
	IsLiked    bool            `json:"is_liked"`
	IsSaved    bool            `json:"is_saved"`
}

type PostStore interface {
	PostsByAuthors(ctx context.Context, authorIDs []string) ([]post.Post, error)
	PostsByUser(ctx context.Context, userID string) ([]post.Post, error)
	SavedPosts(ctx context.Context, userID string) ([]post.Post, error)
	Tags(ctx context.Context, postIDs []string) ([]post.Tag, error)
	Images(ctx context.Context, postIDs []string) ([]post.Image, error)
	LikesBy(ctx context.Context, userID string, postIDs []string) ([]post.Reaction, error)
	SavesBy(ctx context.Context, userID string, postIDs []string) ([]post.Reaction, error)
	LikeCounts(ctx context.Context, postIDs []string) ([]post.LikeCount, error)
}

type ProfileStore interface {
	Summaries(ctx context.Context, ids []string) ([]profile.Summary, error)
}

type FriendResolver interface {
	ResolveFriendIDs(ctx context.Context, viewerID string) []string
}

// Reactor performs the remote like/save mutations.
type Reactor interface {
	Like(ctx context.Context, postID, userID string) error
	Unlike(ctx context.Context, postID, userID string) error
	Save(ctx context.Context, postID, userID string) error
	Unsave(ctx context.Context, postID, userID string) error
}
