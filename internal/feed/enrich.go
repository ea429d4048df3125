package feed

import (
	"context"
	"log/slog"

	"github.com/maiimostafaa/voyager-sub001/internal/post"
	"github.com/maiimostafaa/voyager-sub001/internal/profile"

	"golang.org/x/sync/errgroup"
)

type Engine struct {
	posts    PostStore
	profiles ProfileStore
	log      *slog.Logger
}

func NewEngine(posts PostStore, profiles ProfileStore, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{posts: posts, profiles: profiles, log: log}
}

// Enrich attaches tags, images, like counts, the author summary and the
// viewer's like/save flags to posts. The six lookups run concurrently and
// are all awaited before projecting. A failed lookup is logged and treated
// as returning no rows, so every input post is always present in the
// output, in input order.
func (e *Engine) Enrich(ctx context.Context, posts []post.Post, viewerID string) []FeedPost {
	if len(posts) == 0 {
		return []FeedPost{}
	}
	ids := postIDs(posts)

	var (
		tags     []post.Tag
		images   []post.Image
		likes    []post.Reaction
		saves    []post.Reaction
		counts   []post.LikeCount
		profiles []profile.Summary
	)

	// Not errgroup.WithContext: one failed lookup must not cancel the others.
	var g errgroup.Group
	fetch := func(source string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				e.log.WarnContext(ctx, "enrichment lookup failed",
					"source", source,
					"posts", len(ids),
					"error", err)
			}
			return nil
		})
	}

	fetch("post_tags", func() (err error) {
		tags, err = e.posts.Tags(ctx, ids)
		return
	})
	fetch("post_images", func() (err error) {
		images, err = e.posts.Images(ctx, ids)
		return
	})
	fetch("like_counts", func() (err error) {
		counts, err = e.posts.LikeCounts(ctx, ids)
		return
	})
	fetch("profiles", func() (err error) {
		profiles, err = e.profiles.Summaries(ctx, authorIDs(posts))
		return
	})
	if viewerID != "" {
		fetch("post_likes", func() (err error) {
			likes, err = e.posts.LikesBy(ctx, viewerID, ids)
			return
		})
		fetch("post_saves", func() (err error) {
			saves, err = e.posts.SavesBy(ctx, viewerID, ids)
			return
		})
	}
	_ = g.Wait()

	tagsByPost := groupBy(tags, func(t post.Tag) string { return t.PostID }, func(t post.Tag) string { return t.Name })
	imagesByPost := groupBy(images, func(i post.Image) string { return i.PostID }, func(i post.Image) string { return i.URL })
	liked := reactionSet(likes)
	saved := reactionSet(saves)

	likeCounts := make(map[string]int64, len(counts))
	for _, c := range counts {
		likeCounts[c.PostID] = c.Count
	}
	authors := make(map[string]profile.Summary, len(profiles))
	for _, p := range profiles {
		authors[p.ID] = p
	}

	out := make([]FeedPost, 0, len(posts))
	for _, p := range posts {
		fp := FeedPost{
			Post:       p,
			Tags:       orEmpty(tagsByPost[p.ID]),
			Images:     orEmpty(imagesByPost[p.ID]),
			LikesCount: likeCounts[p.ID],
			IsLiked:    liked[p.ID],
			IsSaved:    saved[p.ID],
		}
		if author, ok := authors[p.AuthorID]; ok {
			fp.User = author
		} else {
			fp.User = profile.Placeholder(p.AuthorID)
		}
		out = append(out, fp)
	}
	return out
}

// groupBy builds a multimap from key to values, keeping row order.
func groupBy[T, V any](rows []T, key func(T) string, value func(T) V) map[string][]V {
	out := make(map[string][]V)
	for _, row := range rows {
		k := key(row)
		out[k] = append(out[k], value(row))
	}
	return out
}

func reactionSet(rows []post.Reaction) map[string]bool {
	set := make(map[string]bool, len(rows))
	for _, r := range rows {
		set[r.PostID] = true
	}
	return set
}

func postIDs(posts []post.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func authorIDs(posts []post.Post) []string {
	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		ids = append(ids, p.AuthorID)
	}
	return ids
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
