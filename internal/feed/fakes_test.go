package feed

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/maiimostafaa/voyager-sub001/internal/post"
	"github.com/maiimostafaa/voyager-sub001/internal/profile"
	"github.com/maiimostafaa/voyager-sub001/internal/stream"
)

var errStore = errors.New("store unavailable")

// memStore is an in-memory PostStore and Reactor.
type memStore struct {
	mu sync.Mutex

	posts  []post.Post
	tags   []post.Tag
	images []post.Image
	likes  []post.Reaction
	saves  []post.Reaction

	failTags   bool
	failPosts  bool
	failLike   bool
	failUnlike bool
	// failLikes fails that many upcoming Like calls.
	failLikes   int
	likeDelay   time.Duration
	postQueries int
}

func (m *memStore) PostsByAuthors(_ context.Context, authorIDs []string) ([]post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postQueries++
	if m.failPosts {
		return nil, errStore
	}
	var out []post.Post
	for _, p := range m.posts {
		if slices.Contains(authorIDs, p.AuthorID) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b post.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (m *memStore) PostsByUser(ctx context.Context, userID string) ([]post.Post, error) {
	return m.PostsByAuthors(ctx, []string{userID})
}

func (m *memStore) SavedPosts(_ context.Context, userID string) ([]post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []post.Post
	for _, s := range m.saves {
		if s.UserID != userID {
			continue
		}
		for _, p := range m.posts {
			if p.ID == s.PostID {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *memStore) Tags(_ context.Context, ids []string) ([]post.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTags {
		return nil, errStore
	}
	var out []post.Tag
	for _, t := range m.tags {
		if slices.Contains(ids, t.PostID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) Images(_ context.Context, ids []string) ([]post.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []post.Image
	for _, img := range m.images {
		if slices.Contains(ids, img.PostID) {
			out = append(out, img)
		}
	}
	return out, nil
}

func (m *memStore) LikesBy(_ context.Context, userID string, ids []string) ([]post.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterReactions(m.likes, userID, ids), nil
}

func (m *memStore) SavesBy(_ context.Context, userID string, ids []string) ([]post.Reaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterReactions(m.saves, userID, ids), nil
}

func (m *memStore) LikeCounts(_ context.Context, ids []string) ([]post.LikeCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, l := range m.likes {
		if slices.Contains(ids, l.PostID) {
			counts[l.PostID]++
		}
	}
	var out []post.LikeCount
	for id, n := range counts {
		out = append(out, post.LikeCount{PostID: id, Count: n})
	}
	return out, nil
}

func (m *memStore) Like(_ context.Context, postID, userID string) error {
	if m.likeDelay > 0 {
		time.Sleep(m.likeDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLikes > 0 {
		m.failLikes--
		return errStore
	}
	if m.failLike {
		return errStore
	}
	if !hasReaction(m.likes, postID, userID) {
		m.likes = append(m.likes, post.Reaction{PostID: postID, UserID: userID})
	}
	return nil
}

func (m *memStore) Unlike(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUnlike {
		return errStore
	}
	m.likes = removeReaction(m.likes, postID, userID)
	return nil
}

func (m *memStore) Save(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !hasReaction(m.saves, postID, userID) {
		m.saves = append(m.saves, post.Reaction{PostID: postID, UserID: userID})
	}
	return nil
}

func (m *memStore) Unsave(_ context.Context, postID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = removeReaction(m.saves, postID, userID)
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (post.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return post.Post{}, post.ErrNotFound
}

func (m *memStore) likeRows(postID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.likes {
		if l.PostID == postID {
			n++
		}
	}
	return n
}

func filterReactions(rows []post.Reaction, userID string, ids []string) []post.Reaction {
	var out []post.Reaction
	for _, r := range rows {
		if r.UserID == userID && slices.Contains(ids, r.PostID) {
			out = append(out, r)
		}
	}
	return out
}

func hasReaction(rows []post.Reaction, postID, userID string) bool {
	return slices.ContainsFunc(rows, func(r post.Reaction) bool { return r.PostID == postID && r.UserID == userID })
}

func removeReaction(rows []post.Reaction, postID, userID string) []post.Reaction {
	return slices.DeleteFunc(rows, func(r post.Reaction) bool { return r.PostID == postID && r.UserID == userID })
}

type memProfiles struct {
	byID map[string]profile.Summary
	fail bool
}

func (m *memProfiles) Summaries(_ context.Context, ids []string) ([]profile.Summary, error) {
	if m.fail {
		return nil, errStore
	}
	var out []profile.Summary
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type staticFriends map[string][]string

func (f staticFriends) ResolveFriendIDs(_ context.Context, viewerID string) []string {
	ids := f[viewerID]
	if ids == nil {
		return []string{}
	}
	return ids
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent map[string][]stream.Event
}

func (p *recordingPublisher) Publish(_ context.Context, userID string, ev stream.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sent == nil {
		p.sent = map[string][]stream.Event{}
	}
	p.sent[userID] = append(p.sent[userID], ev)
	return nil
}
