package feed

import (
	"context"
	"sync"

	"github.com/maiimostafaa/voyager-sub001/internal/metrics"
)

// Timeline is one viewer's feed as shown on screen. Toggles flip the local
// state at once and confirm it remotely in the background; a failed
// confirmation is undone.
type Timeline struct {
	viewerID  string
	reactions *Reactions

	mu    sync.Mutex
	posts []FeedPost
	index map[string]int
	// issued counts toggles per (kind, post); confirmed holds the last state
	// the server acknowledged for keys that have been toggled.
	issued    map[string]uint64
	confirmed map[string]bool

	inflight sync.WaitGroup
}

func newTimeline(viewerID string, posts []FeedPost, reactions *Reactions) *Timeline {
	t := &Timeline{
		viewerID:  viewerID,
		reactions: reactions,
		posts:     make([]FeedPost, len(posts)),
		index:     make(map[string]int, len(posts)),
		issued:    make(map[string]uint64),
		confirmed: make(map[string]bool),
	}
	copy(t.posts, posts)
	for i, p := range t.posts {
		t.index[p.ID] = i
	}
	return t
}

// Posts returns a snapshot of the local state.
func (t *Timeline) Posts() []FeedPost {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]FeedPost, len(t.posts))
	copy(out, t.posts)
	return out
}

func (t *Timeline) Post(postID string) (FeedPost, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[postID]
	if !ok {
		return FeedPost{}, false
	}
	return t.posts[i], true
}

// ToggleLike flips is_liked and likes_count for postID and returns the new
// local state. ok is false when the post is not on the timeline.
func (t *Timeline) ToggleLike(ctx context.Context, postID string) (FeedPost, bool) {
	return t.toggle(ctx, KindLike, postID)
}

func (t *Timeline) ToggleSave(ctx context.Context, postID string) (FeedPost, bool) {
	return t.toggle(ctx, KindSave, postID)
}

// Wait blocks until every remote mutation issued so far has settled.
func (t *Timeline) Wait() {
	t.inflight.Wait()
}

func (t *Timeline) toggle(ctx context.Context, kind, postID string) (FeedPost, bool) {
	t.mu.Lock()
	i, ok := t.index[postID]
	if !ok {
		t.mu.Unlock()
		return FeedPost{}, false
	}
	key := reactionKey(kind, postID, t.viewerID)
	if _, seen := t.confirmed[key]; !seen {
		t.confirmed[key] = flag(t.posts[i], kind)
	}
	t.issued[key]++
	seq := t.issued[key]

	target := !flag(t.posts[i], kind)
	set(&t.posts[i], kind, target)
	updated := t.posts[i]
	// Reserving under the lock makes the remote order match the flip order.
	turn := t.reactions.queue.reserve(key)
	t.inflight.Add(1)
	t.mu.Unlock()

	remoteCtx := context.WithoutCancel(ctx)
	go func() {
		defer t.inflight.Done()
		turn.wait()
		err := t.reactions.mutate(remoteCtx, kind, postID, t.viewerID, target)
		turn.release()
		if err != nil {
			t.reactions.log.WarnContext(remoteCtx, "toggle failed",
				"kind", kind,
				"postID", postID,
				"viewerID", t.viewerID,
				"error", err)
		}
		t.settle(kind, postID, key, seq, target, err)
	}()
	return updated, true
}

// settle records the outcome of toggle seq. Remote mutations for a key run
// in issue order, so when the latest toggle fails every earlier one has
// settled and confirmed is the server's state. Failures of earlier toggles
// are left to the latest one.
func (t *Timeline) settle(kind, postID, key string, seq uint64, target bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		t.confirmed[key] = target
		return
	}
	if t.issued[key] != seq {
		return
	}
	i, ok := t.index[postID]
	if !ok || flag(t.posts[i], kind) == t.confirmed[key] {
		return
	}
	set(&t.posts[i], kind, t.confirmed[key])
	metrics.RecordToggleRevert(kind)
}

func flag(p FeedPost, kind string) bool {
	if kind == KindLike {
		return p.IsLiked
	}
	return p.IsSaved
}

func set(p *FeedPost, kind string, on bool) {
	if kind == KindSave {
		p.IsSaved = on
		return
	}
	if p.IsLiked == on {
		return
	}
	p.IsLiked = on
	if on {
		p.LikesCount++
	} else if p.LikesCount > 0 {
		p.LikesCount--
	}
}
