package feed

import "sync"

// keyedQueue orders work per key: a turn reserved later waits for every
// earlier turn on the same key to finish.
type keyedQueue struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func newKeyedQueue() *keyedQueue {
	return &keyedQueue{tails: map[string]chan struct{}{}}
}

type turn struct {
	q    *keyedQueue
	key  string
	prev chan struct{}
	done chan struct{}
}

// reserve takes the next place in line for key. The caller must call wait
// and then release exactly once.
func (q *keyedQueue) reserve(key string) *turn {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := &turn{q: q, key: key, prev: q.tails[key], done: make(chan struct{})}
	q.tails[key] = t.done
	return t
}

func (t *turn) wait() {
	if t.prev != nil {
		<-t.prev
	}
}

func (t *turn) release() {
	close(t.done)
	t.q.mu.Lock()
	if t.q.tails[t.key] == t.done {
		delete(t.q.tails, t.key)
	}
	t.q.mu.Unlock()
}

func (q *keyedQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tails)
}

func reactionKey(kind, postID, viewerID string) string {
	return kind + "\x00" + postID + "\x00" + viewerID
}
