package aggregator

import "sync"

// OffsetTracker remembers how far each user has paged through the
// first-party catalog, so repeated plans surface different recipes
type OffsetTracker struct {
	mu      sync.Mutex
	offsets map[string]int
}

func NewOffsetTracker() *OffsetTracker {
	return &OffsetTracker{offsets: make(map[string]int)}
}

// Offset returns the next page start for user
func (t *OffsetTracker) Offset(user string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.offsets[user]
}

// Advance moves past a page of got rows. A short page means the catalog
// was exhausted and paging starts over.
func (t *OffsetTracker) Advance(user string, got, requested int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if requested <= 0 || got < requested {
		delete(t.offsets, user)
		return
	}
	t.offsets[user] += got
}

// Reset forgets user's position
func (t *OffsetTracker) Reset(user string) {
	t.mu.Lock()
	delete(t.offsets, user)
	t.mu.Unlock()
}
