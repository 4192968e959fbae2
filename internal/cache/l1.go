package cache

import (
	"strings"
	"sync"

	"archmap/internal/bundle"
)

// l1 is the process-local tier. A plain map under a mutex: puts and clears
// must not interleave with gets, or a reader could observe a half-written
// entry.
type l1 struct {
	mu      sync.Mutex
	entries map[Key]entry
}

func newL1() *l1 {
	return &l1{entries: make(map[Key]entry)}
}

// get returns the cached bundle or nil. A stale entry is deleted under the
// same lock that found it.
func (t *l1) get(key Key, mt Mtimes) *bundle.ContextBundle {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return nil
	}
	if stale(e.mtimes, mt) {
		delete(t.entries, key)
		return nil
	}
	return e.bundle
}

func (t *l1) put(key Key, e entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key] = e
}

func (t *l1) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[Key]entry)
}

func (t *l1) clearRef(refID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := range t.entries {
		if strings.Contains(key.RefID, refID) {
			delete(t.entries, key)
		}
	}
}

func (t *l1) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
