package indexcache

import "sync"

// registry is the key -> index map. Its mutex is held only for lookup,
// insert and removal, never across a build or a search.
type registry struct {
	mu      sync.Mutex
	entries map[string]*SearchIndex
}

// getOrInsert returns the index for key, creating it with create on a miss.
// The bool reports whether this call inserted it.
func (r *registry) getOrInsert(key IndexKey, create func() *SearchIndex) (*SearchIndex, bool) {
	id := key.Identity()

	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.entries[id]; ok {
		return idx, false
	}
	if r.entries == nil {
		r.entries = make(map[string]*SearchIndex)
	}
	idx := create()
	r.entries[id] = idx
	return idx, true
}

// remove deletes and returns the index for key.
func (r *registry) remove(key IndexKey) (*SearchIndex, bool) {
	id := key.Identity()

	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return idx, ok
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
