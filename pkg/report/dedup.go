package report

// Index is the set of distinct call handlers seen so far, keyed by the
// composite identity. The first-seen record wins; insertion order is
// preserved so the report is reproducible across runs.
type Index struct {
	seen  map[Key]struct{}
	order []CallHandler
}

// NewIndex creates an empty dedup index.
func NewIndex() *Index {
	return &Index{
		seen: make(map[Key]struct{}),
	}
}

// Add inserts a handler unless its composite key was already seen.
// Returns true when the handler was newly inserted.
func (idx *Index) Add(h CallHandler) bool {
	key := h.Key()
	if _, dup := idx.seen[key]; dup {
		return false
	}
	idx.seen[key] = struct{}{}
	idx.order = append(idx.order, h)
	return true
}

// Contains reports whether a handler with the given key has been added.
// It never mutates the index.
func (idx *Index) Contains(key Key) bool {
	_, ok := idx.seen[key]
	return ok
}

// Handlers returns the unique handlers in first-seen order.
func (idx *Index) Handlers() []CallHandler {
	return idx.order
}

// Len returns the number of unique handlers.
func (idx *Index) Len() int {
	return len(idx.order)
}
