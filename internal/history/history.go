// Package history tracks recently served item ids for exclusion.
package history

// DefaultSize is the default window length.
const DefaultSize = 20

// Window is a bounded, most-recent-first sequence of served ids. It is used
// only for exclusion, never for statistics.
type Window struct {
	size int
	ids  []string
}

// NewWindow returns an empty window holding at most size ids.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultSize
	}
	return &Window{size: size, ids: make([]string, 0, size)}
}

// Push records id as the most recent entry, dropping the oldest when full.
func (w *Window) Push(id string) {
	if len(w.ids) < w.size {
		w.ids = append(w.ids, "")
	}
	copy(w.ids[1:], w.ids[:len(w.ids)-1])
	w.ids[0] = id
}

// Recent returns a copy of the ids, most recent first.
func (w *Window) Recent() []string {
	return append([]string(nil), w.ids...)
}

// Len returns the number of stored ids.
func (w *Window) Len() int {
	return len(w.ids)
}

// Size returns the capacity.
func (w *Window) Size() int {
	return w.size
}

// Reset empties the window.
func (w *Window) Reset() {
	w.ids = w.ids[:0]
}

// Exclusion returns the set of the n most recent ids; n is capped at Len.
func (w *Window) Exclusion(n int) map[string]struct{} {
	if w == nil || n <= 0 {
		return map[string]struct{}{}
	}
	if n > len(w.ids) {
		n = len(w.ids)
	}
	set := make(map[string]struct{}, n)
	for _, id := range w.ids[:n] {
		set[id] = struct{}{}
	}
	return set
}

// UsedSet holds the ids served during the current session.
type UsedSet struct {
	ids map[string]struct{}
}

// NewUsedSet returns an empty set.
func NewUsedSet() *UsedSet {
	return &UsedSet{ids: map[string]struct{}{}}
}

// Add marks id as used.
func (u *UsedSet) Add(id string) {
	u.ids[id] = struct{}{}
}

// Has reports whether id was used. A nil set contains nothing.
func (u *UsedSet) Has(id string) bool {
	if u == nil {
		return false
	}
	_, ok := u.ids[id]
	return ok
}

// Len returns the number of used ids.
func (u *UsedSet) Len() int {
	if u == nil {
		return 0
	}
	return len(u.ids)
}

// Reset empties the set.
func (u *UsedSet) Reset() {
	u.ids = map[string]struct{}{}
}
