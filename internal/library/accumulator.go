package library

import (
	"slices"
	"sync"

	"github.com/desertthunder/soundwave/internal/models"
)

// Accumulator collects pages of a list endpoint. A page at offset 0 replaces everything
// collected so far; any later offset appends.
type Accumulator[T any] struct {
	mu     sync.RWMutex
	items  []T
	total  int
	offset int
	limit  int
	loaded bool
}

// Apply merges page into the accumulated list.
func (a *Accumulator[T]) Apply(page models.Page[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if page.Offset == 0 {
		a.items = slices.Clone(page.Items)
	} else {
		a.items = append(a.items, page.Items...)
	}
	a.total = page.Total
	a.offset = page.Offset
	a.limit = page.Limit
	a.loaded = true
}

// Reset forgets everything.
func (a *Accumulator[T]) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items, a.total, a.offset, a.limit, a.loaded = nil, 0, 0, 0, false
}

func (a *Accumulator[T]) Items() []T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.items)
}

func (a *Accumulator[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

func (a *Accumulator[T]) Total() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.total
}

// HasMore reports whether the last applied page was not the final one. False before any page.
func (a *Accumulator[T]) HasMore() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loaded && a.offset+a.limit < a.total
}

// NextOffset is the offset of the page after the last applied one.
func (a *Accumulator[T]) NextOffset() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.loaded {
		return 0
	}
	return a.offset + a.limit
}

// remove drops tracks whose URI is listed. The total shrinks accordingly.
func (a *Accumulator[T]) remove(uris []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	drop := make(map[string]bool, len(uris))
	for _, u := range uris {
		drop[u] = true
	}

	kept := a.items[:0]
	for _, item := range a.items {
		if t, ok := any(item).(models.Track); ok && drop[t.URI] {
			a.total--
			continue
		}
		kept = append(kept, item)
	}
	a.items = kept
}
