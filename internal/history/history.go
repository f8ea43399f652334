// Package history keeps the bounded list of recently scanned URLs.
package history

import "sync"

// DefaultSize is the number of URLs kept when no size is configured.
const DefaultSize = 20

// History is a de-duplicated, most-recent-first list of URLs with a fixed
// capacity. The oldest entry is evicted when a new URL would exceed it.
// It is safe for concurrent use.
type History struct {
	mu    sync.Mutex
	size  int
	items []string
}

// New creates a History holding at most size URLs. A non-positive size
// uses DefaultSize and sizes above DefaultSize are capped to it.
func New(size int) *History {
	if size <= 0 || size > DefaultSize {
		size = DefaultSize
	}
	return &History{size: size}
}

// Push moves url to the front, inserting it if absent.
func (h *History) Push(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := make([]string, 0, h.size)
	items = append(items, url)
	for _, existing := range h.items {
		if existing == url {
			continue
		}
		if len(items) == h.size {
			break
		}
		items = append(items, existing)
	}
	h.items = items
}

// Items returns a copy of the URLs, most recent first.
func (h *History) Items() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of stored URLs.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// Clear removes every URL.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = nil
}
