package nowplaying

import "sync"

// Holder keeps the current Snapshot. It performs no validation.
type Holder struct {
	mu   sync.RWMutex
	snap Snapshot
}

// Set replaces the current snapshot.
func (h *Holder) Set(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap = s
}

// Current returns the most recently set snapshot, or the zero Snapshot.
func (h *Holder) Current() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}
