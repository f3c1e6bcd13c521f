package monitor

import "sync"

// History keeps a fixed-size ring buffer of readings per slot.
//
// All slots share one write cursor and one fill count. Each tick writes every
// available reading at the cursor, then the cursor moves forward for all
// slots together. A slot with no reading that tick is left alone, so the
// value already sitting at that position (zero, or one from a lap ago) shows
// up as that tick's sample. Position i means the same tick in every slot,
// which is what lets the renderer line bars up across bands.
type History struct {
	mu    sync.RWMutex
	size  int
	head  int // next position to write
	count int // valid positions, saturates at size
	data  [][]float64
}

// NewHistory creates zero-filled history for slots devices, size samples each.
func NewHistory(slots, size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	if slots < 0 {
		slots = 0
	}
	data := make([][]float64, slots)
	for i := range data {
		data[i] = make([]float64, size)
	}
	return &History{
		size: size,
		data: data,
	}
}

// Append records one tick.
//
// A batch with no available slot at all is dropped: nothing is written and
// the cursor stays put, so a dead source doesn't pad the graph with stale
// bars. Returns true if the timeline advanced.
func (h *History) Append(batch Batch) bool {
	if !batch.AnyAvailable() {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for slot, buf := range h.data {
		if slot < len(batch) && IsAvailable(batch[slot]) {
			buf[h.head] = batch[slot]
		}
	}

	h.head = (h.head + 1) % h.size
	if h.count < h.size {
		h.count++
	}
	return true
}

// Snapshot returns the valid samples for slot in chronological order (oldest first).
// Returns nil for an unknown slot or an empty history.
func (h *History) Snapshot(slot int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if slot < 0 || slot >= len(h.data) {
		return nil
	}
	return h.window(h.data[slot])
}

// Snapshots returns every slot's window, taken under one lock so they line up.
func (h *History) Snapshots() [][]float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([][]float64, len(h.data))
	for i, buf := range h.data {
		out[i] = h.window(buf)
	}
	return out
}

// Count returns the fill count shared by all slots.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Cursor returns the next position to be written.
func (h *History) Cursor() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.head
}

// Size returns the per-slot capacity.
func (h *History) Size() int {
	return h.size
}

// Slots returns the number of slots tracked.
func (h *History) Slots() int {
	return len(h.data)
}

// Clear zeroes every buffer and resets the cursor and fill count.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, buf := range h.data {
		for i := range buf {
			buf[i] = 0
		}
	}
	h.head = 0
	h.count = 0
}

// window returns the last count values of buf in chronological order.
// Must be called with h.mu held.
func (h *History) window(buf []float64) []float64 {
	if h.count == 0 {
		return nil
	}

	result := make([]float64, h.count)

	// head points at the next write, so the newest value is at head-1 and
	// the oldest valid one is count positions behind head.
	start := (h.head - h.count + h.size) % h.size

	for i := 0; i < h.count; i++ {
		result[i] = buf[(start+i)%h.size]
	}

	return result
}
