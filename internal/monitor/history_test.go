package monitor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistory(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultHistorySize},
		{"negative size", -1, DefaultHistorySize},
		{"custom size", 100, 100},
		{"small size", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(2, tt.size)
			require.NotNil(t, h)
			assert.Equal(t, tt.expected, h.Size())
			assert.Equal(t, 2, h.Slots())
			assert.Equal(t, 0, h.Count())
			assert.Equal(t, 0, h.Cursor())
		})
	}
}

func TestHistoryAppendSingleSlotWraps(t *testing.T) {
	h := NewHistory(1, 4)

	for _, v := range []float64{0.1, 0.2, 0.3, 0.4, 0.5} {
		assert.True(t, h.Append(Batch{v}))
	}

	assert.Equal(t, 4, h.Count())
	assert.Equal(t, 1, h.Cursor())
	assert.Equal(t, []float64{0.2, 0.3, 0.4, 0.5}, h.Snapshot(0))
}

func TestHistorySnapshotLengthTracksTicks(t *testing.T) {
	const capacity = 5
	h := NewHistory(2, capacity)

	assert.Nil(t, h.Snapshot(0), "empty history has no window")

	for tick := 1; tick <= 3*capacity; tick++ {
		h.Append(Batch{float64(tick) / 100, 0.5})

		want := tick
		if want > capacity {
			want = capacity
		}
		assert.Len(t, h.Snapshot(0), want, "tick %d", tick)
		assert.Len(t, h.Snapshot(1), want, "tick %d", tick)
		assert.LessOrEqual(t, h.Count(), capacity)
	}
}

func TestHistoryCircularOrder(t *testing.T) {
	const capacity = 6

	for k := 0; k < 2*capacity; k++ {
		h := NewHistory(1, capacity)
		var written []float64
		for i := 0; i < capacity+k; i++ {
			v := float64(i) / 100
			written = append(written, v)
			h.Append(Batch{v})
		}

		got := h.Snapshot(0)
		assert.Equal(t, written[len(written)-capacity:], got, "k=%d", k)
	}
}

func TestHistorySkipOnFailureSharesCursor(t *testing.T) {
	h := NewHistory(2, 4)

	h.Append(Batch{0.1, 0.9})
	h.Append(Batch{0.2, 0.8})

	// Slot 1 drops out for a tick; slot 0 keeps the timeline moving.
	cursorBefore := h.Cursor()
	assert.True(t, h.Append(Batch{0.3, Unavailable}))

	assert.Equal(t, (cursorBefore+1)%4, h.Cursor(), "shared cursor advances")
	assert.Equal(t, 3, h.Count())

	assert.Equal(t, []float64{0.1, 0.2, 0.3}, h.Snapshot(0))
	// Position 2 in slot 1 was never written, so it still holds its zero fill.
	assert.Equal(t, []float64{0.9, 0.8, 0}, h.Snapshot(1))
}

func TestHistorySkipKeepsValueFromPreviousLap(t *testing.T) {
	h := NewHistory(2, 2)

	h.Append(Batch{0.1, 0.5})         // pos 0
	h.Append(Batch{0.2, 0.6})         // pos 1
	h.Append(Batch{0.3, Unavailable}) // pos 0 again, slot 1 untouched

	// Slot 1's position 0 still holds 0.5 from the first lap.
	assert.Equal(t, []float64{0.6, 0.5}, h.Snapshot(1))
	assert.Equal(t, []float64{0.2, 0.3}, h.Snapshot(0))
}

func TestHistoryAllUnavailableIsNotATick(t *testing.T) {
	h := NewHistory(2, 4)
	h.Append(Batch{0.4, 0.6})

	countBefore, cursorBefore := h.Count(), h.Cursor()
	before := h.Snapshots()

	assert.False(t, h.Append(NewBatch(2)))

	assert.Equal(t, countBefore, h.Count())
	assert.Equal(t, cursorBefore, h.Cursor())
	assert.Equal(t, before, h.Snapshots())
}

func TestHistoryAllUnavailableOnEmptyHistory(t *testing.T) {
	h := NewHistory(2, 4)
	h.Append(NewBatch(2))

	assert.Equal(t, 0, h.Count())
	assert.Nil(t, h.Snapshot(0))
	assert.Nil(t, h.Snapshot(1))
}

func TestHistoryShortAndLongBatches(t *testing.T) {
	h := NewHistory(2, 4)

	// Short batch: missing slots are treated as unavailable.
	h.Append(Batch{0.7})
	assert.Equal(t, []float64{0.7}, h.Snapshot(0))
	assert.Equal(t, []float64{0}, h.Snapshot(1))

	// Long batch: extra values are ignored.
	h.Append(Batch{0.1, 0.2, 0.3})
	assert.Equal(t, []float64{0.7, 0.1}, h.Snapshot(0))
	assert.Equal(t, []float64{0, 0.2}, h.Snapshot(1))
}

func TestHistorySnapshotUnknownSlot(t *testing.T) {
	h := NewHistory(2, 4)
	h.Append(Batch{0.1, 0.2})

	assert.Nil(t, h.Snapshot(-1))
	assert.Nil(t, h.Snapshot(2))
}

func TestHistorySnapshotIsACopy(t *testing.T) {
	h := NewHistory(1, 4)
	h.Append(Batch{0.5})

	snap := h.Snapshot(0)
	snap[0] = 99

	assert.Equal(t, []float64{0.5}, h.Snapshot(0))
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(2, 4)
	for i := 0; i < 6; i++ {
		h.Append(Batch{0.5, 0.5})
	}

	h.Clear()

	assert.Equal(t, 0, h.Count())
	assert.Equal(t, 0, h.Cursor())
	assert.Nil(t, h.Snapshot(0))

	h.Append(Batch{0.1, Unavailable})
	assert.Equal(t, []float64{0}, h.Snapshot(1), "buffers are zeroed, not just hidden")
}

func TestHistoryConcurrentAccess(t *testing.T) {
	h := NewHistory(2, 16)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			h.Append(Batch{0.5, 0.25})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snaps := h.Snapshots()
			assert.Equal(t, len(snaps[0]), len(snaps[1]))
		}
	}()

	wg.Wait()
	assert.Equal(t, 16, h.Count())
}
