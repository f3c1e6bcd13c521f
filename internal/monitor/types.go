package monitor

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Defaults carried over from the panel plugin this graph started life as.
const (
	DefaultSlots       = 2
	DefaultHistorySize = 128
	DefaultWidth       = 128
	DefaultHeight      = 64
	DefaultInterval    = time.Second
)

// Interval bounds. Intervals move in IntervalStep increments.
const (
	MinInterval  = 500 * time.Millisecond
	MaxInterval  = 10 * time.Second
	IntervalStep = 500 * time.Millisecond
)

// Unavailable marks a slot with no reading for a tick.
// Any negative value is treated the same way.
const Unavailable = -1.0

// IsAvailable reports whether v is a real reading.
func IsAvailable(v float64) bool {
	return v >= 0
}

// Batch holds one tick's readings, indexed by slot.
type Batch []float64

// NewBatch returns a batch of n slots, all Unavailable.
func NewBatch(n int) Batch {
	if n < 0 {
		n = 0
	}
	b := make(Batch, n)
	for i := range b {
		b[i] = Unavailable
	}
	return b
}

// AnyAvailable reports whether at least one slot has a reading.
func (b Batch) AnyAvailable() bool {
	for _, v := range b {
		if IsAvailable(v) {
			return true
		}
	}
	return false
}

// SlotSettings is the per-device configuration supplied by the host.
type SlotSettings struct {
	Enabled bool
	Color   colorful.Color
}

// Settings is everything the host can reconfigure at runtime.
type Settings struct {
	Width    int
	Height   int
	Interval time.Duration
	Slots    []SlotSettings
}

// DefaultSettings returns two slots: slot 0 enabled green, slot 1 disabled red.
func DefaultSettings() Settings {
	return Settings{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Interval: DefaultInterval,
		Slots: []SlotSettings{
			{Enabled: true, Color: colorful.Color{R: 0, G: 1, B: 0}},
			{Enabled: false, Color: colorful.Color{R: 1, G: 0, B: 0}},
		},
	}
}

// Clone returns a deep copy so callers can't mutate the slot slice we hold.
func (s Settings) Clone() Settings {
	out := s
	out.Slots = make([]SlotSettings, len(s.Slots))
	copy(out.Slots, s.Slots)
	return out
}

// EnabledCount returns the number of enabled slots.
func (s Settings) EnabledCount() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.Enabled {
			n++
		}
	}
	return n
}

// Slot is a device slot as seen by the tooltip: settings plus the last raw reading.
type Slot struct {
	Index   int
	Enabled bool
	Usage   float64 // Unavailable until the first reading
}

// ClampInterval snaps d onto the 500ms grid and into [MinInterval, MaxInterval].
func ClampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d.Round(IntervalStep)
}
