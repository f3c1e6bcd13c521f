package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsAvailable(t *testing.T) {
	assert.True(t, IsAvailable(0))
	assert.True(t, IsAvailable(0.5))
	assert.True(t, IsAvailable(1.2), "over-range readings are still readings")
	assert.False(t, IsAvailable(Unavailable))
	assert.False(t, IsAvailable(-0.01))
}

func TestNewBatch(t *testing.T) {
	tests := []struct {
		name string
		n    int
		len  int
	}{
		{"two slots", 2, 2},
		{"zero", 0, 0},
		{"negative", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBatch(tt.n)
			assert.Len(t, b, tt.len)
			for _, v := range b {
				assert.Equal(t, Unavailable, v)
			}
			assert.False(t, b.AnyAvailable())
		})
	}
}

func TestBatchAnyAvailable(t *testing.T) {
	assert.True(t, Batch{Unavailable, 0}.AnyAvailable())
	assert.True(t, Batch{0.3}.AnyAvailable())
	assert.False(t, Batch{}.AnyAvailable())
	assert.False(t, Batch{-1, -0.5}.AnyAvailable())
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 128, s.Width)
	assert.Equal(t, 64, s.Height)
	assert.Equal(t, time.Second, s.Interval)
	assert.Len(t, s.Slots, DefaultSlots)

	assert.True(t, s.Slots[0].Enabled)
	assert.Equal(t, "#00ff00", s.Slots[0].Color.Hex())
	assert.False(t, s.Slots[1].Enabled)
	assert.Equal(t, "#ff0000", s.Slots[1].Color.Hex())

	assert.Equal(t, 1, s.EnabledCount())
}

func TestSettingsClone(t *testing.T) {
	s := DefaultSettings()
	c := s.Clone()

	c.Slots[0].Enabled = false
	c.Width = 300

	assert.True(t, s.Slots[0].Enabled)
	assert.Equal(t, 128, s.Width)
}

func TestClampInterval(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected time.Duration
	}{
		{0, MinInterval},
		{100 * time.Millisecond, MinInterval},
		{500 * time.Millisecond, 500 * time.Millisecond},
		{time.Second, time.Second},
		{1200 * time.Millisecond, time.Second},
		{1300 * time.Millisecond, 1500 * time.Millisecond},
		{10 * time.Second, 10 * time.Second},
		{time.Minute, MaxInterval},
	}

	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampInterval(tt.in))
		})
	}
}
