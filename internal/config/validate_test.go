package config

import (
	"testing"
	"time"

	"github.com/rileyhilliard/gpugraph/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		errContains string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:   "nvml source",
			modify: func(c *Config) { c.Source = "nvml" },
		},
		{
			name: "command source with command and marker",
			modify: func(c *Config) {
				c.Source = "command"
				c.Command = "tool"
				c.Marker = "use: "
			},
		},
		{
			name:        "width too small",
			modify:      func(c *Config) { c.Width = 10 },
			errContains: "width must be at least 50",
		},
		{
			name:        "height too big",
			modify:      func(c *Config) { c.Height = 501 },
			errContains: "height must be at most 500",
		},
		{
			name:        "history size zero",
			modify:      func(c *Config) { c.HistorySize = 0 },
			errContains: "history_size must be at least 1",
		},
		{
			name:        "unknown source",
			modify:      func(c *Config) { c.Source = "intel" },
			errContains: "source 'intel' isn't one of: rocm, nvidia, nvml, command",
		},
		{
			name: "command source without command",
			modify: func(c *Config) {
				c.Source = "command"
				c.Marker = "use: "
			},
			errContains: "command is required",
		},
		{
			name: "command source without marker",
			modify: func(c *Config) {
				c.Source = "command"
				c.Command = "tool"
			},
			errContains: "marker is required",
		},
		{
			name:        "negative timeout",
			modify:      func(c *Config) { c.SampleTimeout = -time.Second },
			errContains: "sample_timeout must be at least 0",
		},
		{
			name: "too many slots",
			modify: func(c *Config) {
				for len(c.Slots) <= MaxSlots {
					c.Slots = append(c.Slots, SlotConfig{Color: "#ffffff"})
				}
			},
			errContains: "Too many slots",
		},
		{
			name:        "slot color missing",
			modify:      func(c *Config) { c.Slots[1].Color = "" },
			errContains: "slots[1].color is required",
		},
		{
			name:        "slot color not hex",
			modify:      func(c *Config) { c.Slots[0].Color = "green" },
			errContains: "slots[0].color 'green' isn't a hex color",
		},
		{
			name:        "slot color with alpha",
			modify:      func(c *Config) { c.Slots[0].Color = "#00ff00ff" },
			errContains: "isn't a #rrggbb color",
		},
		{
			name:        "interval below range",
			modify:      func(c *Config) { c.UpdateInterval = 100 * time.Millisecond },
			errContains: "out of range",
		},
		{
			name:        "interval above range",
			modify:      func(c *Config) { c.UpdateInterval = 11 * time.Second },
			errContains: "out of range",
		},
		{
			name:        "interval off the grid",
			modify:      func(c *Config) { c.UpdateInterval = 1200 * time.Millisecond },
			errContains: "isn't a multiple of 500ms",
		},
		{
			name:   "interval at the bounds",
			modify: func(c *Config) { c.UpdateInterval = 10 * time.Second },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidateNil(t *testing.T) {
	assert.NoError(t, Validate(nil))
}

func TestValidateSuggestions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = "command"
	cfg.Marker = "x"

	var gerr *errors.Error
	err := Validate(cfg)
	require.ErrorAs(t, err, &gerr)
	assert.Contains(t, gerr.Suggestion, "'command' and 'marker'")

	cfg = DefaultConfig()
	cfg.UpdateInterval = 1200 * time.Millisecond
	err = Validate(cfg)
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "Try 1s.", gerr.Suggestion)
}

func TestSnake(t *testing.T) {
	assert.Equal(t, "update_interval", snake("UpdateInterval"))
	assert.Equal(t, "slots[2]", snake("Slots[2]"))
	assert.Equal(t, "width", snake("Width"))
}
