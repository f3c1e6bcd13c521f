package config

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rileyhilliard/gpugraph/internal/monitor"
)

// MaxSlots is the most slots a config file may list.
const MaxSlots = 8

// Config represents the complete .gpugraph.yaml configuration file.
type Config struct {
	Width          int           `yaml:"width" mapstructure:"width" validate:"min=50,max=500"`
	Height         int           `yaml:"height" mapstructure:"height" validate:"min=50,max=500"`
	UpdateInterval time.Duration `yaml:"update_interval" mapstructure:"update_interval"`
	HistorySize    int           `yaml:"history_size" mapstructure:"history_size" validate:"min=1"`

	// Source picks the sampler: rocm, nvidia, nvml or command.
	Source string `yaml:"source" mapstructure:"source" validate:"oneof=rocm nvidia nvml command"`

	// Command replaces the built-in tool invocation. Required for the
	// command source.
	Command string `yaml:"command" mapstructure:"command" validate:"required_if=Source command"`

	// Marker is the text that precedes each usage value in Command's output.
	Marker string `yaml:"marker" mapstructure:"marker" validate:"required_if=Source command"`

	// Host runs the command over SSH. Accepts anything sshutil.Dial does.
	Host string `yaml:"host" mapstructure:"host"`

	// SampleTimeout bounds each sampling command. Zero means no bound.
	SampleTimeout time.Duration `yaml:"sample_timeout" mapstructure:"sample_timeout" validate:"min=0"`

	Slots []SlotConfig `yaml:"slots" mapstructure:"slots" validate:"max=8,dive"`
}

// SlotConfig is one device slot.
type SlotConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Color   string `yaml:"color" mapstructure:"color" validate:"required,hexcolor"`
}

// DefaultConfig returns a config with the graph's stock settings.
func DefaultConfig() *Config {
	return &Config{
		Width:          monitor.DefaultWidth,
		Height:         monitor.DefaultHeight,
		UpdateInterval: monitor.DefaultInterval,
		HistorySize:    monitor.DefaultHistorySize,
		Source:         string(monitor.SourceROCm),
		Slots:          DefaultSlots(),
	}
}

// DefaultSlots is slot 0 enabled green and slot 1 disabled red.
func DefaultSlots() []SlotConfig {
	return []SlotConfig{
		{Enabled: true, Color: "#00ff00"},
		{Enabled: false, Color: "#ff0000"},
	}
}

// ToSettings converts the config into the graph's runtime settings.
// Colors that fail to parse fall back to white; Validate catches them first.
func (c *Config) ToSettings() monitor.Settings {
	s := monitor.Settings{
		Width:    c.Width,
		Height:   c.Height,
		Interval: monitor.ClampInterval(c.UpdateInterval),
		Slots:    make([]monitor.SlotSettings, len(c.Slots)),
	}
	for i, slot := range c.Slots {
		color, err := colorful.Hex(slot.Color)
		if err != nil {
			color = colorful.Color{R: 1, G: 1, B: 1}
		}
		s.Slots[i] = monitor.SlotSettings{Enabled: slot.Enabled, Color: color}
	}
	return s
}

// ApplySettings copies runtime settings back into the config, so changes
// made in the TUI or the configure form can be saved.
func (c *Config) ApplySettings(s monitor.Settings) {
	c.Width = s.Width
	c.Height = s.Height
	c.UpdateInterval = s.Interval
	c.Slots = make([]SlotConfig, len(s.Slots))
	for i, slot := range s.Slots {
		c.Slots[i] = SlotConfig{Enabled: slot.Enabled, Color: slot.Color.Clamped().Hex()}
	}
}
