package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap holds the graph's key bindings. It implements help.KeyMap.
type keyMap struct {
	Quit       key.Binding
	Slower     key.Binding
	Faster     key.Binding
	ToggleSlot key.Binding
	Refresh    key.Binding
	Pin        key.Binding
	Help       key.Binding
	Close      key.Binding
}

// ShortHelp is the footer line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.ToggleSlot, k.Pin, k.Quit}
}

// FullHelp is the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Slower, k.Faster, k.Refresh},
		{k.ToggleSlot, k.Pin},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Slower:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "slower updates")),
	Faster:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "faster updates")),
	ToggleSlot: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "toggle gpu")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "sample now")),
	Pin:        key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "pin tooltip")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
}

// HandleKeyMsg processes keyboard input.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	// Help toggle takes priority
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return true, nil
	}

	if m.showHelp && key.Matches(msg, m.keys.Close) {
		m.showHelp = false
		return true, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, m.keys.Slower):
		m.stepInterval(IntervalStep)
		return true, nil

	case key.Matches(msg, m.keys.Faster):
		m.stepInterval(-IntervalStep)
		return true, nil

	case key.Matches(msg, m.keys.ToggleSlot):
		m.toggleSlot(int(msg.String()[0] - '1'))
		return true, nil

	case key.Matches(msg, m.keys.Refresh):
		return true, m.forceTickCmd()

	case key.Matches(msg, m.keys.Pin):
		m.pinned = !m.pinned
		return true, nil
	}

	return false, nil
}

// stepInterval moves the sampling interval by delta, staying in range.
// A no-op change doesn't restart the timer.
func (m *Model) stepInterval(delta time.Duration) {
	s := m.graph.Settings()
	next := ClampInterval(s.Interval + delta)
	if next == s.Interval {
		return
	}
	s.Interval = next
	m.graph.OnReconfigure(s)
}

// toggleSlot flips a slot's enabled flag. Unknown slots are ignored.
func (m *Model) toggleSlot(index int) {
	s := m.graph.Settings()
	if index < 0 || index >= len(s.Slots) {
		return
	}
	s.Slots[index].Enabled = !s.Slots[index].Enabled
	m.graph.OnReconfigure(s)
}
