package monitor

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestHandleKeyMsgQuit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{"q", runeKey('q')},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t)
			handled, cmd := m.HandleKeyMsg(tt.msg)
			assert.True(t, handled)
			assert.NotNil(t, cmd)
			assert.True(t, m.quitting)
		})
	}
}

func TestHandleKeyMsgInterval(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Duration
		key      rune
		expected time.Duration
	}{
		{"plus slows down", time.Second, '+', 1500 * time.Millisecond},
		{"equals slows down", time.Second, '=', 1500 * time.Millisecond},
		{"minus speeds up", time.Second, '-', 500 * time.Millisecond},
		{"floor", MinInterval, '-', MinInterval},
		{"ceiling", MaxInterval, '+', MaxInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, g := newTestModel(t)
			s := g.Settings()
			s.Interval = tt.start
			g.OnReconfigure(s)

			handled, _ := m.HandleKeyMsg(runeKey(tt.key))

			assert.True(t, handled)
			assert.Equal(t, tt.expected, g.Settings().Interval)
		})
	}
}

func TestHandleKeyMsgToggleSlot(t *testing.T) {
	m, g := newTestModel(t)

	handled, _ := m.HandleKeyMsg(runeKey('2'))
	assert.True(t, handled)
	assert.True(t, g.Settings().Slots[1].Enabled)

	m.HandleKeyMsg(runeKey('1'))
	assert.False(t, g.Settings().Slots[0].Enabled)

	// Slot 9 doesn't exist with two slots.
	handled, _ = m.HandleKeyMsg(runeKey('9'))
	assert.True(t, handled)
	assert.Len(t, g.Settings().Slots, 2)
}

func TestHandleKeyMsgRefresh(t *testing.T) {
	m, g := newTestModel(t, Batch{0.4, 0.4})

	handled, cmd := m.HandleKeyMsg(runeKey('r'))
	assert.True(t, handled)
	assert.NotNil(t, cmd)

	assert.Nil(t, cmd())
	assert.Equal(t, 1, g.History().Count())
}

func TestHandleKeyMsgPinAndHelp(t *testing.T) {
	m, _ := newTestModel(t)

	m.HandleKeyMsg(runeKey('t'))
	assert.True(t, m.pinned)
	assert.True(t, m.ShowTooltip())
	m.HandleKeyMsg(runeKey('t'))
	assert.False(t, m.pinned)

	m.HandleKeyMsg(runeKey('?'))
	assert.True(t, m.showHelp)
	m.HandleKeyMsg(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showHelp)
}

func TestHandleKeyMsgUnknown(t *testing.T) {
	m, _ := newTestModel(t)

	handled, cmd := m.HandleKeyMsg(runeKey('z'))
	assert.False(t, handled)
	assert.Nil(t, cmd)
}

func TestKeyMapHelp(t *testing.T) {
	assert.Len(t, keys.ShortHelp(), 4)

	total := 0
	for _, group := range keys.FullHelp() {
		total += len(group)
	}
	assert.Equal(t, 7, total)
}
