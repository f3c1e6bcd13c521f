package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpBoxStyle = TooltipStyle.
	BorderForeground(ColorAccent).
	Padding(1, 2)

// renderHelpOverlay lists the key bindings, what is being sampled, and
// which slot each number key toggles.
func (m Model) renderHelpOverlay() string {
	s := m.graph.Settings()

	slots := make([]string, len(s.Slots))
	for i, slot := range s.Slots {
		slots[i] = fmt.Sprintf("%d %s", i+1, SlotLabel(i, slot))
	}

	box := helpBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Keyboard Shortcuts"),
		LabelStyle.Render(fmt.Sprintf("%s, every %s", m.graph.SamplerName(), s.Interval)),
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		strings.Join(slots, "  "),
		"",
		FooterStyle.UnsetPadding().Render("? closes this"),
	))

	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceForeground(ColorDarkBg))
}
