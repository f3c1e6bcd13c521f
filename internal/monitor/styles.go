package monitor

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	// Tooltip text sits under the graph, like a panel tooltip would.
	TooltipStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// PinnedTooltipStyle marks a tooltip held open with the pin key.
	PinnedTooltipStyle = TooltipStyle.
				BorderForeground(ColorAccent)
)

// SlotLabel renders "GPU n" in the slot's own color, dimmed when disabled.
func SlotLabel(index int, s SlotSettings) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color.Clamped().Hex()))
	label := "GPU " + strconv.Itoa(index)
	if !s.Enabled {
		style = lipgloss.NewStyle().Foreground(ColorTextMuted).Strikethrough(true)
	}
	return style.Render(label)
}
