package monitor

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
)

// renderGraphView renders header, graph, tooltip and footer.
func (m Model) renderGraphView() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	cols := m.width
	if cols <= 0 {
		cols = m.graph.Settings().Width
	}
	graph := RenderHalfBlocks(m.graph.Canvas(), cols, m.graphRows())
	b.WriteString(m.zones.Mark(graphZone, graph))
	b.WriteString("\n")

	b.WriteString(m.renderTooltip())
	b.WriteString("\n")

	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader shows the source, the interval and one label per slot.
func (m Model) renderHeader() string {
	s := m.graph.Settings()

	var labels []string
	for i, slot := range s.Slots {
		labels = append(labels, SlotLabel(i, slot))
	}

	title := TitleStyle.Render("gpugraph")
	stats := LabelStyle.Render(fmt.Sprintf(" | %s | every %s | ", m.graph.SamplerName(), s.Interval))

	return HeaderStyle.Render(title + stats + strings.Join(labels, " "))
}

// renderTooltip shows the hover text, or blank lines of the same height.
func (m Model) renderTooltip() string {
	if !m.ShowTooltip() {
		return strings.Repeat("\n", m.tooltipRows()-1)
	}

	text := m.graph.Tooltip()
	if text == "" {
		text = "no GPU enabled"
	}

	style := TooltipStyle
	if m.pinned {
		style = PinnedTooltipStyle
	}
	box := style.Render(text)

	// Pad to the reserved height.
	if pad := m.tooltipRows() - lipgloss.Height(box); pad > 0 {
		box += strings.Repeat("\n", pad)
	}
	return box
}

// renderFooter renders the short key help.
func (m Model) renderFooter() string {
	return FooterStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// RenderHalfBlocks scales img to cols x rows*2 pixels and draws it with
// upper half-block characters: the foreground color is the top pixel of
// each cell and the background color the bottom one.
func RenderHalfBlocks(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 || img.Bounds().Empty() {
		return ""
	}

	// Nearest neighbour keeps bar edges hard and colors exact.
	scaled := imaging.Resize(img, cols, rows*2, imaging.NearestNeighbor)

	lines := make([]string, rows)
	for row := 0; row < rows; row++ {
		var b strings.Builder

		// Runs of identical cells share one style.
		var runTop, runBot string
		runLen := 0
		flush := func() {
			if runLen == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(runTop)).
				Background(lipgloss.Color(runBot))
			b.WriteString(style.Render(strings.Repeat("▀", runLen)))
			runLen = 0
		}

		for x := 0; x < cols; x++ {
			top := hexOf(scaled.NRGBAAt(x, row*2))
			bot := hexOf(scaled.NRGBAAt(x, row*2+1))
			if runLen > 0 && top == runTop && bot == runBot {
				runLen++
				continue
			}
			flush()
			runTop, runBot, runLen = top, bot, 1
		}
		flush()

		lines[row] = b.String()
	}

	return strings.Join(lines, "\n")
}

func hexOf(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
