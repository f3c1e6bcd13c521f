package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// graphZone is the bubblezone ID wrapped around the rendered graph.
const graphZone = "gpugraph"

// Rows reserved around the graph: header and footer.
const chromeRows = 2

// Model is the Bubble Tea model hosting a Graph in the terminal.
//
// The Graph samples on its own scheduler; the model only listens for its
// redraw signal, so a slow sampling command never blocks key handling.
type Model struct {
	graph *Graph
	ctx   context.Context
	keys  keyMap
	help  help.Model
	zones *zone.Manager

	// inGraph reports whether a mouse event is over the graph.
	inGraph func(tea.MouseMsg) bool

	width    int
	height   int
	hovering bool
	pinned   bool
	showHelp bool
	quitting bool

	lastTick time.Time
	ticks    int
}

// redrawMsg signals a tick landed in the Graph.
type redrawMsg time.Time

// NewModel creates a model for graph. ctx bounds forced ticks and the
// redraw listener; cancel it when the program exits.
func NewModel(ctx context.Context, graph *Graph) Model {
	zones := zone.New()
	m := Model{
		graph: graph,
		ctx:   ctx,
		keys:  keys,
		help:  help.New(),
		zones: zones,
	}
	m.inGraph = func(msg tea.MouseMsg) bool {
		return zones.Get(graphZone).InBounds(msg)
	}
	return m
}

// Init starts listening for redraws.
func (m Model) Init() tea.Cmd {
	return m.waitRedrawCmd()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.graph.OnResize(m.graphRows() * 2)

	case tea.MouseMsg:
		m.hovering = m.inGraph(msg)

	case redrawMsg:
		m.lastTick = time.Time(msg)
		m.ticks++
		return m, m.waitRedrawCmd()
	}

	return m, nil
}

// View renders the graph.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.zones.Scan(m.renderGraphView())
}

// Close releases the zone manager.
func (m Model) Close() {
	m.zones.Close()
}

// waitRedrawCmd blocks until the Graph signals a tick, then reports it.
// Update re-arms it after every redraw.
func (m Model) waitRedrawCmd() tea.Cmd {
	redraw := m.graph.Redraw()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-redraw:
			return redrawMsg(time.Now())
		case <-ctx.Done():
			return nil
		}
	}
}

// forceTickCmd samples right away. The result arrives through the usual
// redraw signal.
func (m Model) forceTickCmd() tea.Cmd {
	graph := m.graph
	ctx := m.ctx
	return func() tea.Msg {
		graph.Tick(ctx)
		return nil
	}
}

// graphRows is the number of terminal rows left for the graph itself.
func (m Model) graphRows() int {
	rows := m.height - chromeRows - m.tooltipRows()
	if rows < 1 {
		rows = 1
	}
	return rows
}

// tooltipRows reserves room for one line per slot plus the tooltip border,
// so the graph doesn't jump when the tooltip appears.
func (m Model) tooltipRows() int {
	return len(m.graph.Settings().Slots) + 2
}

// ShowTooltip reports whether the tooltip is visible.
func (m Model) ShowTooltip() bool {
	return m.hovering || m.pinned
}
