package monitor

import (
	"context"
	"image"
	"sync"

	"github.com/rileyhilliard/gpugraph/internal/logger"
)

// GraphOptions configures a Graph.
type GraphOptions struct {
	Settings    Settings
	HistorySize int
	Sampler     Sampler
	Logger      logger.Logger
}

// Graph owns everything one running graph needs: settings, the last raw
// batch, the history buffers, the sampler and the scheduler driving it.
//
// A host drives it through Init, OnResize, OnReconfigure and Shutdown, pulls
// pixels with Canvas and hover text with Tooltip, and watches Redraw to know
// when a tick has landed. Ticks run on the scheduler's goroutine; the other
// methods may be called from the host's goroutine at any time.
type Graph struct {
	history *History
	sampler Sampler
	sched   *Scheduler
	log     logger.Logger
	redraw  chan struct{}

	// tickMu serialises Tick so a forced tick never overlaps a timed one.
	tickMu sync.Mutex

	mu       sync.RWMutex
	settings Settings
	current  Batch

	shutdown sync.Once
}

// NewGraph creates a stopped graph. The slot count is fixed here from
// opts.Settings.Slots and never changes.
func NewGraph(opts GraphOptions) *Graph {
	settings := opts.Settings.Clone()
	if len(settings.Slots) == 0 {
		settings.Slots = DefaultSettings().Slots
	}
	if settings.Interval <= 0 {
		settings.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Sampler == nil {
		opts.Sampler = NewCommandSampler(CommandSamplerOptions{
			Name:    string(SourceROCm),
			Command: BuildSourceCommand(SourceROCm, ""),
			Logger:  opts.Logger,
		})
	}

	g := &Graph{
		history:  NewHistory(len(settings.Slots), opts.HistorySize),
		sampler:  opts.Sampler,
		log:      opts.Logger,
		redraw:   make(chan struct{}, 1),
		settings: settings,
		current:  NewBatch(len(settings.Slots)),
	}
	g.sched = NewScheduler(g.Tick)
	return g
}

// Init starts the periodic sampling. The first sample is taken one interval
// from now, not immediately.
func (g *Graph) Init(ctx context.Context) {
	g.sched.Start(ctx, g.Settings().Interval)
	g.log.Debug("sampling %s every %s", g.sampler.Name(), g.Settings().Interval)
}

// Tick takes one sample, records it and signals a redraw. A sample cut
// short by ctx ending is dropped: it says nothing about the GPUs.
func (g *Graph) Tick(ctx context.Context) {
	g.tickMu.Lock()
	defer g.tickMu.Unlock()

	batch := g.sampler.Sample(ctx, g.history.Slots())
	if ctx.Err() != nil {
		return
	}

	g.mu.Lock()
	g.current = batch
	g.mu.Unlock()

	if !g.history.Append(batch) {
		g.log.Debug("%s: no readings this tick", g.sampler.Name())
	}

	select {
	case g.redraw <- struct{}{}:
	default:
	}
}

// Redraw receives a value after each tick. Signals coalesce: a host that
// falls behind sees one pending redraw, not a backlog.
func (g *Graph) Redraw() <-chan struct{} {
	return g.redraw
}

// OnResize changes the canvas height. History is kept.
func (g *Graph) OnResize(height int) {
	if height <= 0 {
		return
	}
	g.mu.Lock()
	g.settings.Height = height
	g.mu.Unlock()
}

// OnReconfigure applies new settings and restarts the timer at the new
// interval. Slots beyond the graph's slot count are ignored; missing slots
// are disabled.
func (g *Graph) OnReconfigure(s Settings) {
	next := s.Clone()
	next.Interval = ClampInterval(next.Interval)
	next.Slots = fitSlots(next.Slots, g.history.Slots())
	if next.Width <= 0 || next.Height <= 0 {
		cur := g.Settings()
		if next.Width <= 0 {
			next.Width = cur.Width
		}
		if next.Height <= 0 {
			next.Height = cur.Height
		}
	}

	g.mu.Lock()
	g.settings = next
	g.mu.Unlock()

	g.sched.Reschedule(next.Interval)
}

// Shutdown stops the timer, waits for an in-flight tick and closes the
// sampler. Later calls do nothing.
func (g *Graph) Shutdown() error {
	var err error
	g.shutdown.Do(func() {
		g.sched.Stop()
		// A forced tick may still be running outside the scheduler.
		g.tickMu.Lock()
		defer g.tickMu.Unlock()
		err = g.sampler.Close()
	})
	return err
}

// Canvas renders the current history into a fresh width x height image.
func (g *Graph) Canvas() *image.RGBA {
	s := g.Settings()
	canvas := NewCanvas(s.Width, s.Height)
	Render(canvas, s.Slots, g.history.Snapshots())
	return canvas
}

// Tooltip returns the hover text for the last tick.
func (g *Graph) Tooltip() string {
	return FormatTooltip(g.Slots())
}

// Slots returns each slot's enabled flag and last raw reading.
func (g *Graph) Slots() []Slot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Slot, len(g.settings.Slots))
	for i, s := range g.settings.Slots {
		usage := Unavailable
		if i < len(g.current) {
			usage = g.current[i]
		}
		out[i] = Slot{Index: i, Enabled: s.Enabled, Usage: usage}
	}
	return out
}

// Settings returns a copy of the current settings.
func (g *Graph) Settings() Settings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings.Clone()
}

// History exposes the history buffers.
func (g *Graph) History() *History {
	return g.history
}

// SamplerName returns the name of the sampler feeding the graph.
func (g *Graph) SamplerName() string {
	return g.sampler.Name()
}

// Running reports whether the timer is armed.
func (g *Graph) Running() bool {
	return g.sched.Running()
}

func fitSlots(slots []SlotSettings, n int) []SlotSettings {
	out := make([]SlotSettings, n)
	copy(out, slots)
	return out
}
