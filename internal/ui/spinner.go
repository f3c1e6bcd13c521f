package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const spinnerRate = 80 * time.Millisecond

// Spinner shows a one-line progress indicator for work that takes a few
// seconds, like sampling for render or dialing a host. It ends on a single
// status line:
//
//	✓ Sampled rocm 10 times (10.0s)
type Spinner struct {
	mu      sync.Mutex
	label   string
	frame   int
	started time.Time
	out     func(string)
	drawn   int // width of the line on screen, in runes

	stop chan struct{}
	done chan struct{}
}

// NewSpinner returns a stopped spinner that prints to stdout.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		label: label,
		out:   func(s string) { fmt.Print(s) },
	}
}

// SetOutput redirects the spinner, e.g. to a command's writer.
func (s *Spinner) SetOutput(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = fn
}

// SetLabel changes the text next to the spinner while it runs.
func (s *Spinner) SetLabel(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = label
}

// Start draws the first frame and animates until Success or Fail.
// Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.drawLocked()
	go s.animate(s.stop, s.done)
}

// Success replaces the spinner with a check mark and the elapsed time.
func (s *Spinner) Success() {
	s.finish(SymbolSuccess, ColorSuccess)
}

// Fail replaces the spinner with a cross and the elapsed time.
func (s *Spinner) Fail() {
	s.finish(SymbolFail, ColorError)
}

func (s *Spinner) finish(symbol string, c lipgloss.Color) {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		s.started = time.Now()
	}
	elapsed := "(" + formatDuration(time.Since(s.started)) + ")"
	s.writeLocked(fmt.Sprintf("%s %s %s",
		lipgloss.NewStyle().Foreground(c).Render(symbol),
		s.label,
		lipgloss.NewStyle().Foreground(ColorMuted).Render(elapsed)))
	s.out("\n")
	s.drawn = 0
}

func (s *Spinner) animate(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(spinnerRate)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.drawLocked()
			s.mu.Unlock()
		}
	}
}

func (s *Spinner) drawLocked() {
	color := SpinnerColors[(s.frame/2)%len(SpinnerColors)]
	frame := lipgloss.NewStyle().Foreground(color).Render(spinnerFrames[s.frame])
	s.writeLocked(frame + " " + s.label)
}

// writeLocked overwrites the current line with line.
func (s *Spinner) writeLocked(line string) {
	pad := s.drawn - lipgloss.Width(line)
	if pad < 0 {
		pad = 0
	}
	s.out("\r" + line + strings.Repeat(" ", pad))
	s.drawn = lipgloss.Width(line)
}

// formatDuration keeps two decimals under 0.1s so quick work doesn't read
// as "0.0s".
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
