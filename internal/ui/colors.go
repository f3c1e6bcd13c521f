package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Semantic colors, as ANSI codes for broad terminal compatibility.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorInfo    lipgloss.Color = "6" // Cyan
	ColorMuted   lipgloss.Color = "8" // Gray (bright black)
)

// SpinnerColors are cycled through while a spinner runs.
var SpinnerColors = []lipgloss.Color{"#ff79c6", "#bd93f9", "#8be9fd", "#50fa7b"}

// ColorDisabled reports whether output should be plain text: forced by the
// caller, requested through NO_COLOR, or because stdout isn't a terminal.
func ColorDisabled(force bool) bool {
	if force {
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return !IsTerminal(os.Stdout)
}

// ApplyColorProfile sets the global lipgloss profile. With color disabled
// every Style.Render produces plain text. Returns whether color is on.
func ApplyColorProfile(noColor bool) bool {
	if ColorDisabled(noColor) {
		lipgloss.SetColorProfile(termenv.Ascii)
		return false
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
	return true
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
