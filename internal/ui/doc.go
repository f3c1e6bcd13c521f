// Package ui holds the small pieces of terminal output shared by gpugraph's
// one-shot commands: a color palette, status symbols and a spinner.
//
// The full-screen graph lives in internal/monitor; this package is for the
// line-oriented output around it (configure, render, sample).
//
// Color is on by default and turned off by --no-color, by NO_COLOR, or when
// stdout isn't a terminal:
//
//	ui.ApplyColorProfile(noColorFlag)
//
//	s := ui.NewSpinner("Sampling 10 ticks")
//	s.Start()
//	// ... do work ...
//	s.Success() // or s.Fail()
package ui
