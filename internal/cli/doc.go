// Package cli implements the gpugraph command-line interface.
//
// Each cobra command is a thin shell around a *Command function that does
// the work, so the work can be tested without going through flag parsing.
//
// # Command Structure
//
//	gpugraph [watch]          - Scrolling graph in the terminal (default)
//	gpugraph sample           - Take one sample and print it
//	gpugraph render -o f.png  - Sample for a while and save the graph as PNG
//	gpugraph configure        - Edit settings in an interactive form
//	gpugraph version          - Print version information
//	gpugraph completion       - Generate shell completion scripts
//
// # Configuration
//
// Commands load .gpugraph.yaml through internal/config (see config.Find for
// the search order), apply command-line overrides, then validate. Flags
// beat environment variables, which beat the file.
package cli
