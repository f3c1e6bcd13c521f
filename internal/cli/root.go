package cli

import (
	"fmt"
	"os"

	"github.com/rileyhilliard/gpugraph/internal/logger"
	"github.com/rileyhilliard/gpugraph/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	noColor bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gpugraph",
	Short: "Scrolling GPU utilization graph",
	Long: `gpugraph samples GPU utilization on a fixed interval and draws it as a
scrolling bar chart, one colored band per GPU.

Readings come from rocm-smi (default), nvidia-smi, NVML, or any command that
prints a marker followed by a percentage. Set 'host' in the config to sample
a remote machine over SSH.

Run with no subcommand to start the graph.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ApplyColorProfile(noColor)
		if verbose {
			os.Setenv(logger.DebugEnv, "1")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd.Context(), watchOpts)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .gpugraph.yaml, searched upward)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable color output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log sampling details (same as GPUGRAPH_DEBUG=1)")

	// The bare command is watch, so it takes watch's flags too.
	addOverrideFlags(rootCmd, &watchOpts.overrides)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
