package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rileyhilliard/gpugraph/internal/logger"
	"github.com/rileyhilliard/gpugraph/internal/monitor"
	"github.com/spf13/cobra"
)

var (
	sampleFlags overrideFlags
	sampleAll   bool
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Take one sample and print it",
	Long: `Run the configured source once and print one line per enabled GPU slot.

Slots without a reading print as n/a. Useful for checking a source or a
custom command before starting the graph.

Examples:
  gpugraph sample
  gpugraph sample --all
  gpugraph sample --source nvidia
  gpugraph sample --source command --command "cat usage.txt" --marker "busy: "`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sampleCommand(cmd.Context(), sampleFlags, sampleAll, os.Stdout)
	},
}

func init() {
	addOverrideFlags(sampleCmd, &sampleFlags)
	sampleCmd.Flags().BoolVar(&sampleAll, "all", false, "include disabled slots")
	rootCmd.AddCommand(sampleCmd)
}

func sampleCommand(ctx context.Context, flags overrideFlags, all bool, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, _, err := loadConfig(flags)
	if err != nil {
		return err
	}

	graph, err := newGraph(cfg, logger.NewEnvLogger("[gpugraph]"))
	if err != nil {
		return err
	}
	defer graph.Shutdown()

	graph.Tick(ctx)

	slots := graph.Slots()
	if all {
		for i := range slots {
			slots[i].Enabled = true
		}
	}
	_, err = fmt.Fprintln(w, monitor.FormatTooltip(slots))
	return err
}
