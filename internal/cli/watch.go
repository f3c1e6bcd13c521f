package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/gpugraph/internal/config"
	"github.com/rileyhilliard/gpugraph/internal/logger"
	"github.com/rileyhilliard/gpugraph/internal/monitor"
	"github.com/rileyhilliard/gpugraph/internal/ui"
	"github.com/spf13/cobra"
)

// debugLogFile receives log output while the full-screen graph is up.
const debugLogFile = "gpugraph-debug.log"

type watchOptions struct {
	overrides overrideFlags
	plain     bool
	save      bool
}

var watchOpts watchOptions

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show the scrolling GPU graph (default command)",
	Long: `Start the graph. A new sample is taken every update_interval; the first
one lands one interval after startup.

Hover over the graph to see the latest reading per GPU.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  + / -       Slower / faster sampling (500ms steps)
  1-9         Toggle a GPU's band
  r           Sample now
  t           Pin the readings below the graph
  ?           Show help

When stdout isn't a terminal, or with --plain, the latest readings are
printed once per sample instead.

Examples:
  gpugraph
  gpugraph watch --interval 2s
  gpugraph watch --source nvidia --host gpu-box
  gpugraph watch --plain | tee usage.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd.Context(), watchOpts)
	},
}

func init() {
	addOverrideFlags(watchCmd, &watchOpts.overrides)
	watchCmd.Flags().BoolVar(&watchOpts.plain, "plain", false, "print readings as text instead of drawing the graph")
	watchCmd.Flags().BoolVar(&watchOpts.save, "save", false, "save interval and GPU toggles changed in the graph on exit")
	rootCmd.AddCommand(watchCmd)
}

// watchCommand runs the graph until the user quits or ctx ends.
func watchCommand(ctx context.Context, opts watchOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, path, err := loadConfig(opts.overrides)
	if err != nil {
		return err
	}

	graph, err := newGraph(cfg, logger.NewEnvLogger("[gpugraph]"))
	if err != nil {
		return err
	}
	defer graph.Shutdown()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.plain || !ui.IsTerminal(os.Stdout) {
		return streamReadings(ctx, graph, os.Stdout, time.Now)
	}

	if err := runGraphProgram(ctx, graph); err != nil {
		return err
	}

	if opts.save {
		return saveGraphSettings(cfg, path, graph.Settings())
	}
	return nil
}

// runGraphProgram shows the full-screen graph. Log output goes to
// debugLogFile when debugging is on and is dropped otherwise, since
// anything printed would tear the screen.
func runGraphProgram(ctx context.Context, graph *monitor.Graph) error {
	if os.Getenv(logger.DebugEnv) != "" {
		if f, err := tea.LogToFile(debugLogFile, "gpugraph"); err == nil {
			defer f.Close()
		}
	} else {
		log.SetOutput(io.Discard)
		defer log.SetOutput(os.Stderr)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	graph.Init(ctx)

	model := monitor.NewModel(ctx, graph)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// streamReadings prints one block of readings per tick until ctx ends:
//
//	14:03:07 GPU 0: 41.0%
//	14:03:07 GPU 1: n/a
func streamReadings(ctx context.Context, graph *monitor.Graph, w io.Writer, now func() time.Time) error {
	graph.Init(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-graph.Redraw():
			text := graph.Tooltip()
			if text == "" {
				continue
			}
			stamp := now().Format(time.TimeOnly)
			for _, line := range strings.Split(text, "\n") {
				if _, err := fmt.Fprintf(w, "%s %s\n", stamp, line); err != nil {
					return err
				}
			}
		}
	}
}

// saveGraphSettings writes settings changed in the graph back to path, or
// to a new .gpugraph.yaml in the working directory. The canvas size follows
// the terminal while the graph is up, so the configured size is kept.
func saveGraphSettings(cfg *config.Config, path string, settings monitor.Settings) error {
	settings.Width, settings.Height = cfg.Width, cfg.Height

	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		path = filepath.Join(cwd, config.ConfigFileName)
	}
	cfg.ApplySettings(settings)
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("%s Saved settings to %s\n", ui.SymbolSuccess, path)
	return nil
}
