package cli

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rileyhilliard/gpugraph/internal/errors"
	"github.com/rileyhilliard/gpugraph/internal/logger"
	"github.com/rileyhilliard/gpugraph/internal/ui"
	"github.com/spf13/cobra"
)

type renderOptions struct {
	overrides overrideFlags
	output    string
	ticks     int
	scale     int
}

var renderOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Sample for a while and save the graph as an image",
	Long: `Take --ticks samples at the configured interval, then write the graph
canvas to an image file. The format follows the file extension (png, jpg,
gif, bmp, tiff).

The first sample is taken right away; each later one waits an interval.

Examples:
  gpugraph render -o gpu.png
  gpugraph render -o gpu.png --ticks 60 --interval 500ms
  gpugraph render -o gpu.png --scale 4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderCommand(cmd.Context(), renderOpts, os.Stdout)
	},
}

func init() {
	addOverrideFlags(renderCmd, &renderOpts.overrides)
	renderCmd.Flags().StringVarP(&renderOpts.output, "output", "o", "gpugraph.png", "image file to write")
	renderCmd.Flags().IntVar(&renderOpts.ticks, "ticks", 10, "number of samples to take")
	renderCmd.Flags().IntVar(&renderOpts.scale, "scale", 1, "enlarge the image by this factor")
	rootCmd.AddCommand(renderCmd)
}

func renderCommand(ctx context.Context, opts renderOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.ticks < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--ticks must be at least 1, got %d", opts.ticks),
			"Try --ticks 10.")
	}
	if opts.scale < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("--scale must be at least 1, got %d", opts.scale),
			"Use --scale 1 for the configured size.")
	}

	cfg, _, err := loadConfig(opts.overrides)
	if err != nil {
		return err
	}

	graph, err := newGraph(cfg, logger.NewEnvLogger("[gpugraph]"))
	if err != nil {
		return err
	}
	defer graph.Shutdown()

	spinner := ui.NewSpinner(fmt.Sprintf("Sampling %s (0/%d)", graph.SamplerName(), opts.ticks))
	spinner.SetOutput(func(s string) { fmt.Fprint(w, s) })
	spinner.Start()

	if err := collectTicks(ctx, graph.Tick, graph.Settings().Interval, opts.ticks, func(n int) {
		spinner.SetLabel(fmt.Sprintf("Sampling %s (%d/%d)", graph.SamplerName(), n, opts.ticks))
	}); err != nil {
		spinner.Fail()
		return err
	}
	spinner.Success()

	var img image.Image = graph.Canvas()
	if opts.scale > 1 {
		b := img.Bounds()
		img = imaging.Resize(img, b.Dx()*opts.scale, b.Dy()*opts.scale, imaging.NearestNeighbor)
	}

	if err := imaging.Save(img, opts.output); err != nil {
		return errors.WrapWithCode(err, errors.ErrRender,
			"Failed to write "+opts.output,
			"Check the directory exists and the extension is png, jpg, gif, bmp or tiff.")
	}

	fmt.Fprintf(w, "%s Wrote %s\n", ui.SymbolSuccess, opts.output)
	return nil
}

// collectTicks calls tick n times: once right away, then once per interval.
// progress gets the count after each tick.
func collectTicks(ctx context.Context, tick func(context.Context), interval time.Duration, n int, progress func(int)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 1; i <= n; i++ {
		if i > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		tick(ctx)
		progress(i)
	}
	return nil
}
