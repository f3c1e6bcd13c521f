package cli

import (
	"bytes"
	"context"
	"image/color"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rileyhilliard/gpugraph/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCommand(t *testing.T) {
	useConfig(t, twoGPUConfig)
	out := filepath.Join(t.TempDir(), "gpu.png")

	var buf bytes.Buffer
	err := renderCommand(context.Background(), renderOptions{output: out, ticks: 1, scale: 1}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Wrote "+out)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 60, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	// One sample at 42% fills the newest column of slot 0's band from the bottom.
	bottomRight := color.NRGBAModel.Convert(img.At(59, 49)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{G: 0xff, A: 0xff}, bottomRight)
	topRight := color.NRGBAModel.Convert(img.At(59, 0)).(color.NRGBA)
	assert.Equal(t, color.NRGBA{A: 0xff}, topRight)
}

func TestRenderCommandScale(t *testing.T) {
	useConfig(t, twoGPUConfig)
	out := filepath.Join(t.TempDir(), "gpu.png")

	var buf bytes.Buffer
	require.NoError(t, renderCommand(context.Background(), renderOptions{output: out, ticks: 1, scale: 3}, &buf))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 180, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestRenderCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		opts renderOptions
		code string
	}{
		{"zero ticks", renderOptions{output: "x.png", ticks: 0, scale: 1}, errors.ErrConfig},
		{"zero scale", renderOptions{output: "x.png", ticks: 1, scale: 0}, errors.ErrConfig},
		{"unknown extension", renderOptions{output: "gpu.xyz", ticks: 1, scale: 1}, errors.ErrRender},
		{"missing directory", renderOptions{output: "/nonexistent/dir/gpu.png", ticks: 1, scale: 1}, errors.ErrRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useConfig(t, twoGPUConfig)

			var buf bytes.Buffer
			err := renderCommand(context.Background(), tt.opts, &buf)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestCollectTicks(t *testing.T) {
	var calls atomic.Int32
	var seen []int

	start := time.Now()
	err := collectTicks(context.Background(), func(context.Context) { calls.Add(1) }, 10*time.Millisecond, 3, func(n int) {
		seen = append(seen, n)
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "first tick is immediate, the rest wait")
}

func TestCollectTicksCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int

	err := collectTicks(ctx, func(context.Context) {
		calls++
		cancel()
	}, time.Hour, 5, func(int) {})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
