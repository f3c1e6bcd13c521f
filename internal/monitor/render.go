package monitor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Background is the canvas fill behind the bars.
var Background = color.RGBA{A: 0xff}

// NewCanvas allocates a width x height canvas. Non-positive sizes give an
// empty canvas that Render leaves alone.
func NewCanvas(width, height int) *image.RGBA {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Band returns the horizontal pixel span [x0, x1) of band k when width
// pixels are split evenly across n bands. Leftover pixels from the
// integer split go to the later bands, so the spans tile the width exactly.
func Band(width, n, k int) (x0, x1 int) {
	if n <= 0 || k < 0 || k >= n {
		return 0, 0
	}
	return k * width / n, (k + 1) * width / n
}

// Render draws one frame of the bar chart into dst.
//
// Each enabled slot gets one band, packed left to right in slot order;
// disabled slots get nothing. Inside a band the slot's samples are drawn
// oldest to newest as equal-width bars rising from the bottom edge, each
// value*height pixels tall. Values are not clamped: anything above 1 is
// cut off at the top of the canvas, anything at or below 0 draws nothing.
//
// When a band has more samples than pixel columns, bars are not blended:
// each column shows the newest sample that falls in it, and older samples
// sharing that column are not drawn.
//
// snapshots[i] is slot i's history window, as returned by History.Snapshots.
func Render(dst draw.Image, slots []SlotSettings, snapshots [][]float64) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(Background), image.Point{}, draw.Src)

	if bounds.Empty() {
		return
	}

	var enabled []int
	for i, s := range slots {
		if s.Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return
	}

	width, height := bounds.Dx(), bounds.Dy()

	for k, slot := range enabled {
		if slot >= len(snapshots) {
			continue
		}
		samples := snapshots[slot]
		if len(samples) == 0 {
			continue
		}

		bx0, bx1 := Band(width, len(enabled), k)
		fill := image.NewUniform(toRGBA(slots[slot].Color))
		drawBars(dst, bounds, bx0, bx1-bx0, height, samples, fill)
	}
}

// drawBars lays samples out across a band that starts at bandX and is
// bandWidth pixels wide.
func drawBars(dst draw.Image, bounds image.Rectangle, bandX, bandWidth, height int, samples []float64, fill image.Image) {
	n := len(samples)
	for i, v := range samples {
		// x1 is where the next bar starts. When it's still x0, the next
		// bar shares this column and owns it.
		x0 := bandX + i*bandWidth/n
		x1 := bandX + (i+1)*bandWidth/n
		if x1 <= x0 {
			continue
		}

		barHeight := int(math.Round(v * float64(height)))
		if barHeight <= 0 {
			continue
		}

		r := image.Rect(x0, height-barHeight, x1, height).Add(bounds.Min)
		draw.Draw(dst, r.Intersect(bounds), fill, image.Point{}, draw.Src)
	}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
