// Package overlay annotates recorded frames: the element being filled is
// outlined in the color of its outcome and the simulated cursor is drawn on
// top.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/v0xg/autofill/internal/executor"
	"github.com/v0xg/autofill/internal/fill"
)

// OutcomeFunc reports the final outcome of an element, if it was decided
type OutcomeFunc func(fill.Handle) (fill.Outcome, bool)

// Options configures annotation
type Options struct {
	NoCursor bool
}

var (
	filledColor  = color.RGBA{52, 168, 83, 255}
	failedColor  = color.RGBA{234, 67, 53, 255}
	pendingColor = color.RGBA{154, 160, 166, 255}
	rippleColor  = color.RGBA{66, 133, 244, 100}
)

// Annotate renders one image per frame
func Annotate(frames []executor.Frame, outcome OutcomeFunc, opts Options) []image.Image {
	out := make([]image.Image, 0, len(frames))
	for _, f := range frames {
		if f.Image == nil {
			continue
		}
		bounds := f.Image.Bounds()
		img := image.NewRGBA(bounds)
		draw.Draw(img, bounds, f.Image, bounds.Min, draw.Src)

		if !f.Target.Empty() {
			c := pendingColor
			if o, ok := outcome(f.Handle); ok {
				c = colorFor(o)
			}
			drawOutline(img, f.Target.Inset(-3), c, 2)
		}
		if !opts.NoCursor && (f.Cursor.X != 0 || f.Cursor.Y != 0) {
			if f.Cursor.Click {
				drawClickRipple(img, f.Cursor.X, f.Cursor.Y)
			}
			drawCursor(img, f.Cursor.X, f.Cursor.Y)
		}
		out = append(out, img)
	}
	return out
}

func colorFor(o fill.Outcome) color.RGBA {
	switch o {
	case fill.OutcomeFilled:
		return filledColor
	case fill.OutcomeFailed:
		return failedColor
	default:
		return pendingColor
	}
}

// drawOutline strokes r with the given line width
func drawOutline(img *image.RGBA, r image.Rectangle, c color.RGBA, width int) {
	for i := 0; i < width; i++ {
		x0, y0, x1, y1 := r.Min.X+i, r.Min.Y+i, r.Max.X-1-i, r.Max.Y-1-i
		if x0 > x1 || y0 > y1 {
			return
		}
		drawLine(img, x0, y0, x1, y0, c)
		drawLine(img, x1, y0, x1, y1, c)
		drawLine(img, x1, y1, x0, y1, c)
		drawLine(img, x0, y1, x0, y0, c)
	}
}

// drawCursor draws an arrow cursor with its tip at (x, y)
func drawCursor(img *image.RGBA, x, y int) {
	outline := color.RGBA{0, 0, 0, 255}
	body := color.RGBA{255, 255, 255, 255}

	for dy := 0; dy < 18; dy++ {
		for dx := 0; dx < 13; dx++ {
			if isInsideCursor(dx, dy) {
				setPixelSafe(img, x+dx, y+dy, body)
			}
		}
	}

	points := []image.Point{{0, 0}, {0, 16}, {4, 12}, {7, 18}, {10, 17}, {7, 11}, {12, 11}}
	for i, p1 := range points {
		p2 := points[(i+1)%len(points)]
		drawLine(img, x+p1.X, y+p1.Y, x+p2.X, y+p2.Y, outline)
	}
}

func isInsideCursor(dx, dy int) bool {
	if dy < 0 || dy > 16 || dx < 0 {
		return false
	}
	if dy <= 11 {
		return dx <= dy*12/16
	}
	return dx <= 4
}

// drawLine draws a line between two points using Bresenham's algorithm
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	for {
		setPixelSafe(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func drawClickRipple(img *image.RGBA, x, y int) {
	const radius = 15
	for angle := 0.0; angle < 360; angle++ {
		rad := angle * math.Pi / 180
		px := x + int(radius*math.Cos(rad))
		py := y + int(radius*math.Sin(rad))
		setPixelSafe(img, px, py, rippleColor)
		setPixelSafe(img, px+1, py, rippleColor)
		setPixelSafe(img, px, py+1, rippleColor)
	}
}

func setPixelSafe(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{x, y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
