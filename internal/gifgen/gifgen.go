// Package gifgen encodes a recorded fill session as an animated GIF.
package gifgen

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"os"
	"sort"

	"github.com/nfnt/resize"
)

// Options configures GIF generation
type Options struct {
	FPS      int
	MaxWidth uint
	// HoldLast repeats the final frame this many times so the filled form
	// stays on screen before the animation loops
	HoldLast int
}

// Generate writes frames to outputPath and returns the file size
func Generate(frames []image.Image, outputPath string, opts Options) (int64, error) {
	if len(frames) == 0 {
		return 0, fmt.Errorf("no frames to encode")
	}
	if opts.FPS <= 0 {
		opts.FPS = 10
	}
	if opts.MaxWidth == 0 {
		opts.MaxWidth = 800
	}

	// Delay is in 100ths of a second
	delay := max(100/opts.FPS, 2)

	bounds := frames[0].Bounds()
	width := min(opts.MaxWidth, uint(bounds.Dx()))
	height := uint(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()))

	palette := buildPalette(frames[0])
	g := &gif.GIF{LoopCount: 0}
	for i, frame := range frames {
		if uint(frame.Bounds().Dx()) != width {
			frame = resize.Resize(width, height, frame, resize.Lanczos3)
		}
		paletted := image.NewPaletted(frame.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, frame.Bounds(), frame, frame.Bounds().Min)

		d := delay
		if i == len(frames)-1 {
			d = delay * (1 + opts.HoldLast)
		}
		g.Image = append(g.Image, paletted)
		g.Delay = append(g.Delay, d)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := gif.EncodeAll(f, g); err != nil {
		return 0, fmt.Errorf("encode gif: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// reserved colors always make it into the palette: overlay strokes and the
// cursor
var reserved = []color.RGBA{{52, 168, 83, 255}, {234, 67, 53, 255}, {0, 0, 0, 255}, {255, 255, 255, 255}}

// buildPalette keeps the most frequent colors of a sampled frame, with
// channels quantized to 5 bits so near-identical shades share an entry.
func buildPalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	counts := make(map[color.RGBA]int)

	const step = 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			c := color.RGBA{uint8(r>>8) &^ 7, uint8(g>>8) &^ 7, uint8(b>>8) &^ 7, 255}
			counts[c]++
		}
	}

	colors := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		// deterministic order for equal counts
		a, b := colors[i], colors[j]
		return uint32(a.R)<<16|uint32(a.G)<<8|uint32(a.B) < uint32(b.R)<<16|uint32(b.G)<<8|uint32(b.B)
	})

	palette := make(color.Palette, 0, 256)
	palette = append(palette, color.RGBA{0, 0, 0, 0})
	for _, c := range reserved {
		palette = append(palette, c)
	}
	for _, c := range colors {
		if len(palette) == 256 {
			break
		}
		palette = append(palette, c)
	}
	for len(palette) < 256 {
		gray := uint8(len(palette))
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}
	return palette
}
