// Package draw provides the render surface the card draws on and its
// terminal implementation.
package draw

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// Point represents a 2D coordinate.
type Point struct {
	X, Y float64
}

// Surface is a 2D drawing target in logical coordinates.
// Colours are opaque; translucency is passed as a separate alpha in [0, 1].
type Surface interface {
	// Fade paints c over the whole surface with the given alpha.
	Fade(c colorful.Color, alpha float64)
	FillCircle(cx, cy, r float64, c colorful.Color, alpha float64)
	FillPolygon(points []Point, c colorful.Color)
	StrokeLine(p1, p2 Point, width float64, c colorful.Color)
	StrokeRect(x, y, w, h, width float64, c colorful.Color, alpha float64)
	// Text draws s centred on (x, y) at the given font size.
	Text(x, y, size float64, s string, c colorful.Color)
}

// Measurer reports the advance width of text at a font size.
type Measurer interface {
	MeasureText(s string, size float64) float64
}

// Common colours.
var (
	White = colorful.Color{R: 1, G: 1, B: 1}
	Black = colorful.Color{}
)

// ParseColors parses hex colours such as "#ff006e".
func ParseColors(hexes []string) ([]colorful.Color, error) {
	colors := make([]colorful.Color, 0, len(hexes))
	for _, hex := range hexes {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("parse colour %q: %w", hex, err)
		}
		colors = append(colors, c)
	}
	return colors, nil
}

// glyphAdvance approximates a proportional font's advance as a fraction of
// its size.
const glyphAdvance = 0.6

// CellMeasurer measures text by terminal cell width, scaled by font size so
// that letter spacing follows the layout size rather than the cell grid.
type CellMeasurer struct{}

// MeasureText implements Measurer.
func (CellMeasurer) MeasureText(s string, size float64) float64 {
	return float64(runewidth.StringWidth(s)) * size * glyphAdvance
}

// Discard is a Surface that draws nothing.
type Discard struct{}

func (Discard) Fade(colorful.Color, float64) {}

func (Discard) FillCircle(float64, float64, float64, colorful.Color, float64) {}

func (Discard) FillPolygon([]Point, colorful.Color) {}

func (Discard) StrokeLine(Point, Point, float64, colorful.Color) {}

func (Discard) StrokeRect(float64, float64, float64, float64, float64, colorful.Color, float64) {}

func (Discard) Text(float64, float64, float64, string, colorful.Color) {}

var (
	_ Surface  = Discard{}
	_ Measurer = CellMeasurer{}
)
