package draw

import (
	"io"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// snapDistance is how close a faded pixel must get to the fade colour before
// it is snapped onto it. Without it repeated blending never settles and the
// diff renderer would keep re-emitting invisible changes.
const snapDistance = 0.02

// rgb is a pixel quantised to what the terminal can show.
type rgb [3]uint8

func quantize(c colorful.Color) rgb {
	r, g, b := c.Clamped().RGB255()
	return rgb{r, g, b}
}

// cell is one terminal character as last emitted.
type cell struct {
	top, bottom rgb
	fg          rgb
	glyph       rune
	cont        bool // Right half of a double-width glyph
}

type glyph struct {
	r    rune
	c    colorful.Color
	cont bool
}

// Canvas is a colour drawing buffer with 2x vertical resolution using
// half-block characters. It scales from logical coordinates to terminal
// pixels and only re-emits cells that changed since the last Render.
type Canvas struct {
	termWidth      int // Actual terminal columns
	termHeight     int // Actual terminal rows
	subPixelHeight int // termHeight * 2
	pixels         []colorful.Color
	glyphs         []glyph // One per cell, drawn over the pixels
	shown          []cell  // What the terminal currently displays
	forceRedraw    bool

	background colorful.Color

	// Scaling from logical to pixel coordinates
	logicalWidth  float64
	logicalHeight float64
	scaleX        float64 // termWidth / logicalWidth
	scaleY        float64 // (termHeight*2) / logicalHeight

	// Offset for centering the render area when the terminal is larger than
	// the max resolution. 0-based terminal columns/rows to skip.
	offsetCol int
	offsetRow int

	// Reusable buffers to reduce allocations
	out             ChunkWriter
	scaledBuf       []Point
	intersectionBuf []float64
}

// NewScaledCanvas creates a canvas that scales from logical coordinates to
// terminal pixels, filled with the background colour.
func NewScaledCanvas(termWidth, termHeight int, logicalWidth, logicalHeight float64, background colorful.Color) *Canvas {
	c := &Canvas{background: background}
	c.Resize(termWidth, termHeight, logicalWidth, logicalHeight)
	return c
}

// Resize updates the canvas for new terminal and logical dimensions.
// Buffers are reallocated and the next Render repaints everything.
func (c *Canvas) Resize(termWidth, termHeight int, logicalWidth, logicalHeight float64) {
	if termWidth < 0 {
		termWidth = 0
	}
	if termHeight < 0 {
		termHeight = 0
	}
	if termWidth != c.termWidth || termHeight != c.termHeight || c.pixels == nil {
		c.termWidth = termWidth
		c.termHeight = termHeight
		c.subPixelHeight = termHeight * 2
		c.pixels = make([]colorful.Color, c.subPixelHeight*termWidth)
		c.glyphs = make([]glyph, termHeight*termWidth)
		c.shown = make([]cell, termHeight*termWidth)
		c.Clear()
		c.forceRedraw = true
	}

	c.logicalWidth = logicalWidth
	c.logicalHeight = logicalHeight
	c.scaleX = 0
	c.scaleY = 0
	if logicalWidth > 0 {
		c.scaleX = float64(termWidth) / logicalWidth
	}
	if logicalHeight > 0 {
		c.scaleY = float64(c.subPixelHeight) / logicalHeight
	}
}

// SetBackground changes the colour Clear fills with.
func (c *Canvas) SetBackground(bg colorful.Color) {
	c.background = bg
}

// SetOffset sets the column and row offset for centering the canvas.
func (c *Canvas) SetOffset(col, row int) {
	if col != c.offsetCol || row != c.offsetRow {
		c.forceRedraw = true
	}
	c.offsetCol = col
	c.offsetRow = row
}

// OffsetCol returns the column offset used for centering.
func (c *Canvas) OffsetCol() int {
	return c.offsetCol
}

// OffsetRow returns the row offset used for centering.
func (c *Canvas) OffsetRow() int {
	return c.offsetRow
}

// ForceRedraw makes the next Render emit every cell, e.g. after the
// terminal was cleared.
func (c *Canvas) ForceRedraw() {
	c.forceRedraw = true
}

// Clear fills every pixel with the background and drops all glyphs.
func (c *Canvas) Clear() {
	for i := range c.pixels {
		c.pixels[i] = c.background
	}
	clear(c.glyphs)
}

// blendPixel mixes colour into a pixel at actual terminal coordinates.
func (c *Canvas) blendPixel(x, y int, col colorful.Color, alpha float64) {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight || alpha <= 0 {
		return
	}
	i := y*c.termWidth + x
	if alpha >= 1 {
		c.pixels[i] = col
		return
	}
	c.pixels[i] = c.pixels[i].BlendRgb(col, alpha)
}

// Pixel returns the colour at actual terminal sub-pixel coordinates.
func (c *Canvas) Pixel(x, y int) colorful.Color {
	if x < 0 || x >= c.termWidth || y < 0 || y >= c.subPixelHeight {
		return c.background
	}
	return c.pixels[y*c.termWidth+x]
}

func (c *Canvas) toPixel(x, y float64) (int, int) {
	return int(math.Floor(x * c.scaleX)), int(math.Floor(y * c.scaleY))
}

// Fade blends every pixel toward col. Pixels that end up within
// snapDistance of col are set to it exactly.
func (c *Canvas) Fade(col colorful.Color, alpha float64) {
	for i, p := range c.pixels {
		p = p.BlendRgb(col, alpha)
		if p.DistanceRgb(col) < snapDistance {
			p = col
		}
		c.pixels[i] = p
	}
}

// FillCircle fills every sub-pixel whose centre lies inside the circle.
// Circles smaller than a sub-pixel still mark the pixel under their centre.
func (c *Canvas) FillCircle(cx, cy, r float64, col colorful.Color, alpha float64) {
	if c.scaleX == 0 || c.scaleY == 0 {
		return
	}
	x0, y0 := c.toPixel(cx-r, cy-r)
	x1, y1 := c.toPixel(cx+r, cy+r)
	hit := false
	for py := y0; py <= y1; py++ {
		ly := (float64(py) + 0.5) / c.scaleY
		for px := x0; px <= x1; px++ {
			lx := (float64(px) + 0.5) / c.scaleX
			dx, dy := lx-cx, ly-cy
			if dx*dx+dy*dy <= r*r {
				c.blendPixel(px, py, col, alpha)
				hit = true
			}
		}
	}
	if !hit {
		px, py := c.toPixel(cx, cy)
		c.blendPixel(px, py, col, alpha)
	}
}

// StrokeLine draws a line on the canvas using Bresenham's algorithm.
// The terminal cannot show sub-cell widths, so width is ignored.
func (c *Canvas) StrokeLine(p1, p2 Point, _ float64, col colorful.Color) {
	c.line(p1, p2, col, 1)
}

func (c *Canvas) line(p1, p2 Point, col colorful.Color, alpha float64) {
	x1, y1 := c.toPixel(p1.X, p1.Y)
	x2, y2 := c.toPixel(p2.X, p2.Y)

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		c.blendPixel(x1, y1, col, alpha)

		if x1 == x2 && y1 == y2 {
			break
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

// StrokeRect outlines a rectangle.
func (c *Canvas) StrokeRect(x, y, w, h, _ float64, col colorful.Color, alpha float64) {
	// Keep the far edges on the last pixel inside the rectangle.
	right := x + w - 1/math.Max(c.scaleX, 1e-9)
	bottom := y + h - 1/math.Max(c.scaleY, 1e-9)
	tl, tr := Point{x, y}, Point{right, y}
	bl, br := Point{x, bottom}, Point{right, bottom}
	c.line(tl, tr, col, alpha)
	c.line(bl, br, col, alpha)
	// Vertical edges skip the corners so they are not blended twice.
	c.verticalLine(tl, bl, col, alpha)
	c.verticalLine(tr, br, col, alpha)
}

func (c *Canvas) verticalLine(top, bottom Point, col colorful.Color, alpha float64) {
	px, y0 := c.toPixel(top.X, top.Y)
	_, y1 := c.toPixel(bottom.X, bottom.Y)
	for py := y0 + 1; py < y1; py++ {
		c.blendPixel(px, py, col, alpha)
	}
}

// FillPolygon fills a polygon using a scanline algorithm in pixel space.
func (c *Canvas) FillPolygon(points []Point, col colorful.Color) {
	if len(points) < 3 {
		return
	}

	if cap(c.scaledBuf) < len(points) {
		c.scaledBuf = make([]Point, len(points))
	}
	scaled := c.scaledBuf[:len(points)]
	for i, p := range points {
		scaled[i] = Point{X: p.X * c.scaleX, Y: p.Y * c.scaleY}
	}

	minY, maxY := scaled[0].Y, scaled[0].Y
	for _, p := range scaled {
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		scanY := float64(y) + 0.5

		intersections := c.intersectionBuf[:0]
		n := len(scaled)
		for i := 0; i < n; i++ {
			p1 := scaled[i]
			p2 := scaled[(i+1)%n]
			if (p1.Y <= scanY && p2.Y > scanY) || (p2.Y <= scanY && p1.Y > scanY) {
				t := (scanY - p1.Y) / (p2.Y - p1.Y)
				intersections = append(intersections, p1.X+t*(p2.X-p1.X))
			}
		}
		c.intersectionBuf = intersections

		sort.Float64s(intersections)
		for i := 0; i+1 < len(intersections); i += 2 {
			xStart := int(math.Floor(intersections[i]))
			xEnd := int(math.Floor(intersections[i+1]))
			for x := xStart; x <= xEnd; x++ {
				c.blendPixel(x, y, col, 1)
			}
		}
	}

	// Outline so thin shapes never vanish between scanlines.
	n := len(points)
	for i := 0; i < n; i++ {
		c.line(points[i], points[(i+1)%n], col, 1)
	}
}

// Text places s centred on the cell under (x, y). The terminal font size is
// fixed, so size is ignored.
func (c *Canvas) Text(x, y, _ float64, s string, col colorful.Color) {
	if c.scaleX == 0 || c.scaleY == 0 {
		return
	}
	px, py := c.toPixel(x, y)
	row := py / 2
	if py < 0 || row >= c.termHeight {
		return
	}
	cursor := px - runewidth.StringWidth(s)/2
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if cursor >= 0 && cursor+w <= c.termWidth {
			c.glyphs[row*c.termWidth+cursor] = glyph{r: r, c: col}
			if w == 2 {
				c.glyphs[row*c.termWidth+cursor+1] = glyph{cont: true}
			}
		}
		cursor += w
	}
}

// GlyphAt returns the glyph drawn at a 0-based cell this frame, or 0.
func (c *Canvas) GlyphAt(col, row int) rune {
	if col < 0 || col >= c.termWidth || row < 0 || row >= c.termHeight {
		return 0
	}
	return c.glyphs[row*c.termWidth+col].r
}

// Render emits every cell that changed since the previous Render using
// half-block characters with 24-bit colour, then drops this frame's glyphs.
func (c *Canvas) Render(w io.Writer) {
	out := &c.out
	out.SetOffset(c.offsetCol, c.offsetRow)
	nextCol, nextRow := -1, -1

	for row := 0; row < c.termHeight; row++ {
		topOffset := row * 2 * c.termWidth
		bottomOffset := topOffset + c.termWidth

		for col := 0; col < c.termWidth; col++ {
			i := row*c.termWidth + col
			g := c.glyphs[i]
			cur := cell{
				top:    quantize(c.pixels[topOffset+col]),
				bottom: quantize(c.pixels[bottomOffset+col]),
				glyph:  g.r,
				cont:   g.cont,
			}
			if g.r != 0 {
				cur.fg = quantize(g.c)
			}
			if !c.forceRedraw && cur == c.shown[i] {
				continue
			}
			c.shown[i] = cur
			if cur.cont {
				// Covered by the wide glyph to the left.
				continue
			}

			if row != nextRow || col != nextCol {
				out.MoveTo(col+1, row+1)
			}

			ch := BlockUpperHalf
			fg, bg := cur.top, cur.bottom
			if cur.glyph != 0 {
				ch = cur.glyph
				fg = cur.fg
				bg = quantize(c.pixels[topOffset+col].BlendRgb(c.pixels[bottomOffset+col], 0.5))
			}
			out.SetColors(fg, bg)
			out.WriteRune(ch)

			nextRow = row
			nextCol = col + 1
			if cur.glyph != 0 {
				nextCol = col + max(runewidth.RuneWidth(cur.glyph), 1)
			}
		}
	}
	out.ResetStyle()
	c.forceRedraw = false
	clear(c.glyphs)

	_ = out.FlushTo(w)
}

// RenderBorder draws a box border around the canvas area when the terminal
// exceeds the max render resolution on either axis.
func (c *Canvas) RenderBorder(w io.Writer) {
	hasH := c.offsetCol >= 1 // Room for left/right vertical bars
	hasV := c.offsetRow >= 1 // Room for top/bottom horizontal bars
	if !hasH && !hasV {
		return
	}

	left := c.offsetCol
	right := c.offsetCol + c.termWidth + 1
	top := c.offsetRow
	bottom := c.offsetRow + c.termHeight + 1

	var cw ChunkWriter

	if hasV {
		edge := strings.Repeat("─", c.termWidth)
		if hasH {
			cw.WriteAt(left, top, "┌"+edge+"┐")
			cw.WriteAt(left, bottom, "└"+edge+"┘")
		} else {
			cw.WriteAt(c.offsetCol+1, top, edge)
			cw.WriteAt(c.offsetCol+1, bottom, edge)
		}
	}

	if hasH {
		startRow, endRow := top+1, bottom
		if !hasV {
			startRow = c.offsetRow + 1
			endRow = c.offsetRow + c.termHeight + 1
		}
		for row := startRow; row < endRow; row++ {
			cw.WriteAt(left, row, "│")
			cw.WriteAt(right, row, "│")
		}
	}

	_ = cw.FlushTo(w)
}

// LogicalWidth returns the logical width.
func (c *Canvas) LogicalWidth() float64 {
	return c.logicalWidth
}

// LogicalHeight returns the logical height.
func (c *Canvas) LogicalHeight() float64 {
	return c.logicalHeight
}

// TerminalWidth returns the actual terminal column count.
func (c *Canvas) TerminalWidth() int {
	return c.termWidth
}

// TerminalHeight returns the actual terminal row count.
func (c *Canvas) TerminalHeight() int {
	return c.termHeight
}

// TerminalToLogical converts a 1-based terminal position (as reported by
// mouse events) to the logical coordinates of the cell centre. ok is false
// when the position lies outside the render area.
func (c *Canvas) TerminalToLogical(col, row int) (x, y float64, ok bool) {
	cc := col - 1 - c.offsetCol
	rr := row - 1 - c.offsetRow
	if cc < 0 || cc >= c.termWidth || rr < 0 || rr >= c.termHeight || c.scaleX == 0 || c.scaleY == 0 {
		return 0, 0, false
	}
	x = (float64(cc) + 0.5) / c.scaleX
	y = (float64(rr)*2 + 1) / c.scaleY
	return x, y, true
}

var _ Surface = (*Canvas)(nil)

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
