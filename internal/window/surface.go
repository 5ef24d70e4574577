package window

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/physics"
)

// Surface draws onto an ebiten image. Logical units are pixels.
type Surface struct {
	img   *ebiten.Image
	fonts *Fonts
	white *ebiten.Image // 1x1 source for filled polygons

	vertices []ebiten.Vertex
	indices  []uint16
}

// NewSurface wraps img.
func NewSurface(img *ebiten.Image, fonts *Fonts) *Surface {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)
	return &Surface{
		img:   img,
		fonts: fonts,
		white: white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
	}
}

// toNRGBA converts a colour and separate alpha to an ebiten-friendly colour.
func toNRGBA(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	a := physics.Clamp(alpha, 0, 1)
	return color.NRGBA{R: r, G: g, B: b, A: uint8(a*255 + 0.5)}
}

// Fade implements draw.Surface.
func (s *Surface) Fade(c colorful.Color, alpha float64) {
	b := s.img.Bounds()
	vector.DrawFilledRect(s.img, 0, 0, float32(b.Dx()), float32(b.Dy()), toNRGBA(c, alpha), false)
}

// FillCircle implements draw.Surface.
func (s *Surface) FillCircle(cx, cy, r float64, c colorful.Color, alpha float64) {
	if alpha <= 0 || r <= 0 {
		return
	}
	vector.DrawFilledCircle(s.img, float32(cx), float32(cy), float32(r), toNRGBA(c, alpha), true)
}

// FillPolygon implements draw.Surface for convex polygons.
func (s *Surface) FillPolygon(points []draw.Point, c colorful.Color) {
	if len(points) < 3 {
		return
	}
	c = c.Clamped()
	cr, cg, cb := float32(c.R), float32(c.G), float32(c.B)

	s.vertices = s.vertices[:0]
	s.indices = s.indices[:0]
	for _, p := range points {
		s.vertices = append(s.vertices, ebiten.Vertex{
			DstX: float32(p.X), DstY: float32(p.Y),
			SrcX: 1, SrcY: 1,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: 1,
		})
	}
	for i := 1; i < len(points)-1; i++ {
		s.indices = append(s.indices, 0, uint16(i), uint16(i+1))
	}
	s.img.DrawTriangles(s.vertices, s.indices, s.white, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

// StrokeLine implements draw.Surface.
func (s *Surface) StrokeLine(p1, p2 draw.Point, width float64, c colorful.Color) {
	vector.StrokeLine(s.img, float32(p1.X), float32(p1.Y), float32(p2.X), float32(p2.Y), float32(width), toNRGBA(c, 1), true)
}

// StrokeRect implements draw.Surface.
func (s *Surface) StrokeRect(x, y, w, h, width float64, c colorful.Color, alpha float64) {
	vector.StrokeRect(s.img, float32(x), float32(y), float32(w), float32(h), float32(width), toNRGBA(c, alpha), true)
}

// Text implements draw.Surface.
func (s *Surface) Text(x, y, size float64, str string, c colorful.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	op.ColorScale.ScaleWithColor(toNRGBA(c, 1))
	text.Draw(s.img, str, s.fonts.Face(size), op)
}

var _ draw.Surface = (*Surface)(nil)
