package object

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/physics"
)

// Balloon look.
const (
	balloonLaunchVY  = -0.5
	stringWidth      = 2.0
	highlightOffsetX = 0.3
	highlightOffsetY = 0.4
	highlightRadius  = 0.2
	highlightAlpha   = 0.4
)

// Balloon carries one letter, identified by LetterIndex, which hangs
// StringLength below it. It floats up, is pushed away by the cursor and can
// be dragged and flung.
type Balloon struct {
	LetterIndex int
	LetterSize  float64

	X, Y         float64
	VX, VY       float64
	Radius       float64
	StringLength float64
	Color        colorful.Color
	Grabbed      bool

	inflate *gween.Tween
	scale   float64 // Drawn body size relative to Radius
}

// NewBalloon creates a balloon at the letter's anchor.
func NewBalloon(ctx UpdateContext, letterIndex int, x, y, letterSize float64) *Balloon {
	b := &Balloon{
		LetterIndex:  letterIndex,
		LetterSize:   letterSize,
		X:            x,
		Y:            y,
		VY:           balloonLaunchVY,
		Radius:       letterSize * ctx.Settings.BalloonRadiusRatio,
		StringLength: letterSize * ctx.Settings.StringLengthRatio,
		Color:        ctx.RandomColor(),
		scale:        1,
	}
	if d := ctx.Settings.InflateDuration; d > 0 {
		b.inflate = gween.New(0, 1, float32(d.Seconds()), ease.OutElastic)
		b.scale = 0
	}
	return b
}

// Hang returns where the letter hangs.
func (b *Balloon) Hang() (x, y float64) {
	return b.X, b.Y + b.StringLength
}

// Contains reports whether (x, y) lies inside the balloon body.
func (b *Balloon) Contains(x, y float64) bool {
	return physics.PointInCircle(x, y, b.X, b.Y, b.Radius)
}

// Grab pins the balloon to the cursor.
func (b *Balloon) Grab() {
	b.Grabbed = true
	b.VX, b.VY = 0, 0
}

// Release lets go with the given velocity.
func (b *Balloon) Release(vx, vy float64) {
	b.Grabbed = false
	b.VX, b.VY = vx, vy
}

// Update runs one physics step followed by boundary resolution. A balloon
// is never removed; it lives as long as its letter.
func (b *Balloon) Update(ctx UpdateContext) bool {
	s := ctx.Settings
	cur := ctx.Cursor

	if b.inflate != nil {
		v, done := b.inflate.Update(float32(ctx.Delta.Seconds()))
		b.scale = float64(v)
		if done {
			b.inflate = nil
			b.scale = 1
		}
	}

	if b.Grabbed {
		if cur != nil && cur.Present {
			b.X, b.Y = cur.X, cur.Y
		}
		b.VX, b.VY = 0, 0
	} else {
		if cur != nil && cur.Present {
			dist := physics.Distance(cur.X, cur.Y, b.X, b.Y)
			if dist < cur.Radius {
				force := (cur.Radius - dist) / cur.Radius
				fx, fy := physics.Polar(physics.Angle(cur.X, cur.Y, b.X, b.Y), force*s.Repulsion)
				b.VX += fx
				b.VY += fy
			}
		}

		b.VX *= s.Friction
		b.VY *= s.Friction
		b.VY -= s.Buoyancy

		b.X += b.VX
		b.Y += b.VY
	}

	b.resolveBounds(ctx.Screen.Inset(s.FramePadding), s.BounceDamping)
	return false
}

// resolveBounds keeps the body inside the frame and the hanging letter above
// its bottom edge. Only free balloons bounce.
func (b *Balloon) resolveBounds(bounds Bounds, damping float64) {
	if b.X-b.Radius < bounds.Left {
		b.X = bounds.Left + b.Radius
		if !b.Grabbed {
			b.VX *= damping
		}
	}
	if b.X+b.Radius > bounds.Right {
		b.X = bounds.Right - b.Radius
		if !b.Grabbed {
			b.VX *= damping
		}
	}
	if b.Y-b.Radius < bounds.Top {
		b.Y = bounds.Top + b.Radius
		if !b.Grabbed {
			b.VY *= damping
		}
	}
	// The letter, not the body, rests on the bottom edge. On a screen too
	// short for both, the bottom edge wins.
	if b.Y+b.StringLength+b.LetterSize/2 > bounds.Bottom {
		b.Y = bounds.Bottom - b.LetterSize/2 - b.StringLength
		if !b.Grabbed {
			b.VY *= damping
		}
	}
}

// Draw renders the string, the body and its highlight.
func (b *Balloon) Draw(ctx DrawContext) {
	lx, ly := b.Hang()
	ctx.Surface.StrokeLine(draw.Point{X: b.X, Y: b.Y}, draw.Point{X: lx, Y: ly}, stringWidth, draw.White)

	r := b.Radius * b.scale
	if r <= 0 {
		return
	}
	ctx.Surface.FillCircle(b.X, b.Y, r, b.Color, 1)
	ctx.Surface.FillCircle(b.X-r*highlightOffsetX, b.Y-r*highlightOffsetY, r*highlightRadius, draw.White, highlightAlpha)
}
