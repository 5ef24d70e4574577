package object

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/physics"
)

// rocketShape is the rocket triangle pointing up, before rotation.
var rocketShape = [3]draw.Point{{X: 0, Y: -10}, {X: 5, Y: 5}, {X: -5, Y: 5}}

// Rocket flies in a straight line from the bottom edge to a letter and
// calls its arrival callback exactly once.
type Rocket struct {
	X, Y             float64
	TargetX, TargetY float64
	VX, VY           float64
	Angle            float64
	Color            colorful.Color

	onArrive func(UpdateContext)
	arrived  bool
}

// NewRocket launches a rocket from a random point in the central band of the
// bottom edge towards (tx, ty).
func NewRocket(ctx UpdateContext, tx, ty float64, onArrive func(UpdateContext)) *Rocket {
	w, h := ctx.Screen.Width, ctx.Screen.Height
	x := physics.Random(ctx.Rand, w*0.2, w*0.8)
	y := h
	angle := physics.Angle(x, y, tx, ty)
	vx, vy := physics.Polar(angle, ctx.Settings.RocketSpeed)

	return &Rocket{
		X:        x,
		Y:        y,
		TargetX:  tx,
		TargetY:  ty,
		VX:       vx,
		VY:       vy,
		Angle:    angle,
		Color:    ctx.RandomColor(),
		onArrive: onArrive,
	}
}

// Update moves the rocket. On the frame it reaches the target it fires the
// callback and asks to be removed.
func (r *Rocket) Update(ctx UpdateContext) bool {
	if r.arrived {
		return true
	}
	r.X += r.VX
	r.Y += r.VY

	near := physics.Distance(r.X, r.Y, r.TargetX, r.TargetY) < ctx.Settings.ArrivalThreshold
	// A rocket faster than twice the threshold can step over the target.
	passed := (r.TargetX-r.X)*r.VX+(r.TargetY-r.Y)*r.VY <= 0
	if !near && !passed {
		return false
	}

	r.arrived = true
	if r.onArrive != nil {
		r.onArrive(ctx)
	}
	return true
}

// Draw renders the rocket as a triangle facing its direction of travel.
func (r *Rocket) Draw(ctx DrawContext) {
	rot := r.Angle + math.Pi/2
	points := make([]draw.Point, len(rocketShape))
	for i, p := range rocketShape {
		x, y := physics.Rotate(p.X, p.Y, rot)
		points[i] = draw.Point{X: r.X + x, Y: r.Y + y}
	}
	ctx.Surface.FillPolygon(points, r.Color)
}
