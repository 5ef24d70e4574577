// Package object holds the entities of the card: letters, the rockets that
// reveal them, explosion particles and the balloons that carry letters away.
package object

import (
	"math/rand"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/timer"
)

// Spawner allows objects to spawn new objects during update.
type Spawner interface {
	Spawn(obj Object)
}

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	After(d time.Duration, fn func()) *timer.Handle
}

// UpdateContext provides all the information an object needs during update.
type UpdateContext struct {
	Delta    time.Duration
	Screen   Screen
	Settings *config.Settings
	Palette  []colorful.Color
	Cursor   *Cursor
	Spawner  Spawner
	Timers   Scheduler
	Rand     *rand.Rand
}

// RandomColor picks a palette colour.
func (ctx UpdateContext) RandomColor() colorful.Color {
	if len(ctx.Palette) == 0 {
		return draw.White
	}
	return ctx.Palette[ctx.Rand.Intn(len(ctx.Palette))]
}

// DrawContext provides drawing resources for objects.
type DrawContext struct {
	Surface  draw.Surface
	Screen   Screen
	Settings *config.Settings
}

// Screen is the viewport size in logical units.
type Screen struct {
	Width  float64
	Height float64
}

// Bounds is the frame outline inset by padding on every side.
type Bounds struct {
	Left, Top, Right, Bottom float64
}

// Inset returns the screen shrunk by padding on every side.
func (s Screen) Inset(padding float64) Bounds {
	return Bounds{
		Left:   padding,
		Top:    padding,
		Right:  s.Width - padding,
		Bottom: s.Height - padding,
	}
}

// Object is a drawable and updatable entity.
type Object interface {
	// Update advances the object by one frame. Returns true if the object should be removed.
	Update(ctx UpdateContext) (remove bool)

	// Draw draws the object.
	Draw(ctx DrawContext)
}

// Releasable is implemented by pooled objects that can be returned to a pool.
type Releasable interface {
	// Release returns the object to its pool for reuse.
	Release()
}

// ReleaseObject releases an object back to its pool if it implements Releasable.
func ReleaseObject(obj Object) {
	if r, ok := obj.(Releasable); ok {
		r.Release()
	}
}
