package object

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/timer"
)

// LetterState is a stage of a letter's life. States only move forward.
type LetterState int

const (
	LetterWaiting  LetterState = iota // Hidden, rocket not launched yet
	LetterFirework                    // Rocket in flight
	LetterRevealed                    // Exploded, glyph visible
	LetterBalloon                     // Carried by a balloon
)

func (s LetterState) String() string {
	switch s {
	case LetterWaiting:
		return "waiting"
	case LetterFirework:
		return "firework"
	case LetterRevealed:
		return "revealed"
	case LetterBalloon:
		return "balloon"
	default:
		return "unknown"
	}
}

// Letter is one non-space character of the message. Its anchor (X, Y) is
// the glyph centre; once a balloon is attached the balloon moves it.
type Letter struct {
	Char  string
	Index int
	X, Y  float64
	Size  float64
	Color colorful.Color

	state   LetterState
	balloon *Balloon
	reveal  *timer.Handle
	retired bool
}

// NewLetter creates a waiting letter.
func NewLetter(index int, char string, x, y, size float64) *Letter {
	return &Letter{
		Char:  char,
		Index: index,
		X:     x,
		Y:     y,
		Size:  size,
		Color: draw.White,
	}
}

// State returns the current stage.
func (l *Letter) State() LetterState {
	return l.state
}

// Balloon returns the attached balloon, or nil.
func (l *Letter) Balloon() *Balloon {
	return l.balloon
}

// Visible reports whether the glyph is drawn.
func (l *Letter) Visible() bool {
	return l.state == LetterRevealed || l.state == LetterBalloon
}

// StartFirework launches the rocket that reveals the letter. It does nothing
// unless the letter is still waiting.
func (l *Letter) StartFirework(ctx UpdateContext) bool {
	if l.state != LetterWaiting || l.retired {
		return false
	}
	l.state = LetterFirework
	ctx.Spawner.Spawn(NewRocket(ctx, l.X, l.Y, l.Explode))
	return true
}

// Explode reveals the letter with a particle burst and schedules the
// balloon.
func (l *Letter) Explode(ctx UpdateContext) {
	if l.state != LetterFirework || l.retired {
		return
	}
	l.state = LetterRevealed
	SpawnExplosion(ctx, l.X, l.Y)
	l.reveal = ctx.Timers.After(ctx.Settings.RevealDelay, func() {
		l.AttachBalloon(ctx)
	})
}

// AttachBalloon ties a balloon to a revealed letter. A letter that was
// retired by a reset, or is not revealed, is left alone.
func (l *Letter) AttachBalloon(ctx UpdateContext) bool {
	if l.state != LetterRevealed || l.retired {
		return false
	}
	l.state = LetterBalloon
	l.reveal = nil
	l.balloon = NewBalloon(ctx, l.Index, l.X, l.Y, l.Size)
	if ctx.Spawner != nil {
		ctx.Spawner.Spawn(l.balloon)
	}
	return true
}

// Retire cancels the pending balloon and freezes the letter. Called when the
// scene is rebuilt.
func (l *Letter) Retire() {
	l.reveal.Stop()
	l.reveal = nil
	l.retired = true
}

// Update lets the balloon carry the letter.
func (l *Letter) Update(ctx UpdateContext) bool {
	if l.balloon != nil {
		l.balloon.Update(ctx)
		l.X, l.Y = l.balloon.Hang()
	}
	return false
}

// Draw renders the glyph once revealed. The balloon is drawn by the scene so
// that it can be raised above the others.
func (l *Letter) Draw(ctx DrawContext) {
	if !l.Visible() {
		return
	}
	ctx.Surface.Text(l.X, l.Y, l.Size, l.Char, l.Color)
}
