// Package scene runs the birthday card: it lays out the message, staggers
// the fireworks, ticks every entity once per frame and routes pointer input.
//
// A Scene is not safe for concurrent use. Pointer handlers and Frame must be
// called from the goroutine that drives the frames.
package scene

import (
	"io"
	"math"
	"math/rand"
	"slices"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/object"
	"github.com/tomz197/birthday/internal/timer"
)

// Frame outline look.
const (
	outlineWidth = 5.0
	outlineAlpha = 0.8
)

// Option configures a Scene.
type Option func(*Scene)

// WithRand makes the scene use r for every random choice.
func WithRand(r *rand.Rand) Option {
	return func(s *Scene) {
		s.rand = r
	}
}

// WithLogger sets the logger for layout and lifecycle debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Scene) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scene owns every entity of the card.
type Scene struct {
	settings   config.Settings
	palette    []colorful.Color
	background colorful.Color
	measurer   draw.Measurer

	screen object.Screen
	timers *timer.Scheduler
	cursor *object.Cursor
	rand   *rand.Rand
	logger *log.Logger
	delta  time.Duration

	letters   []*object.Letter // Message order
	rockets   []*object.Rocket
	particles []*object.Particle
	balloons  []*object.Balloon // Draw order, last on top
	grabbed   *object.Balloon
}

// New creates an empty scene. Call Resize to lay out the message.
func New(settings config.Settings, measurer draw.Measurer, opts ...Option) (*Scene, error) {
	s := &Scene{
		measurer: measurer,
		timers:   timer.New(),
		cursor:   object.NewCursor(settings.CursorRadius),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.apply(settings); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) apply(settings config.Settings) error {
	palette, err := draw.ParseColors(settings.Palette)
	if err != nil {
		return err
	}
	background, err := colorful.Hex(settings.Background)
	if err != nil {
		return err
	}
	s.settings = settings
	s.palette = palette
	s.background = background
	s.cursor.Radius = settings.CursorRadius
	return nil
}

// Configure swaps the settings and rebuilds the scene.
func (s *Scene) Configure(settings config.Settings) error {
	if err := s.apply(settings); err != nil {
		return err
	}
	s.logger.Debug("settings applied", "message", settings.Message)
	s.Init()
	return nil
}

// Resize sets the viewport in logical units. A changed size rebuilds the
// scene because every position derives from it.
func (s *Scene) Resize(width, height float64) {
	if width == s.screen.Width && height == s.screen.Height {
		return
	}
	s.screen = object.Screen{Width: width, Height: height}
	s.Init()
}

// Init discards every entity and pending callback, lays out the message
// again and schedules the fireworks left to right.
func (s *Scene) Init() {
	s.timers.CancelAll()
	for _, l := range s.letters {
		l.Retire()
	}
	for _, p := range s.particles {
		p.Release()
	}
	s.letters = nil
	s.rockets = nil
	s.particles = nil
	s.balloons = nil
	s.grabbed = nil

	w, h := s.screen.Width, s.screen.Height
	runes := []rune(s.settings.Message)
	if w <= 0 || h <= 0 || len(runes) == 0 {
		return
	}

	size := math.Min(w/float64(len(runes)+2), s.settings.MaxLetterSize)
	x := (w - s.measurer.MeasureText(s.settings.Message, size)) / 2
	y := h / 2
	for _, r := range runes {
		ch := string(r)
		advance := s.measurer.MeasureText(ch, size)
		if !unicode.IsSpace(r) {
			s.letters = append(s.letters, object.NewLetter(len(s.letters), ch, x+advance/2, y, size))
		}
		x += advance
	}

	for i, l := range s.letters {
		s.timers.After(time.Duration(i)*s.settings.LaunchStagger, func() {
			if l.StartFirework(s.context()) {
				s.logger.Debug("firework launched", "letter", l.Char, "index", l.Index)
			}
		})
	}
	s.logger.Debug("scene laid out", "letters", len(s.letters), "size", size, "width", w, "height", h)
}

// Spawn implements object.Spawner.
func (s *Scene) Spawn(obj object.Object) {
	switch o := obj.(type) {
	case *object.Rocket:
		s.rockets = append(s.rockets, o)
	case *object.Particle:
		s.particles = append(s.particles, o)
	case *object.Balloon:
		s.balloons = append(s.balloons, o)
		s.logger.Debug("balloon attached", "index", o.LetterIndex)
	default:
		s.logger.Warn("spawn of unknown object", "type", obj)
	}
}

func (s *Scene) context() object.UpdateContext {
	return object.UpdateContext{
		Delta:    s.delta,
		Screen:   s.screen,
		Settings: &s.settings,
		Palette:  s.palette,
		Cursor:   s.cursor,
		Spawner:  s,
		Timers:   s.timers,
		Rand:     s.rand,
	}
}

// Frame advances the clock by dt, runs due callbacks and ticks one frame
// onto surf.
func (s *Scene) Frame(dt time.Duration, surf draw.Surface) {
	s.delta = dt
	s.timers.Advance(dt)

	ctx := s.context()
	dctx := object.DrawContext{Surface: surf, Screen: s.screen, Settings: &s.settings}

	surf.Fade(s.background, s.settings.TrailOpacity)

	// Reverse order keeps indices valid while removing.
	for i := len(s.rockets) - 1; i >= 0; i-- {
		r := s.rockets[i]
		if r.Update(ctx) {
			s.rockets = slices.Delete(s.rockets, i, i+1)
			continue
		}
		r.Draw(dctx)
	}

	for i := len(s.particles) - 1; i >= 0; i-- {
		p := s.particles[i]
		if p.Update(ctx) {
			s.particles = slices.Delete(s.particles, i, i+1)
			p.Release()
			continue
		}
		p.Draw(dctx)
	}

	for _, l := range s.letters {
		l.Update(ctx)
		l.Draw(dctx)
	}
	for _, b := range s.balloons {
		b.Draw(dctx)
	}

	pad := s.settings.FramePadding
	surf.StrokeRect(pad, pad, s.screen.Width-2*pad, s.screen.Height-2*pad, outlineWidth, draw.White, outlineAlpha)
}

// PointerDown grabs the top-most balloon under (x, y) and raises it above
// the others.
func (s *Scene) PointerDown(x, y float64) {
	s.PointerUp()
	s.cursor.Down(x, y)
	for i := len(s.balloons) - 1; i >= 0; i-- {
		b := s.balloons[i]
		if !b.Contains(x, y) {
			continue
		}
		b.Grab()
		s.grabbed = b
		s.balloons = append(slices.Delete(s.balloons, i, i+1), b)
		return
	}
}

// PointerMove records a pointer sample.
func (s *Scene) PointerMove(x, y float64) {
	s.cursor.Move(x, y)
}

// PointerUp flings the grabbed balloon with the pointer's velocity.
func (s *Scene) PointerUp() {
	if s.grabbed == nil {
		return
	}
	s.grabbed.Release(s.cursor.VX, s.cursor.VY)
	s.grabbed = nil
}

// PointerLeave releases any grabbed balloon and forgets the pointer.
func (s *Scene) PointerLeave() {
	s.PointerUp()
	s.cursor.Leave()
}

// Settings returns the active settings.
func (s *Scene) Settings() config.Settings {
	return s.settings
}

// Screen returns the viewport size.
func (s *Scene) Screen() object.Screen {
	return s.screen
}

// Letters returns the letters in message order.
func (s *Scene) Letters() []*object.Letter {
	return s.letters
}

// Rockets returns the rockets in flight.
func (s *Scene) Rockets() []*object.Rocket {
	return s.rockets
}

// Particles returns the live particles.
func (s *Scene) Particles() []*object.Particle {
	return s.particles
}

// Balloons returns the balloons in draw order.
func (s *Scene) Balloons() []*object.Balloon {
	return s.balloons
}

// Grabbed returns the balloon being dragged, or nil.
func (s *Scene) Grabbed() *object.Balloon {
	return s.grabbed
}

// Cursor returns the shared pointer state.
func (s *Scene) Cursor() *object.Cursor {
	return s.cursor
}

// PendingTimers returns the number of scheduled callbacks.
func (s *Scene) PendingTimers() int {
	return s.timers.Pending()
}

// LetterOf resolves the letter a balloon carries.
func (s *Scene) LetterOf(b *object.Balloon) *object.Letter {
	if b == nil || b.LetterIndex < 0 || b.LetterIndex >= len(s.letters) {
		return nil
	}
	return s.letters[b.LetterIndex]
}
