package object

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/timer"
)

type collector struct {
	objects []Object
}

func (c *collector) Spawn(obj Object) {
	c.objects = append(c.objects, obj)
}

func (c *collector) rockets() []*Rocket {
	var out []*Rocket
	for _, o := range c.objects {
		if r, ok := o.(*Rocket); ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *collector) particles() []*Particle {
	var out []*Particle
	for _, o := range c.objects {
		if p, ok := o.(*Particle); ok {
			out = append(out, p)
		}
	}
	return out
}

// circleRecorder records FillCircle alphas and ignores everything else.
type circleRecorder struct {
	draw.Discard
	alphas []float64
}

func (r *circleRecorder) FillCircle(_, _, _ float64, _ colorful.Color, alpha float64) {
	r.alphas = append(r.alphas, alpha)
}

func newTestContext(t *testing.T) (UpdateContext, *collector, *timer.Scheduler) {
	t.Helper()
	s := config.Default()
	palette, err := draw.ParseColors(s.Palette)
	if err != nil {
		t.Fatal(err)
	}
	spawner := &collector{}
	timers := timer.New()
	return UpdateContext{
		Delta:    time.Second / 60,
		Screen:   Screen{Width: 800, Height: 600},
		Settings: &s,
		Palette:  palette,
		Cursor:   NewCursor(s.CursorRadius),
		Spawner:  spawner,
		Timers:   timers,
		Rand:     rand.New(rand.NewSource(1)),
	}, spawner, timers
}

func TestCursorVelocity(t *testing.T) {
	c := NewCursor(100)
	c.Move(10, 10)
	if c.VX != 0 || c.VY != 0 {
		t.Errorf("first sample velocity = (%v, %v), want 0", c.VX, c.VY)
	}
	c.Move(14, 7)
	if c.VX != 4 || c.VY != -3 {
		t.Errorf("velocity = (%v, %v), want (4, -3)", c.VX, c.VY)
	}
	c.Leave()
	if c.Present || c.HasPrev || c.VX != 0 || c.VY != 0 {
		t.Errorf("after leave: %+v", c)
	}
	c.Down(50, 50)
	if !c.Present || c.VX != 0 || c.VY != 0 {
		t.Errorf("after down: %+v", c)
	}
}

func TestParticleLifeAndRemoval(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	p := NewParticle(ctx, 100, 100, draw.White)
	if p.Life != 1 {
		t.Fatalf("initial life = %v, want 1", p.Life)
	}
	if p.Size < particleMinSize || p.Size >= particleMaxSize {
		t.Errorf("size %v out of range", p.Size)
	}
	speed := math.Hypot(p.VX, p.VY)
	if speed < particleMinSpeed || speed >= particleMaxSpeed+1e-9 {
		t.Errorf("speed %v out of range", speed)
	}

	rec := &circleRecorder{}
	dctx := DrawContext{Surface: rec, Screen: ctx.Screen, Settings: ctx.Settings}
	prev := p.Life
	frames := 0
	for !p.Update(ctx) {
		if p.Life >= prev {
			t.Fatalf("life did not decrease: %v -> %v", prev, p.Life)
		}
		prev = p.Life
		p.Draw(dctx)
		frames++
		if frames > 1000 {
			t.Fatal("particle never expired")
		}
	}
	if p.Life > 0 {
		t.Errorf("removed with life %v", p.Life)
	}
	// 1 / 0.02 frames, allowing for float drift.
	if frames < 49 || frames > 50 {
		t.Errorf("expired after %d frames, want about 50", frames)
	}
	for _, a := range rec.alphas {
		if a <= 0 {
			t.Fatalf("drawn with alpha %v", a)
		}
	}
}

func TestParticleGravity(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	p := NewParticle(ctx, 0, 0, draw.White)
	vy := p.VY
	y := p.Y
	p.Update(ctx)
	if got := p.VY; math.Abs(got-(vy+0.1)) > 1e-12 {
		t.Errorf("VY = %v, want %v", got, vy+0.1)
	}
	if math.Abs(p.Y-(y+p.VY)) > 1e-12 {
		t.Errorf("Y = %v, want %v", p.Y, y+p.VY)
	}
}

func TestSpawnExplosionSharesColor(t *testing.T) {
	ctx, spawner, _ := newTestContext(t)
	c := SpawnExplosion(ctx, 10, 20)
	ps := spawner.particles()
	if len(ps) != ctx.Settings.ParticlesPerExplosion {
		t.Fatalf("spawned %d particles, want %d", len(ps), ctx.Settings.ParticlesPerExplosion)
	}
	for _, p := range ps {
		if p.Color != c {
			t.Fatalf("particle colour %v, want %v", p.Color, c)
		}
		if p.X != 10 || p.Y != 20 {
			t.Fatalf("particle at (%v, %v), want (10, 20)", p.X, p.Y)
		}
	}
}

func TestRocketArrivesOnce(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	calls := 0
	r := NewRocket(ctx, 400, 300, func(UpdateContext) { calls++ })
	if r.Y != ctx.Screen.Height {
		t.Errorf("launched at y=%v, want bottom edge", r.Y)
	}
	if r.X < 160 || r.X >= 640 {
		t.Errorf("launched at x=%v, want central band", r.X)
	}
	if got := math.Hypot(r.VX, r.VY); math.Abs(got-ctx.Settings.RocketSpeed) > 1e-9 {
		t.Errorf("speed = %v, want %v", got, ctx.Settings.RocketSpeed)
	}

	frames := 0
	for !r.Update(ctx) {
		if calls != 0 {
			t.Fatal("callback fired before arrival")
		}
		frames++
		if frames > 1000 {
			t.Fatal("rocket never arrived")
		}
	}
	if calls != 1 {
		t.Fatalf("callback fired %d times, want 1", calls)
	}
	if d := math.Hypot(r.X-r.TargetX, r.Y-r.TargetY); d >= ctx.Settings.ArrivalThreshold {
		t.Errorf("arrived at distance %v", d)
	}
	if !r.Update(ctx) || calls != 1 {
		t.Errorf("second update after arrival fired again (calls=%d)", calls)
	}
}

func TestRocketPassingTargetArrives(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.Settings.RocketSpeed = 50
	calls := 0
	r := NewRocket(ctx, 400, 300, func(UpdateContext) { calls++ })
	for i := 0; i < 100 && !r.Update(ctx); i++ {
	}
	if calls != 1 {
		t.Fatalf("fast rocket callback fired %d times, want 1", calls)
	}
}

func TestRocketDrawsTriangle(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	r := NewRocket(ctx, 400, 300, nil)
	rec := &polygonRecorder{}
	r.Draw(DrawContext{Surface: rec})
	if len(rec.polys) != 1 || len(rec.polys[0]) != 3 {
		t.Fatalf("polygons = %v", rec.polys)
	}
	// The nose points along the direction of travel.
	nose := rec.polys[0][0]
	dx, dy := nose.X-r.X, nose.Y-r.Y
	if math.Abs(dx-math.Cos(r.Angle)*10) > 1e-9 || math.Abs(dy-math.Sin(r.Angle)*10) > 1e-9 {
		t.Errorf("nose offset (%v, %v) does not follow angle %v", dx, dy, r.Angle)
	}
}

type polygonRecorder struct {
	draw.Discard
	polys [][]draw.Point
}

func (r *polygonRecorder) FillPolygon(points []draw.Point, _ colorful.Color) {
	r.polys = append(r.polys, points)
}

func TestLetterLifecycle(t *testing.T) {
	ctx, spawner, timers := newTestContext(t)
	l := NewLetter(0, "H", 400, 300, 40)
	if l.State() != LetterWaiting || l.Visible() {
		t.Fatalf("new letter state %v", l.State())
	}

	if !l.StartFirework(ctx) {
		t.Fatal("StartFirework on waiting letter returned false")
	}
	if l.State() != LetterFirework {
		t.Fatalf("state = %v, want firework", l.State())
	}
	if l.StartFirework(ctx) {
		t.Error("second StartFirework was not a no-op")
	}
	rockets := spawner.rockets()
	if len(rockets) != 1 {
		t.Fatalf("spawned %d rockets, want 1", len(rockets))
	}

	// Balloon cannot be attached before the reveal.
	if l.AttachBalloon(ctx) {
		t.Fatal("AttachBalloon skipped the revealed state")
	}

	for !rockets[0].Update(ctx) {
	}
	if l.State() != LetterRevealed || !l.Visible() {
		t.Fatalf("state = %v, want revealed", l.State())
	}
	if got := len(spawner.particles()); got != ctx.Settings.ParticlesPerExplosion {
		t.Errorf("burst of %d particles, want %d", got, ctx.Settings.ParticlesPerExplosion)
	}
	if l.StartFirework(ctx) {
		t.Error("StartFirework on revealed letter was not a no-op")
	}

	timers.Advance(ctx.Settings.RevealDelay - time.Millisecond)
	if l.State() != LetterRevealed {
		t.Fatalf("balloon attached early: %v", l.State())
	}
	timers.Advance(time.Millisecond)
	if l.State() != LetterBalloon || l.Balloon() == nil {
		t.Fatalf("state = %v, want balloon", l.State())
	}
	if b := l.Balloon(); b.LetterIndex != 0 || b.Radius != 40*0.8 || b.StringLength != 40*1.5 {
		t.Errorf("balloon = %+v", b)
	}
}

func TestRetiredLetterIgnoresRevealTimer(t *testing.T) {
	ctx, spawner, timers := newTestContext(t)
	l := NewLetter(0, "H", 400, 300, 40)
	l.StartFirework(ctx)
	r := spawner.rockets()[0]
	for !r.Update(ctx) {
	}
	l.Retire()
	if timers.Pending() != 0 {
		t.Errorf("reveal timer still pending after retire")
	}
	// Even a callback that escaped cancellation finds the letter retired.
	if l.AttachBalloon(ctx) {
		t.Error("retired letter attached a balloon")
	}
	if l.State() != LetterRevealed {
		t.Errorf("state = %v, want revealed", l.State())
	}
}

func TestLetterFollowsBalloon(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	l := NewLetter(0, "H", 400, 300, 40)
	l.state = LetterRevealed
	l.AttachBalloon(ctx)
	for i := 0; i < 10; i++ {
		l.Update(ctx)
		b := l.Balloon()
		if l.X != b.X || l.Y != b.Y+b.StringLength {
			t.Fatalf("letter at (%v, %v), balloon at (%v, %v)", l.X, l.Y, b.X, b.Y)
		}
	}
}

func TestBalloonFloatsUp(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	b := NewBalloon(ctx, 0, 400, 300, 40)
	y := b.Y
	b.Update(ctx)
	if b.Y >= y {
		t.Errorf("balloon did not rise: %v -> %v", y, b.Y)
	}
	// vy = -0.5 * 0.95 - 0.05
	if math.Abs(b.VY-(-0.525)) > 1e-12 {
		t.Errorf("VY = %v, want -0.525", b.VY)
	}
}

func TestBalloonRepulsion(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	b := NewBalloon(ctx, 0, 400, 300, 40)
	b.VY = 0
	ctx.Settings.Buoyancy = 0
	ctx.Cursor.Move(350, 300) // 50 to the left
	b.Update(ctx)
	// force = (100-50)/100 * 0.5 = 0.25, then friction.
	if math.Abs(b.VX-0.25*0.95) > 1e-12 {
		t.Errorf("VX = %v, want %v", b.VX, 0.25*0.95)
	}
	if math.Abs(b.VY) > 1e-12 {
		t.Errorf("VY = %v, want 0", b.VY)
	}

	ctx.Cursor.Leave()
	vx := b.VX
	b.Update(ctx)
	if math.Abs(b.VX-vx*0.95) > 1e-12 {
		t.Errorf("absent cursor still pushes: VX = %v", b.VX)
	}
}

func TestBalloonStaysInsideFrame(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	pad := ctx.Settings.FramePadding
	bounds := ctx.Screen.Inset(pad)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		b := NewBalloon(ctx, 0, rng.Float64()*800, rng.Float64()*600, 40)
		b.VX = (rng.Float64() - 0.5) * 80
		b.VY = (rng.Float64() - 0.5) * 80
		for frame := 0; frame < 200; frame++ {
			if frame%20 == 0 {
				ctx.Cursor.Move(rng.Float64()*800, rng.Float64()*600)
			}
			b.Update(ctx)
			const eps = 1e-9
			if b.X-b.Radius < bounds.Left-eps || b.X+b.Radius > bounds.Right+eps || b.Y-b.Radius < bounds.Top-eps {
				t.Fatalf("trial %d frame %d: body at (%v, %v) crosses frame", trial, frame, b.X, b.Y)
			}
			if _, ly := b.Hang(); ly+b.LetterSize/2 > bounds.Bottom+eps {
				t.Fatalf("trial %d frame %d: letter at %v below frame", trial, frame, ly)
			}
		}
	}
}

func TestBalloonShortScreenRestsLetterOnBottom(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	ctx.Screen = Screen{Width: 800, Height: 120}
	bounds := ctx.Screen.Inset(ctx.Settings.FramePadding)

	b := NewBalloon(ctx, 0, 400, 60, 40)
	if b.Radius+b.StringLength+b.LetterSize/2 <= bounds.Bottom-bounds.Top {
		t.Fatalf("screen fits balloon and letter; radius %v string %v", b.Radius, b.StringLength)
	}
	rest := bounds.Bottom - b.LetterSize/2 - b.StringLength

	for frame := 0; frame < 200; frame++ {
		b.Update(ctx)
		if _, ly := b.Hang(); ly+b.LetterSize/2 > bounds.Bottom+1e-9 {
			t.Fatalf("frame %d: letter at %v below frame", frame, ly)
		}
		// The bottom edge wins over the top, so the body pokes above it.
		if b.Y != rest {
			t.Fatalf("frame %d: balloon at %v, want %v", frame, b.Y, rest)
		}
		if b.Y-b.Radius >= bounds.Top {
			t.Fatalf("frame %d: body top %v inside the frame", frame, b.Y-b.Radius)
		}
	}
}

func TestGrabbedBalloonClampsWithoutBounce(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	b := NewBalloon(ctx, 0, 400, 300, 40)
	b.Grab()
	ctx.Cursor.Move(0, 300)
	b.Update(ctx)
	if b.X != ctx.Settings.FramePadding+b.Radius {
		t.Errorf("grabbed balloon X = %v, want clamped", b.X)
	}
	if b.VX != 0 || b.VY != 0 {
		t.Errorf("grabbed balloon velocity = (%v, %v), want 0", b.VX, b.VY)
	}
}

func TestBalloonFlingUsesCursorVelocity(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	b := NewBalloon(ctx, 0, 400, 300, 40)
	b.VX, b.VY = 3, 3
	b.Grab()
	ctx.Cursor.Move(400, 300)
	ctx.Cursor.Move(412, 295)
	b.Update(ctx)
	b.Release(ctx.Cursor.VX, ctx.Cursor.VY)
	if b.VX != 12 || b.VY != -5 {
		t.Errorf("fling velocity = (%v, %v), want (12, -5)", b.VX, b.VY)
	}
	if b.Grabbed {
		t.Error("still grabbed after release")
	}
}

func TestBalloonInflates(t *testing.T) {
	ctx, _, _ := newTestContext(t)
	b := NewBalloon(ctx, 0, 400, 300, 40)
	if b.scale != 0 {
		t.Fatalf("initial scale = %v, want 0", b.scale)
	}
	for i := 0; i < 60; i++ {
		b.Update(ctx)
	}
	if b.scale != 1 || b.inflate != nil {
		t.Errorf("scale after a second = %v, want 1", b.scale)
	}
	if b.Radius != 40*ctx.Settings.BalloonRadiusRatio {
		t.Errorf("physics radius changed to %v", b.Radius)
	}
}
