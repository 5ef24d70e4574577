package object

import (
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/birthday/internal/physics"
)

// Particle size and launch speed ranges.
const (
	particleMinSize  = 2.0
	particleMaxSize  = 5.0
	particleMinSpeed = 1.0
	particleMaxSpeed = 8.0
)

// particlePool is a sync.Pool for reusing Particle objects to reduce allocations.
var particlePool = sync.Pool{
	New: func() any {
		return &Particle{}
	},
}

// Particle is an explosion fragment. Life starts at 1, doubles as opacity,
// and the particle is removed once it reaches zero.
type Particle struct {
	X, Y    float64
	VX, VY  float64
	Size    float64
	Life    float64
	Fade    float64 // Life lost per frame
	Gravity float64 // Added to VY per frame
	Color   colorful.Color
}

// NewParticle creates a particle from the pool flying in a random direction.
func NewParticle(ctx UpdateContext, x, y float64, c colorful.Color) *Particle {
	angle := physics.Random(ctx.Rand, 0, 2*math.Pi)
	speed := physics.Random(ctx.Rand, particleMinSpeed, particleMaxSpeed)

	p := particlePool.Get().(*Particle)
	p.X = x
	p.Y = y
	p.VX, p.VY = physics.Polar(angle, speed)
	p.Size = physics.Random(ctx.Rand, particleMinSize, particleMaxSize)
	p.Life = 1
	p.Fade = ctx.Settings.ParticleFade
	p.Gravity = ctx.Settings.ParticleGravity
	p.Color = c
	return p
}

// Release returns the particle to the pool for reuse.
// Should be called when the particle is removed from the scene.
func (p *Particle) Release() {
	particlePool.Put(p)
}

// SpawnExplosion bursts the configured number of particles at (x, y), all in
// one random palette colour, and returns that colour.
func SpawnExplosion(ctx UpdateContext, x, y float64) colorful.Color {
	c := ctx.RandomColor()
	if ctx.Spawner == nil {
		return c
	}
	for i := 0; i < ctx.Settings.ParticlesPerExplosion; i++ {
		ctx.Spawner.Spawn(NewParticle(ctx, x, y, c))
	}
	return c
}

// Update applies gravity, moves the particle and burns life.
func (p *Particle) Update(ctx UpdateContext) bool {
	p.VY += p.Gravity
	p.X += p.VX
	p.Y += p.VY
	p.Life -= p.Fade
	return p.Life <= 0
}

// Draw renders the particle with its remaining life as alpha.
func (p *Particle) Draw(ctx DrawContext) {
	if p.Life <= 0 {
		return
	}
	ctx.Surface.FillCircle(p.X, p.Y, p.Size, p.Color, math.Min(p.Life, 1))
}
