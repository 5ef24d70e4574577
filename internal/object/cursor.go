package object

// Cursor is the shared pointer state. Balloons read it for repulsion and the
// grabbed balloon follows it.
type Cursor struct {
	X, Y         float64
	PrevX, PrevY float64
	VX, VY       float64 // Last move delta, used to fling released balloons
	Radius       float64 // Repulsion range

	Present bool // Pointer is over the surface
	HasPrev bool
}

// NewCursor returns a cursor outside the surface.
func NewCursor(radius float64) *Cursor {
	return &Cursor{Radius: radius}
}

// Down places the pointer at (x, y) without producing velocity.
func (c *Cursor) Down(x, y float64) {
	if !c.Present {
		c.HasPrev = false
		c.VX, c.VY = 0, 0
	}
	c.X, c.Y = x, y
	c.Present = true
}

// Move records a new sample. Velocity is the delta from the previous sample,
// or zero for the first sample after entering.
func (c *Cursor) Move(x, y float64) {
	c.PrevX, c.PrevY = c.X, c.Y
	c.HasPrev = c.Present
	if c.HasPrev {
		c.VX, c.VY = x-c.PrevX, y-c.PrevY
	} else {
		c.VX, c.VY = 0, 0
	}
	c.X, c.Y = x, y
	c.Present = true
}

// Leave forgets the position and velocity.
func (c *Cursor) Leave() {
	c.Present = false
	c.HasPrev = false
	c.VX, c.VY = 0, 0
}
