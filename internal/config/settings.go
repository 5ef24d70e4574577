package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Settings are the tunables of one birthday card. Every field is optional in
// the YAML file; missing fields keep their Default value.
type Settings struct {
	Message   string   `yaml:"message"`
	FontStack []string `yaml:"font_stack"` // Font files tried in order by the window backend
	Palette   []string `yaml:"palette"`    // Hex colours for rockets, bursts and balloons

	Background   string  `yaml:"background"`    // Trail overlay colour
	TrailOpacity float64 `yaml:"trail_opacity"` // Overlay alpha per frame; lower = longer trails

	FramePadding float64 `yaml:"frame_padding"`
	CursorRadius float64 `yaml:"cursor_radius"`

	// Letters
	MaxLetterSize float64       `yaml:"max_letter_size"`
	LaunchStagger time.Duration `yaml:"launch_stagger"`
	RevealDelay   time.Duration `yaml:"reveal_delay"`

	// Rockets
	RocketSpeed      float64 `yaml:"rocket_speed"`
	ArrivalThreshold float64 `yaml:"arrival_threshold"`

	// Particles
	ParticlesPerExplosion int     `yaml:"particles_per_explosion"`
	ParticleGravity       float64 `yaml:"particle_gravity"`
	ParticleFade          float64 `yaml:"particle_fade"`

	// Balloons
	BalloonRadiusRatio float64       `yaml:"balloon_radius_ratio"` // radius = letter size * ratio
	StringLengthRatio  float64       `yaml:"string_length_ratio"`  // string = letter size * ratio
	BounceDamping      float64       `yaml:"bounce_damping"`       // Negative: velocity flips and shrinks
	Repulsion          float64       `yaml:"repulsion"`
	Buoyancy           float64       `yaml:"buoyancy"` // Subtracted from vy every frame
	Friction           float64       `yaml:"friction"` // Velocity multiplier every frame
	InflateDuration    time.Duration `yaml:"inflate_duration"`

	// Terminal rendering
	CellWidth     float64 `yaml:"cell_width"`  // Logical units per terminal column
	CellHeight    float64 `yaml:"cell_height"` // Logical units per terminal row
	MaxTermWidth  int     `yaml:"max_term_width"`
	MaxTermHeight int     `yaml:"max_term_height"`

	FPS int `yaml:"fps"`
}

// Default returns the stock card.
func Default() Settings {
	return Settings{
		Message:   "Happy Birthday to You",
		FontStack: nil,
		Palette:   []string{"#ffbe0b", "#fb5607", "#ff006e", "#8338ec", "#3a86ff"},

		Background:   "#0c001a",
		TrailOpacity: 0.2,

		FramePadding: 20,
		CursorRadius: 100,

		MaxLetterSize: 60,
		LaunchStagger: 300 * time.Millisecond,
		RevealDelay:   5 * time.Second,

		RocketSpeed:      6,
		ArrivalThreshold: 5,

		ParticlesPerExplosion: 50,
		ParticleGravity:       0.1,
		ParticleFade:          0.02,

		BalloonRadiusRatio: 0.8,
		StringLengthRatio:  1.5,
		BounceDamping:      -0.7,
		Repulsion:          0.5,
		Buoyancy:           0.05,
		Friction:           0.95,
		InflateDuration:    400 * time.Millisecond,

		CellWidth:     8,
		CellHeight:    16,
		MaxTermWidth:  220,
		MaxTermHeight: 70,

		FPS: 60,
	}
}

// Load reads a YAML settings file on top of Default.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes YAML settings on top of Default and validates the result.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports every out-of-range field.
func (s Settings) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	unit := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", name, v))
		}
	}

	positive("frame_padding", s.FramePadding)
	positive("cursor_radius", s.CursorRadius)
	positive("max_letter_size", s.MaxLetterSize)
	positive("rocket_speed", s.RocketSpeed)
	positive("arrival_threshold", s.ArrivalThreshold)
	positive("particle_fade", s.ParticleFade)
	positive("balloon_radius_ratio", s.BalloonRadiusRatio)
	positive("string_length_ratio", s.StringLengthRatio)
	positive("cell_width", s.CellWidth)
	positive("cell_height", s.CellHeight)
	unit("trail_opacity", s.TrailOpacity)
	unit("friction", s.Friction)

	if s.BounceDamping > 0 || s.BounceDamping < -1 {
		errs = append(errs, fmt.Errorf("bounce_damping must be within [-1, 0], got %v", s.BounceDamping))
	}
	if s.ParticlesPerExplosion < 0 {
		errs = append(errs, fmt.Errorf("particles_per_explosion must not be negative, got %d", s.ParticlesPerExplosion))
	}
	if s.LaunchStagger < 0 || s.RevealDelay < 0 || s.InflateDuration < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if s.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be positive, got %d", s.FPS))
	}
	if s.MaxTermWidth <= 0 || s.MaxTermHeight <= 0 {
		errs = append(errs, errors.New("max_term_width and max_term_height must be positive"))
	}
	if len(s.Palette) == 0 {
		errs = append(errs, errors.New("palette must not be empty"))
	}
	for _, hex := range append([]string{s.Background}, s.Palette...) {
		if _, err := colorful.Hex(hex); err != nil {
			errs = append(errs, fmt.Errorf("colour %q: %w", hex, err))
		}
	}
	return errors.Join(errs...)
}

// FrameTime is the duration of one frame at the configured rate.
func (s Settings) FrameTime() time.Duration {
	return time.Second / time.Duration(s.FPS)
}
