package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
message: "Hi Sam"
particles_per_explosion: 12
reveal_delay: 2s
launch_stagger: 150ms
palette: ["#fff", "#000000"]
`)
	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Message != "Hi Sam" {
		t.Errorf("Message = %q", s.Message)
	}
	if s.ParticlesPerExplosion != 12 {
		t.Errorf("ParticlesPerExplosion = %d, want 12", s.ParticlesPerExplosion)
	}
	if s.RevealDelay != 2*time.Second {
		t.Errorf("RevealDelay = %v, want 2s", s.RevealDelay)
	}
	if s.LaunchStagger != 150*time.Millisecond {
		t.Errorf("LaunchStagger = %v, want 150ms", s.LaunchStagger)
	}
	if len(s.Palette) != 2 {
		t.Errorf("Palette = %v", s.Palette)
	}
	// Untouched fields keep their defaults.
	if s.RocketSpeed != Default().RocketSpeed {
		t.Errorf("RocketSpeed = %v, want default", s.RocketSpeed)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		want   string
	}{
		{"opacity", func(s *Settings) { s.TrailOpacity = 1.5 }, "trail_opacity"},
		{"damping", func(s *Settings) { s.BounceDamping = 0.7 }, "bounce_damping"},
		{"palette", func(s *Settings) { s.Palette = nil }, "palette"},
		{"colour", func(s *Settings) { s.Palette = []string{"pink"} }, "pink"},
		{"padding", func(s *Settings) { s.FramePadding = 0 }, "frame_padding"},
		{"particles", func(s *Settings) { s.ParticlesPerExplosion = -1 }, "particles_per_explosion"},
		{"fps", func(s *Settings) { s.FPS = 0 }, "fps"},
		{"delay", func(s *Settings) { s.RevealDelay = -time.Second }, "durations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(&s)
			err := s.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	s := Default()
	s.FramePadding = -1
	s.CursorRadius = 0
	err := s.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"frame_padding", "cursor_radius"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.yaml")
	if err := os.WriteFile(path, []byte("message: Yo\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Message != "Yo" {
		t.Errorf("Message = %q, want Yo", s.Message)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("BIRTHDAY_TEST_INT", "42")
	if got := GetEnvInt("BIRTHDAY_TEST_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d, want 42", got)
	}
	t.Setenv("BIRTHDAY_TEST_INT", "forty")
	if got := GetEnvInt("BIRTHDAY_TEST_INT", 1); got != 1 {
		t.Errorf("GetEnvInt = %d, want fallback 1", got)
	}
	if got := GetEnv("BIRTHDAY_TEST_UNSET", "x"); got != "x" {
		t.Errorf("GetEnv = %q, want x", got)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BIRTHDAY_CONFIG", "")
	s, path, err := FromEnv()
	if err != nil || path != "" || s.Message != Default().Message {
		t.Errorf("FromEnv without file = %q, %q, %v", s.Message, path, err)
	}

	file := filepath.Join(t.TempDir(), "card.yaml")
	if err := os.WriteFile(file, []byte("message: Yo\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BIRTHDAY_CONFIG", file)
	s, path, err = FromEnv()
	if err != nil || path != file || s.Message != "Yo" {
		t.Errorf("FromEnv with file = %q, %q, %v", s.Message, path, err)
	}

	if err := os.WriteFile(file, []byte("fps: -1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := FromEnv(); err == nil {
		t.Error("invalid file accepted")
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf strings.Builder
	t.Setenv("LOG_LEVEL", "warn")
	logger := NewLogger(&buf, "test")
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("log output %q", buf.String())
	}
}

func TestWatchFilePublishesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "card.yaml")
	if err := os.WriteFile(path, []byte("message: one\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	w, err := WatchFile(path, nil)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("message: two\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-w.Updates:
		if s.Message != "two" {
			t.Errorf("Message = %q, want two", s.Message)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload published")
	}
}
