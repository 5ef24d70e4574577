package window

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/draw"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	s := config.Default()
	s.Message = "A    B"
	s.LaunchStagger = 0
	s.RevealDelay = 0
	s.InflateDuration = 0
	g, err := NewGame(s, Options{})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	g.scene.Resize(800, 600)
	return g
}

func TestLoadFontsFallsBack(t *testing.T) {
	f, err := LoadFonts([]string{filepath.Join(t.TempDir(), "missing.ttf")})
	if f == nil {
		t.Fatalf("LoadFonts returned no stack: %v", err)
	}
	if err == nil {
		t.Error("missing font not reported")
	}
	if len(f.sources) != 1 {
		t.Errorf("got %d sources, want the fallback only", len(f.sources))
	}
}

func TestMeasureTextScalesWithSize(t *testing.T) {
	f, err := LoadFonts(nil)
	if err != nil {
		t.Fatal(err)
	}
	small := f.MeasureText("Hello", 10)
	large := f.MeasureText("Hello", 20)
	if small <= 0 {
		t.Fatalf("MeasureText = %v, want positive", small)
	}
	if large <= small*1.5 {
		t.Errorf("MeasureText at 20 = %v, at 10 = %v", large, small)
	}
	if f.Face(10) != f.Face(10) {
		t.Error("faces not cached per size")
	}
}

func TestToNRGBA(t *testing.T) {
	got := toNRGBA(colorful.Color{R: 1, G: 0.5, B: 0}, 0.4)
	if got.R != 255 || got.G != 128 || got.B != 0 || got.A != 102 {
		t.Errorf("toNRGBA = %+v", got)
	}
	if got := toNRGBA(draw.White, 3); got.A != 255 {
		t.Errorf("alpha not clamped: %+v", got)
	}
}

func TestApplyMouseTracksPointer(t *testing.T) {
	g := newTestGame(t)
	cur := g.scene.Cursor()

	g.applyMouse(pointer{X: 100, Y: 100, Inside: true})
	if !cur.Present || cur.X != 100 || cur.VX != 0 {
		t.Fatalf("cursor after enter: %+v", cur)
	}
	g.applyMouse(pointer{X: 110, Y: 95, Inside: true})
	if cur.VX != 10 || cur.VY != -5 {
		t.Errorf("velocity = (%v, %v), want (10, -5)", cur.VX, cur.VY)
	}
	g.applyMouse(pointer{X: 110, Y: 95, Inside: true})
	if cur.VX != 10 {
		t.Error("still pointer produced a move")
	}

	g.applyMouse(pointer{Inside: false})
	if cur.Present {
		t.Error("leaving the window kept the pointer")
	}
}

func TestApplyMouseGrabAndFling(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 300 && len(g.scene.Balloons()) < 2; i++ {
		g.scene.Frame(0, draw.Discard{})
		g.scene.Frame(1, draw.Discard{})
	}
	if len(g.scene.Balloons()) == 0 {
		t.Fatal("no balloons")
	}
	b := g.scene.Balloons()[0]

	g.applyMouse(pointer{X: b.X, Y: b.Y, Inside: true, JustPressed: true})
	if g.scene.Grabbed() != b {
		t.Fatal("press over balloon did not grab it")
	}
	g.applyMouse(pointer{X: b.X + 7, Y: b.Y + 2, Inside: true})
	g.applyMouse(pointer{X: b.X + 7, Y: b.Y + 2, Inside: true, JustReleased: true})
	if g.scene.Grabbed() != nil {
		t.Fatal("release kept the balloon")
	}
	if math.Abs(b.VX-7) > 1e-9 || math.Abs(b.VY-2) > 1e-9 {
		t.Errorf("fling velocity = (%v, %v), want (7, 2)", b.VX, b.VY)
	}
}

func TestApplyTouch(t *testing.T) {
	g := newTestGame(t)
	cur := g.scene.Cursor()

	g.applyTouch(pointer{X: 50, Y: 60, Inside: true, JustPressed: true})
	if !cur.Present || cur.X != 50 || cur.Y != 60 {
		t.Fatalf("cursor after touch: %+v", cur)
	}
	g.applyTouch(pointer{X: 54, Y: 60, Inside: true})
	if cur.VX != 4 {
		t.Errorf("VX = %v, want 4", cur.VX)
	}
	g.applyTouch(pointer{X: 54, Y: 60, Inside: true, JustReleased: true})
	if !cur.Present {
		t.Error("lifting a finger is not a leave")
	}
}

func TestApplySettingsReloadsFontStack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o600); err != nil {
		t.Fatal(err)
	}
	g := newTestGame(t)
	fonts := g.fonts

	next := g.settings
	next.FontStack = []string{path}
	g.applySettings(next)
	if g.fonts != fonts {
		t.Fatal("font stack replaced instead of reloaded in place")
	}
	if len(g.fonts.sources) != 2 {
		t.Fatalf("got %d font sources, want file plus fallback", len(g.fonts.sources))
	}

	bad := next
	bad.FontStack = nil
	bad.Palette = []string{"nope"}
	g.applySettings(bad)
	if len(g.fonts.sources) != 2 {
		t.Errorf("rejected settings changed the fonts: %d sources", len(g.fonts.sources))
	}
	if len(g.settings.FontStack) != 1 {
		t.Error("rejected settings applied")
	}

	next.FontStack = nil
	g.applySettings(next)
	if len(g.fonts.sources) != 1 {
		t.Errorf("got %d font sources after dropping the file, want 1", len(g.fonts.sources))
	}
}
