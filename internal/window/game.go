// Package window plays the card in a desktop window using ebiten.
package window

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/scene"
)

const (
	defaultWindowWidth  = 1024
	defaultWindowHeight = 640
)

// Options configures Run.
type Options struct {
	Reload <-chan config.Settings
	Logger *log.Logger
}

// pointer is the state of the mouse or of the tracked touch in one tick.
type pointer struct {
	X, Y         float64
	Inside       bool // Over the window and focused
	JustPressed  bool
	JustReleased bool
}

// Game implements ebiten.Game. The scene draws onto a persistent offscreen
// image so that the trail overlay accumulates across frames.
type Game struct {
	scene    *scene.Scene
	fonts    *Fonts
	canvas   *ebiten.Image
	surface  *Surface
	settings config.Settings
	reload   <-chan config.Settings
	logger   *log.Logger

	width, height int // Layout size
	canvasW       int
	canvasH       int

	inside   bool // Pointer was over the window last tick
	lastX    float64
	lastY    float64
	touching bool
	touchID  ebiten.TouchID
}

// NewGame builds the scene for the window backend.
func NewGame(settings config.Settings, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	fonts, err := LoadFonts(settings.FontStack)
	if fonts == nil {
		return nil, err
	}
	if err != nil {
		logger.Warn("font stack incomplete", "err", err)
	}
	sc, err := scene.New(settings, fonts, scene.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Game{
		scene:    sc,
		fonts:    fonts,
		settings: settings,
		reload:   opts.Reload,
		logger:   logger,
	}, nil
}

// Run opens the window and plays until it is closed or q is pressed.
func Run(settings config.Settings, opts Options) error {
	g, err := NewGame(settings, opts)
	if err != nil {
		return fmt.Errorf("start scene: %w", err)
	}

	ebiten.SetWindowTitle(settings.Message)
	ebiten.SetWindowSize(defaultWindowWidth, defaultWindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(settings.FPS)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

// Update handles input and ticks the scene onto the offscreen canvas.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.scene.Init()
	}

	g.processReload()
	g.ensureCanvas()
	if g.canvas == nil {
		return nil
	}

	if p, ok := g.readTouch(); ok {
		g.applyTouch(p)
	} else {
		g.applyMouse(g.readMouse())
	}

	g.scene.Frame(time.Second/time.Duration(ebiten.TPS()), g.surface)
	return nil
}

// Draw copies the offscreen canvas to the screen.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.canvas != nil {
		screen.DrawImage(g.canvas, nil)
	}
}

// Layout uses the window size as the logical size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.width, g.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// ensureCanvas matches the offscreen canvas and the scene to the layout.
func (g *Game) ensureCanvas() {
	if g.width <= 0 || g.height <= 0 {
		return
	}
	if g.canvas != nil && g.canvasW == g.width && g.canvasH == g.height {
		return
	}
	if g.canvas != nil {
		g.canvas.Deallocate()
	}
	g.canvas = ebiten.NewImage(g.width, g.height)
	g.canvasW, g.canvasH = g.width, g.height
	g.surface = NewSurface(g.canvas, g.fonts)
	g.scene.Resize(float64(g.width), float64(g.height))
	g.logger.Debug("window resized", "width", g.width, "height", g.height)
}

func (g *Game) processReload() {
	if g.reload == nil {
		return
	}
	select {
	case s, ok := <-g.reload:
		if !ok {
			g.reload = nil
			return
		}
		g.applySettings(s)
	default:
	}
}

// applySettings rebuilds the scene, reloading the font stack first when it
// changed so that the new layout is measured with the new fonts.
func (g *Game) applySettings(s config.Settings) {
	prev := *g.fonts
	if !slices.Equal(s.FontStack, g.settings.FontStack) {
		fonts, err := LoadFonts(s.FontStack)
		if fonts == nil {
			g.logger.Warn("settings not applied", "err", err)
			return
		}
		if err != nil {
			g.logger.Warn("font stack incomplete", "err", err)
		}
		*g.fonts = *fonts
	}
	if err := g.scene.Configure(s); err != nil {
		*g.fonts = prev
		g.logger.Warn("settings not applied", "err", err)
		return
	}
	g.settings = s
	ebiten.SetWindowTitle(s.Message)
	ebiten.SetTPS(s.FPS)
}

func (g *Game) readMouse() pointer {
	mx, my := ebiten.CursorPosition()
	inside := ebiten.IsFocused() && mx >= 0 && my >= 0 && mx < g.width && my < g.height
	return pointer{
		X:            float64(mx),
		Y:            float64(my),
		Inside:       inside,
		JustPressed:  inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		JustReleased: inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
	}
}

// readTouch follows the first touch until it lifts.
func (g *Game) readTouch() (pointer, bool) {
	if !g.touching {
		ids := inpututil.AppendJustPressedTouchIDs(nil)
		if len(ids) == 0 {
			return pointer{}, false
		}
		g.touching = true
		g.touchID = ids[0]
		x, y := ebiten.TouchPosition(g.touchID)
		return pointer{X: float64(x), Y: float64(y), Inside: true, JustPressed: true}, true
	}

	if inpututil.IsTouchJustReleased(g.touchID) {
		g.touching = false
		x, y := inpututil.TouchPositionInPreviousTick(g.touchID)
		return pointer{X: float64(x), Y: float64(y), Inside: true, JustReleased: true}, true
	}
	x, y := ebiten.TouchPosition(g.touchID)
	return pointer{X: float64(x), Y: float64(y), Inside: true}, true
}

// applyMouse turns one tick of mouse state into scene pointer events.
func (g *Game) applyMouse(p pointer) {
	if !p.Inside {
		if g.inside {
			g.scene.PointerLeave()
		}
		g.inside = false
		return
	}
	if !g.inside || p.X != g.lastX || p.Y != g.lastY {
		g.scene.PointerMove(p.X, p.Y)
	}
	g.inside = true
	g.lastX, g.lastY = p.X, p.Y

	if p.JustPressed {
		g.scene.PointerDown(p.X, p.Y)
	}
	if p.JustReleased {
		g.scene.PointerUp()
	}
}

// applyTouch is like applyMouse, but a touch begins with a press rather than
// a move and lifting the finger is a release, not a leave.
func (g *Game) applyTouch(p pointer) {
	switch {
	case p.JustPressed:
		g.scene.PointerDown(p.X, p.Y)
	case p.JustReleased:
		g.scene.PointerUp()
	case p.X != g.lastX || p.Y != g.lastY:
		g.scene.PointerMove(p.X, p.Y)
	}
	g.lastX, g.lastY = p.X, p.Y
}
