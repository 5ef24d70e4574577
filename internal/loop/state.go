package loop

import (
	"bufio"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/input"
	"github.com/tomz197/birthday/internal/scene"
)

// Options configures Run.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	Settings     config.Settings
	Reload       <-chan config.Settings // Optional settings updates, applied as a full reset
	Logger       *log.Logger
	Rand         *rand.Rand
}

// State holds one terminal session: its scene, canvas and input.
type State struct {
	scene        *scene.Scene
	canvas       *draw.Canvas
	writer       io.Writer
	inputStream  *input.Stream
	reload       <-chan config.Settings
	termSizeFunc draw.TermSizeFunc
	logger       *log.Logger
	settings     config.Settings

	termWidth  int // Last seen terminal size, before clamping
	termHeight int
	Running    bool
}

// NewState creates the scene and canvas for a terminal of unknown size.
// The first frame picks up the real size.
func NewState(r *bufio.Reader, w io.Writer, opts Options) (*State, error) {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	sceneOpts := []scene.Option{scene.WithLogger(logger)}
	if opts.Rand != nil {
		sceneOpts = append(sceneOpts, scene.WithRand(opts.Rand))
	}
	sc, err := scene.New(opts.Settings, draw.CellMeasurer{}, sceneOpts...)
	if err != nil {
		return nil, err
	}
	bg, err := colorful.Hex(opts.Settings.Background)
	if err != nil {
		return nil, err
	}

	return &State{
		scene:        sc,
		canvas:       draw.NewScaledCanvas(0, 0, 0, 0, bg),
		writer:       w,
		inputStream:  input.StartStream(r),
		reload:       opts.Reload,
		termSizeFunc: termSizeFunc,
		logger:       logger,
		settings:     opts.Settings,
		termWidth:    -1,
		termHeight:   -1,
		Running:      true,
	}, nil
}

// Scene returns the session's scene.
func (s *State) Scene() *scene.Scene {
	return s.scene
}

// Step runs one frame: input, settings reload, resize, tick and render.
func (s *State) Step(delta time.Duration) {
	s.processInput()
	s.processReload()
	s.updateScreen()
	s.scene.Frame(delta, s.canvas)
	s.canvas.Render(s.writer)
}

// processInput reads input and routes pointer events into the scene.
func (s *State) processInput() {
	in := input.ReadInput(s.inputStream)
	if in.Quit || in.Closed {
		s.Running = false
		return
	}
	if in.Replay {
		s.logger.Debug("replay requested")
		s.scene.Init()
	}

	for _, ev := range in.Pointer {
		switch ev.Kind {
		case input.PointerDown:
			if x, y, ok := s.canvas.TerminalToLogical(ev.Col, ev.Row); ok {
				s.scene.PointerDown(x, y)
			}
		case input.PointerMove:
			if x, y, ok := s.canvas.TerminalToLogical(ev.Col, ev.Row); ok {
				s.scene.PointerMove(x, y)
			} else {
				s.scene.PointerLeave()
			}
		case input.PointerUp:
			s.scene.PointerUp()
		case input.PointerLeave:
			s.scene.PointerLeave()
		}
	}
}

// Close stops reading input. The session keeps its terminal.
func (s *State) Close() {
	s.inputStream.Stop()
}

// processReload applies the newest pending settings, if any.
func (s *State) processReload() {
	if s.reload == nil {
		return
	}
	select {
	case settings, ok := <-s.reload:
		if !ok {
			s.reload = nil
			return
		}
		s.applySettings(settings)
	default:
	}
}

func (s *State) applySettings(settings config.Settings) {
	bg, err := colorful.Hex(settings.Background)
	if err == nil {
		err = s.scene.Configure(settings)
	}
	if err != nil {
		s.logger.Warn("settings not applied", "err", err)
		return
	}
	s.settings = settings
	s.canvas.SetBackground(bg)
	s.canvas.Clear()
	s.canvas.ForceRedraw()
	// Cell size or render limits may have changed.
	s.termWidth, s.termHeight = -1, -1
}

// updateScreen follows terminal resizes. The scene is rebuilt only when the
// logical size changes; the screen is always repainted.
func (s *State) updateScreen() {
	termWidth, termHeight, err := s.termSizeFunc()
	if err != nil || (termWidth == s.termWidth && termHeight == s.termHeight) {
		return
	}
	s.termWidth, s.termHeight = termWidth, termHeight

	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight, s.settings)
	logicalWidth := float64(renderWidth) * s.settings.CellWidth
	logicalHeight := float64(renderHeight) * s.settings.CellHeight

	// A terminal that grows past the render limit only moves the canvas;
	// the scene and its trails survive.
	if s.canvas.TerminalWidth() != renderWidth || s.canvas.TerminalHeight() != renderHeight ||
		s.canvas.LogicalWidth() != logicalWidth || s.canvas.LogicalHeight() != logicalHeight {
		s.canvas.Resize(renderWidth, renderHeight, logicalWidth, logicalHeight)
		s.canvas.Clear()
	}
	if s.canvas.OffsetCol() != offsetCol || s.canvas.OffsetRow() != offsetRow {
		s.canvas.SetOffset(offsetCol, offsetRow)
	}
	s.canvas.ForceRedraw()
	s.scene.Resize(s.canvas.LogicalWidth(), s.canvas.LogicalHeight())

	draw.ClearScreen(s.writer)
	s.canvas.RenderBorder(s.writer)
	s.logger.Debug("terminal resized", "cols", termWidth, "rows", termHeight, "render_cols", renderWidth, "render_rows", renderHeight)
}

// clampTermSize limits the render area to the configured maximum and centres
// it in the terminal.
func clampTermSize(termWidth, termHeight int, settings config.Settings) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = max(termWidth, 0)
	renderHeight = max(termHeight, 0)
	if renderWidth > settings.MaxTermWidth {
		renderWidth = settings.MaxTermWidth
	}
	if renderHeight > settings.MaxTermHeight {
		renderHeight = settings.MaxTermHeight
	}
	offsetCol = (termWidth - renderWidth) / 2
	offsetRow = (termHeight - renderHeight) / 2
	return
}
