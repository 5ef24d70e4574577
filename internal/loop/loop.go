// Package loop runs the card in a terminal: it reads input, follows resizes,
// ticks the scene and renders it at a fixed frame rate.
package loop

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tomz197/birthday/internal/draw"
)

// Run starts the frame loop. It blocks until the user quits, the input is
// closed or ctx is cancelled, and leaves the terminal as it found it.
func Run(ctx context.Context, r *bufio.Reader, w io.Writer, opts Options) error {
	state, err := NewState(r, w, opts)
	if err != nil {
		return fmt.Errorf("start scene: %w", err)
	}
	defer state.Close()

	draw.HideCursor(w)
	draw.EnableMouse(w)
	defer func() {
		draw.DisableMouse(w)
		draw.ClearScreen(w)
		draw.ShowCursor(w)
	}()
	draw.ClearScreen(w)

	lastTime := time.Now()
	for state.Running {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		frameStart := time.Now()
		delta := frameStart.Sub(lastTime)
		lastTime = frameStart

		state.Step(delta)

		// Frame timing
		frameTime := state.settings.FrameTime()
		elapsed := time.Since(frameStart)
		if elapsed < frameTime {
			time.Sleep(frameTime - elapsed)
		}
	}
	return nil
}
