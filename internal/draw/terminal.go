package draw

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"golang.org/x/term"
)

// BlockUpperHalf paints the top sub-pixel in the foreground colour and the
// bottom one in the background colour.
const BlockUpperHalf = '▀'

const (
	resetStyle = "\033[0m"
	mouseOn    = "\033[?1003h\033[?1006h\033[?1004h" // Any-motion tracking, SGR coordinates, focus reports
	mouseOff   = "\033[?1004l\033[?1006l\033[?1003l"
)

// maxChunkSize keeps each write under a typical MTU so SSH frames stay small.
const maxChunkSize = 1400

// ChunkWriter batches one frame of terminal output and writes it out in
// MTU-sized pieces. Cursor positions are 1-based and shifted by the offset.
type ChunkWriter struct {
	buf    []byte
	offCol int
	offRow int

	fg, bg   rgb
	hasColor bool
}

// SetOffset shifts every later MoveTo.
func (cw *ChunkWriter) SetOffset(col, row int) {
	cw.offCol = col
	cw.offRow = row
}

// MoveTo appends a cursor position sequence.
func (cw *ChunkWriter) MoveTo(col, row int) {
	cw.buf = append(cw.buf, "\033["...)
	cw.buf = strconv.AppendInt(cw.buf, int64(row+cw.offRow), 10)
	cw.buf = append(cw.buf, ';')
	cw.buf = strconv.AppendInt(cw.buf, int64(col+cw.offCol), 10)
	cw.buf = append(cw.buf, 'H')
}

// SetColors selects 24-bit foreground and background colours, skipping the
// sequence when they are already active.
func (cw *ChunkWriter) SetColors(fg, bg rgb) {
	if cw.hasColor && fg == cw.fg && bg == cw.bg {
		return
	}
	cw.buf = append(cw.buf, "\033[38;2;"...)
	cw.appendRGB(fg)
	cw.buf = append(cw.buf, ";48;2;"...)
	cw.appendRGB(bg)
	cw.buf = append(cw.buf, 'm')
	cw.fg, cw.bg, cw.hasColor = fg, bg, true
}

func (cw *ChunkWriter) appendRGB(v rgb) {
	for i, b := range v {
		if i > 0 {
			cw.buf = append(cw.buf, ';')
		}
		cw.buf = strconv.AppendUint(cw.buf, uint64(b), 10)
	}
}

// ResetStyle ends any colour selected by SetColors.
func (cw *ChunkWriter) ResetStyle() {
	if cw.hasColor {
		cw.buf = append(cw.buf, resetStyle...)
		cw.hasColor = false
	}
}

// WriteRune appends a single character.
func (cw *ChunkWriter) WriteRune(r rune) {
	cw.buf = utf8.AppendRune(cw.buf, r)
}

// WriteAt writes s starting at col, row.
func (cw *ChunkWriter) WriteAt(col, row int, s string) {
	cw.MoveTo(col, row)
	cw.buf = append(cw.buf, s...)
}

// Write implements io.Writer.
func (cw *ChunkWriter) Write(p []byte) (int, error) {
	cw.buf = append(cw.buf, p...)
	return len(p), nil
}

// Len reports the number of bytes waiting to be flushed.
func (cw *ChunkWriter) Len() int {
	return len(cw.buf)
}

// FlushTo writes the batch to w in chunks and empties it for the next frame.
func (cw *ChunkWriter) FlushTo(w io.Writer) error {
	data := cw.buf
	cw.buf = cw.buf[:0]
	cw.hasColor = false
	for len(data) > 0 {
		n := min(len(data), maxChunkSize)
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

var _ io.Writer = (*ChunkWriter)(nil)

// TermSizeFunc is a function that returns the terminal dimensions.
type TermSizeFunc func() (width, height int, err error)

// DefaultTermSizeFunc returns terminal size from os.Stdout.
var DefaultTermSizeFunc TermSizeFunc = func() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

// ClearScreen resets colours, clears the terminal and homes the cursor.
func ClearScreen(w io.Writer) {
	fmt.Fprint(w, resetStyle+"\033[H\033[2J")
}

// HideCursor hides the terminal cursor.
func HideCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25l")
}

// ShowCursor shows the terminal cursor.
func ShowCursor(w io.Writer) {
	fmt.Fprint(w, "\033[?25h")
}

// EnableMouse turns on pointer motion, button and focus reporting.
func EnableMouse(w io.Writer) {
	fmt.Fprint(w, mouseOn)
}

// DisableMouse undoes EnableMouse.
func DisableMouse(w io.Writer) {
	fmt.Fprint(w, mouseOff)
}
