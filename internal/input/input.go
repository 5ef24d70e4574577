// Package input turns the raw terminal byte stream into key presses and
// normalized pointer events.
package input

import (
	"bufio"
	"bytes"
	"strconv"
	"sync"
)

// maxSequence bounds how far we look for the end of an escape sequence
// before treating the ESC as a stray byte.
const maxSequence = 32

// PointerKind identifies a normalized pointer event.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
)

func (k PointerKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	case PointerLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// PointerEvent is a pointer action at a 1-based terminal cell.
// Leave events carry no position.
type PointerEvent struct {
	Kind PointerKind
	Col  int
	Row  int
}

// Input represents the current frame's input state.
type Input struct {
	Quit    bool
	Replay  bool
	Closed  bool // The underlying reader is exhausted
	Pointer []PointerEvent
	Pressed []byte
}

// Stream delivers input bytes via a channel. Escape sequences split across
// reads are carried over to the next frame.
type Stream struct {
	ch      chan byte
	done    chan struct{}
	once    sync.Once
	pending []byte
	stale   bool // pending survived a frame with no new bytes
	closed  bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{
		ch:   make(chan byte, 256),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.ch)
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			select {
			case s.ch <- b:
			case <-s.done:
				return
			}
		}
	}()
	return s
}

// Stop releases the reader goroutine once nobody drains the stream. It
// returns as soon as the pending read completes.
func (s *Stream) Stop() {
	s.once.Do(func() { close(s.done) })
}

// ReadInput drains all available bytes from the stream (non-blocking) and
// parses them together with any sequence left over from the last frame.
func ReadInput(s *Stream) Input {
	buf := s.pending
	s.pending = nil
	received := false

drain:
	for !s.closed {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
			received = true
		default:
			break drain
		}
	}

	// A lone ESC or cut sequence that nothing completed is dropped.
	if !received && s.stale {
		buf = nil
	}

	in, rest := Parse(buf)
	in.Closed = s.closed
	if len(rest) > 0 && !s.closed {
		s.pending = append([]byte(nil), rest...)
		s.stale = true
	} else {
		s.stale = false
	}
	return in
}

// Parse decodes keys, SGR mouse reports and focus reports. Bytes of an
// escape sequence that is still incomplete are returned as rest.
func Parse(buf []byte) (in Input, rest []byte) {
	for i := 0; i < len(buf); {
		b := buf[i]
		if b != '\x1b' {
			applyByte(&in, b)
			i++
			continue
		}

		n, ev, ok := parseEscape(buf[i:])
		switch {
		case n == 0:
			return in, buf[i:]
		case ok:
			in.Pointer = append(in.Pointer, ev)
		}
		in.Pressed = append(in.Pressed, buf[i:i+n]...)
		i += n
	}
	return in, nil
}

func applyByte(in *Input, b byte) {
	in.Pressed = append(in.Pressed, b)
	switch b {
	case 'q', 'Q', 0x03: // Ctrl-C arrives as a byte in raw mode
		in.Quit = true
	case 'r', 'R':
		in.Replay = true
	}
}

// parseEscape consumes one sequence starting at data[0] == ESC. It returns
// the bytes consumed (0 when the sequence is incomplete) and a pointer event
// when the sequence carried one.
func parseEscape(data []byte) (n int, ev PointerEvent, ok bool) {
	if len(data) < 2 {
		return 0, ev, false
	}
	if data[1] != '[' {
		return 1, ev, false // Alt-modified key or stray ESC
	}
	if len(data) < 3 {
		return 0, ev, false
	}

	switch data[2] {
	case '<':
		return parseSGRMouse(data)
	case 'I': // Focus in
		return 3, ev, false
	case 'O': // Focus out
		return 3, PointerEvent{Kind: PointerLeave}, true
	}

	// Any other CSI: skip to its final byte.
	for j := 2; j < len(data) && j < maxSequence; j++ {
		if data[j] >= 0x40 && data[j] <= 0x7e {
			return j + 1, ev, false
		}
	}
	if len(data) < maxSequence {
		return 0, ev, false
	}
	return 1, ev, false
}

// parseSGRMouse parses ESC [ < Btn ; X ; Y M/m.
func parseSGRMouse(data []byte) (int, PointerEvent, bool) {
	end := -1
	for j := 3; j < len(data) && j < maxSequence; j++ {
		if data[j] == 'M' || data[j] == 'm' {
			end = j
			break
		}
	}
	if end < 0 {
		if len(data) < maxSequence {
			return 0, PointerEvent{}, false
		}
		return 1, PointerEvent{}, false
	}

	params := bytes.Split(data[3:end], []byte{';'})
	if len(params) != 3 {
		return end + 1, PointerEvent{}, false
	}
	var vals [3]int
	for k, p := range params {
		v, err := strconv.Atoi(string(p))
		if err != nil {
			return end + 1, PointerEvent{}, false
		}
		vals[k] = v
	}
	btn, col, row := vals[0], vals[1], vals[2]

	// Bits 0-1: button (0=left, 1=middle, 2=right, 3=none)
	// Bit 5 (32): motion
	// Bit 6 (64): wheel
	button := btn & 0x03
	motion := btn&32 != 0
	wheel := btn&64 != 0

	ev := PointerEvent{Col: col, Row: row}
	switch {
	case wheel:
		return end + 1, ev, false
	case motion:
		ev.Kind = PointerMove
	case data[end] == 'm':
		if button != 0 {
			return end + 1, ev, false
		}
		ev.Kind = PointerUp
	case button == 0:
		ev.Kind = PointerDown
	default:
		return end + 1, ev, false
	}
	return end + 1, ev, true
}
