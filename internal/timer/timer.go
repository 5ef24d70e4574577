// Package timer schedules fire-once callbacks against a frame clock.
//
// The clock only moves when Advance is called, so every callback runs on the
// goroutine driving the frames, between two frame ticks. Nothing here is safe
// for concurrent use.
package timer

import (
	"slices"
	"time"
)

// Handle refers to one scheduled callback.
type Handle struct {
	at      time.Duration
	seq     uint64
	fn      func()
	pending bool
}

// Stop cancels the callback. It reports whether the call prevented the
// callback from running; stopping a fired or stopped handle returns false.
func (h *Handle) Stop() bool {
	if h == nil || !h.pending {
		return false
	}
	h.pending = false
	h.fn = nil
	return true
}

// Pending reports whether the callback is still waiting to run.
func (h *Handle) Pending() bool {
	return h != nil && h.pending
}

// Scheduler runs callbacks once the frame clock passes their deadline.
type Scheduler struct {
	now   time.Duration
	seq   uint64
	tasks []*Handle
}

// New returns a scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the frame clock.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// After schedules fn to run once d has elapsed on the frame clock.
// A non-positive d runs fn on the next Advance.
func (s *Scheduler) After(d time.Duration, fn func()) *Handle {
	if d < 0 {
		d = 0
	}
	s.seq++
	h := &Handle{at: s.now + d, seq: s.seq, fn: fn, pending: true}
	s.tasks = append(s.tasks, h)
	return h
}

// Advance moves the clock forward by dt and runs every due callback in
// deadline order, ties broken by scheduling order. Callbacks scheduled by a
// running callback are eligible in the same call if already due.
func (s *Scheduler) Advance(dt time.Duration) {
	if dt > 0 {
		s.now += dt
	}
	for {
		h := s.nextDue()
		if h == nil {
			break
		}
		fn := h.fn
		h.pending = false
		h.fn = nil
		fn()
	}
	s.compact()
}

// CancelAll stops every pending callback.
func (s *Scheduler) CancelAll() {
	for _, h := range s.tasks {
		h.Stop()
	}
	s.tasks = s.tasks[:0]
}

// Pending returns the number of callbacks waiting to run.
func (s *Scheduler) Pending() int {
	n := 0
	for _, h := range s.tasks {
		if h.pending {
			n++
		}
	}
	return n
}

func (s *Scheduler) nextDue() *Handle {
	var next *Handle
	for _, h := range s.tasks {
		if !h.pending || h.at > s.now {
			continue
		}
		if next == nil || h.at < next.at || (h.at == next.at && h.seq < next.seq) {
			next = h
		}
	}
	return next
}

func (s *Scheduler) compact() {
	s.tasks = slices.DeleteFunc(s.tasks, func(h *Handle) bool { return !h.pending })
}
