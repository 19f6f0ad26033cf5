// Package clock provides the timer plumbing engines use for delayed resolution and
// countdowns: a Clock abstraction, a deterministic fake for tests, and Slot, a single
// cancellable timer per logical purpose.
package clock

import (
	"sync"
	"time"
)

// Timer is a scheduled callback handle.
type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns the wall clock.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Token identifies one arming of a Slot.
type Token uint64

// Slot holds at most one pending timer. Arming replaces whatever was pending.
//
// A fired callback receives its Token and must Claim it while holding the owner's
// lock; a disarmed or replaced token never claims, so a late firing is a no-op.
type Slot struct {
	clock Clock

	mu      sync.Mutex
	timer   Timer
	current Token
	pending bool
}

func NewSlot(c Clock) *Slot {
	if c == nil {
		c = Real()
	}
	return &Slot{clock: c}
}

// Arm schedules fire after d, canceling any prior timer in this slot.
func (s *Slot) Arm(d time.Duration, fire func(Token)) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.current++
	tok := s.current
	s.pending = true
	s.timer = s.clock.AfterFunc(d, func() { fire(tok) })
	return tok
}

// Claim reports whether tok is the live arming and marks it consumed.
func (s *Slot) Claim(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending || tok != s.current {
		return false
	}
	s.pending = false
	s.timer = nil
	return true
}

func (s *Slot) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = nil
	s.pending = false
	s.current++
}

func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
