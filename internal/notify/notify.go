// Package notify is the transient notification surface: one visible notice
// at a time that dismisses itself after a short delay.
package notify

import (
	"sync"
	"time"
)

// DefaultDismissAfter is how long a notice stays visible.
const DefaultDismissAfter = 2500 * time.Millisecond

type Level int

const (
	Success Level = iota
	Error
	Info
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notice is a single message. Sticky notices stay until dismissed.
type Notice struct {
	Level   Level
	Message string
	Sticky  bool
	At      time.Time
}

type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Board holds the currently visible notice.
type Board struct {
	DismissAfter time.Duration
	Scheduler    Scheduler
	// OnChange is called outside the lock whenever the visible notice changes.
	OnChange func(n Notice, visible bool)

	mu      sync.Mutex
	cur     Notice
	visible bool
	timer   Timer
	gen     int
	closed  bool
}

// NewBoard returns a board using the real scheduler.
func NewBoard(dismissAfter time.Duration) *Board {
	if dismissAfter <= 0 {
		dismissAfter = DefaultDismissAfter
	}
	return &Board{DismissAfter: dismissAfter, Scheduler: RealScheduler{}}
}

// Notify replaces the visible notice and restarts the dismiss timer.
func (b *Board) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.stopLocked()
	b.gen++
	gen := b.gen
	b.cur, b.visible = n, true
	if !n.Sticky {
		b.timer = b.scheduler().AfterFunc(b.DismissAfter, func() { b.expire(gen) })
	}
	cb := b.OnChange
	b.mu.Unlock()
	if cb != nil {
		cb(n, true)
	}
}

func (b *Board) expire(gen int) {
	b.mu.Lock()
	if b.closed || gen != b.gen || !b.visible {
		b.mu.Unlock()
		return
	}
	b.visible = false
	b.timer = nil
	n, cb := b.cur, b.OnChange
	b.mu.Unlock()
	if cb != nil {
		cb(n, false)
	}
}

// Dismiss hides the visible notice, sticky or not.
func (b *Board) Dismiss() {
	b.mu.Lock()
	if !b.visible {
		b.mu.Unlock()
		return
	}
	b.stopLocked()
	b.gen++
	b.visible = false
	n, cb := b.cur, b.OnChange
	b.mu.Unlock()
	if cb != nil {
		cb(n, false)
	}
}

// Watch installs f as OnChange and returns a func restoring the previous one.
func (b *Board) Watch(f func(n Notice, visible bool)) (restore func()) {
	b.mu.Lock()
	prev := b.OnChange
	b.OnChange = f
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		b.OnChange = prev
		b.mu.Unlock()
	}
}

// Current returns the visible notice.
func (b *Board) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cur, b.visible
}

// Close cancels the pending dismiss timer; later notices are dropped.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked()
	b.closed = true
}

func (b *Board) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Board) scheduler() Scheduler {
	if b.Scheduler == nil {
		return RealScheduler{}
	}
	return b.Scheduler
}
