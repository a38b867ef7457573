package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mithrel/inkpad/internal/export"
	"github.com/mithrel/inkpad/internal/session"
	"github.com/mithrel/inkpad/pkg/api"
)

// sessionEventMsg carries a controller event into Update.
type sessionEventMsg session.Event

// noticeMsg signals that the visible notice changed.
type noticeMsg struct{}

// inboxMsg is a batch of messages queued from other goroutines.
type inboxMsg []tea.Msg

// exportResultMsg conveys the outcome of an export back to Update.
type exportResultMsg struct {
	kind export.Kind
	path string
	err  error
	dur  time.Duration
}

// inbox queues messages produced outside the program loop. Sending straight
// into the program from a callback that runs inside Update would block, so
// callbacks push here and a waiting command drains the queue.
type inbox struct {
	mu    sync.Mutex
	items []tea.Msg
	ready chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newInbox() *inbox {
	return &inbox{ready: make(chan struct{}, 1), done: make(chan struct{})}
}

func (b *inbox) push(msg tea.Msg) {
	b.mu.Lock()
	b.items = append(b.items, msg)
	b.mu.Unlock()
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// wait blocks until something is queued and returns the whole batch.
func (b *inbox) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.ready:
		case <-b.done:
			return nil
		}
		b.mu.Lock()
		items := b.items
		b.items = nil
		b.mu.Unlock()
		return inboxMsg(items)
	}
}

func (b *inbox) close() {
	b.once.Do(func() { close(b.done) })
}

// exportCmd writes the active document as kind into dir.
func exportCmd(ctx context.Context, s *session.Controller, kind export.Kind, theme api.Theme, dir string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		path, err := s.Download(ctx, kind, theme, dir)
		return exportResultMsg{kind: kind, path: path, err: err, dur: time.Since(start)}
	}
}
