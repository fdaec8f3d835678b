// Package ui wraps termbox-go behind a small, entry-model-agnostic Screen
// interface: cell writes, cursor placement, suspend/resume for spawning
// preview commands that need the real terminal, and a chainable Print
// builder. The room layout, prompt/result/preview panel drawing, and style
// resolution live in the root package's render.go, built against
// entry.Entry/config.StyleSet instead of this package's original
// line.Line/StyleSet model.
package ui

import (
	"context"
	"sync"

	"github.com/nsf/termbox-go"
)

// Screen hides termbox from the consuming code so that
// it can be swapped out for testing
type Screen interface {
	Init() error
	Close() error
	Flush() error
	PollEvent(context.Context) chan termbox.Event
	Start() *PrintCtx
	Resume()
	SetCell(int, int, rune, termbox.Attribute, termbox.Attribute)
	SetCursor(int, int)
	Size() (int, int)
	SendEvent(termbox.Event)
	Suspend()
}

// Termbox just hands out the processing to the termbox library
type Termbox struct {
	mutex     sync.Mutex
	resumeCh  chan chan struct{}
	suspendCh chan struct{}
}
