package query

import "sync"

// Caret is the prompt's cursor position, in runes, into the query Text it
// is paired with. Kept separate from Text since the two are read and
// written at different rates (every keystroke moves the caret; only
// editing keystrokes change the text).
type Caret struct {
	mutex sync.Mutex
	pos   int
}

func (c *Caret) Pos() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.pos
}

func (c *Caret) SetPos(pos int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pos = pos
}

// Move shifts the caret by delta runes. Does not clamp to the bounds of any
// particular Text; callers clamp against their own query's Len() after
// moving.
func (c *Caret) Move(delta int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.pos += delta
}
