// Package query implements the rune-buffer query editor backing the
// prompt: insertion, deletion by range, a one-slot saved-query register
// used by actions that stash the query while browsing history or the
// remote control, and the prompt's cursor position.
package query

import "sync"

// Text is the live, editable pattern buffer behind the prompt. Safe for
// concurrent use: the input-handling goroutine mutates it while the render
// loop reads String()/RuneSlice() to draw it.
type Text struct {
	mutex      sync.Mutex
	query      []rune
	savedQuery []rune
}

func (q *Text) Set(s string) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.query = []rune(s)
}

func (q *Text) Reset() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.query = nil
}

// SaveQuery stashes the live query into the saved slot and clears the live
// query, so a browsing action (history navigation, the remote control
// overlay) can repurpose the prompt and later undo that with
// RestoreSavedQuery.
func (q *Text) SaveQuery() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.savedQuery = q.query
	q.query = nil
}

// RestoreSavedQuery replaces the live query with whatever SaveQuery last
// stashed, then clears the saved slot.
func (q *Text) RestoreSavedQuery() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.query = q.savedQuery
	q.savedQuery = nil
}

func (q *Text) DeleteRange(start, end int) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if start == -1 {
		return
	}

	l := len(q.query)
	if end > l {
		end = l
	}
	if start > end {
		return
	}

	// everything up to "start" is left intact; everything between
	// start <-> end is deleted.
	copy(q.query[start:], q.query[end:])
	q.query = q.query[:l-(end-start)]
}

func (q *Text) String() string {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return string(q.query)
}

func (q *Text) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.query)
}

// RuneSlice returns a copy of the query's runes, safe for the caller to
// mutate or retain.
func (q *Text) RuneSlice() []rune {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return append([]rune(nil), q.query...)
}

// RuneAt returns the rune at where, or the zero rune if where is out of
// bounds.
func (q *Text) RuneAt(where int) rune {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if where < 0 || where >= len(q.query) {
		return 0
	}
	return q.query[where]
}

func (q *Text) InsertAt(ch rune, where int) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if where == len(q.query) {
		q.query = append(q.query, ch)
		return
	}

	sq := q.query
	buf := make([]rune, len(sq)+1)
	copy(buf, sq[:where])
	buf[where] = ch
	copy(buf[where+1:], sq[where:])
	q.query = buf
}
