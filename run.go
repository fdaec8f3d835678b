package television

import (
	"context"
	"fmt"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/kepler-cli/kepler/entry"
	"github.com/kepler-cli/kepler/hub"
	"github.com/kepler-cli/kepler/keymap"
	"github.com/kepler-cli/kepler/preview"
	"github.com/kepler-cli/kepler/prototype"
)

// Exit codes per SPEC_FULL.md §6's contract: 0 on a confirmed selection or
// a cancel configured as success, 1 on a cancel configured as an error or
// an empty --select-1/--take-1 result, 2 on a setup/runtime error.
const (
	ExitSuccess = 0
	ExitCancel  = 1
	ExitError   = 2
)

type quitSignal struct{ code int }

func (q quitSignal) Error() string { return "quit" }

// quit unwinds Run with the given exit code by panicking with a
// quitSignal, recovered at the top of Run. This mirrors peco's own
// Cancel/Finish actions, which terminate the loop by closing the
// top-level context rather than by threading a return value through every
// nested call.
func (t *Television) quit(code int) { panic(quitSignal{code: code}) }

// Run drives the orchestrator to completion: either the one-shot
// --select-1/--take-1/--take-1-fast headless paths, or the full terminal
// event loop. Returns the process exit code and writes the confirmed
// selections (FormatOutput'd) to stdout before returning.
func (t *Television) Run(parent context.Context) (code int, err error) {
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel
	t.ctx = ctx
	defer cancel()

	if t.opts.Take1 || t.opts.Take1Fast || t.opts.Select1 {
		return t.runHeadless(ctx)
	}
	return t.runInteractive(ctx)
}

// runHeadless drains the active channel's source to completion (or to its
// first result, for --take-1-fast) without ever drawing a TUI, per
// SPEC_FULL.md §6.
func (t *Television) runHeadless(ctx context.Context) (int, error) {
	defer t.Close()

	tick := time.Duration(time.Second / time.Duration(max(1, t.opts.TickRate)))
	for {
		status := t.active.Tick(tick)
		if t.opts.Take1Fast && t.active.MatchedItemCount() > 0 {
			break
		}
		if !status.Running {
			break
		}
		select {
		case <-ctx.Done():
			return ExitCancel, ctx.Err()
		default:
		}
	}

	n := t.active.MatchedItemCount()
	if t.opts.Select1 && n != 1 {
		return ExitCancel, nil
	}
	if n == 0 {
		return ExitCancel, nil
	}
	e, ok := t.active.GetResult(0)
	if !ok {
		return ExitCancel, nil
	}
	t.active.RecordConfirmation(t.prompt.String(), []entry.Entry{e}, nowUnix())
	out, err := e.FormatOutput()
	if err != nil {
		return ExitError, err
	}
	fmt.Fprintln(t.stdout, out)
	return ExitSuccess, nil
}

// runInteractive is the cooperative, single-goroutine event loop: termbox
// events, the tick-rate timer driving the matcher/preview pipeline, and the
// hub's query/draw/paging/status channels all feed into one select,
// exactly peco's own Run loop shape (a single coordinator reading off Hub
// channels plus the input event channel) generalized with a tick timer for
// the streaming matcher and a preview-results channel.
func (t *Television) runInteractive(ctx context.Context) (code int, err error) {
	defer t.Close()

	if err := t.screen.Init(); err != nil {
		return ExitError, err
	}
	defer t.screen.Close()

	restoreSignal := t.installSignalHandler(ctx)
	defer restoreSignal()

	defer func() {
		if r := recover(); r != nil {
			if q, ok := r.(quitSignal); ok {
				code, err = t.finish(q.code)
				return
			}
			panic(r)
		}
	}()

	tickInterval := time.Duration(time.Second / time.Duration(max(1, t.opts.TickRate)))
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	events := t.screen.PollEvent(ctx)
	t.render()

	for {
		select {
		case <-ctx.Done():
			return ExitCancel, ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return ExitCancel, nil
			}
			t.handleEvent(ev)
			t.render()

		case <-ticker.C:
			t.onTick()
			t.render()

		case res := <-t.previewExecResults():
			t.lastPreview = res.Preview
			t.render()

		case req := <-t.hub.QueryCh():
			t.refind()
			req.Done()
			t.render()

		case req := <-t.hub.PagingCh():
			t.applyPaging(req.Data())
			req.Done()
			t.render()

		case req := <-t.hub.StatusMsgCh():
			t.setStatus(req.Data().Message(), req.Data().Delay())
			req.Done()
			t.render()

		case req := <-t.hub.DrawCh():
			req.Done()
			t.render()
		}
	}
}

// previewExecResults returns the preview executor's results channel, or a
// nil channel (which blocks forever in a select) when the active channel
// has no preview pipeline.
func (t *Television) previewExecResults() <-chan preview.Result {
	if t.previewExec == nil {
		return nil
	}
	return t.previewExec.Results()
}

// onTick advances the active channel's background matcher scan and, when
// the snapshot changed, re-requests a preview for the newly-current
// selection.
func (t *Television) onTick() {
	t.clearExpiredStatus()
	if t.active == nil {
		return
	}
	status := t.active.Tick(0)
	if status.Changed {
		t.requestPreview()
	}
}

// requestPreview asks the preview executor to (re)compute a preview for
// whatever entry Entries()[cursor] currently names.
func (t *Television) requestPreview() {
	if t.previewExec == nil {
		return
	}
	e, ok := t.currentEntry()
	if !ok {
		return
	}
	t.lastPreview.Offset = 0
	t.previewExec.Request(e.Raw)
}

// currentEntry returns the Entry at the cursor position in whichever
// engine owns the results list right now.
func (t *Television) currentEntry() (entry.Entry, bool) {
	if t.mode == keymap.ModeRemoteControl {
		res := t.remoteControlResults(1, t.cursor)
		if len(res) == 0 {
			return entry.Entry{}, false
		}
		return res[0], true
	}
	if t.active == nil {
		return entry.Entry{}, false
	}
	return t.active.GetResult(t.cursor)
}

// moveCursor shifts the cursor by delta, clamped to [0, count-1], and
// requests a fresh preview if the selection actually moved.
func (t *Television) moveCursor(delta int) {
	count := t.resultCount()
	if count == 0 {
		return
	}
	next := t.cursor + delta
	if next < 0 {
		next = 0
	}
	if next >= count {
		next = count - 1
	}
	if next == t.cursor {
		return
	}
	t.cursor = next
	t.requestPreview()
}

func (t *Television) resultCount() int {
	if t.mode == keymap.ModeRemoteControl {
		return t.remoteControlCount()
	}
	if t.active == nil {
		return 0
	}
	return t.active.MatchedItemCount()
}

// applyPaging handles a hub.PagingRequest the same way peco's loop does:
// translate the request type into a cursor delta or a jump.
func (t *Television) applyPaging(req hub.PagingRequest) {
	switch r := req.(type) {
	case hub.JumpToLineRequest:
		t.cursor = int(r.Line())
	default:
		switch req.Type() {
		case hub.ToLineAbove:
			t.moveCursor(-1)
		case hub.ToLineBelow:
			t.moveCursor(1)
		case hub.ToScrollPageUp:
			t.moveCursor(-10)
		case hub.ToScrollPageDown:
			t.moveCursor(10)
		case hub.ToScrollFirstItem:
			t.cursor = 0
		case hub.ToScrollLastItem:
			t.cursor = t.resultCount() - 1
		}
	}
}

// toggleCurrentSelection toggles selection membership for the Entry under
// the cursor. A no-op in RemoteControl mode, which has no selection set.
func (t *Television) toggleCurrentSelection() {
	if t.mode == keymap.ModeRemoteControl || t.active == nil {
		return
	}
	e, ok := t.active.GetResult(t.cursor)
	if !ok {
		return
	}
	t.active.ToggleSelection(e)
}

// confirmActiveSelection finalizes the session: the toggled selection set
// if non-empty, else just the entry under the cursor. Records frecency and
// history, writes every FormatOutput'd line to stdout, then quits
// successfully.
func (t *Television) confirmActiveSelection() {
	if t.active == nil {
		t.quit(ExitCancel)
		return
	}
	entries := t.active.SelectedEntries()
	if len(entries) == 0 {
		if e, ok := t.active.GetResult(t.cursor); ok {
			entries = []entry.Entry{e}
		}
	}
	if len(entries) == 0 {
		t.quit(ExitCancel)
		return
	}

	t.active.RecordConfirmation(t.prompt.String(), entries, nowUnix())
	for _, e := range entries {
		out, err := e.FormatOutput()
		if err != nil {
			out = e.Raw
		}
		t.selectedOutput = append(t.selectedOutput, out)
	}
	t.quit(ExitSuccess)
}

// finish writes every confirmed selection to stdout (plus the --expect key
// name, observed rather than consumed, on its own line first) and returns
// the exit code, applying the ambient config's OnCancel behavior when the
// user cancelled with nothing selected.
func (t *Television) finish(code int) (int, error) {
	if code == ExitCancel && len(t.selectedOutput) == 0 {
		if t.cfg != nil && t.cfg.OnCancel == "error" {
			return ExitCancel, nil
		}
		return ExitSuccess, nil
	}
	if t.opts.Expect != "" && t.expectedKey != "" {
		fmt.Fprintln(t.stdout, t.expectedKey)
	}
	for _, line := range t.selectedOutput {
		fmt.Fprintln(t.stdout, line)
	}
	return code, nil
}

// runCustomAction runs a Prototype [actions.<name>] entry's command
// against the current selection's raw string and, per its mode, either
// exits the session with the command's own output or returns to the
// results list.
func (t *Television) runCustomAction(spec prototype.ActionSpec) {
	e, ok := t.currentEntry()
	if !ok {
		return
	}
	tmpl, err := templateParse(spec.Command)
	if err != nil {
		t.setStatus(err.Error(), 2*time.Second)
		return
	}
	cmdText, err := tmpl.Format(e.Raw)
	if err != nil {
		t.setStatus(err.Error(), 2*time.Second)
		return
	}

	t.screen.Suspend()
	out, runErr := runShellCaptured(t.ctx, cmdText)
	t.screen.Resume()

	if runErr != nil {
		t.setStatus(runErr.Error(), 2*time.Second)
		return
	}
	if spec.Mode == "exit" {
		t.selectedOutput = append(t.selectedOutput, out)
		t.quit(ExitSuccess)
	}
}

// handleEvent turns one termbox.Event into either a printable-rune insert
// or a keymap.Key lookup dispatched through the action registry.
func (t *Television) handleEvent(ev termbox.Event) {
	if ev.Type == termbox.EventResize {
		return
	}
	if ev.Type != termbox.EventKey {
		return
	}

	if ev.Ch != 0 {
		pos := t.caret.Pos()
		t.prompt.InsertAt(ev.Ch, pos)
		t.caret.Move(1)
		t.hub.SendQuery(t.ctx, t.prompt.String())
		return
	}

	key := keyFromTermbox(ev)
	expected := t.opts.Expect != "" && key.String() == t.opts.Expect
	if expected {
		t.expectedKey = t.opts.Expect
	}
	t.dispatch(key)
	if expected {
		t.confirmActiveSelection()
	}
}
