package television

import (
	"fmt"
	"time"

	"github.com/atotto/clipboard"

	"github.com/kepler-cli/kepler/keymap"
)

// ActionFunc is a single named action: a callback over the orchestrator,
// exactly peco's own ActionFunc shape generalized from a (Peco, Event)
// pair to just the orchestrator, since keys here resolve to actions ahead
// of dispatch instead of being matched action-by-action against the raw
// event.
type ActionFunc func(*Television)

// actionRegistry is the global map of built-in action name to its
// implementation, populated once in init() the way peco's own
// nameToActions is.
var actionRegistry = map[string]ActionFunc{}

func registerAction(name string, fn ActionFunc) { actionRegistry[name] = fn }

func init() {
	registerAction("quit", doQuit)
	registerAction("confirm_selection", doConfirmSelection)
	registerAction("select_next_entry", doSelectNextEntry)
	registerAction("select_prev_entry", doSelectPrevEntry)
	registerAction("toggle_selection_down", doToggleSelectionDown)
	registerAction("toggle_selection_up", doToggleSelectionUp)
	registerAction("reload_source", doReloadSource)
	registerAction("cycle_sources", doCycleSources)
	registerAction("toggle_preview", doTogglePreview)
	registerAction("scroll_preview_half_page_down", doScrollPreviewDown)
	registerAction("scroll_preview_half_page_up", doScrollPreviewUp)
	registerAction("toggle_remote_control", doToggleRemoteControl)
	registerAction("toggle_help", doToggleHelp)
	registerAction("toggle_status_bar", doToggleStatusBar)
	registerAction("toggle_keybinding_panel", doToggleKeybindingPanel)
	registerAction("copy_entry_to_clipboard", doCopyEntryToClipboard)
	registerAction("add_input_char", doAddInputChar)
	registerAction("delete_prev_char", doDeletePrevChar)
	registerAction("delete_next_char", doDeleteNextChar)
	registerAction("clear_query", doClearQuery)
	registerAction("cursor_left", doCursorLeft)
	registerAction("cursor_right", doCursorRight)
	registerAction("cursor_beginning_of_line", doCursorHome)
	registerAction("cursor_end_of_line", doCursorEnd)
	registerAction("history_prev", doHistoryPrev)
	registerAction("history_next", doHistoryNext)
}

// defaultGlobalKeybindings returns the built-in global layer, grounded on
// peco's own defaultKeyBinding set (Ctrl-A/E/B/F line editing, Ctrl-C/Esc
// cancel, Enter to finish) extended with the result-navigation and
// preview/remote-control keys SPEC_FULL.md's action vocabulary adds.
func defaultGlobalKeybindings() map[keymap.Key][]string {
	return map[keymap.Key][]string{
		keymap.Named(keymap.Esc):       {"quit"},
		keymap.CtrlChar('c'):           {"quit"},
		keymap.Named(keymap.Enter):     {"confirm_selection"},
		keymap.Named(keymap.Up):        {"select_prev_entry"},
		keymap.Named(keymap.Down):      {"select_next_entry"},
		keymap.CtrlChar('p'):           {"select_prev_entry"},
		keymap.CtrlChar('n'):           {"select_next_entry"},
		keymap.Named(keymap.Tab):       {"toggle_selection_down"},
		keymap.Named(keymap.BackTab):   {"toggle_selection_up"},
		keymap.CtrlChar('r'):           {"reload_source"},
		keymap.CtrlChar('x'):           {"cycle_sources"},
		keymap.CtrlChar('o'):           {"toggle_preview"},
		keymap.CtrlChar('d'):           {"scroll_preview_half_page_down"},
		keymap.CtrlChar('u'):           {"scroll_preview_half_page_up"},
		keymap.CtrlChar('t'):           {"toggle_remote_control"},
		keymap.Named(keymap.F1):        {"toggle_help"},
		keymap.CtrlChar('s'):           {"toggle_status_bar"},
		keymap.CtrlChar('k'):           {"toggle_keybinding_panel"},
		keymap.CtrlChar('y'):           {"copy_entry_to_clipboard"},
		keymap.Named(keymap.Backspace): {"delete_prev_char"},
		keymap.Named(keymap.Delete):    {"delete_next_char"},
		keymap.CtrlChar('g'):           {"clear_query"},
		keymap.Named(keymap.Left):      {"cursor_left"},
		keymap.Named(keymap.Right):     {"cursor_right"},
		keymap.CtrlChar('a'):           {"cursor_beginning_of_line"},
		keymap.CtrlChar('e'):           {"cursor_end_of_line"},
		keymap.Named(keymap.PgUp):      {"history_prev"},
		keymap.Named(keymap.PgDn):      {"history_next"},
	}
}

// dispatch resolves key under the orchestrator's current mode and runs
// every action it's bound to, in order, stopping early if an action
// switches out of ModeChannel input routing entirely (entering the remote
// control, or quitting).
func (t *Television) dispatch(key keymap.Key) {
	mode := t.mode
	for _, name := range t.keybindings.Resolve(key, t.mode) {
		fn, ok := actionRegistry[name]
		if !ok {
			if custom, ok := t.active.Prototype().Actions[name]; ok {
				t.runCustomAction(custom)
			}
			continue
		}
		fn(t)
		if mode == keymap.ModeChannel && t.mode != keymap.ModeChannel {
			return
		}
	}
}

func doQuit(t *Television) {
	if t.mode == keymap.ModeRemoteControl {
		t.exitRemoteControl()
		return
	}
	t.quit(0)
}

func doConfirmSelection(t *Television) {
	if t.mode == keymap.ModeRemoteControl {
		t.confirmRemoteControl()
		return
	}
	t.confirmActiveSelection()
}

func doSelectNextEntry(t *Television) { t.moveCursor(1) }
func doSelectPrevEntry(t *Television) { t.moveCursor(-1) }

func doToggleSelectionDown(t *Television) {
	t.toggleCurrentSelection()
	t.moveCursor(1)
}

func doToggleSelectionUp(t *Television) {
	t.toggleCurrentSelection()
	t.moveCursor(-1)
}

func doReloadSource(t *Television) {
	if t.active == nil {
		return
	}
	t.active.Reload(t.ctx)
	t.cursor = 0
	t.pageOffset = 0
}

func doCycleSources(t *Television) {
	if t.active == nil {
		return
	}
	t.active.CycleSources(t.ctx)
	t.cursor = 0
	t.pageOffset = 0
}

func doTogglePreview(t *Television) { t.previewVisible = !t.previewVisible }

func doScrollPreviewDown(t *Television) { t.lastPreview.Offset += previewScrollStep }
func doScrollPreviewUp(t *Television) {
	t.lastPreview.Offset -= previewScrollStep
	if t.lastPreview.Offset < 0 {
		t.lastPreview.Offset = 0
	}
}

const previewScrollStep = 10

func doToggleRemoteControl(t *Television) {
	if t.mode == keymap.ModeRemoteControl {
		t.exitRemoteControl()
		return
	}
	t.enterRemoteControl()
}

func doToggleHelp(t *Television)            { t.showHelp = !t.showHelp }
func doToggleStatusBar(t *Television)       { t.showStatusBar = !t.showStatusBar }
func doToggleKeybindingPanel(t *Television) { t.showKeybindingPanel = !t.showKeybindingPanel }

func doCopyEntryToClipboard(t *Television) {
	e, ok := t.currentEntry()
	if !ok {
		return
	}
	out, err := e.FormatOutput()
	if err != nil {
		t.setStatus(err.Error(), 2*time.Second)
		return
	}
	if err := clipboard.WriteAll(out); err != nil {
		t.setStatus(fmt.Sprintf("clipboard: %s", err), 2*time.Second)
		return
	}
	t.setStatus("copied to clipboard", time.Second)
}

func doAddInputChar(t *Television) {} // handled directly in run.go's input switch, which has the rune
func doDeletePrevChar(t *Television) {
	pos := t.caret.Pos()
	if pos == 0 {
		return
	}
	t.prompt.DeleteRange(pos-1, pos)
	t.caret.Move(-1)
	t.refind()
}

func doDeleteNextChar(t *Television) {
	pos := t.caret.Pos()
	if pos >= t.prompt.Len() {
		return
	}
	t.prompt.DeleteRange(pos, pos+1)
	t.refind()
}

func doClearQuery(t *Television) {
	t.prompt.Reset()
	t.caret.SetPos(0)
	t.refind()
}

func doCursorLeft(t *Television) {
	if t.caret.Pos() > 0 {
		t.caret.Move(-1)
	}
}

func doCursorRight(t *Television) {
	if t.caret.Pos() < t.prompt.Len() {
		t.caret.Move(1)
	}
}

func doCursorHome(t *Television) { t.caret.SetPos(0) }
func doCursorEnd(t *Television)  { t.caret.SetPos(t.prompt.Len()) }

func doHistoryPrev(t *Television) {
	if t.historyStore == nil || t.active == nil {
		return
	}
	if q, ok := t.historyStore.Prev(t.active.Name(), false); ok {
		t.prompt.Set(q)
		t.caret.SetPos(t.prompt.Len())
		t.refind()
	}
}

func doHistoryNext(t *Television) {
	if t.historyStore == nil || t.active == nil {
		return
	}
	if q, ok := t.historyStore.Next(t.active.Name(), false); ok {
		t.prompt.Set(q)
		t.caret.SetPos(t.prompt.Len())
		t.refind()
	}
}

// refind pushes the live query into whichever engine owns input right now.
func (t *Television) refind() {
	if t.mode == keymap.ModeRemoteControl {
		if t.rcEngine != nil {
			t.rcEngine.Find(t.prompt.String())
		}
		return
	}
	if t.active != nil {
		t.active.Find(t.prompt.String())
	}
	t.cursor = 0
	t.pageOffset = 0
}
