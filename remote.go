package television

import (
	"time"

	"github.com/kepler-cli/kepler/entry"
	"github.com/kepler-cli/kepler/frecency"
	"github.com/kepler-cli/kepler/keymap"
	"github.com/kepler-cli/kepler/matcher"
)

// enterRemoteControl switches input routing to the channel-picker overlay,
// stashing the live query (SaveQuery) so cancelling the overlay restores
// whatever the user was typing in the active channel. The overlay gets its
// own throwaway Matcher over channel names/descriptions, rebuilt on every
// open from the prototypes loaded at Setup; cable files added after
// startup are not picked up.
func (t *Television) enterRemoteControl() {
	if t.opts.NoRemote || t.remote == nil {
		return
	}
	t.prompt.SaveQuery()
	t.caret.SetPos(0)
	t.cursor = 0
	t.pageOffset = 0
	t.mode = keymap.ModeRemoteControl

	t.rcEngine = matcher.New[struct{}](matcher.Config{IgnoreCase: true})
	inj := t.rcEngine.Injector()
	for _, line := range t.remote.Entries() {
		entry.Plain{}.Push(line, inj)
	}
}

// exitRemoteControl restores the query saved by enterRemoteControl and
// returns input routing to the active channel, with no channel switch.
func (t *Television) exitRemoteControl() {
	if t.rcEngine != nil {
		t.rcEngine.Close()
		t.rcEngine = nil
	}
	t.prompt.RestoreSavedQuery()
	t.caret.SetPos(t.prompt.Len())
	t.cursor = 0
	t.pageOffset = 0
	t.mode = keymap.ModeChannel
}

// confirmRemoteControl zaps the channel named by the currently selected
// remote-control result and swaps it in as the active Channel. A
// MissingRequirementsError is surfaced as a status message and leaves the
// previous channel running.
func (t *Television) confirmRemoteControl() {
	if t.rcEngine == nil {
		t.exitRemoteControl()
		return
	}
	res, ok := t.rcEngine.GetResult(t.cursor)
	if !ok {
		t.exitRemoteControl()
		return
	}
	name := channelNameFromEntry(res.MatchedString)

	next, err := t.remote.Zap(name, t.matcherCfg, t.frecencyStore, t.historyStore)
	if err != nil {
		t.setStatus(err.Error(), 3*time.Second)
		t.exitRemoteControl()
		return
	}

	if t.active != nil {
		t.active.ClearSelection()
		t.active.Close()
	}
	t.active = next
	t.keybindings.SetChannelBindings(keymapFromPrototype(next.Prototype()))
	t.active.Load(t.ctx)
	t.active.PriorityKeys(false, frecency.DefaultPriorityKeyLimit, nowUnix())
	t.exitRemoteControl()
	t.prompt.Reset()
	t.caret.SetPos(0)
	t.active.Find("")
}

// channelNameFromEntry splits a RemoteControl "name\tdescription" line back
// into the bare channel name.
func channelNameFromEntry(line string) string {
	for i, r := range line {
		if r == '\t' {
			return line[:i]
		}
	}
	return line
}

// remoteControlResults adapts the overlay's Matcher results into Entry
// values so rendering and cursor math can treat both modes identically.
func (t *Television) remoteControlResults(n, offset int) []entry.Entry {
	if t.rcEngine == nil {
		return nil
	}
	items := t.rcEngine.Results(n, offset)
	out := make([]entry.Entry, 0, len(items))
	for _, it := range items {
		out = append(out, entry.Plain{}.MakeEntry(it, 0, nil))
	}
	return out
}

func (t *Television) remoteControlCount() int {
	if t.rcEngine == nil {
		return 0
	}
	return t.rcEngine.MatchedItemCount()
}
