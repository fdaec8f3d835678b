// Package television is the root orchestrator: it owns the active Channel
// and the RemoteControl channel-picker, drives the Preview executor and
// the frecency/history stores, resolves input through a Keybindings
// resolver, and renders through a Termbox screen.
//
// Grounded on peco's own root package (peco.go's Peco struct owning a
// Filter/Source/Selection/Screen/Hub) generalized from "one static buffer,
// one filter" to "many named, swappable Prototypes, each with its own
// streaming source and preview pipeline."
package television

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/kepler-cli/kepler/channel"
	"github.com/kepler-cli/kepler/cliopts"
	"github.com/kepler-cli/kepler/config"
	"github.com/kepler-cli/kepler/entry"
	"github.com/kepler-cli/kepler/frecency"
	"github.com/kepler-cli/kepler/history"
	"github.com/kepler-cli/kepler/hub"
	"github.com/kepler-cli/kepler/keymap"
	"github.com/kepler-cli/kepler/matcher"
	"github.com/kepler-cli/kepler/preview"
	"github.com/kepler-cli/kepler/prototype"
	"github.com/kepler-cli/kepler/query"
	"github.com/kepler-cli/kepler/ui"
)

// Television is the orchestrator. One instance lives for the lifetime of a
// session; Setup builds it, Run drives it to completion.
type Television struct {
	cfg  *config.Config
	opts *cliopts.Options

	cableDir string
	dataDir  string

	screen ui.Screen
	hub    *hub.Hub

	protos   map[string]*prototype.Prototype
	remote   *channel.RemoteControl
	rcEngine *matcher.Matcher[struct{}]

	ctx context.Context

	matcherCfg matcher.Config
	active     *channel.Channel

	previewExec    *preview.Executor
	previewVisible bool
	lastPreview    preview.Preview

	frecencyStore *frecency.Store
	historyStore  *history.Store

	keybindings *keymap.Keybindings
	mode        keymap.Mode

	prompt *query.Text
	caret  *query.Caret

	cursor     int // absolute index into the active results
	pageOffset int

	showHelp            bool
	showStatusBar       bool
	showKeybindingPanel bool
	statusMsg           string
	statusUntil         time.Time

	zapError error // unused: confirmRemoteControl shows a failed RemoteControl.Zap's error in the status line

	selectedOutput []string
	expectedKey    string

	stdout io.Writer
	stderr io.Writer

	cancel context.CancelFunc
}

// New builds an unconfigured Television. Call Setup before Run.
func New(opts *cliopts.Options) *Television {
	return &Television{
		opts:          opts,
		showStatusBar: true,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
	}
}

// ActiveChannel returns the active Channel. It stays set while the remote
// control overlay owns input, and is nil only before Setup.
func (t *Television) ActiveChannel() *channel.Channel { return t.active }

// Mode reports whether the orchestrator is currently routing keys to the
// active Channel or to the RemoteControl overlay.
func (t *Television) Mode() keymap.Mode { return t.mode }

// nowUnix is the session's single source of wall-clock time for
// frecency/history timestamps, factored out so tests can stub it.
var nowUnix = func() int64 { return time.Now().Unix() }

// currentResults returns up to n entries from whichever engine (the active
// Channel, or the RemoteControl's synthetic picker when in
// ModeRemoteControl) currently owns the results list.
func (t *Television) currentResults(n, offset int) []entry.Entry {
	if t.mode == keymap.ModeRemoteControl {
		return t.remoteControlResults(n, offset)
	}
	if t.active == nil {
		return nil
	}
	return t.active.Results(n, offset)
}

// setStatus shows msg in the status bar until d elapses.
func (t *Television) setStatus(msg string, d time.Duration) {
	t.statusMsg = msg
	t.statusUntil = time.Now().Add(d)
}

// clearExpiredStatus blanks statusMsg once statusUntil has passed; called
// once per tick from the render loop.
func (t *Television) clearExpiredStatus() {
	if t.statusMsg != "" && time.Now().After(t.statusUntil) {
		t.statusMsg = ""
	}
}

// Close tears down the active channel, the preview executor, and persists
// the frecency/history stores. Run defers it on both its headless and
// interactive paths.
func (t *Television) Close() {
	if t.rcEngine != nil {
		t.rcEngine.Close()
	}
	if t.active != nil {
		t.active.Close()
	}
	if t.previewExec != nil {
		t.previewExec.Shutdown()
	}
	if t.frecencyStore != nil {
		_ = t.frecencyStore.Save()
	}
	if t.historyStore != nil {
		_ = t.historyStore.Save()
	}
	if t.cancel != nil {
		t.cancel()
	}
}
