package television

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/require"

	"github.com/kepler-cli/kepler/channel"
	"github.com/kepler-cli/kepler/cliopts"
	"github.com/kepler-cli/kepler/hub"
	"github.com/kepler-cli/kepler/internal/mock"
	"github.com/kepler-cli/kepler/keymap"
	"github.com/kepler-cli/kepler/matcher"
	"github.com/kepler-cli/kepler/prototype"
	"github.com/kepler-cli/kepler/query"
)

func writeProtoFile(t *testing.T, name, command string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name+".toml")
	content := "[metadata]\nname = \"" + name + "\"\n\n[source]\ncommand = \"" + command + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func waitActiveIdle(t *testing.T, tv *Television) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !tv.active.Tick(50 * time.Millisecond).Running {
			return
		}
	}
	t.Fatal("channel matcher did not settle within deadline")
}

func newTestTelevision(t *testing.T, sourceCmd string) *Television {
	t.Helper()
	p, err := prototype.Load(writeProtoFile(t, "unique", sourceCmd))
	require.NoError(t, err)

	tv := New(&cliopts.Options{})
	tv.opts.TickRate = cliopts.DefaultTickRate
	tv.active = channel.New(p, matcher.Config{IgnoreCase: true}, nil, nil)
	tv.prompt = &query.Text{}
	tv.caret = &query.Caret{}
	tv.keybindings = keymap.New()
	tv.keybindings.MergeGlobalsWith(defaultGlobalKeybindings())
	tv.hub = hub.New(32)

	var stdout bytes.Buffer
	tv.stdout = &stdout

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	tv.ctx = ctx
	tv.active.Load(ctx)
	return tv
}

// TestOrchestrator_ConfirmSelectionWritesMatchedEntry is an end-to-end pass
// through the orchestrator's real plumbing: a Channel backed by a live
// shell source, the matcher it owns, a query narrowing the live stream down
// to one literal line, and confirmActiveSelection/finish writing that line
// out exactly the way Run's quitSignal-recover path does.
func TestOrchestrator_ConfirmSelectionWritesMatchedEntry(t *testing.T) {
	tv := newTestTelevision(t, "printf '%s\\n' alpha UNIQUE16CHARID bravo")
	defer tv.Close()

	tv.active.Find("")
	waitActiveIdle(t, tv)
	require.Equal(t, 3, tv.active.TotalItemCount())

	tv.prompt.Set("UNIQUE16CHARID")
	tv.active.Find(tv.prompt.String())
	waitActiveIdle(t, tv)
	require.Equal(t, 1, tv.active.MatchedItemCount())

	code := func() (code int) {
		defer func() {
			if r := recover(); r != nil {
				q, ok := r.(quitSignal)
				require.True(t, ok, "expected a quitSignal panic, got %v", r)
				code = q.code
			}
		}()
		tv.confirmActiveSelection()
		panic("confirmActiveSelection returned without quitting")
	}()

	gotCode, err := tv.finish(code)
	require.NoError(t, err)
	require.Equal(t, ExitSuccess, gotCode)
	require.Contains(t, tv.stdout.(*bytes.Buffer).String(), "UNIQUE16CHARID")
}

// TestOrchestrator_HandleEventDrivesMatcherThroughHub types a query as
// simulated termbox key events through handleEvent (which also sends it on
// the hub's QueryCh), then calls refind itself so the active Channel's
// matcher narrows to the typed entry, with a mock.Screen in place of a
// real terminal.
func TestOrchestrator_HandleEventDrivesMatcherThroughHub(t *testing.T) {
	tv := newTestTelevision(t, "printf '%s\\n' alpha UNIQUE16CHARID bravo")
	defer tv.Close()
	tv.screen = mock.NewScreen()

	tv.active.Find("")
	waitActiveIdle(t, tv)

	for _, r := range "UNIQUE16CHARID" {
		tv.handleEvent(termbox.Event{Type: termbox.EventKey, Ch: r})
	}
	require.Equal(t, "UNIQUE16CHARID", tv.prompt.String())

	tv.refind()
	waitActiveIdle(t, tv)
	require.Equal(t, 1, tv.resultCount())

	e, ok := tv.currentEntry()
	require.True(t, ok)
	require.Equal(t, "UNIQUE16CHARID", e.Raw)
}

func TestOrchestrator_RemoteControlOverlayRoundTrips(t *testing.T) {
	tv := newTestTelevision(t, "printf 'alpha\\n'")
	tv.active.Find("")
	waitActiveIdle(t, tv)
	defer tv.Close()

	protoPath := writeProtoFile(t, "other", "printf 'x\\n'")
	protos, errs := prototype.LoadDir(filepath.Dir(protoPath))
	require.Empty(t, errs)
	tv.remote = channel.NewRemoteControl(protos)

	tv.prompt.Set("partial query")
	tv.enterRemoteControl()
	require.Equal(t, keymap.ModeRemoteControl, tv.mode)
	require.Empty(t, tv.prompt.String())

	tv.exitRemoteControl()
	require.Equal(t, keymap.ModeChannel, tv.mode)
	require.Equal(t, "partial query", tv.prompt.String())

	require.Equal(t, 0, len(tv.remoteControlResults(10, 0)))
}
