// Package channel implements Channel, the runtime instantiation of one
// Prototype (a matcher, a source runner, a selection set, and
// frecency/history handles scoped by channel name), and RemoteControl, the
// specialized channel whose candidates are Prototype names themselves.
//
// Follows this module's own top-level Matcher/Source wiring (one Matcher
// and one Source per running session, torn down and rebuilt on reload)
// generalized to many named, swappable Prototypes instead of one static
// configuration.
package channel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kepler-cli/kepler/entry"
	"github.com/kepler-cli/kepler/frecency"
	"github.com/kepler-cli/kepler/history"
	"github.com/kepler-cli/kepler/matcher"
	"github.com/kepler-cli/kepler/prototype"
	"github.com/kepler-cli/kepler/source"
)

// DefaultMaxSelections is used when a Prototype's [ui.results_panel]
// doesn't set max_selections.
const DefaultMaxSelections = 1000

// Channel is the runtime state for one instantiated Prototype: an
// injector-connected matcher, a source-runner task handle, the current
// source-command index, a selection set, and frecency/history handles
// scoped to the channel's name.
type Channel struct {
	proto *prototype.Prototype
	name  string

	engine    resultEngine
	runner    *source.Runner
	sourceIdx int

	selection     map[entry.Key]entry.Entry
	maxSelections int

	frecencyStore *frecency.Store
	historyStore  *history.Store
}

// New instantiates a Channel from proto. cfg configures the matcher
// kernel; frecencyStore/historyStore are the orchestrator-owned shared
// stores this channel's operations are scoped into by name.
func New(proto *prototype.Prototype, cfg matcher.Config, frecencyStore *frecency.Store, historyStore *history.Store) *Channel {
	c := &Channel{
		proto:         proto,
		name:          proto.Metadata.Name,
		selection:     make(map[entry.Key]entry.Entry),
		maxSelections: proto.Ui.ResultsPanel.MaxSelections,
		frecencyStore: frecencyStore,
		historyStore:  historyStore,
	}
	if c.maxSelections <= 0 {
		c.maxSelections = DefaultMaxSelections
	}
	c.engine = buildEngine(proto, cfg)
	return c
}

// buildEngine picks the EntryProcessor strategy named by proto.Source and
// erases its payload type behind resultEngine: Display if a display
// template is configured, else Ansi if the source is ANSI-coded, else
// Plain.
func buildEngine(proto *prototype.Prototype, cfg matcher.Config) resultEngine {
	switch {
	case proto.Source.Display != nil:
		return newEngine[string](entry.Display{Template: proto.Source.Display}, proto.Source.Output, cfg)
	case proto.Source.Ansi:
		return newEngine[string](entry.Ansi{}, proto.Source.Output, cfg)
	default:
		return newEngine[struct{}](entry.Plain{}, proto.Source.Output, cfg)
	}
}

// Name returns the channel's prototype name.
func (c *Channel) Name() string { return c.name }

// Load spawns the source runner for the current source-command index.
func (c *Channel) Load(ctx context.Context) {
	cmd := c.proto.Source.Command
	c.runner = c.engine.SpawnSource(ctx, cmd.Current(c.sourceIdx), cmd.Interactive, cmd.Env, c.proto.Source.EntryDelimiter)
}

// Reload aborts the current source runner, restarts the matcher (so
// total_item_count restarts from 0), and spawns a new runner against the
// same source-command index.
func (c *Channel) Reload(ctx context.Context) {
	if c.runner != nil {
		c.runner.Abort()
	}
	c.engine.Restart()
	c.Load(ctx)
}

// CycleSources advances the source-command index modulo the number of
// configured commands, then reloads.
func (c *Channel) CycleSources(ctx context.Context) {
	n := len(c.proto.Source.Command.Commands)
	if n == 0 {
		return
	}
	c.sourceIdx = (c.sourceIdx + 1) % n
	c.Reload(ctx)
}

// Find sets the active fuzzy-match pattern.
func (c *Channel) Find(pattern string) { c.engine.Find(pattern) }

// Tick advances the matcher's background scan and reports whether it is
// still running and whether the result snapshot changed.
func (c *Channel) Tick(timeout time.Duration) matcher.Status { return c.engine.Tick(timeout) }

// Results returns up to n matched entries starting at offset.
func (c *Channel) Results(n, offset int) []entry.Entry { return c.engine.Results(n, offset) }

// GetResult returns the i-th matched entry. When the prototype's
// PreviewSpec carries an offset template, it is evaluated against the
// entry's raw to populate LineNumber, so line-anchored previews work
// without duplicating the parsing logic at every call site.
func (c *Channel) GetResult(i int) (entry.Entry, bool) {
	e, ok := c.engine.GetResult(i)
	if !ok {
		return entry.Entry{}, false
	}
	if c.proto.Preview != nil && c.proto.Preview.Offset != nil {
		if s, err := c.proto.Preview.Offset.Format(e.Raw); err == nil {
			if n, perr := strconv.Atoi(strings.TrimSpace(s)); perr == nil && n >= 0 {
				e.LineNumber = n
			}
		}
	}
	return e, true
}

// RelativeSelection returns the selected index relative to the start of
// the currently rendered page, used by the orchestrator for page-relative
// rendering instead of the absolute matched-item index. Additive per
// SPEC_FULL.md §3's recovery of television/picker.rs's relative_position;
// it does not change any other Channel operation.
func (c *Channel) RelativeSelection(absoluteIndex, pageOffset int) int {
	return absoluteIndex - pageOffset
}

// ToggleSelection adds e to the selection set, or removes it if already
// present. Adding past max_selections is a no-op.
func (c *Channel) ToggleSelection(e entry.Entry) {
	key := e.Key()
	if _, ok := c.selection[key]; ok {
		delete(c.selection, key)
		return
	}
	if len(c.selection) >= c.maxSelections {
		return
	}
	c.selection[key] = e
}

// SelectedEntries returns the current selection set.
func (c *Channel) SelectedEntries() []entry.Entry {
	out := make([]entry.Entry, 0, len(c.selection))
	for _, e := range c.selection {
		out = append(out, e)
	}
	return out
}

// ClearSelection empties the selection set, used when a channel is torn
// down on channel switch.
func (c *Channel) ClearSelection() { c.selection = make(map[entry.Key]entry.Entry) }

// CurrentCommand returns the raw of the active source command template.
func (c *Channel) CurrentCommand() string {
	return c.proto.Source.Command.Current(c.sourceIdx)
}

// SupportsPreview reports whether this channel's prototype carries a
// usable preview command.
func (c *Channel) SupportsPreview() bool { return c.proto.HasPreview() }

// Prototype returns the Prototype this Channel was instantiated from.
func (c *Channel) Prototype() *prototype.Prototype { return c.proto }

// PriorityKeys loads the top frecent raw strings for this channel (or
// globally if global is true) from the shared frecency store and installs
// them on the matcher.
func (c *Channel) PriorityKeys(global bool, limit int, nowUnix int64) {
	if c.frecencyStore == nil {
		return
	}
	c.engine.SetPriorityKeys(c.frecencyStore.TopKeys(c.name, global, limit, nowUnix))
}

// RecordConfirmation bumps frecency for every entry's raw and appends the
// query to history, run once per confirmed selection.
func (c *Channel) RecordConfirmation(query string, entries []entry.Entry, nowUnix int64) {
	if c.frecencyStore != nil {
		for _, e := range entries {
			c.frecencyStore.Touch(e.Raw, c.name, nowUnix)
		}
	}
	if c.historyStore != nil {
		c.historyStore.Append(query, c.name, nowUnix)
	}
}

// TotalItemCount and MatchedItemCount expose the underlying matcher's
// counters, used for status-bar rendering and testable property 5.
func (c *Channel) TotalItemCount() int   { return c.engine.TotalItemCount() }
func (c *Channel) MatchedItemCount() int { return c.engine.MatchedItemCount() }

// Close tears the channel down: aborts the source runner and stops the
// matcher's background worker. Does not touch the selection set or the
// shared frecency/history stores.
func (c *Channel) Close() {
	if c.runner != nil {
		c.runner.Abort()
	}
	c.engine.Close()
}

// MissingRequirementsError lists the binaries from a Prototype's
// metadata.requirements that are not resolvable on PATH, returned by
// RemoteControl.Zap when a zap target can't actually run.
type MissingRequirementsError struct {
	Name    string
	Missing []string
}

func (e *MissingRequirementsError) Error() string {
	return fmt.Sprintf("channel %q is missing requirements: %v", e.Name, e.Missing)
}

// RemoteControl is a specialized channel whose candidate set is the
// enumerated list of Prototype names plus each one's description: fuzzy
// searching over channels instead of over one channel's entries. Its data
// is in-process, so it never fails its own source the way a Channel's
// shell-spawned source runner can.
type RemoteControl struct {
	protos map[string]*prototype.Prototype
	names  []string
}

// NewRemoteControl builds a RemoteControl over protos, keyed by prototype
// name.
func NewRemoteControl(protos map[string]*prototype.Prototype) *RemoteControl {
	names := make([]string, 0, len(protos))
	for name := range protos {
		names = append(names, name)
	}
	return &RemoteControl{protos: protos, names: names}
}

// Entries returns one candidate line per known prototype, "name\tdescription",
// suitable for feeding into a Channel-shaped matcher the orchestrator's
// RemoteControl overlay picker owns.
func (r *RemoteControl) Entries() []string {
	lines := make([]string, 0, len(r.names))
	for _, name := range r.names {
		p := r.protos[name]
		lines = append(lines, fmt.Sprintf("%s\t%s", name, p.Metadata.Description))
	}
	return lines
}

// Zap instantiates a Channel for the named prototype, or returns a
// MissingRequirementsError listing the unresolved binaries from its
// metadata.requirements. The orchestrator shows that error in its status
// line and stays on the previous channel.
func (r *RemoteControl) Zap(name string, cfg matcher.Config, frecencyStore *frecency.Store, historyStore *history.Store) (*Channel, error) {
	p, ok := r.protos[name]
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", name)
	}
	if missing := p.MissingRequirements(); len(missing) > 0 {
		return nil, &MissingRequirementsError{Name: name, Missing: missing}
	}
	return New(p, cfg, frecencyStore, historyStore), nil
}
