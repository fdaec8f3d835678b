package television

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kepler-cli/kepler/channel"
	"github.com/kepler-cli/kepler/cliopts"
	"github.com/kepler-cli/kepler/config"
	"github.com/kepler-cli/kepler/frecency"
	"github.com/kepler-cli/kepler/history"
	"github.com/kepler-cli/kepler/hub"
	"github.com/kepler-cli/kepler/internal/util"
	"github.com/kepler-cli/kepler/keymap"
	"github.com/kepler-cli/kepler/matcher"
	"github.com/kepler-cli/kepler/preview"
	"github.com/kepler-cli/kepler/prototype"
	"github.com/kepler-cli/kepler/query"
	"github.com/kepler-cli/kepler/ui"
)

// NoChannelError is returned by Setup when no prototype could be resolved:
// the cable directory is empty, or a requested channel name doesn't exist.
type NoChannelError struct {
	CableDir string
	Want     string
}

func (e *NoChannelError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("channel %q not found in %s", e.Want, e.CableDir)
	}
	return fmt.Sprintf("no prototypes found in %s", e.CableDir)
}

// Setup loads the ambient configuration, the cable directory's prototypes,
// the frecency/history stores, and instantiates the initial Channel, ready
// for Run. It follows peco's own Main() bootstrap order (config, then
// keymap, then source) generalized to ambient config -> cable dir ->
// RemoteControl -> frecency/history -> initial Channel.
func (t *Television) Setup(ctx context.Context) error {
	t.cfg = &config.Config{}
	if err := t.cfg.Init(); err != nil {
		return err
	}
	if err := t.loadAmbientConfig(); err != nil {
		return err
	}

	if err := t.resolveDirs(); err != nil {
		return err
	}

	protos, errs := prototype.LoadDir(t.cableDir)
	if len(protos) == 0 && len(errs) > 0 {
		return errs[0]
	}
	for _, err := range errs {
		fmt.Fprintln(t.stderr, err)
	}
	t.protos = protos
	t.remote = channel.NewRemoteControl(protos)

	frecencyStore, err := frecency.Open(filepath.Join(t.dataDir, "frecency.json"), frecency.DefaultCapacity)
	if err != nil {
		fmt.Fprintln(t.stderr, err)
	}
	t.frecencyStore = frecencyStore

	historyStore, err := history.Open(filepath.Join(t.dataDir, "history.json"), history.DefaultCapacity)
	if err != nil {
		fmt.Fprintln(t.stderr, err)
	}
	t.historyStore = historyStore

	t.matcherCfg = matcher.Config{
		IgnoreCase:         true,
		PreferPrefix:       true,
		MatchPaths:         true,
		PreferFrecentItems: true,
	}

	t.keybindings = keymap.New()
	t.installBaseKeybindings()

	name, err := t.resolveChannelName()
	if err != nil {
		return err
	}
	proto, ok := t.protos[name]
	if !ok {
		return &NoChannelError{CableDir: t.cableDir, Want: name}
	}
	proto = applyPrototypeOverrides(proto, t.opts)

	t.active = channel.New(proto, t.matcherCfg, t.frecencyStore, t.historyStore)
	t.keybindings.SetChannelBindings(keymapFromPrototype(proto))

	if proto.HasPreview() {
		t.previewExec = preview.NewExecutor(proto.Preview)
	}

	t.prompt = &query.Text{}
	t.caret = &query.Caret{}
	if t.opts.Input != "" {
		t.prompt.Set(t.opts.Input)
		t.caret.SetPos(len([]rune(t.opts.Input)))
	}

	t.hub = hub.New(32)
	t.screen = ui.NewTermbox()
	t.ctx = ctx

	t.active.Load(ctx)
	t.active.PriorityKeys(false, frecency.DefaultPriorityKeyLimit, nowUnix())
	t.active.Find(t.prompt.String())

	return nil
}

// resolveDirs fills in cableDir from --cable-dir, else
// $XDG_CONFIG_HOME/kepler/cable or ~/.config/kepler/cable, and dataDir from
// $XDG_DATA_HOME/kepler or ~/.local/share/kepler (created if missing).
func (t *Television) resolveDirs() error {
	if t.opts.CableDir != "" {
		t.cableDir = t.opts.CableDir
	} else {
		home, err := util.Homedir()
		if err != nil {
			return fmt.Errorf("resolving cable directory: %w", err)
		}
		if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
			t.cableDir = filepath.Join(dir, "kepler", "cable")
		} else {
			t.cableDir = filepath.Join(home, ".config", "kepler", "cable")
		}
	}

	home, err := util.Homedir()
	if err != nil {
		return fmt.Errorf("resolving data directory: %w", err)
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		t.dataDir = filepath.Join(dir, "kepler")
	} else {
		t.dataDir = filepath.Join(home, ".local", "share", "kepler")
	}
	return os.MkdirAll(t.dataDir, 0o755)
}

// loadAmbientConfig reads --config-file, or the first rcfile LocateRcfile
// finds, into t.cfg. A missing config file is not an error — Init's
// defaults stand.
func (t *Television) loadAmbientConfig() error {
	path := t.opts.ConfigFile
	if path == "" {
		var err error
		path, err = config.LocateRcfile(config.DefaultConfigLocator)
		if err != nil {
			return nil
		}
	}
	if err := t.cfg.ReadFilename(path); err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	return nil
}

// installBaseKeybindings seeds the global layer from the ambient config's
// legacy single-action Keymap table, then lays the built-in defaults
// underneath anything the user didn't already bind, then layers --keybindings
// CLI overrides on top of everything.
func (t *Television) installBaseKeybindings() {
	t.keybindings.MergeGlobalsWith(defaultGlobalKeybindings())

	for keyStr, action := range t.cfg.Keymap {
		k, err := keymap.Parse(keyStr)
		if err != nil {
			continue
		}
		t.keybindings.BindGlobal(k, []string{action})
	}

	if extra, err := t.opts.ParseKeybindingFlags(); err == nil {
		for keyStr, actions := range extra {
			k, err := keymap.Parse(keyStr)
			if err != nil {
				continue
			}
			t.keybindings.BindGlobal(k, actions)
		}
	}
}

// keymapFromPrototype parses a Prototype's [keybindings] table (string key
// -> action names) into the Key-keyed map SetChannelBindings consumes.
func keymapFromPrototype(p *prototype.Prototype) map[keymap.Key][]string {
	out := make(map[keymap.Key][]string, len(p.Keybindings))
	for keyStr, actions := range p.Keybindings {
		k, err := keymap.Parse(keyStr)
		if err != nil {
			continue
		}
		out[k] = actions
	}
	return out
}

// resolveChannelName picks the starting prototype name from (in order)
// --autocomplete-prompt, the positional CHANNEL argument, or else the
// alphabetically first loaded prototype (the only one, if exactly one
// exists).
func (t *Television) resolveChannelName() (string, error) {
	if t.opts.AutocompletePrompt != "" {
		if name := cliopts.AutocompleteChannel(t.opts.AutocompletePrompt); name != "" {
			return name, nil
		}
	}
	if t.opts.Positional.Channel != "" {
		return t.opts.Positional.Channel, nil
	}
	if len(t.protos) == 1 {
		for name := range t.protos {
			return name, nil
		}
	}
	names := make([]string, 0, len(t.protos))
	for name := range t.protos {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "", &NoChannelError{CableDir: t.cableDir}
	}
	return names[0], nil
}

// applyPrototypeOverrides returns a shallow copy of proto with the
// --source-command, --no-preview, --preview-command, --preview-size,
// --input-prompt, --input-header, --input-border and
// --results-max-selections flags applied on top, so ad-hoc one-off
// invocations never need a cable file at all. --source-display,
// --source-output, --preview-header, --preview-footer, --preview-border
// and --ui-scale are not applied.
func applyPrototypeOverrides(proto *prototype.Prototype, opts *cliopts.Options) *prototype.Prototype {
	clone := *proto

	if opts.SourceCommand != "" {
		clone.Source.Command = prototype.CommandSpec{
			Commands:    []string{opts.SourceCommand},
			Interactive: clone.Source.Command.Interactive,
			Env:         clone.Source.Command.Env,
		}
	}

	if opts.NoPreview {
		clone.Preview = nil
	} else if opts.PreviewCommand != "" {
		p := prototype.PreviewSpec{}
		if clone.Preview != nil {
			p = *clone.Preview
		}
		p.Command = prototype.CommandSpec{Commands: []string{opts.PreviewCommand}}
		clone.Preview = &p
	}

	if opts.PreviewSize > 0 {
		clone.Ui.PreviewPanel.Size = opts.PreviewSize
	}
	if opts.InputPrompt != "" {
		clone.Ui.InputBar.Prompt = opts.InputPrompt
	}
	if opts.InputHeader != "" {
		clone.Ui.InputBar.Header = opts.InputHeader
	}
	if opts.InputBorder != "" {
		clone.Ui.InputBar.BorderType = opts.InputBorder
	}
	if opts.ResultsMaxSelections > 0 {
		clone.Ui.ResultsPanel.MaxSelections = opts.ResultsMaxSelections
	}

	return &clone
}
