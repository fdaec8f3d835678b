// Package cliopts defines the command-line surface: per-field overrides
// for a Prototype's source/preview/ui tables, the three mutually exclusive
// "pick one and exit" selection modes, and the list-channels/init
// subcommands, parsed with github.com/jessevdk/go-flags in the shape of
// peco's own cli.go/options.go (struct tags plus a Validate() run before
// any TUI is drawn).
package cliopts

import (
	"strings"
)

// DefaultTickRate is the matcher/render loop's polling frequency in Hz when
// --tick-rate is not given.
const DefaultTickRate = 50

// Options is the full parsed command line. Positional holds the optional
// CHANNEL/PATH arguments.
type Options struct {
	SourceCommand string `long:"source-command" description:"override the channel's [source].command"`
	SourceDisplay string `long:"source-display" description:"[source].display template override; parsed but not applied"`
	SourceOutput  string `long:"source-output" description:"[source].output template override; parsed but not applied"`

	PreviewCommand string `long:"preview-command" description:"override the channel's [preview].command"`
	PreviewHeader  string `long:"preview-header" description:"[ui.preview_panel].header override; only checked by Validate, not applied"`
	PreviewFooter  string `long:"preview-footer" description:"[ui.preview_panel].footer override; only checked by Validate, not applied"`
	PreviewSize    int    `long:"preview-size" description:"override the channel's [ui.preview_panel].size"`
	PreviewBorder  string `long:"preview-border" description:"preview panel border type; parsed but not applied"`
	NoPreview      bool   `long:"no-preview" description:"disable the preview panel regardless of the channel's prototype"`

	InputPrompt string `long:"input-prompt" description:"override the channel's [ui.input_bar].prompt"`
	InputHeader string `long:"input-header" description:"override the channel's [ui.input_bar].header"`
	InputBorder string `long:"input-border" description:"override the channel's [ui.input_bar].border_type"`

	UiScale int `long:"ui-scale" description:"percentage scale for the preview/results panel split; parsed but not applied"`

	Keybindings map[string]string `long:"keybindings" description:"additional \"key=action[,action...]\" global bindings, repeatable"`
	Expect      string            `long:"expect" description:"a key that, if it terminates the session, is reported on stdout before the selection"`
	Input       string            `long:"input" description:"prefill the query with this pattern"`
	Exact       bool              `long:"exact" description:"accepted but not applied: matching stays fuzzy, there is no exact-substring mode"`

	Select1   bool `long:"select-1" description:"if exactly one entry matches once the source is exhausted, select it automatically"`
	Take1     bool `long:"take-1" description:"take the first entry once the source is exhausted and exit, without drawing a TUI"`
	Take1Fast bool `long:"take-1-fast" description:"take the first entry as soon as one arrives and exit, without waiting for the source to finish"`

	AutocompletePrompt string `long:"autocomplete-prompt" description:"parse CMDLINE's first token and pick the matching prototype"`

	CableDir             string `long:"cable-dir" description:"directory of *.toml prototype files (default: $XDG_CONFIG_HOME/kepler/cable, else ~/.config/kepler/cable)"`
	ConfigFile           string `long:"config-file" description:"path to the ambient settings file"`
	Watch                int    `long:"watch" description:"seconds between source re-runs; validated (non-negative, exclusive with the selection modes) but the source is not re-run"`
	ResultsMaxSelections int    `long:"results-max-selections" description:"override the channel's [ui.results_panel].max_selections"`
	TickRate             int    `long:"tick-rate" default:"50" description:"matcher/render loop polling frequency, in Hz"`
	NoRemote             bool   `long:"no-remote" description:"disable the remote control (channel switcher) overlay"`

	Positional struct {
		Channel string `positional-arg-name:"channel" description:"prototype name to start on"`
		Path    string `positional-arg-name:"path" description:"a filesystem path; parsed but not used (a single positional is always taken as CHANNEL)"`
	} `positional-args:"yes"`

	ListChannels ListChannelsCommand `command:"list-channels" description:"print the name and description of every loadable prototype"`
	Init         InitCommand         `command:"init" description:"print a shell snippet that wires up keybindings/completions for the named shell"`
}

// ValidationError reports a CLI dependency error: a flag combination the
// parser accepts syntactically but the orchestrator cannot act on.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validate enforces the cross-flag dependency rules spec.md §6 calls out,
// so they are caught before any TUI is drawn rather than surfacing as a
// confusing runtime condition.
func (o *Options) Validate() error {
	selectionModes := 0
	for _, set := range []bool{o.Select1, o.Take1, o.Take1Fast} {
		if set {
			selectionModes++
		}
	}
	if selectionModes > 1 {
		return &ValidationError{Msg: "--select-1, --take-1, and --take-1-fast are mutually exclusive"}
	}
	if selectionModes > 0 && o.Watch > 0 {
		return &ValidationError{Msg: "--watch is mutually exclusive with --select-1/--take-1/--take-1-fast"}
	}

	if o.AutocompletePrompt != "" && o.Positional.Channel != "" {
		return &ValidationError{Msg: "--autocomplete-prompt is mutually exclusive with a positional CHANNEL"}
	}

	adHoc := o.SourceCommand != ""
	if adHoc && o.PreviewCommand == "" {
		if o.PreviewHeader != "" || o.PreviewFooter != "" {
			return &ValidationError{Msg: "--preview-header/--preview-footer require --preview-command in ad-hoc mode"}
		}
	}

	if o.Watch < 0 {
		return &ValidationError{Msg: "--watch must be a non-negative number of seconds"}
	}
	if o.TickRate <= 0 {
		return &ValidationError{Msg: "--tick-rate must be positive"}
	}
	if o.ResultsMaxSelections < 0 {
		return &ValidationError{Msg: "--results-max-selections must be non-negative"}
	}

	return nil
}

// ParseKeybindingFlags turns the repeatable --keybindings "key=action[,action]"
// flag values into the map[string][]string shape Prototype.Keybindings uses,
// so the same merge path (keymap.Keybindings.MergeGlobalsWith) handles both
// a prototype's [keybindings] table and these CLI overrides.
func (o *Options) ParseKeybindingFlags() (map[string][]string, error) {
	out := make(map[string][]string, len(o.Keybindings))
	for key, actions := range o.Keybindings {
		if key == "" {
			return nil, &ValidationError{Msg: "--keybindings entry has an empty key"}
		}
		split := strings.Split(actions, ",")
		for i := range split {
			split[i] = strings.TrimSpace(split[i])
		}
		out[key] = split
	}
	return out, nil
}

// AutocompleteChannel extracts the channel-selecting token from a
// --autocomplete-prompt command line: its first non-trivial (non-flag,
// non-empty) whitespace-separated token.
func AutocompleteChannel(cmdline string) string {
	for _, tok := range strings.Fields(cmdline) {
		if tok == "" || strings.HasPrefix(tok, "-") {
			continue
		}
		return tok
	}
	return ""
}
