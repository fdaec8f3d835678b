// Package prototype loads and represents the TOML prototype file format: a
// named, immutable description of one source/preview/keybinding
// configuration that a Channel is instantiated from.
//
// The TOML surface (metadata/source/preview/ui/keybindings/actions tables)
// is parsed with github.com/pelletier/go-toml/v2, the dependency this
// module carries specifically for this format (the ambient settings file
// next to it is JSON or YAML instead, for the concerns that stay out of the
// prototype format).
package prototype

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/kepler-cli/kepler/template"
)

// CommandSpec is an ordered, non-empty list of shell-command templates
// (cycle-capable via cycle_sources), plus whether to invoke them through an
// interactive shell (so aliases/functions resolve) and an environment map
// merged over the process environment.
type CommandSpec struct {
	Commands    []string
	Interactive bool
	Env         map[string]string
}

// Current returns the command template at idx, wrapped modulo len(Commands)
// so callers never need to range-check after CycleSources.
func (c CommandSpec) Current(idx int) string {
	if len(c.Commands) == 0 {
		return ""
	}
	return c.Commands[idx%len(c.Commands)]
}

// rawCommand is the TOML shape of a command field: either a bare string or
// an array of strings (cycle-capable).
type rawCommand struct {
	single string
	multi  []string
}

func (r *rawCommand) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		r.single = val
	case []any:
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("command array element must be a string, got %T", item)
			}
			r.multi = append(r.multi, s)
		}
	default:
		return fmt.Errorf("command must be a string or array of strings, got %T", v)
	}
	return nil
}

func (r rawCommand) commands() []string {
	if len(r.multi) > 0 {
		return r.multi
	}
	if r.single != "" {
		return []string{r.single}
	}
	return nil
}

// SourceSpec describes how a Channel's candidate source is produced.
type SourceSpec struct {
	Command        CommandSpec
	Display        *template.Template
	Output         *template.Template
	EntryDelimiter byte
	Ansi           bool
}

// PreviewSpec describes how a Channel renders a preview for its selection.
type PreviewSpec struct {
	Command CommandSpec
	Offset  *template.Template
	Header  *template.Template
	Footer  *template.Template
}

// HasPreview reports whether a Prototype carries a usable preview command.
func (p *Prototype) HasPreview() bool {
	return p.Preview != nil && len(p.Preview.Command.Commands) > 0
}

// UiSpec carries layout hints for the preview panel, input bar, and results
// panel. None of these affect matching or source semantics; they are data
// the rendering layer (an external collaborator) consumes as-is.
type UiSpec struct {
	PreviewPanel struct {
		Header *template.Template
		Footer *template.Template
		Size   int
	}
	InputBar struct {
		Prompt     string
		Header     string
		BorderType string
	}
	ResultsPanel struct {
		BorderType    string
		MaxSelections int
	}
}

// ActionSpec is a user-defined action referenced from keybindings as
// "actions:<name>": running Command (templated against the selected
// Entry's raw). With Mode "exit" the finder exits with the command's
// captured output; with any other Mode the output is discarded and the
// results list stays open.
type ActionSpec struct {
	Description string
	Command     string
	Mode        string
	Env         map[string]string
}

// Metadata identifies a Prototype and its binary requirements.
type Metadata struct {
	Name         string
	Description  string
	Requirements []string
}

// Prototype is one immutable, loaded channel definition.
type Prototype struct {
	Metadata    Metadata
	Source      SourceSpec
	Preview     *PreviewSpec
	Ui          UiSpec
	Keybindings map[string][]string
	Actions     map[string]ActionSpec
}

// tomlDoc mirrors the TOML surface documented in SPEC_FULL.md §6.1. Parsed
// first into this loosely-typed shape, then translated into Prototype so
// CommandSpec's string-or-array quirk and Template parsing stay isolated
// from the public type.
type tomlDoc struct {
	Metadata struct {
		Name         string
		Description  string
		Requirements []string
	}
	Source struct {
		Command        rawCommand
		Interactive    bool
		Env            map[string]string
		Display        string
		Output         string
		EntryDelimiter string `toml:"entry_delimiter"`
		Ansi           bool
	}
	Preview struct {
		Command     rawCommand
		Offset      string
		Interactive bool
		Env         map[string]string
	}
	Ui struct {
		PreviewPanel struct {
			Header string
			Footer string
			Size   int
		} `toml:"preview_panel"`
		InputBar struct {
			Prompt     string
			Header     string
			BorderType string `toml:"border_type"`
		} `toml:"input_bar"`
		ResultsPanel struct {
			BorderType    string `toml:"border_type"`
			MaxSelections int    `toml:"max_selections"`
		} `toml:"results_panel"`
	}
	Keybindings map[string]rawCommand
	Actions     map[string]struct {
		Description string
		Command     string
		Mode        string
		Env         map[string]string
	}
}

// LoadError wraps a parse or semantic-validation failure for a single
// prototype file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("loading prototype %s: %s", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Load parses one TOML prototype file.
func Load(path string) (*Prototype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	p, err := parse(data)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if p.Metadata.Name == "" {
		p.Metadata.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// LoadDir loads every *.toml file directly under dir (the "cable"
// directory), keyed by prototype name. A single malformed file does not
// abort the whole directory; its error is collected and returned alongside
// whatever prototypes did load, so a typo in one cable doesn't take the
// whole fleet down.
func LoadDir(dir string) (map[string]*Prototype, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{err}
	}

	protos := make(map[string]*Prototype)
	var errs []error
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".toml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		p, err := Load(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		protos[p.Metadata.Name] = p
	}
	return protos, errs
}

func parse(data []byte) (*Prototype, error) {
	var doc tomlDoc
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	p := &Prototype{
		Metadata: Metadata{
			Name:         doc.Metadata.Name,
			Description:  doc.Metadata.Description,
			Requirements: doc.Metadata.Requirements,
		},
		Keybindings: make(map[string][]string),
		Actions:     make(map[string]ActionSpec),
	}

	srcCommands := doc.Source.Command.commands()
	if len(srcCommands) == 0 {
		return nil, fmt.Errorf("[source].command is required")
	}
	p.Source = SourceSpec{
		Command: CommandSpec{
			Commands:    srcCommands,
			Interactive: doc.Source.Interactive,
			Env:         doc.Source.Env,
		},
		Ansi: doc.Source.Ansi,
	}
	if d := doc.Source.EntryDelimiter; d != "" {
		p.Source.EntryDelimiter = d[0]
	} else {
		p.Source.EntryDelimiter = '\n'
	}
	if doc.Source.Display != "" {
		t, err := template.Parse(doc.Source.Display)
		if err != nil {
			return nil, fmt.Errorf("[source].display: %w", err)
		}
		p.Source.Display = t
	}
	if doc.Source.Output != "" {
		t, err := template.Parse(doc.Source.Output)
		if err != nil {
			return nil, fmt.Errorf("[source].output: %w", err)
		}
		p.Source.Output = t
	}

	if previewCommands := doc.Preview.Command.commands(); len(previewCommands) > 0 {
		prev := &PreviewSpec{
			Command: CommandSpec{
				Commands:    previewCommands,
				Interactive: doc.Preview.Interactive,
				Env:         doc.Preview.Env,
			},
		}
		if doc.Preview.Offset != "" {
			t, err := template.Parse(doc.Preview.Offset)
			if err != nil {
				return nil, fmt.Errorf("[preview].offset: %w", err)
			}
			prev.Offset = t
		}
		p.Preview = prev
	}

	p.Ui.PreviewPanel.Size = doc.Ui.PreviewPanel.Size
	if doc.Ui.PreviewPanel.Header != "" {
		t, err := template.Parse(doc.Ui.PreviewPanel.Header)
		if err != nil {
			return nil, fmt.Errorf("[ui.preview_panel].header: %w", err)
		}
		p.Ui.PreviewPanel.Header = t
	}
	if doc.Ui.PreviewPanel.Footer != "" {
		t, err := template.Parse(doc.Ui.PreviewPanel.Footer)
		if err != nil {
			return nil, fmt.Errorf("[ui.preview_panel].footer: %w", err)
		}
		p.Ui.PreviewPanel.Footer = t
	}
	p.Ui.InputBar.Prompt = doc.Ui.InputBar.Prompt
	p.Ui.InputBar.Header = doc.Ui.InputBar.Header
	p.Ui.InputBar.BorderType = doc.Ui.InputBar.BorderType
	p.Ui.ResultsPanel.BorderType = doc.Ui.ResultsPanel.BorderType
	p.Ui.ResultsPanel.MaxSelections = doc.Ui.ResultsPanel.MaxSelections

	for key, actions := range doc.Keybindings {
		cmds := actions.commands()
		if len(cmds) == 0 {
			return nil, fmt.Errorf("[keybindings] %q has no action", key)
		}
		p.Keybindings[key] = cmds
	}

	for name, a := range doc.Actions {
		p.Actions[name] = ActionSpec{
			Description: a.Description,
			Command:     a.Command,
			Mode:        a.Mode,
			Env:         a.Env,
		}
	}

	return p, nil
}

// requirementCache memoizes PATH lookups for binary requirements, so
// checking the same requirement across many prototypes (or repeated
// zap attempts onto the same channel) costs one exec.LookPath per binary.
var requirementCache sync.Map // map[string]bool

func binaryOnPath(name string) bool {
	if v, ok := requirementCache.Load(name); ok {
		return v.(bool)
	}
	_, err := exec.LookPath(name)
	ok := err == nil
	requirementCache.Store(name, ok)
	return ok
}

// MissingRequirements returns the subset of p's metadata.requirements that
// do not resolve on PATH. An empty, non-nil-checked result means p is a
// good candidate.
func (p *Prototype) MissingRequirements() []string {
	var missing []string
	for _, req := range p.Metadata.Requirements {
		if !binaryOnPath(req) {
			missing = append(missing, req)
		}
	}
	return missing
}
