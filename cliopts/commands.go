package cliopts

import (
	"fmt"
	"io"
	"sort"

	"github.com/kepler-cli/kepler/prototype"
)

// ListChannelsCommand implements `kepler list-channels`: print every
// loadable prototype's name and description, one per line, so shell
// completion scripts and `--autocomplete-prompt` users can discover
// channels without reading TOML.
type ListChannelsCommand struct {
	CableDir string `long:"cable-dir" description:"directory of *.toml prototype files"`

	// Stdout is set by the caller (main) before Execute runs; Execute
	// returns an error when it is nil.
	Stdout io.Writer `no-flag:"true"`
}

// Execute loads every prototype from CableDir and writes "name\tdescription"
// lines to Stdout.
func (c *ListChannelsCommand) Execute(args []string) error {
	out := c.Stdout
	if out == nil {
		return fmt.Errorf("list-channels: no output writer configured")
	}
	protos, errs := prototype.LoadDir(c.CableDir)
	names := make([]string, 0, len(protos))
	for name := range protos {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := protos[name]
		fmt.Fprintf(out, "%s\t%s\n", p.Metadata.Name, p.Metadata.Description)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// InitCommand implements `kepler init <shell>`: print the shell snippet
// that wires up a keybinding to launch the remote control, the same
// pattern fzf's own `--bash`/`--zsh` output follows.
type InitCommand struct {
	Stdout io.Writer `no-flag:"true"`

	Args struct {
		Shell string `positional-arg-name:"shell"`
	} `positional-args:"yes" required:"1"`
}

var shellSnippets = map[string]string{
	"bash": `# Add to ~/.bashrc:
eval "$(kepler init bash --snippet)"`,
	"zsh": `# Add to ~/.zshrc:
eval "$(kepler init zsh --snippet)"`,
	"fish": `# Add to ~/.config/fish/config.fish:
kepler init fish --snippet | source`,
}

func (c *InitCommand) Execute(args []string) error {
	out := c.Stdout
	if out == nil {
		return fmt.Errorf("init: no output writer configured")
	}
	snippet, ok := shellSnippets[c.Args.Shell]
	if !ok {
		return fmt.Errorf("init: unsupported shell %q (want bash, zsh, or fish)", c.Args.Shell)
	}
	fmt.Fprintln(out, snippet)
	return nil
}
