package television

import (
	"bytes"
	"context"

	"github.com/kepler-cli/kepler/internal/util"
	"github.com/kepler-cli/kepler/template"
)

// templateParse parses a Prototype action's command string as a template
// against the current entry's raw line, the same {0}/{}-style substitution
// prototype.SourceSpec and PreviewSpec commands already use.
func templateParse(raw string) (*template.Template, error) {
	return template.Parse(raw)
}

// runShellCaptured runs cmdText under the user's shell and returns combined
// stdout+stderr, trimmed of nothing — custom actions decide for themselves
// whether trailing whitespace matters.
func runShellCaptured(ctx context.Context, cmdText string) (string, error) {
	cmd := util.ShellInteractive(ctx, cmdText)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.String(), err
	}
	return buf.String(), nil
}
