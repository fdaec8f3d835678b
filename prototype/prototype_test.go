package prototype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[metadata]
name = "files"
description = "find files"
requirements = ["ls"]

[source]
command = "fd --type f"
interactive = false

[preview]
command = "bat --color=always {}"
offset = "{:split: :0}"

[ui.preview_panel]
size = 70
header = "{}"

[keybindings]
"ctrl-r" = "reload_source"
"ctrl-y" = ["copy_entry_to_clipboard"]

[actions.open_in_editor]
description = "open in $EDITOR"
command = "$EDITOR {}"
mode = "execute"
`

func TestParse_BasicPrototype(t *testing.T) {
	p, err := parse([]byte(sampleTOML))
	require.NoError(t, err)

	require.Equal(t, "files", p.Metadata.Name)
	require.Equal(t, []string{"ls"}, p.Metadata.Requirements)
	require.Equal(t, []string{"fd --type f"}, p.Source.Command.Commands)
	require.Equal(t, byte('\n'), p.Source.EntryDelimiter)
	require.True(t, p.HasPreview())
	require.Equal(t, 70, p.Ui.PreviewPanel.Size)
	require.Equal(t, []string{"reload_source"}, p.Keybindings["ctrl-r"])
	require.Equal(t, []string{"copy_entry_to_clipboard"}, p.Keybindings["ctrl-y"])
	require.Equal(t, "$EDITOR {}", p.Actions["open_in_editor"].Command)
}

func TestParse_MissingSourceCommandErrors(t *testing.T) {
	_, err := parse([]byte(`[metadata]
name = "bad"
`))
	require.Error(t, err)
}

func TestParse_CommandArrayCyclesViaCurrent(t *testing.T) {
	p, err := parse([]byte(`[source]
command = ["git log", "git diff"]
`))
	require.NoError(t, err)
	require.Equal(t, "git log", p.Source.Command.Current(0))
	require.Equal(t, "git diff", p.Source.Command.Current(1))
	require.Equal(t, "git log", p.Source.Command.Current(2))
}

func TestLoadDir_CollectsErrorsWithoutAbortingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.toml"), []byte(sampleTOML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.toml"), []byte(`not valid toml [[[`), 0o644))

	protos, errs := LoadDir(dir)
	require.Len(t, errs, 1)
	require.Contains(t, protos, "files")
}

func TestLoad_DefaultsNameFromFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my-channel.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[source]
command = "echo hi"
`), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "my-channel", p.Metadata.Name)
}

func TestMissingRequirements_FlagsUnresolvedBinary(t *testing.T) {
	p := &Prototype{Metadata: Metadata{Requirements: []string{"definitely-not-a-real-binary-xyz"}}}
	missing := p.MissingRequirements()
	require.Equal(t, []string{"definitely-not-a-real-binary-xyz"}, missing)
}

func TestMissingRequirements_EmptyWhenSatisfied(t *testing.T) {
	p := &Prototype{Metadata: Metadata{Requirements: []string{"ls"}}}
	require.Empty(t, p.MissingRequirements())
}
