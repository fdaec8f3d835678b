package entry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kepler-cli/kepler/template"
)

type fakeInjector[D any] struct {
	data     D
	haystack string
	called   bool
}

func (f *fakeInjector[D]) Push(data D, haystack string) {
	f.data = data
	f.haystack = haystack
	f.called = true
}

func TestPlain_PushUsesLineVerbatim(t *testing.T) {
	inj := &fakeInjector[struct{}]{}
	Plain{}.Push("hello world", inj)
	require.True(t, inj.called)
	require.Equal(t, "hello world", inj.haystack)
}

func TestPlain_MakeEntry(t *testing.T) {
	item := MatchedItem[struct{}]{MatchedString: "hello world", MatchIndices: []MatchRange{{0, 5}}}
	e := Plain{}.MakeEntry(item, 3, nil)
	require.Equal(t, "hello world", e.Raw)
	require.Equal(t, "", e.Display)
	require.False(t, e.Ansi)
	require.Equal(t, 3, e.LineNumber)
}

func TestAnsi_PushStripsForMatching(t *testing.T) {
	inj := &fakeInjector[string]{}
	Ansi{}.Push("\x1b[31mred\x1b[0m", inj)
	require.True(t, inj.called)
	require.Equal(t, "\x1b[31mred\x1b[0m", inj.data)
	require.Equal(t, "red", inj.haystack)
}

func TestAnsi_MakeEntryKeepsOriginalAsRaw(t *testing.T) {
	item := MatchedItem[string]{Inner: "\x1b[31mred\x1b[0m", MatchedString: "red"}
	e := Ansi{}.MakeEntry(item, 0, nil)
	require.Equal(t, "\x1b[31mred\x1b[0m", e.Raw)
	require.Equal(t, "red", e.Display)
	require.True(t, e.Ansi)
}

func TestDisplay_PushRendersTemplate(t *testing.T) {
	tmpl, perr := template.Parse("{1}")
	require.NoError(t, perr)
	d := Display{Template: tmpl}
	inj := &fakeInjector[string]{}
	d.Push("one two three", inj)
	require.True(t, inj.called)
	require.Equal(t, "one two three", inj.data)
	require.Equal(t, "two", inj.haystack)
}

func TestDisplay_PushPanicsOnTemplateError(t *testing.T) {
	tmpl, err := template.Parse("{9}")
	require.NoError(t, err)
	d := Display{Template: tmpl}
	inj := &fakeInjector[string]{}
	require.Panics(t, func() {
		d.Push("only one field", inj)
	})
}

func TestEntry_KeyEquality(t *testing.T) {
	a := Entry{Raw: "same", LineNumber: 1}
	b := Entry{Raw: "same", LineNumber: 1}
	c := Entry{Raw: "same", LineNumber: 2}
	require.Equal(t, a.Key(), b.Key())
	require.NotEqual(t, a.Key(), c.Key())
}

func TestEntry_FormatOutputWithoutTemplate(t *testing.T) {
	e := Entry{Raw: "plain raw"}
	out, err := e.FormatOutput()
	require.NoError(t, err)
	require.Equal(t, "plain raw", out)
}

func TestEntry_FormatOutputWithTemplate(t *testing.T) {
	tmpl, err := template.Parse("{0:upper}")
	require.NoError(t, err)
	e := Entry{Raw: "hello world", Output: tmpl}
	out, err := e.FormatOutput()
	require.NoError(t, err)
	require.Equal(t, "HELLO", out)
}
