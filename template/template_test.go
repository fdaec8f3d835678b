package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Literal(t *testing.T) {
	tpl, err := Parse("hello world")
	require.NoError(t, err)
	out, err := tpl.Format("ignored")
	require.NoError(t, err)
	require.Equal(t, "hello world", out)
}

func TestParse_Whole(t *testing.T) {
	tpl, err := Parse("[{}]")
	require.NoError(t, err)
	out, err := tpl.Format("abc")
	require.NoError(t, err)
	require.Equal(t, "[abc]", out)
}

func TestParse_Index(t *testing.T) {
	tpl, err := Parse("{1}")
	require.NoError(t, err)
	out, err := tpl.Format("one two three")
	require.NoError(t, err)
	require.Equal(t, "two", out)
}

func TestParse_Range(t *testing.T) {
	tpl, err := Parse("{0..2}")
	require.NoError(t, err)
	out, err := tpl.Format("one two three")
	require.NoError(t, err)
	require.Equal(t, "one two", out)
}

func TestParse_IndexOutOfRange(t *testing.T) {
	tpl, err := Parse("{5}")
	require.NoError(t, err)
	_, err = tpl.Format("one two")
	require.Error(t, err)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, IndexOutOfRange, terr.Kind)
}

func TestParse_UnbalancedBrace(t *testing.T) {
	_, err := Parse("{upper")
	require.Error(t, err)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, InvalidSyntax, terr.Kind)
}

func TestParse_UnknownOp(t *testing.T) {
	_, err := Parse("{:frobnicate}")
	require.Error(t, err)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, UnknownOp, terr.Kind)
}

func TestOps_UpperLowerTrim(t *testing.T) {
	tpl, err := Parse("{:upper}")
	require.NoError(t, err)
	out, err := tpl.Format("shout")
	require.NoError(t, err)
	require.Equal(t, "SHOUT", out)

	tpl, err = Parse("{:lower}")
	require.NoError(t, err)
	out, err = tpl.Format("WHISPER")
	require.NoError(t, err)
	require.Equal(t, "whisper", out)

	tpl, err = Parse("{:trim}")
	require.NoError(t, err)
	out, err = tpl.Format("  padded  ")
	require.NoError(t, err)
	require.Equal(t, "padded", out)
}

func TestOps_StripAnsi(t *testing.T) {
	tpl, err := Parse("{:strip_ansi}")
	require.NoError(t, err)
	out, err := tpl.Format("\x1b[31mred\x1b[0m")
	require.NoError(t, err)
	require.Equal(t, "red", out)
}

func TestOps_Split(t *testing.T) {
	tpl, err := Parse("{:split:,:1}")
	require.NoError(t, err)
	out, err := tpl.Format("a,b,c")
	require.NoError(t, err)
	require.Equal(t, "b", out)
}

func TestOps_SplitOutOfRange(t *testing.T) {
	tpl, err := Parse("{:split:,:5}")
	require.NoError(t, err)
	_, err = tpl.Format("a,b,c")
	require.Error(t, err)
	var terr *TemplateError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, IndexOutOfRange, terr.Kind)
}

func TestOps_AppendPrepend(t *testing.T) {
	tpl, err := Parse("{:append:.log}")
	require.NoError(t, err)
	out, err := tpl.Format("stdout")
	require.NoError(t, err)
	require.Equal(t, "stdout.log", out)

	tpl, err = Parse("{:prepend:/var/log/}")
	require.NoError(t, err)
	out, err = tpl.Format("syslog")
	require.NoError(t, err)
	require.Equal(t, "/var/log/syslog", out)
}

func TestOps_Chained(t *testing.T) {
	tpl, err := Parse("{0:upper:append:!}")
	require.NoError(t, err)
	out, err := tpl.Format("hi there")
	require.NoError(t, err)
	require.Equal(t, "HI!", out)
}

func TestDelimiter_Custom(t *testing.T) {
	tpl, err := Parse("{1}", WithDelimiter(':'))
	require.NoError(t, err)
	out, err := tpl.Format("a:b:c")
	require.NoError(t, err)
	require.Equal(t, "b", out)
}

func TestMode_Single(t *testing.T) {
	tpl, err := Parse("{}", WithMode(Single))
	require.NoError(t, err)
	out, err := tpl.FormatMulti([]string{"first", "second"})
	require.NoError(t, err)
	require.Equal(t, "first", out)
}

func TestMode_Concatenate(t *testing.T) {
	tpl, err := Parse("{}", WithMode(Concatenate), WithSeparator(" + "))
	require.NoError(t, err)
	out, err := tpl.FormatMulti([]string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "a + b", out)
}

func TestMode_OneToOneExtraSectionsRenderEmpty(t *testing.T) {
	tpl, err := Parse("{}-{}", WithMode(OneToOne))
	require.NoError(t, err)
	out, err := tpl.FormatMulti([]string{"only"})
	require.NoError(t, err)
	require.Equal(t, "only-", out)
}

func TestMode_OneToOneExtraInputsDropped(t *testing.T) {
	tpl, err := Parse("{}", WithMode(OneToOne))
	require.NoError(t, err)
	out, err := tpl.FormatMulti([]string{"first", "second", "third"})
	require.NoError(t, err)
	require.Equal(t, "first", out)
}

func TestShellEscaping_QuotesEmbeddedSingleQuote(t *testing.T) {
	tpl, err := Parse("{}", WithShellEscaping())
	require.NoError(t, err)
	out, err := tpl.Format("it's here")
	require.NoError(t, err)
	require.Equal(t, `'it'\''s here'`, out)
}

func TestFormat_DeterministicAndPure(t *testing.T) {
	tpl, err := Parse("{0:upper} and {1:lower}")
	require.NoError(t, err)
	a, err := tpl.Format("Foo Bar")
	require.NoError(t, err)
	b, err := tpl.Format("Foo Bar")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, "FOO and bar", a)
}
