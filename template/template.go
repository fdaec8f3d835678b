// Package template implements kepler's placeholder expression language,
// the small string-transform mini-language used by prototype source,
// display, output, and preview fields.
//
// Follows the same single-forward-scan shape as the ANSI escape parser in
// internal/ansi: a scan producing a sequence of literal and placeholder
// sections, followed by a separate evaluation phase over parsed sections.
package template

import (
	"strconv"
	"strings"

	"github.com/kepler-cli/kepler/internal/ansi"
)

func stripAnsi(s string) string { return ansi.Strip(s) }

// Mode controls how a Template with more than one candidate input expands.
type Mode int

const (
	// Single evaluates every placeholder against inputs[0] only.
	Single Mode = iota
	// Concatenate joins all inputs with Separator and evaluates every
	// placeholder against the joined string.
	Concatenate
	// OneToOne evaluates the i-th template section (in textual order)
	// against inputs[i]; extra inputs are dropped, missing inputs render
	// their section empty.
	OneToOne
)

// ErrorKind classifies a TemplateError.
type ErrorKind int

const (
	InvalidSyntax ErrorKind = iota
	UnknownOp
	IndexOutOfRange
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidSyntax:
		return "invalid syntax"
	case UnknownOp:
		return "unknown op"
	case IndexOutOfRange:
		return "index out of range"
	default:
		return "unknown error"
	}
}

// TemplateError is returned by Parse and Format/FormatMulti.
type TemplateError struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *TemplateError) Error() string {
	if e.err != nil {
		return e.Kind.String() + ": " + e.msg + ": " + e.err.Error()
	}
	return e.Kind.String() + ": " + e.msg
}

func (e *TemplateError) Cause() error { return e.err }
func (e *TemplateError) Unwrap() error { return e.err }

func newError(kind ErrorKind, msg string) *TemplateError {
	return &TemplateError{Kind: kind, msg: msg}
}

// accessor selects which slice of the split input a placeholder addresses.
type accessorKind int

const (
	accessorWhole accessorKind = iota // {}
	accessorIndex                     // {n}
	accessorRange                     // {a..b}
)

type accessor struct {
	kind       accessorKind
	index      int
	rangeStart int
	rangeEnd   int
}

type opCall struct {
	name string
	arg  string
}

// section is either a literal run of text or a parsed placeholder.
type section struct {
	literal     string
	isLiteral   bool
	accessor    accessor
	ops         []opCall
	placeholder string // original {...} text, for error messages
}

// Template is a parsed placeholder expression, ready to be formatted
// against one or more candidate inputs.
type Template struct {
	raw           string
	sections      []section
	delimiter     byte
	mode          Mode
	separator     string
	shellEscaping bool
}

// Option configures a Template at parse time.
type Option func(*Template)

// WithDelimiter sets the byte the input is split on for indexed and
// ranged placeholders. Defaults to a single space.
func WithDelimiter(d byte) Option {
	return func(t *Template) { t.delimiter = d }
}

// WithMode sets the multi-input expansion mode. Defaults to Single.
func WithMode(m Mode) Option {
	return func(t *Template) { t.mode = m }
}

// WithSeparator sets the join separator used by Concatenate mode.
// Defaults to a single space.
func WithSeparator(sep string) Option {
	return func(t *Template) { t.separator = sep }
}

// WithShellEscaping enables POSIX shell quoting of every placeholder's
// rendered value.
func WithShellEscaping() Option {
	return func(t *Template) { t.shellEscaping = true }
}

// Parse parses raw into a Template. Parsing fails with InvalidSyntax on
// unbalanced braces or a malformed range, and with UnknownOp on an
// unrecognized op name.
func Parse(raw string, opts ...Option) (*Template, error) {
	t := &Template{
		raw:       raw,
		delimiter: ' ',
		mode:      Single,
		separator: " ",
	}
	for _, opt := range opts {
		opt(t)
	}

	var sections []section
	var lit strings.Builder

	flushLiteral := func() {
		if lit.Len() > 0 {
			sections = append(sections, section{literal: lit.String(), isLiteral: true})
			lit.Reset()
		}
	}

	runes := []rune(raw)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch c {
		case '{':
			end := indexRune(runes, i+1, '}')
			if end < 0 {
				return nil, newError(InvalidSyntax, "unbalanced '{' in "+raw)
			}
			body := string(runes[i+1 : end])
			sec, err := parsePlaceholder(body)
			if err != nil {
				return nil, err
			}
			flushLiteral()
			sections = append(sections, sec)
			i = end + 1
		case '}':
			return nil, newError(InvalidSyntax, "unbalanced '}' in "+raw)
		default:
			lit.WriteRune(c)
			i++
		}
	}
	flushLiteral()

	t.sections = sections
	return t, nil
}

func indexRune(runes []rune, from int, target rune) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == target {
			return i
		}
	}
	return -1
}

// parsePlaceholder parses the body of a {...} expression: an optional
// leading index-or-range, followed by zero or more ":op[:arg]" chains.
func parsePlaceholder(body string) (section, error) {
	sec := section{placeholder: "{" + body + "}"}

	parts := strings.Split(body, ":")
	head := parts[0]

	acc, err := parseAccessor(head)
	if err != nil {
		return section{}, err
	}
	sec.accessor = acc

	rest := parts[1:]
	for len(rest) > 0 {
		name := rest[0]
		if !isKnownOp(name) {
			return section{}, newError(UnknownOp, "unknown op "+name+" in "+sec.placeholder)
		}
		switch name {
		case opSplit:
			if len(rest) < 3 {
				return section{}, newError(InvalidSyntax, "split requires :sep:idx in "+sec.placeholder)
			}
			sec.ops = append(sec.ops, opCall{name: name, arg: rest[1] + ":" + rest[2]})
			rest = rest[3:]
		case opAppend, opPrepend:
			if len(rest) < 2 {
				return section{}, newError(InvalidSyntax, name+" requires an argument in "+sec.placeholder)
			}
			sec.ops = append(sec.ops, opCall{name: name, arg: rest[1]})
			rest = rest[2:]
		default:
			sec.ops = append(sec.ops, opCall{name: name})
			rest = rest[1:]
		}
	}
	return sec, nil
}

func parseAccessor(head string) (accessor, error) {
	if head == "" {
		return accessor{kind: accessorWhole}, nil
	}
	if strings.Contains(head, "..") {
		bounds := strings.SplitN(head, "..", 2)
		a, errA := strconv.Atoi(bounds[0])
		b, errB := strconv.Atoi(bounds[1])
		if errA != nil || errB != nil {
			return accessor{}, newError(InvalidSyntax, "malformed range {"+head+"}")
		}
		return accessor{kind: accessorRange, rangeStart: a, rangeEnd: b}, nil
	}
	n, err := strconv.Atoi(head)
	if err != nil {
		return accessor{}, newError(InvalidSyntax, "malformed placeholder {"+head+"}")
	}
	return accessor{kind: accessorIndex, index: n}, nil
}

const (
	opUpper     = "upper"
	opLower     = "lower"
	opTrim      = "trim"
	opStripAnsi = "strip_ansi"
	opSplit     = "split"
	opAppend    = "append"
	opPrepend   = "prepend"
)

func isKnownOp(name string) bool {
	switch name {
	case opUpper, opLower, opTrim, opStripAnsi, opSplit, opAppend, opPrepend:
		return true
	default:
		return false
	}
}

// Format renders the template against a single input.
func (t *Template) Format(input string) (string, error) {
	return t.render([]string{input})
}

// FormatMulti renders the template against multiple candidate inputs,
// honoring the Template's configured Mode.
func (t *Template) FormatMulti(inputs []string) (string, error) {
	return t.render(inputs)
}

func (t *Template) render(inputs []string) (string, error) {
	var out strings.Builder
	switch t.mode {
	case Concatenate:
		joined := strings.Join(inputs, t.separator)
		for _, sec := range t.sections {
			s, err := t.renderSection(sec, joined)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		}
	case OneToOne:
		idx := 0
		for _, sec := range t.sections {
			if sec.isLiteral {
				out.WriteString(sec.literal)
				continue
			}
			var in string
			if idx < len(inputs) {
				in = inputs[idx]
			}
			idx++
			s, err := t.renderSection(sec, in)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		}
	default: // Single
		var in string
		if len(inputs) > 0 {
			in = inputs[0]
		}
		for _, sec := range t.sections {
			s, err := t.renderSection(sec, in)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
		}
	}
	return out.String(), nil
}

func (t *Template) renderSection(sec section, input string) (string, error) {
	if sec.isLiteral {
		return sec.literal, nil
	}

	fields := strings.Split(input, string(t.delimiter))

	var value string
	switch sec.accessor.kind {
	case accessorWhole:
		value = input
	case accessorIndex:
		idx := sec.accessor.index
		if idx < 0 || idx >= len(fields) {
			return "", newError(IndexOutOfRange, sec.placeholder+" against "+strconv.Quote(input))
		}
		value = fields[idx]
	case accessorRange:
		a, b := sec.accessor.rangeStart, sec.accessor.rangeEnd
		if a < 0 || b > len(fields) || a > b {
			return "", newError(IndexOutOfRange, sec.placeholder+" against "+strconv.Quote(input))
		}
		value = strings.Join(fields[a:b], string(t.delimiter))
	}

	for _, op := range sec.ops {
		var err error
		value, err = applyOp(op, value, sec.placeholder)
		if err != nil {
			return "", err
		}
	}

	if t.shellEscaping {
		value = shellQuote(value)
	}
	return value, nil
}

func applyOp(op opCall, value, placeholder string) (string, error) {
	switch op.name {
	case opUpper:
		return strings.ToUpper(value), nil
	case opLower:
		return strings.ToLower(value), nil
	case opTrim:
		return strings.TrimSpace(value), nil
	case opStripAnsi:
		return stripAnsi(value), nil
	case opAppend:
		return value + op.arg, nil
	case opPrepend:
		return op.arg + value, nil
	case opSplit:
		sepAndIdx := strings.SplitN(op.arg, ":", 2)
		if len(sepAndIdx) != 2 {
			return "", newError(InvalidSyntax, "malformed split arg in "+placeholder)
		}
		sep, idxStr := sepAndIdx[0], sepAndIdx[1]
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return "", newError(InvalidSyntax, "malformed split index in "+placeholder)
		}
		parts := strings.Split(value, sep)
		if idx < 0 || idx >= len(parts) {
			return "", newError(IndexOutOfRange, placeholder+" split index out of range")
		}
		return parts[idx], nil
	default:
		return "", newError(UnknownOp, "unknown op "+op.name+" in "+placeholder)
	}
}

// shellQuote wraps s in single quotes, escaping any embedded single quote
// the POSIX way: close, escaped quote, reopen.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// String returns the template's original raw text.
func (t *Template) String() string { return t.raw }
