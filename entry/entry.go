// Package entry defines the Entry value type and the three EntryProcessor
// ingest strategies (Plain, Ansi, Display) that turn raw source lines into
// matcher payloads and, later, into displayable/returnable Entry values.
//
// The line package's Line interface separates a "raw" value from a
// "displayed" value and carries ANSI attribute spans the same way Ansi
// here does; the three-way split (Plain/Ansi/Display) generalizes that
// single Raw/WithAnsi split into a third, template-driven variant.
package entry

import (
	"fmt"

	"github.com/kepler-cli/kepler/internal/ansi"
	"github.com/kepler-cli/kepler/template"
)

// MatchRange is a byte-offset [Start, End) pair into an Entry's
// MatchedString, identifying one contiguous fuzzy-match run.
type MatchRange struct {
	Start int
	End   int
}

// Entry is the unit of selection: a candidate line plus enough metadata to
// render it, match against frecency, and format it for confirmation output.
//
// Two Entries are equal iff their Raw and LineNumber are equal; Key returns
// a value suitable for that comparison and for use as a map key.
type Entry struct {
	Raw           string
	Display       string
	Ansi          bool
	Output        *template.Template
	LineNumber    int
	MatchedString string
	MatchIndices  []MatchRange
}

// Key identifies an Entry for equality, selection-set membership, and
// frecency/preview-cache lookups.
type Key struct {
	Raw        string
	LineNumber int
}

// Key returns e's identity key.
func (e Entry) Key() Key {
	return Key{Raw: e.Raw, LineNumber: e.LineNumber}
}

// FormatOutput renders e's Output template against e.Raw, or returns Raw
// unchanged if no output template was configured.
func (e Entry) FormatOutput() (string, error) {
	if e.Output == nil {
		return e.Raw, nil
	}
	return e.Output.Format(e.Raw)
}

// MatchedItem is produced by the matcher on snapshot. Inner is the
// per-processor payload (see Processor); MatchedString is the string the
// matcher scored against; MatchIndices are the fuzzy-match runs within it.
type MatchedItem[D any] struct {
	Inner         D
	MatchedString string
	MatchIndices  []MatchRange
}

// Injector pushes raw items into the matcher from any goroutine. Satisfied
// by matcher.Injector[D]; declared here so Processor implementations don't
// import the matcher package (which itself imports entry).
type Injector[D any] interface {
	Push(data D, haystack string)
}

// Processor is an ingest strategy: it decides how a raw source line is
// inserted into the matcher (Push) and how a matched item becomes a
// displayable Entry (MakeEntry).
type Processor[D any] interface {
	Push(line string, inj Injector[D])
	MakeEntry(item MatchedItem[D], lineNumber int, output *template.Template) Entry
	HasAnsi() bool
	FrecencyKey(item MatchedItem[D]) string
}

// Plain is the default ingest strategy: the source line is matched as-is,
// with no auxiliary payload. Uses Processor[struct{}] so the matcher's item
// store pays no per-item allocation for unused data.
type Plain struct{}

func (Plain) Push(line string, inj Injector[struct{}]) {
	inj.Push(struct{}{}, line)
}

func (Plain) MakeEntry(item MatchedItem[struct{}], lineNumber int, output *template.Template) Entry {
	return Entry{
		Raw:           item.MatchedString,
		Output:        output,
		LineNumber:    lineNumber,
		MatchedString: item.MatchedString,
		MatchIndices:  item.MatchIndices,
	}
}

func (Plain) HasAnsi() bool { return false }

func (Plain) FrecencyKey(item MatchedItem[struct{}]) string { return item.MatchedString }

// Ansi preserves the original ANSI-coded line for display while matching
// against the stripped text, so color survives into the results list
// without confusing the fuzzy scorer's byte offsets.
type Ansi struct{}

func (Ansi) Push(line string, inj Injector[string]) {
	inj.Push(line, ansi.Strip(line))
}

func (Ansi) MakeEntry(item MatchedItem[string], lineNumber int, output *template.Template) Entry {
	return Entry{
		Raw:           item.Inner,
		Display:       item.MatchedString,
		Ansi:          true,
		Output:        output,
		LineNumber:    lineNumber,
		MatchedString: item.MatchedString,
		MatchIndices:  item.MatchIndices,
	}
}

func (Ansi) HasAnsi() bool { return true }

func (Ansi) FrecencyKey(item MatchedItem[string]) string { return item.MatchedString }

// DisplayTemplateError is raised, never recovered, when a channel's display
// template fails against an actual source line. Per the propagation policy,
// this is treated as a prototype bug, not a runtime condition, so Push
// panics with this error instead of returning one.
type DisplayTemplateError struct {
	Line string
	Err  error
}

func (e *DisplayTemplateError) Error() string {
	return fmt.Sprintf("display template failed on line %q: %s", e.Line, e.Err)
}

func (e *DisplayTemplateError) Unwrap() error { return e.Err }

// Display matches against the rendered output of a channel's display
// template, applied to each source line at ingest time. A template failure
// here means the prototype's display template is wrong for the data it was
// pointed at; there is no safe runtime fallback, so Push panics.
type Display struct {
	Template *template.Template
}

func (d Display) Push(line string, inj Injector[string]) {
	rendered, err := d.Template.Format(line)
	if err != nil {
		panic(&DisplayTemplateError{Line: line, Err: err})
	}
	inj.Push(line, rendered)
}

func (Display) MakeEntry(item MatchedItem[string], lineNumber int, output *template.Template) Entry {
	return Entry{
		Raw:           item.Inner,
		Display:       item.MatchedString,
		Output:        output,
		LineNumber:    lineNumber,
		MatchedString: item.MatchedString,
		MatchIndices:  item.MatchIndices,
	}
}

func (Display) HasAnsi() bool { return false }

func (Display) FrecencyKey(item MatchedItem[string]) string { return item.MatchedString }
