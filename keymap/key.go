// Package keymap implements the closed Key variant set and the two-layer
// (global + channel) keybinding resolver.
//
// Grounded on internal/keyseq.Key (a modifier + key + ch triple) and its
// accompanying named-key enumeration for the shape of a single key press;
// unlike internal/keyseq's Aho-Corasick multi-key chord trie, every key in
// this set maps directly to its bound actions with no sequence state, since
// nothing in the spec's key surface requires multi-key chords.
package keymap

import (
	"fmt"
	"strings"
)

// Name is the closed set of named (non-printable) keys, plus Char for any
// printable rune (carried in Key.Ch).
type Name int

const (
	none Name = iota
	Char
	Esc
	Enter
	Tab
	BackTab
	Up
	Down
	Left
	Right
	PgUp
	PgDn
	Home
	End
	Backspace
	Delete
	Insert
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
)

var nameStrings = map[Name]string{
	Esc: "Esc", Enter: "Enter", Tab: "Tab", BackTab: "BackTab",
	Up: "Up", Down: "Down", Left: "Left", Right: "Right",
	PgUp: "PgUp", PgDn: "PgDn", Home: "Home", End: "End",
	Backspace: "Backspace", Delete: "Delete", Insert: "Insert",
	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6",
	F7: "F7", F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",
}

var stringToName = func() map[string]Name {
	m := make(map[string]Name, len(nameStrings))
	for n, s := range nameStrings {
		m[s] = n
	}
	return m
}()

// Modifier is Ctrl or Alt, applicable to either a Char or a named Key.
type Modifier int

const (
	ModNone Modifier = iota
	ModCtrl
	ModAlt
)

// Key is a single key press: a closed sum type encoded as a struct so it
// remains a comparable, hashable value usable as a map key. Equality is
// structural.
type Key struct {
	Name Name
	Ch   rune
	Mod  Modifier
}

// Named single-key constructors, matching the closed variant set in
// SPEC_FULL.md §4.8.
func Named(n Name) Key                  { return Key{Name: n} }
func CharKey(c rune) Key                { return Key{Name: Char, Ch: c} }
func CtrlChar(c rune) Key               { return Key{Name: Char, Ch: c, Mod: ModCtrl} }
func AltChar(c rune) Key                { return Key{Name: Char, Ch: c, Mod: ModAlt} }
func CtrlNamed(n Name) Key              { return Key{Name: n, Mod: ModCtrl} }
func AltNamed(n Name) Key               { return Key{Name: n, Mod: ModAlt} }

// CtrlSpace, CtrlLeft, ..., AltBackspace, AltDelete are the specific
// modifier-combined forms the spec names explicitly.
var (
	CtrlSpace     = CtrlChar(' ')
	CtrlLeft      = CtrlNamed(Left)
	CtrlRight     = CtrlNamed(Right)
	CtrlUp        = CtrlNamed(Up)
	CtrlDown      = CtrlNamed(Down)
	CtrlEnter     = CtrlNamed(Enter)
	CtrlBackspace = CtrlNamed(Backspace)
	CtrlDelete    = CtrlNamed(Delete)
	AltBackspace  = AltNamed(Backspace)
	AltDelete     = AltNamed(Delete)
)

// String renders k in the "C-"/"M-" prefixed form, which Parse reads back
// and the reverse action->key map uses.
func (k Key) String() string {
	var prefix string
	switch k.Mod {
	case ModCtrl:
		prefix = "C-"
	case ModAlt:
		prefix = "M-"
	}
	if k.Name == Char {
		if k.Ch == ' ' && k.Mod == ModCtrl {
			return "C-Space"
		}
		return prefix + string(k.Ch)
	}
	return prefix + nameStrings[k.Name]
}

// ParseError reports a key string that does not match any form in the
// closed variant set.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string { return fmt.Sprintf("unrecognized key %q", e.Input) }

// Parse parses a key string such as "C-j", "ctrl-j", "M-Backspace",
// "alt-j", "Esc", "a", or "C-Space" into a Key.
func Parse(s string) (Key, error) {
	orig := s
	mod := ModNone
	switch {
	case strings.HasPrefix(s, "C-"):
		mod = ModCtrl
		s = s[2:]
	case strings.HasPrefix(s, "M-"):
		mod = ModAlt
		s = s[2:]
	case strings.HasPrefix(s, "ctrl-"):
		mod = ModCtrl
		s = s[5:]
	case strings.HasPrefix(s, "alt-"):
		mod = ModAlt
		s = s[4:]
	}

	if strings.EqualFold(s, "Space") {
		return Key{Name: Char, Ch: ' ', Mod: mod}, nil
	}
	if n, ok := stringToName[s]; ok {
		return Key{Name: n, Mod: mod}, nil
	}
	if runes := []rune(s); len(runes) == 1 {
		return Key{Name: Char, Ch: runes[0], Mod: mod}, nil
	}
	return Key{}, &ParseError{Input: orig}
}
