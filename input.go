package television

import (
	"github.com/nsf/termbox-go"

	"github.com/kepler-cli/kepler/keymap"
)

// namedKeys maps termbox's named key constants onto this module's own
// closed keymap.Name set.
var namedKeys = map[termbox.Key]keymap.Name{
	termbox.KeyEsc:        keymap.Esc,
	termbox.KeyEnter:      keymap.Enter,
	termbox.KeyTab:        keymap.Tab,
	termbox.KeyArrowUp:    keymap.Up,
	termbox.KeyArrowDown:  keymap.Down,
	termbox.KeyArrowLeft:  keymap.Left,
	termbox.KeyArrowRight: keymap.Right,
	termbox.KeyPgup:       keymap.PgUp,
	termbox.KeyPgdn:       keymap.PgDn,
	termbox.KeyHome:       keymap.Home,
	termbox.KeyEnd:        keymap.End,
	termbox.KeyBackspace:  keymap.Backspace,
	termbox.KeyBackspace2: keymap.Backspace,
	termbox.KeyDelete:     keymap.Delete,
	termbox.KeyInsert:     keymap.Insert,
	termbox.KeyF1:         keymap.F1,
	termbox.KeyF2:         keymap.F2,
	termbox.KeyF3:         keymap.F3,
	termbox.KeyF4:         keymap.F4,
	termbox.KeyF5:         keymap.F5,
	termbox.KeyF6:         keymap.F6,
	termbox.KeyF7:         keymap.F7,
	termbox.KeyF8:         keymap.F8,
	termbox.KeyF9:         keymap.F9,
	termbox.KeyF10:        keymap.F10,
	termbox.KeyF11:        keymap.F11,
	termbox.KeyF12:        keymap.F12,
}

// ctrlKeys maps termbox's KeyCtrl* constants (and the bare control bytes
// they alias) onto the plain letter they correspond to.
var ctrlKeys = map[termbox.Key]rune{
	termbox.KeyCtrlA: 'a', termbox.KeyCtrlB: 'b', termbox.KeyCtrlD: 'd',
	termbox.KeyCtrlE: 'e', termbox.KeyCtrlF: 'f', termbox.KeyCtrlG: 'g',
	termbox.KeyCtrlK: 'k', termbox.KeyCtrlN: 'n', termbox.KeyCtrlO: 'o',
	termbox.KeyCtrlP: 'p', termbox.KeyCtrlR: 'r', termbox.KeyCtrlS: 's',
	termbox.KeyCtrlT: 't', termbox.KeyCtrlU: 'u', termbox.KeyCtrlW: 'w',
	termbox.KeyCtrlX: 'x', termbox.KeyCtrlY: 'y',
	termbox.KeyCtrlC: 'c', termbox.KeyCtrlJ: 'j', termbox.KeyCtrlL: 'l',
	termbox.KeyCtrlQ: 'q', termbox.KeyCtrlV: 'v', termbox.KeyCtrlZ: 'z',
}

// keyFromTermbox translates one termbox key-press event into this module's
// own Key variant, the same "named key or ctrl-letter or printable rune"
// shape peco's own keymap.go works from, minus the Alt-via-Esc-timer
// heuristic since termbox's ModAlt flag already carries that.
func keyFromTermbox(ev termbox.Event) keymap.Key {
	mod := keymap.ModNone
	if ev.Mod&termbox.ModAlt != 0 {
		mod = keymap.ModAlt
	}

	if ch, ok := ctrlKeys[ev.Key]; ok {
		if mod == keymap.ModAlt {
			return keymap.Key{Name: keymap.Char, Ch: ch, Mod: keymap.ModAlt}
		}
		return keymap.Key{Name: keymap.Char, Ch: ch, Mod: keymap.ModCtrl}
	}
	if ev.Key == termbox.KeyCtrlSpace {
		return keymap.CtrlSpace
	}
	if name, ok := namedKeys[ev.Key]; ok {
		return keymap.Key{Name: name, Mod: mod}
	}
	if ev.Ch != 0 {
		return keymap.Key{Name: keymap.Char, Ch: ev.Ch, Mod: mod}
	}
	return keymap.Key{Name: keymap.Char, Ch: rune(ev.Key), Mod: mod}
}
