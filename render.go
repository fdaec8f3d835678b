package television

import (
	"fmt"

	"github.com/nsf/termbox-go"

	"github.com/kepler-cli/kepler/config"
	"github.com/kepler-cli/kepler/keymap"
)

// attrToTermbox converts an ambient config.Attribute bitfield into the
// termbox.Attribute mainline termbox-go understands: a 0-8 palette index
// plus the Bold/Underline/Reverse flags. termbox-go's released palette mode
// has no true-color slot, so an AttrTrueColor value falls back to the
// default color rather than the nearest palette entry.
func attrToTermbox(a config.Attribute) termbox.Attribute {
	if a&config.AttrTrueColor != 0 {
		a = config.ColorDefault
	}

	var out termbox.Attribute
	if idx := a & 0xFF; idx > 0 {
		out = termbox.Attribute(idx)
	}
	if a&config.AttrBold != 0 {
		out |= termbox.AttrBold
	}
	if a&config.AttrUnderline != 0 {
		out |= termbox.AttrUnderline
	}
	if a&config.AttrReverse != 0 {
		out |= termbox.AttrReverse
	}
	return out
}

// render redraws the whole screen: the prompt line, the results list (or
// the remote-control picker, in that mode), the preview panel when the
// active channel has one and it's visible, a status line, and the optional
// help/keybinding overlays. Grounded on peco's own View.PrintXxx family,
// generalized from one static layout to mode- and prototype-driven panels.
func (t *Television) render() {
	if t.screen == nil {
		return
	}
	width, height := t.screen.Size()
	if width <= 0 || height <= 0 {
		return
	}

	style := config.NewStyleSet()
	if t.cfg != nil {
		style = &t.cfg.Style
	}

	t.renderPrompt(width, style)
	t.renderResults(width, height, style)
	if t.previewVisible && t.mode == keymap.ModeChannel {
		t.renderPreview(width, height, style)
	}
	if t.showStatusBar {
		t.renderStatus(width, height, style)
	}
	if t.showHelp || t.showKeybindingPanel {
		t.renderKeybindingPanel(width, height)
	}

	t.screen.SetCursor(len([]rune(t.promptLabel()))+t.caret.Pos(), 0)
	_ = t.screen.Flush()
}

func (t *Television) promptLabel() string {
	if t.active != nil {
		if p := t.active.Prototype(); p != nil && p.Ui.InputBar.Prompt != "" {
			return p.Ui.InputBar.Prompt
		}
	}
	return "QUERY>"
}

func (t *Television) renderPrompt(width int, style *config.StyleSet) {
	label := t.promptLabel()
	fg, bg := attrToTermbox(style.Prompt.Fg), attrToTermbox(style.Prompt.Bg)
	t.screen.Start().X(0).Y(0).Fg(fg).Bg(bg).Msg(label).Print()

	qfg, qbg := attrToTermbox(style.Query.Fg), attrToTermbox(style.Query.Bg)
	t.screen.Start().X(len([]rune(label))).Y(0).Fg(qfg).Bg(qbg).
		Msg(t.prompt.String()).Fill(true).Print()
}

func (t *Television) renderResults(width, height int, style *config.StyleSet) {
	rows := height - 2
	if rows < 1 {
		rows = 1
	}
	entries := t.currentResults(rows, t.pageOffset)
	for i, e := range entries {
		y := i + 1
		fg, bg := attrToTermbox(style.Basic.Fg), attrToTermbox(style.Basic.Bg)
		if t.pageOffset+i == t.cursor {
			fg, bg = attrToTermbox(style.Selected.Fg), attrToTermbox(style.Selected.Bg)
		}
		line := e.Display
		if line == "" {
			line = e.Raw
		}
		t.screen.Start().X(0).Y(y).Fg(fg).Bg(bg).Msg(line).Fill(true).Print()
	}
}

func (t *Television) renderPreview(width, height int, style *config.StyleSet) {
	panelWidth := width / 2
	if panelWidth < 10 {
		return
	}
	x0 := width - panelWidth
	fg, bg := attrToTermbox(style.Basic.Fg), attrToTermbox(style.Basic.Bg)

	lines := splitLines(t.lastPreview.Content)
	offset := t.lastPreview.Offset
	if offset < 0 {
		offset = 0
	}
	for y := 0; y < height-2; y++ {
		idx := y + offset
		line := ""
		if idx < len(lines) {
			line = lines[idx]
		}
		t.screen.Start().X(x0).Y(y + 1).XOffset(x0).Fg(fg).Bg(bg).Msg(line).Fill(true).Print()
	}
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func (t *Television) renderStatus(width, height int, style *config.StyleSet) {
	msg := t.statusMsg
	if msg == "" && t.active != nil {
		msg = fmt.Sprintf("%d/%d", t.active.MatchedItemCount(), t.active.TotalItemCount())
	}
	fg, bg := attrToTermbox(style.Context.Fg), attrToTermbox(style.Context.Bg)
	t.screen.Start().X(0).Y(height-1).Fg(fg).Bg(bg).Msg(msg).Fill(true).Print()
}

func (t *Television) renderKeybindingPanel(width, height int) {
	rev := t.keybindings.ReverseActionKey()
	y := 1
	for name, key := range rev {
		if y >= height-2 {
			break
		}
		t.screen.Start().X(width - 30).Y(y).Msg(fmt.Sprintf("%-20s %s", name, key.String())).Print()
		y++
	}
}
