package layout

import (
	"github.com/GriffinCanCode/BabyBrowser/internal/web/content"
	"github.com/mattn/go-runewidth"
)

// Fragment is one positioned text run on a display line.
type Fragment struct {
	Text string
	X    int
}

// DisplayLine is one laid-out line. Lines are recomputed wholesale on
// viewport width change and never patched in place.
type DisplayLine struct {
	Y         int
	Fragments []Fragment
}

// Engine lays token streams out into display lines. HStep is the pixel
// width of one text cell, VStep the line height (the original's font
// metrics reduced to fixed steps).
type Engine struct {
	HStep int
	VStep int
}

// NewEngine creates an engine; non-positive steps fall back to defaults.
func NewEngine(hstep, vstep int) Engine {
	if hstep <= 0 {
		hstep = 8
	}
	if vstep <= 0 {
		vstep = 18
	}
	return Engine{HStep: hstep, VStep: vstep}
}

// Measure returns the rendered width of a text run in pixels. Wide runes
// (CJK) count as two cells.
func (e Engine) Measure(text string) int {
	return runewidth.StringWidth(text) * e.HStep
}

// Layout greedily wraps the token stream at the viewport width. Words are
// never split: a single word wider than the viewport occupies a line by
// itself. Break tokens always force a new line; paragraph breaks add a
// blank gap. The function is pure: identical input yields identical
// output, so resize handling is a full recomputation.
func (e Engine) Layout(tokens []content.Token, width int) []DisplayLine {
	var lines []DisplayLine

	cursorX := 0
	cursorY := 0
	var current []Fragment

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, DisplayLine{Y: cursorY, Fragments: current})
			current = nil
		}
		cursorX = 0
		cursorY += e.VStep
	}

	for _, token := range tokens {
		switch token.Kind {
		case content.LineBreak:
			flush()
		case content.ParagraphBreak:
			flush()
			cursorY += e.VStep
		case content.Word:
			wordWidth := e.Measure(token.Text)
			advance := wordWidth
			if cursorX > 0 {
				advance += e.HStep // separating space
			}
			if cursorX > 0 && cursorX+advance > width {
				flush()
				advance = wordWidth
			}
			x := cursorX
			if x > 0 {
				x += e.HStep
			}
			current = append(current, Fragment{Text: token.Text, X: x})
			cursorX = x + wordWidth
		}
	}

	if len(current) > 0 {
		lines = append(lines, DisplayLine{Y: cursorY, Fragments: current})
	}
	return lines
}

// Height returns the document height in pixels.
func (e Engine) Height(lines []DisplayLine) int {
	if len(lines) == 0 {
		return 0
	}
	return lines[len(lines)-1].Y + e.VStep
}

// Visible selects the contiguous slice of lines intersecting the viewport.
// It is a pure projection and mutates no layout state.
func (e Engine) Visible(lines []DisplayLine, scroll, viewportHeight int) []DisplayLine {
	start := -1
	end := len(lines)
	for i, line := range lines {
		if line.Y+e.VStep <= scroll {
			continue
		}
		if line.Y > scroll+viewportHeight {
			end = i
			break
		}
		if start < 0 {
			start = i
		}
	}
	if start < 0 {
		return nil
	}
	return lines[start:end]
}

// MaxScroll returns the largest useful scroll offset.
func (e Engine) MaxScroll(lines []DisplayLine, viewportHeight int) int {
	max := e.Height(lines) - viewportHeight
	if max < 0 {
		return 0
	}
	return max
}

// ClampScroll bounds a scroll offset to the document.
func (e Engine) ClampScroll(scroll int, lines []DisplayLine, viewportHeight int) int {
	if scroll < 0 {
		return 0
	}
	if max := e.MaxScroll(lines, viewportHeight); scroll > max {
		return max
	}
	return scroll
}
