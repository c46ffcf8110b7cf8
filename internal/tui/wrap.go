package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// wordView is one target word with what has been typed for it.
type wordView struct {
	target []rune
	typed  []rune
}

// buildStyledRunes lays out words separated by spaces. Words before current are
// committed: their untyped letters render as missed. Typed letters past the end of
// a word render as extras. A negative current means the test is over and no cursor is drawn.
func buildStyledRunes(words []wordView, current int) []styledRune {
	out := make([]styledRune, 0, len(words)*6)
	for i, w := range words {
		if i > 0 {
			style := pendingStyle
			if i-1 == current && len(words[current].typed) >= len(words[current].target) {
				style = style.Underline(true)
			}
			out = append(out, styledRune{s: style.Render(" "), width: 1, isSpace: true})
		}
		for j, target := range w.target {
			style := pendingStyle
			switch {
			case j < len(w.typed) && w.typed[j] == target:
				style = correctStyle
			case j < len(w.typed):
				style = incorrectStyle
			case i < current || (current < 0 && len(w.typed) > 0):
				style = missedStyle
			case i == current:
				style = currentWordStyle
				if j == len(w.typed) {
					style = style.Underline(true)
				}
			}
			out = append(out, styledRune{s: style.Render(string(target)), width: runewidth.RuneWidth(target)})
		}
		if len(w.typed) > len(w.target) {
			for _, extra := range w.typed[len(w.target):] {
				out = append(out, styledRune{s: extraStyle.Render(string(extra)), width: runewidth.RuneWidth(extra)})
			}
		}
	}
	return out
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits, or mid-word when none does.
func wrapStyledRunes(runes []styledRune, width int) []string {
	if width <= 0 {
		return []string{renderStyledRunes(runes)}
	}
	var lines []string
	line := make([]styledRune, 0, width)
	lineWidth := 0
	lastSpace := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				lines = append(lines, renderStyledRunes(line[:lastSpace]))
				line = append([]styledRune{}, line[lastSpace+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpace = lastSpaceIndex(line)
			} else {
				lines = append(lines, renderStyledRunes(line))
				line = line[:0]
				lineWidth = 0
				lastSpace = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	return append(lines, renderStyledRunes(line))
}

// visibleLines keeps a window of rows around the cursor row so long time tests scroll.
func visibleLines(lines []string, cursorLine, rows int) []string {
	if rows <= 0 || len(lines) <= rows {
		return lines
	}
	start := cursorLine - 1
	if start < 0 {
		start = 0
	}
	if start+rows > len(lines) {
		start = len(lines) - rows
	}
	return lines[start : start+rows]
}

// cursorLineOf returns the wrapped row holding rune index pos.
func cursorLineOf(runes []styledRune, width, pos int) int {
	if width <= 0 {
		return 0
	}
	row := 0
	lineWidth := 0
	lastSpace := -1
	lineStart := 0
	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && i > lineStart {
			if lastSpace >= 0 {
				lineStart = lastSpace + 1
			} else {
				lineStart = i
			}
			if pos < lineStart {
				return row
			}
			row++
			lineWidth = 0
			lastSpace = -1
			i = lineStart
			continue
		}
		lineWidth += item.width
		if item.isSpace {
			lastSpace = i
		}
		i++
	}
	return row
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
