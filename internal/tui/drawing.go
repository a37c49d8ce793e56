// internal/tui/drawing.go
package tui

import (
	"fmt"
	"math"

	"github.com/rivo/uniseg"

	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/render"
	"github.com/bethropolis/tandem/internal/types"
)

// StatusBarHeight is the number of rows reserved below the document.
const StatusBarHeight = 1

// View is what a frame of the document shows.
type View struct {
	Content   string
	Highlight *types.Patch // latest change, may be nil
	Cursor    int          // rune offset
	TopLine   int          // first visible line
	LeftCol   int          // first visible visual column
}

// Layout describes the drawable text area for a screen size.
type Layout struct {
	Width       int
	ViewHeight  int
	GutterWidth int
	maxDigits   int
}

// TextWidth is the number of columns left for text.
func (l Layout) TextWidth() int {
	return l.Width - l.GutterWidth
}

// ComputeLayout sizes the line number gutter for lineCount lines.
func ComputeLayout(width, height, lineCount int) Layout {
	if lineCount < 1 {
		lineCount = 1
	}
	maxDigits := int(math.Log10(float64(lineCount))) + 1
	gutterWidth := maxDigits + 1 // space between number and text
	if gutterWidth >= width {
		gutterWidth = 0 // not enough room for gutter and text
	}
	return Layout{
		Width:       width,
		ViewHeight:  height - StatusBarHeight,
		GutterWidth: gutterWidth,
		maxDigits:   maxDigits,
	}
}

// ScrollTo returns the TopLine and LeftCol that keep pos visible.
func ScrollTo(layout Layout, topLine, leftCol int, pos types.Position) (int, int) {
	if pos.Line < topLine {
		topLine = pos.Line
	} else if layout.ViewHeight > 0 && pos.Line >= topLine+layout.ViewHeight {
		topLine = pos.Line - layout.ViewHeight + 1
	}
	textWidth := layout.TextWidth()
	if pos.Col < leftCol {
		leftCol = pos.Col
	} else if textWidth > 0 && pos.Col >= leftCol+textWidth {
		leftCol = pos.Col - textWidth + 1
	}
	return topLine, leftCol
}

// DrawDocument draws the visible part of the document with the span of the
// latest change highlighted.
func DrawDocument(t *TUI, view View) {
	styles := t.styles
	width, height := t.Size()
	lines := render.Lines(view.Content)
	layout := ComputeLayout(width, height, len(lines))
	if layout.ViewHeight <= 0 || width <= 0 {
		return
	}

	cursorLine := render.SurfacePosition(view.Content, view.Cursor).Line
	hlStart, hlEnd := render.HighlightRange([]rune(view.Content), view.Highlight)

	// Rune offset of the first visible line.
	lineOffset := 0
	for i := 0; i < view.TopLine && i < len(lines); i++ {
		lineOffset += types.RuneLen(lines[i]) + 1
	}

	for screenY := 0; screenY < layout.ViewHeight; screenY++ {
		lineIdx := screenY + view.TopLine

		for x := 0; x < width; x++ {
			t.screen.SetContent(x, screenY, ' ', nil, styles.Default)
		}
		if lineIdx >= len(lines) {
			continue
		}

		if layout.GutterWidth > 0 {
			numberStyle := styles.LineNumber
			if lineIdx == cursorLine {
				numberStyle = numberStyle.Bold(true)
			}
			for i, r := range fmt.Sprintf("%*d", layout.maxDigits, lineIdx+1) {
				t.screen.SetContent(i, screenY, r, nil, numberStyle)
			}
		}

		drawLine(t, layout, screenY, lines[lineIdx], lineOffset, view.LeftCol, hlStart, hlEnd)
		lineOffset += types.RuneLen(lines[lineIdx]) + 1
	}
}

func drawLine(t *TUI, layout Layout, screenY int, line string, offset, leftCol, hlStart, hlEnd int) {
	styles := t.styles
	textWidth := layout.TextWidth()
	visualX := 0
	runeIdx := offset

	gr := uniseg.NewGraphemes(line)
	for gr.Next() {
		clusterRunes := gr.Runes()
		clusterWidth := render.ClusterWidth(gr.Str(), gr.Width(), visualX)

		style := styles.Default
		if runeIdx >= hlStart && runeIdx < hlEnd {
			style = styles.Highlight
		}

		screenX := visualX - leftCol + layout.GutterWidth
		if visualX+clusterWidth > leftCol && screenX >= layout.GutterWidth && screenX < layout.Width {
			if clusterRunes[0] == '\t' {
				for i := 0; i < clusterWidth && screenX+i < layout.Width; i++ {
					t.screen.SetContent(screenX+i, screenY, ' ', nil, style)
				}
			} else {
				t.screen.SetContent(screenX, screenY, clusterRunes[0], clusterRunes[1:], style)
				// Fill remaining cells of wide characters.
				for cw := 1; cw < clusterWidth && screenX+cw < layout.Width; cw++ {
					t.screen.SetContent(screenX+cw, screenY, ' ', nil, style)
				}
			}
		}

		visualX += clusterWidth
		runeIdx += len(clusterRunes)
		if visualX >= leftCol+textWidth {
			break
		}
	}
}

// DrawCursor places the terminal cursor at the view's cursor offset.
func DrawCursor(t *TUI, view View) {
	width, height := t.Size()
	layout := ComputeLayout(width, height, len(render.Lines(view.Content)))
	pos := render.SurfacePosition(view.Content, view.Cursor)

	screenX := pos.Col - view.LeftCol + layout.GutterWidth
	screenY := pos.Line - view.TopLine

	if screenX < layout.GutterWidth || screenX >= width || screenY < 0 || screenY >= layout.ViewHeight || layout.TextWidth() <= 0 {
		logger.DebugTagf("draw", "Cursor %+v outside view, hiding", pos)
		t.screen.HideCursor()
		return
	}
	t.screen.ShowCursor(screenX, screenY)
}
