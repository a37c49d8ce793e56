package render

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/bethropolis/tandem/internal/types"
)

// TabWidth is the distance between tab stops.
const TabWidth = 4

// Lines splits content at newlines. An empty document has one empty line.
func Lines(content string) []string {
	return strings.Split(content, "\n")
}

// ClusterWidth is the number of cells a grapheme cluster takes when it
// starts at visual column col.
func ClusterWidth(cluster string, width, col int) int {
	if cluster == "\t" {
		return TabWidth - col%TabWidth
	}
	return width
}

// VisualColumn returns the cell column at which the rune with index runeIndex
// of line starts, counting grapheme clusters by their display width.
func VisualColumn(line string, runeIndex int) int {
	if runeIndex <= 0 {
		return 0
	}
	visual := 0
	current := 0
	gr := uniseg.NewGraphemes(line)
	for gr.Next() {
		if current >= runeIndex {
			break
		}
		visual += ClusterWidth(gr.Str(), gr.Width(), visual)
		current += len(gr.Runes())
	}
	return visual
}

// SurfacePosition maps a rune offset into content to a line and visual column.
// Offsets outside the content are clamped.
func SurfacePosition(content string, offset int) types.Position {
	runes := []rune(content)
	offset = clamp(offset, 0, len(runes))

	line := 0
	lineStart := 0
	for i := 0; i < offset; i++ {
		if runes[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := lineStart
	for lineEnd < len(runes) && runes[lineEnd] != '\n' {
		lineEnd++
	}
	return types.Position{
		Line: line,
		Col:  VisualColumn(string(runes[lineStart:lineEnd]), offset-lineStart),
	}
}

// OffsetAt is the inverse of SurfacePosition: it returns the rune offset of
// the cluster covering pos, snapping to the end of short lines and clamping
// lines past the end of the document.
func OffsetAt(content string, pos types.Position) int {
	lines := Lines(content)
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(lines) {
		return types.RuneLen(content)
	}

	offset := 0
	for _, line := range lines[:pos.Line] {
		offset += types.RuneLen(line) + 1
	}

	visual := 0
	gr := uniseg.NewGraphemes(lines[pos.Line])
	for gr.Next() {
		w := ClusterWidth(gr.Str(), gr.Width(), visual)
		if visual+w > pos.Col {
			break
		}
		visual += w
		offset += len(gr.Runes())
	}
	return offset
}
