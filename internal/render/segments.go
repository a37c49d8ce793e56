// Package render holds the pure functions the editing surface is drawn from.
package render

import "github.com/bethropolis/tandem/internal/types"

// Segment splits the document around the span of the latest change.
type Segment struct {
	Before    string
	Highlight string
	After     string
}

// Segments cuts content into the text before, inside and after
// lastChange[Start:End]. The span is clamped to the content; with no change
// everything is Before.
func Segments(content string, lastChange *types.Patch) Segment {
	if lastChange == nil {
		return Segment{Before: content}
	}
	runes := []rune(content)
	start := clamp(lastChange.Start, 0, len(runes))
	end := clamp(lastChange.End, start, len(runes))
	return Segment{
		Before:    string(runes[:start]),
		Highlight: string(runes[start:end]),
		After:     string(runes[end:]),
	}
}

// HighlightRange returns the clamped [start, end) rune span of lastChange.
func HighlightRange(content []rune, lastChange *types.Patch) (int, int) {
	if lastChange == nil {
		return 0, 0
	}
	start := clamp(lastChange.Start, 0, len(content))
	return start, clamp(lastChange.End, start, len(content))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
