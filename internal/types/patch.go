// internal/types/patch.go
package types

import (
	"time"
	"unicode/utf8"
)

// Patch records the replacement of Content[Start:End] with NewText by ActorID.
// Offsets are rune indexes into the document as it was when the patch was applied.
type Patch struct {
	ActorID   string
	Timestamp time.Time
	Start     int
	End       int
	OldText   string
	NewText   string
}

// Delta is the part of a Patch that travels between sessions: replace
// Content[Start:End] with NewText.
type Delta struct {
	ActorID string
	Start   int
	End     int
	NewText string
}

// RuneLen returns the length of s in characters.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
