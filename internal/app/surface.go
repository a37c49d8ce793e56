package app

import (
	"math"
	"sync"

	"github.com/bethropolis/tandem/internal/input"
	"github.com/bethropolis/tandem/internal/render"
	"github.com/bethropolis/tandem/internal/tui"
	"github.com/bethropolis/tandem/internal/types"
)

// surface is the editable text shown on screen. Keystrokes change it right
// away; the session sees it only through debounced snapshots, and every
// document change coming back from the store replaces it.
type surface struct {
	mu        sync.Mutex
	text      []rune
	cursor    int // rune offset
	goalCol   int // visual column kept across vertical moves, -1 if none
	highlight *types.Patch
	topLine   int
	leftCol   int
}

func newSurface() *surface {
	return &surface{goalCol: -1}
}

// reset replaces the text, e.g. after a remote edit, undo or redo.
func (s *surface) reset(content string, highlight *types.Patch, cursor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = []rune(content)
	s.highlight = highlight
	s.cursor = clampInt(cursor, 0, len(s.text))
	s.goalCol = -1
}

// setHighlight marks the latest change without touching the text.
func (s *surface) setHighlight(highlight *types.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlight = highlight
}

// insert types runes at the cursor and returns the new snapshot.
func (s *surface) insert(runes ...rune) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]rune, 0, len(s.text)+len(runes))
	next = append(next, s.text[:s.cursor]...)
	next = append(next, runes...)
	next = append(next, s.text[s.cursor:]...)
	s.text = next
	s.cursor += len(runes)
	s.goalCol = -1
	return string(s.text)
}

// deleteBackward removes the rune before the cursor. It reports false at the
// start of the text.
func (s *surface) deleteBackward() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == 0 {
		return "", false
	}
	s.text = append(s.text[:s.cursor-1:s.cursor-1], s.text[s.cursor:]...)
	s.cursor--
	s.goalCol = -1
	return string(s.text), true
}

// deleteForward removes the rune under the cursor. It reports false at the
// end of the text.
func (s *surface) deleteForward() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor >= len(s.text) {
		return "", false
	}
	s.text = append(s.text[:s.cursor:s.cursor], s.text[s.cursor+1:]...)
	s.goalCol = -1
	return string(s.text), true
}

// move handles cursor movement actions. pageSize is the number of visible lines.
func (s *surface) move(action input.Action, pageSize int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	content := string(s.text)
	pos := render.SurfacePosition(content, s.cursor)
	if pageSize < 1 {
		pageSize = 1
	}

	vertical := func(lines int) {
		if s.goalCol < 0 {
			s.goalCol = pos.Col
		}
		target := types.Position{Line: maxInt(pos.Line+lines, 0), Col: s.goalCol}
		s.cursor = render.OffsetAt(content, target)
	}

	switch action {
	case input.ActionMoveLeft:
		if s.cursor > 0 {
			s.cursor--
		}
		s.goalCol = -1
	case input.ActionMoveRight:
		if s.cursor < len(s.text) {
			s.cursor++
		}
		s.goalCol = -1
	case input.ActionMoveUp:
		vertical(-1)
	case input.ActionMoveDown:
		vertical(1)
	case input.ActionMovePageUp:
		vertical(-pageSize)
	case input.ActionMovePageDown:
		vertical(pageSize)
	case input.ActionMoveHome:
		s.cursor = render.OffsetAt(content, types.Position{Line: pos.Line, Col: 0})
		s.goalCol = -1
	case input.ActionMoveEnd:
		s.cursor = render.OffsetAt(content, types.Position{Line: pos.Line, Col: math.MaxInt})
		s.goalCol = -1
	default:
		return false
	}
	return true
}

// content returns the current snapshot.
func (s *surface) content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.text)
}

// view scrolls to keep the cursor visible in layout and returns what to draw.
func (s *surface) view(width, height int) tui.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	content := string(s.text)
	layout := tui.ComputeLayout(width, height, len(render.Lines(content)))
	pos := render.SurfacePosition(content, s.cursor)
	s.topLine, s.leftCol = tui.ScrollTo(layout, s.topLine, s.leftCol, pos)

	return tui.View{
		Content:   content,
		Highlight: s.highlight,
		Cursor:    s.cursor,
		TopLine:   s.topLine,
		LeftCol:   s.leftCol,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
