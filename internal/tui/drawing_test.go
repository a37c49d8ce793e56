package tui

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/tandem/internal/types"
)

func newSimTUI(c *qt.C, width, height int) (*TUI, tcell.SimulationScreen) {
	screen := tcell.NewSimulationScreen("UTF-8")
	t, err := NewWithScreen(screen)
	c.Assert(err, qt.IsNil)
	screen.SetSize(width, height)
	c.Cleanup(t.Close)
	return t, screen
}

func rowText(screen tcell.SimulationScreen, y, from, to int) string {
	var out []rune
	for x := from; x < to; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		out = append(out, r)
	}
	return string(out)
}

func TestDrawDocumentWithHighlight(t *testing.T) {
	c := qt.New(t)
	tu, screen := newSimTUI(c, 20, 4)

	view := View{
		Content:   "hello brave world\nsecond",
		Highlight: &types.Patch{Start: 6, End: 12},
		Cursor:    12,
	}
	DrawDocument(tu, view)
	DrawCursor(tu, view)
	tu.Show()

	// One digit of line number plus a space.
	c.Assert(rowText(screen, 0, 0, 20), qt.Equals, "1 hello brave world ")
	c.Assert(rowText(screen, 1, 0, 8), qt.Equals, "2 second")

	_, _, plain, _ := screen.GetContent(2, 0)
	_, _, marked, _ := screen.GetContent(8, 0)
	_, _, after, _ := screen.GetContent(14, 0)
	c.Assert(plain, qt.Equals, tu.Styles().Default)
	c.Assert(marked, qt.Equals, tu.Styles().Highlight)
	c.Assert(after, qt.Equals, tu.Styles().Default)

	x, y, visible := screen.GetCursor()
	c.Assert(visible, qt.IsTrue)
	c.Assert([]int{x, y}, qt.DeepEquals, []int{14, 0})
}

func TestDrawWideCharacters(t *testing.T) {
	c := qt.New(t)
	tu, screen := newSimTUI(c, 12, 3)

	view := View{Content: "日本x", Cursor: 2}
	DrawDocument(tu, view)
	DrawCursor(tu, view)
	tu.Show()

	r, _, _, _ := screen.GetContent(4, 0)
	c.Assert(r, qt.Equals, '本')
	r, _, _, _ = screen.GetContent(6, 0)
	c.Assert(r, qt.Equals, 'x')

	x, _, _ := screen.GetCursor()
	c.Assert(x, qt.Equals, 6)
}

func TestScrollTo(t *testing.T) {
	c := qt.New(t)
	layout := ComputeLayout(10, 4, 50) // 3 text rows, gutter of 3
	c.Assert(layout.ViewHeight, qt.Equals, 3)
	c.Assert(layout.GutterWidth, qt.Equals, 3)

	top, left := ScrollTo(layout, 0, 0, types.Position{Line: 5, Col: 2})
	c.Assert([]int{top, left}, qt.DeepEquals, []int{3, 0})

	top, left = ScrollTo(layout, 3, 0, types.Position{Line: 1, Col: 9})
	c.Assert([]int{top, left}, qt.DeepEquals, []int{1, 3})
}

func TestCursorOutsideViewIsHidden(t *testing.T) {
	c := qt.New(t)
	tu, screen := newSimTUI(c, 10, 3)

	view := View{Content: "a\nb\nc\nd", Cursor: 6}
	DrawCursor(tu, view)
	tu.Show()

	_, _, visible := screen.GetCursor()
	c.Assert(visible, qt.IsFalse)
}
