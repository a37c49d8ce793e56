package statusbar

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/tandem/internal/types"
)

func TestDefaultText(t *testing.T) {
	c := qt.New(t)
	sb := New(DefaultConfig())
	c.Assert(sb.Text(), qt.Equals, "[anonymous] -- Ln 1, Col 1")

	sb.SetUser("User-42")
	sb.SetCursorInfo(types.Position{Line: 2, Col: 7})
	sb.SetDocumentInfo("Bob", true, false)
	c.Assert(sb.Text(), qt.Equals, "User-42 -- Ln 3, Col 8 -- last change by Bob [undo]")

	sb.SetDocumentInfo("", true, true)
	c.Assert(sb.Text(), qt.Equals, "User-42 -- Ln 3, Col 8 [undo redo]")
}

func TestTemporaryMessageExpires(t *testing.T) {
	c := qt.New(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sb := New(DefaultConfig())
	sb.now = func() time.Time { return now }
	sb.SetUser("ada")

	sb.SetTemporaryMessage("Copied %d chars", 12)
	c.Assert(sb.Text(), qt.Equals, "Copied 12 chars")

	now = now.Add(5 * time.Second)
	c.Assert(sb.Text(), qt.Equals, "ada -- Ln 1, Col 1")
}

func TestDrawHighlightsAuthor(t *testing.T) {
	c := qt.New(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	c.Assert(screen.Init(), qt.IsNil)
	defer screen.Fini()
	screen.SetSize(60, 2)

	cfg := DefaultConfig()
	sb := New(cfg)
	sb.SetUser("ada")
	sb.SetDocumentInfo("Bob", false, false)
	sb.Draw(screen, 60, 2)

	text := "ada -- Ln 1, Col 1 -- last change by Bob"
	for i, want := range text {
		r, _, _, _ := screen.GetContent(i, 1)
		c.Assert(r, qt.Equals, want)
	}
	_, _, style, _ := screen.GetContent(0, 1)
	c.Assert(style, qt.Equals, cfg.StyleDefault)
	_, _, style, _ = screen.GetContent(len(text)-2, 1)
	c.Assert(style, qt.Equals, cfg.StyleAuthor)
}
