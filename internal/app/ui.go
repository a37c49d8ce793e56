package app

import (
	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/render"
	"github.com/bethropolis/tandem/internal/tui"
)

// drawEditor clears screen and redraws all components.
func (a *App) drawEditor() {
	screen := a.tuiManager.GetScreen()
	width, height := a.tuiManager.Size()

	view := a.surface.view(width, height)
	a.statusBar.SetCursorInfo(render.SurfacePosition(view.Content, view.Cursor))

	logger.DebugTagf("draw", "drawEditor: %dx%d, top %d, left %d", width, height, view.TopLine, view.LeftCol)

	a.tuiManager.Clear()
	tui.DrawDocument(a.tuiManager, view)
	a.statusBar.Draw(screen, width, height)
	tui.DrawCursor(a.tuiManager, view)
	a.tuiManager.Show()
}
