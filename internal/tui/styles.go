package tui

import "github.com/gdamore/tcell/v2"

// Styles used for drawing the document.
type Styles struct {
	Default    tcell.Style
	LineNumber tcell.Style
	Highlight  tcell.Style // span of the latest change
}

// DefaultStyles provides the built-in look.
func DefaultStyles() Styles {
	return Styles{
		Default:    tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack),
		LineNumber: tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorBlack),
		Highlight:  tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow),
	}
}
