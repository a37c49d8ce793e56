package app

import (
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/types"
)

func (a *App) subscribeEvents() {
	a.eventManager.Subscribe(event.TypeDocumentChanged, a.handleDocumentChanged)
	a.eventManager.Subscribe(event.TypeDocumentReset, a.handleDocumentReset)
	a.eventManager.Subscribe(event.TypeMessageDropped, a.handleMessageDropped)
}

// handleDocumentChanged keeps the surface in line with the shared document.
// Local commits only move the highlight: the surface already holds that text,
// possibly with newer keystrokes on top. Every other origin replaces it.
func (a *App) handleDocumentChanged(e event.Event) bool {
	data, ok := e.Data.(event.DocumentChangedData)
	if !ok {
		logger.WarnTagf("app", "DocumentChanged with unexpected data %T", e.Data)
		return false
	}
	change := data.LastChange
	if data.Origin == event.OriginLocal {
		a.surface.setHighlight(&change)
	} else {
		a.surface.reset(data.Content, &change, change.End)
	}
	a.refreshDocumentInfo()
	a.requestRedraw()
	return false
}

func (a *App) handleDocumentReset(e event.Event) bool {
	data, ok := e.Data.(event.DocumentResetData)
	if !ok {
		logger.WarnTagf("app", "DocumentReset with unexpected data %T", e.Data)
		return false
	}
	a.surface.reset(data.Content, nil, types.RuneLen(data.Content))
	a.refreshDocumentInfo()
	a.requestRedraw()
	return false
}

func (a *App) handleMessageDropped(e event.Event) bool {
	if data, ok := e.Data.(event.MessageDroppedData); ok {
		a.SetStatusMessage("Dropped change from %s: %v", data.ActorID, data.Reason)
	}
	return false
}
