// Package history keeps the undo/redo lists shared by every actor editing a document.
//
// Both lists hold patches from all actors in the order they were pushed. There is
// no per-actor container: an actor's undo or redo picks the nearest of its own
// entries by scanning a list backward, and entries of other actors keep their
// positions.
package history

import (
	"slices"
	"sync"

	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/types"
)

// Manager handles the undo and redo lists.
type Manager struct {
	undo  []types.Patch
	redo  []types.Patch
	mutex sync.Mutex
}

// NewManager creates an empty history.
func NewManager() *Manager {
	return &Manager{}
}

// Record appends a fresh local edit and clears the redo list for every actor.
func (m *Manager) Record(p types.Patch) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.undo = append(m.undo, p)
	m.redo = nil

	logger.DebugTagf("history", "Recorded change by %s at [%d,%d). Undo: %d, Redo: 0",
		p.ActorID, p.Start, p.End, len(m.undo))
}

// PeekUndo returns the nearest undo entry of actorID without removing it.
func (m *Manager) PeekUndo(actorID string) (types.Patch, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return peek(m.undo, actorID)
}

// PeekRedo returns the nearest redo entry of actorID without removing it.
func (m *Manager) PeekRedo(actorID string) (types.Patch, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return peek(m.redo, actorID)
}

// TakeUndo removes and returns the nearest undo entry of actorID.
func (m *Manager) TakeUndo(actorID string) (types.Patch, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, list, ok := take(m.undo, actorID)
	m.undo = list
	if ok {
		logger.DebugTagf("history", "Took undo entry of %s. Undo: %d", actorID, len(m.undo))
	}
	return p, ok
}

// TakeRedo removes and returns the nearest redo entry of actorID.
func (m *Manager) TakeRedo(actorID string) (types.Patch, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	p, list, ok := take(m.redo, actorID)
	m.redo = list
	if ok {
		logger.DebugTagf("history", "Took redo entry of %s. Redo: %d", actorID, len(m.redo))
	}
	return p, ok
}

// PushUndo puts p on top of the undo list without touching the redo list.
func (m *Manager) PushUndo(p types.Patch) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.undo = append(m.undo, p)
}

// PushRedo puts p on top of the redo list.
func (m *Manager) PushRedo(p types.Patch) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.redo = append(m.redo, p)
}

// Clear drops both lists. Call this when the document is replaced wholesale.
func (m *Manager) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.undo = nil
	m.redo = nil
	logger.DebugTagf("history", "Cleared.")
}

// CanUndo reports whether actorID has anything to undo.
func (m *Manager) CanUndo(actorID string) bool {
	_, ok := m.PeekUndo(actorID)
	return ok
}

// CanRedo reports whether actorID has anything to redo.
func (m *Manager) CanRedo(actorID string) bool {
	_, ok := m.PeekRedo(actorID)
	return ok
}

// UndoLen returns the number of entries in the undo list, all actors included.
func (m *Manager) UndoLen() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.undo)
}

// RedoLen returns the number of entries in the redo list, all actors included.
func (m *Manager) RedoLen() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.redo)
}

// Undos returns a copy of the undo list, oldest first.
func (m *Manager) Undos() []types.Patch {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return slices.Clone(m.undo)
}

// Redos returns a copy of the redo list, oldest first.
func (m *Manager) Redos() []types.Patch {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return slices.Clone(m.redo)
}

func lastIndexOf(list []types.Patch, actorID string) int {
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].ActorID == actorID {
			return i
		}
	}
	return -1
}

func peek(list []types.Patch, actorID string) (types.Patch, bool) {
	i := lastIndexOf(list, actorID)
	if i < 0 {
		return types.Patch{}, false
	}
	return list[i], true
}

func take(list []types.Patch, actorID string) (types.Patch, []types.Patch, bool) {
	i := lastIndexOf(list, actorID)
	if i < 0 {
		return types.Patch{}, list, false
	}
	p := list[i]
	return p, slices.Delete(list, i, i+1), true
}
