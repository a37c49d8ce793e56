// Package document owns the shared text, the patch to highlight, and the
// interleaved multi-actor undo/redo history.
package document

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bethropolis/tandem/internal/core/history"
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/types"
)

// ErrOutOfRange is returned when offsets do not fit the current content.
var ErrOutOfRange = errors.New("offsets out of range")

// State is a copy of everything the store holds.
type State struct {
	Content    string
	LastChange *types.Patch
	UndoStack  []types.Patch
	RedoStack  []types.Patch
}

// Store holds the document content and its history.
// Mutations are serialized by the store's lock; events are dispatched after
// the lock is released so subscribers can read the store.
type Store struct {
	mutex      sync.RWMutex
	content    []rune
	lastChange *types.Patch
	history    *history.Manager
	events     *event.Manager
	now        func() time.Time
}

// NewStore creates an empty document. events may be nil.
func NewStore(events *event.Manager) *Store {
	return &Store{
		history: history.NewManager(),
		events:  events,
		now:     time.Now,
	}
}

// Content returns the current text.
func (s *Store) Content() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return string(s.content)
}

// LastChange returns the most recent patch, or nil after a reset.
func (s *Store) LastChange() *types.Patch {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.lastChange == nil {
		return nil
	}
	p := *s.lastChange
	return &p
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() State {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	st := State{
		Content:   string(s.content),
		UndoStack: s.history.Undos(),
		RedoStack: s.history.Redos(),
	}
	if s.lastChange != nil {
		p := *s.lastChange
		st.LastChange = &p
	}
	return st
}

// CanUndo reports whether actorID has an entry to undo.
func (s *Store) CanUndo(actorID string) bool {
	return s.history.CanUndo(actorID)
}

// CanRedo reports whether actorID has an entry to redo.
func (s *Store) CanRedo(actorID string) bool {
	return s.history.CanRedo(actorID)
}

// SetContent replaces the content and drops lastChange and all history.
// It is meant for full reinitialization, such as loading a saved snapshot.
func (s *Store) SetContent(text string) {
	s.mutex.Lock()
	s.content = []rune(text)
	s.lastChange = nil
	s.history.Clear()
	s.mutex.Unlock()

	logger.DebugTagf("document", "Content reset (%d chars)", len(text))
	s.events.Dispatch(event.TypeDocumentReset, event.DocumentResetData{Content: text})
}

// ApplyChange replaces content[start:end] with newText on behalf of a local actor
// and records the edit in the undo history. Pending redo entries of every actor
// are discarded.
func (s *Store) ApplyChange(actorID string, start, end int, newText string) (types.Patch, error) {
	s.mutex.Lock()
	if err := s.checkRange(start, end); err != nil {
		s.mutex.Unlock()
		return types.Patch{}, fmt.Errorf("apply change: %w", err)
	}

	oldText := string(s.content[start:end])
	s.splice(start, end, newText)

	change := types.Patch{
		ActorID:   actorID,
		Timestamp: s.now(),
		Start:     start,
		End:       start + types.RuneLen(newText),
		OldText:   oldText,
		NewText:   newText,
	}
	s.history.Record(change)
	s.lastChange = &change
	content := string(s.content)
	s.mutex.Unlock()

	s.dispatchChanged(event.OriginLocal, content, change)
	return change, nil
}

// ReceiveExternalChange applies an edit made by another session. The history is
// left untouched: remote edits are never revertible here. The prior text is not
// kept, the resulting patch only shapes the highlight span.
func (s *Store) ReceiveExternalChange(actorID string, start, end int, newText string) (types.Patch, error) {
	s.mutex.Lock()
	if err := s.checkRange(start, end); err != nil {
		s.mutex.Unlock()
		return types.Patch{}, fmt.Errorf("receive change from %s: %w", actorID, err)
	}

	s.splice(start, end, newText)

	change := types.Patch{
		ActorID:   actorID,
		Timestamp: s.now(),
		Start:     start,
		End:       start + types.RuneLen(newText),
		NewText:   newText,
	}
	s.lastChange = &change
	content := string(s.content)
	s.mutex.Unlock()

	s.dispatchChanged(event.OriginRemote, content, change)
	return change, nil
}

// Undo reverts the most recent undoable edit of actorID, which may sit below
// entries of other actors. It returns the delta that was applied to the content
// and false when actorID had nothing to undo. A span that no longer fits the
// content is clamped to it; the entry always moves to the redo list.
func (s *Store) Undo(actorID string) (types.Delta, bool) {
	s.mutex.Lock()
	change, ok := s.history.TakeUndo(actorID)
	if !ok {
		s.mutex.Unlock()
		logger.DebugTagf("document", "Nothing to undo for %s", actorID)
		return types.Delta{}, false
	}

	start, end := s.clampRange(change.Start, change.End)
	s.splice(start, end, change.OldText)
	s.history.PushRedo(change)

	reverted := types.Patch{
		ActorID:   change.ActorID,
		Timestamp: change.Timestamp,
		Start:     start,
		End:       start + types.RuneLen(change.OldText),
		OldText:   change.NewText,
		NewText:   change.OldText,
	}
	s.lastChange = &reverted
	content := string(s.content)
	s.mutex.Unlock()

	delta := types.Delta{
		ActorID: actorID,
		Start:   start,
		End:     end,
		NewText: change.OldText,
	}
	logger.DebugTagf("document", "Undid change of %s at [%d,%d)", actorID, start, end)
	s.dispatchChanged(event.OriginUndo, content, reverted)
	return delta, true
}

// Redo reapplies the most recently undone edit of actorID. The insertion point
// is taken from the stored patch as is; edits made by others in between are
// not accounted for beyond clamping the span to the content.
func (s *Store) Redo(actorID string) (types.Delta, bool) {
	s.mutex.Lock()
	change, ok := s.history.TakeRedo(actorID)
	if !ok {
		s.mutex.Unlock()
		logger.DebugTagf("document", "Nothing to redo for %s", actorID)
		return types.Delta{}, false
	}

	start, end := s.clampRange(change.Start, change.Start+types.RuneLen(change.OldText))
	s.splice(start, end, change.NewText)
	s.history.PushUndo(change)

	redone := change
	s.lastChange = &redone
	content := string(s.content)
	s.mutex.Unlock()

	// End is the span replaced here, so receivers splice the same range.
	delta := types.Delta{
		ActorID: actorID,
		Start:   start,
		End:     end,
		NewText: change.NewText,
	}
	logger.DebugTagf("document", "Redid change of %s at [%d,%d)", actorID, start, end)
	s.dispatchChanged(event.OriginRedo, content, redone)
	return delta, true
}

// checkRange must be called with the lock held.
func (s *Store) checkRange(start, end int) error {
	if start < 0 || start > end || end > len(s.content) {
		return fmt.Errorf("%w: [%d,%d) in %d chars", ErrOutOfRange, start, end, len(s.content))
	}
	return nil
}

// clampRange bounds a stored span to the current content. It must be called
// with the lock held.
func (s *Store) clampRange(start, end int) (int, int) {
	n := len(s.content)
	start = min(max(start, 0), n)
	end = min(max(end, start), n)
	return start, end
}

// splice must be called with the lock held and an in-bounds range.
func (s *Store) splice(start, end int, text string) {
	inserted := []rune(text)
	next := make([]rune, 0, len(s.content)-(end-start)+len(inserted))
	next = append(next, s.content[:start]...)
	next = append(next, inserted...)
	next = append(next, s.content[end:]...)
	s.content = next
}

func (s *Store) dispatchChanged(origin event.Origin, content string, change types.Patch) {
	s.events.Dispatch(event.TypeDocumentChanged, event.DocumentChangedData{
		Origin:     origin,
		Content:    content,
		LastChange: change,
	})
}
