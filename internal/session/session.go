// Package session connects one actor's editing surface to the shared document:
// it debounces snapshots into patches, publishes them, and applies the
// patches other actors publish.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bethropolis/tandem/internal/bus"
	"github.com/bethropolis/tandem/internal/core/diff"
	"github.com/bethropolis/tandem/internal/core/document"
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/identity"
	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/persist"
	"github.com/bethropolis/tandem/internal/types"
	"github.com/bethropolis/tandem/internal/utils"
)

// Config holds the collaborators of a session. Events and Persist are optional.
type Config struct {
	Store    *document.Store
	Bus      bus.Bus
	Identity identity.Identity
	Events   *event.Manager
	Persist  persist.Store
	Debounce time.Duration
}

// Session is the single mutation path for one actor: local commits, inbound
// messages, undo and redo are serialized by its lock.
type Session struct {
	mutex     sync.Mutex
	store     *document.Store
	bus       bus.Bus
	self      identity.Identity
	events    *event.Manager
	persist   persist.Store
	debounce  time.Duration
	debouncer utils.Debouncer

	// rebased counts mutations that did not come from this surface's
	// snapshots. A snapshot taken under an older count is stale.
	rebased atomic.Uint64

	namesMu sync.RWMutex
	names   map[string]string // display names seen on the bus, by actor id

	unsubscribe func()
}

// New creates a session. Call Start before feeding it input.
func New(cfg Config) *Session {
	return &Session{
		store:    cfg.Store,
		bus:      cfg.Bus,
		self:     cfg.Identity,
		events:   cfg.Events,
		persist:  cfg.Persist,
		debounce: cfg.Debounce,
		names:    make(map[string]string),
	}
}

// Start loads the saved snapshot, if any, and subscribes to the bus.
func (s *Session) Start() error {
	if s.persist != nil {
		content, err := s.persist.Load()
		if err != nil {
			return fmt.Errorf("loading saved document: %w", err)
		}
		s.store.SetContent(content)
		logger.InfoTagf("session", "Loaded %d chars", types.RuneLen(content))
	}

	unsubscribe, err := s.bus.Subscribe(s.Receive)
	if err != nil {
		return fmt.Errorf("subscribing to sync bus: %w", err)
	}
	s.unsubscribe = unsubscribe
	logger.InfoTagf("session", "Session started as %s (%s)", s.self.DisplayName, s.self.ActorID)
	return nil
}

// Input takes a raw snapshot of the editing surface. Only the last snapshot
// of a burst is committed, once the surface has been idle for the debounce period.
func (s *Session) Input(snapshot string) {
	seen := s.rebased.Load()
	s.debouncer.Debounce(s.debounce, func() {
		if _, err := s.commitSince(seen, snapshot); err != nil {
			logger.ErrorTagf("session", "Committing edit: %v", err)
		}
	})
}

// Flush commits a pending snapshot now. It reports whether one was pending.
func (s *Session) Flush() bool {
	return s.debouncer.Flush()
}

// Commit diffs snapshot against the document, applies the change as a local
// edit and publishes it. It returns false when nothing changed.
func (s *Session) Commit(snapshot string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.commitLocked(snapshot)
}

// commitSince commits a snapshot taken when the rebase count was seen. If
// a remote change, undo or redo landed since, the snapshot predates it and
// diffing it would revert that change, so it is discarded.
func (s *Session) commitSince(seen uint64, snapshot string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.rebased.Load() != seen {
		logger.WarnTagf("session", "Discarding snapshot taken before the document changed underneath it")
		return false, nil
	}
	return s.commitLocked(snapshot)
}

func (s *Session) commitLocked(snapshot string) (bool, error) {
	region := diff.Extract(s.store.Content(), snapshot)
	if region.IsNoop() {
		return false, nil
	}

	change, err := s.store.ApplyChange(s.self.ActorID, region.Start, region.End, region.Inserted)
	if err != nil {
		return false, err
	}
	s.publish(types.Delta{
		ActorID: s.self.ActorID,
		Start:   change.Start,
		End:     change.Start + types.RuneLen(change.OldText),
		NewText: change.NewText,
	})
	return true, nil
}

// Undo reverts this actor's latest edit and publishes the reversal.
// A pending snapshot is committed first so it is what gets undone.
func (s *Session) Undo() bool {
	s.Flush()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	delta, ok := s.store.Undo(s.self.ActorID)
	if ok {
		s.rebased.Add(1)
		s.publish(delta)
	}
	return ok
}

// Redo reapplies this actor's latest undone edit and publishes it.
func (s *Session) Redo() bool {
	s.Flush()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	delta, ok := s.store.Redo(s.self.ActorID)
	if ok {
		s.rebased.Add(1)
		s.publish(delta)
	}
	return ok
}

// Receive applies a message from the bus. The session's own messages are
// ignored, and messages that do not fit the document are dropped.
// Receive must not be called from a DocumentChanged handler.
func (s *Session) Receive(msg bus.Message) {
	if msg.ActorID == s.self.ActorID {
		return
	}
	// Local typing still in the debounce window is committed against the
	// content it was typed on.
	s.Flush()

	if msg.DisplayName != "" {
		s.namesMu.Lock()
		s.names[msg.ActorID] = msg.DisplayName
		s.namesMu.Unlock()
	}

	s.mutex.Lock()
	_, err := s.store.ReceiveExternalChange(msg.ActorID, msg.Start, msg.End, msg.NewText)
	if err == nil {
		s.rebased.Add(1)
	}
	s.mutex.Unlock()

	if err != nil {
		logger.WarnTagf("session", "Dropping message from %s: %v", msg.ActorID, err)
		s.events.Dispatch(event.TypeMessageDropped, event.MessageDroppedData{ActorID: msg.ActorID, Reason: err})
	}
}

// LastAuthor returns the display name of whoever made the highlighted change,
// or "" when nothing has changed since the document was loaded.
func (s *Session) LastAuthor() string {
	change := s.store.LastChange()
	if change == nil {
		return ""
	}
	if change.ActorID == s.self.ActorID {
		return s.self.DisplayName
	}
	s.namesMu.RLock()
	defer s.namesMu.RUnlock()
	if name, ok := s.names[change.ActorID]; ok {
		return name
	}
	return change.ActorID
}

// CanUndo reports whether this actor has an edit to undo.
func (s *Session) CanUndo() bool { return s.store.CanUndo(s.self.ActorID) }

// CanRedo reports whether this actor has an undone edit to redo.
func (s *Session) CanRedo() bool { return s.store.CanRedo(s.self.ActorID) }

// Store returns the document the session edits.
func (s *Session) Store() *document.Store { return s.store }

// Identity returns the actor this session edits as.
func (s *Session) Identity() identity.Identity { return s.self }

// Close commits any pending snapshot and leaves the bus. The bus itself is
// owned by the caller.
func (s *Session) Close() error {
	s.Flush()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	return nil
}

// publish must be called with the lock held. Publishing is fire-and-forget:
// a failure is logged and the local edit stands.
func (s *Session) publish(delta types.Delta) {
	err := s.bus.Publish(bus.FromDelta(delta, s.self.DisplayName))
	switch {
	case err == nil:
		logger.DebugTagf("session", "Published [%d,%d) %q", delta.Start, delta.End, delta.NewText)
	case errors.Is(err, bus.ErrClosed):
		logger.DebugTagf("session", "Not publishing, bus closed")
	default:
		logger.WarnTagf("session", "Publishing change: %v", err)
	}
}
