package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/juju/pubsub/v2"

	"github.com/bethropolis/tandem/internal/bus"
	"github.com/bethropolis/tandem/internal/core/document"
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/identity"
)

var (
	alice = identity.Identity{ActorID: "actor-a", DisplayName: "Alice"}
	bob   = identity.Identity{ActorID: "actor-b", DisplayName: "Bob"}
)

type recordingBus struct {
	mu        sync.Mutex
	published []bus.Message
	handlers  []bus.Handler
}

func (b *recordingBus) Publish(msg bus.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, msg)
	return nil
}

func (b *recordingBus) Subscribe(h bus.Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
	return func() {}, nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) messages() []bus.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]bus.Message(nil), b.published...)
}

type memoryStore struct {
	content string
	err     error
}

func (m *memoryStore) Load() (string, error) { return m.content, m.err }
func (m *memoryStore) Save(c string) error   { m.content = c; return nil }
func (m *memoryStore) Close() error          { return nil }

func newSession(c *qt.C, b bus.Bus, self identity.Identity, debounce time.Duration) *Session {
	s := New(Config{
		Store:    document.NewStore(event.NewManager()),
		Bus:      b,
		Identity: self,
		Events:   event.NewManager(),
		Debounce: debounce,
	})
	c.Assert(s.Start(), qt.IsNil)
	c.Cleanup(func() { s.Close() })
	return s
}

func eventually(c *qt.C, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			c.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRapidInputCommitsOnce(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, 30*time.Millisecond)

	for _, snapshot := range []string{"h", "he", "hel", "hell", "hello"} {
		s.Input(snapshot)
	}
	eventually(c, func() bool { return len(b.messages()) > 0 })
	time.Sleep(60 * time.Millisecond)

	c.Assert(b.messages(), qt.DeepEquals, []bus.Message{
		{ActorID: alice.ActorID, DisplayName: "Alice", Start: 0, End: 0, NewText: "hello"},
	})
	c.Assert(s.Store().Content(), qt.Equals, "hello")
	c.Assert(s.Store().Snapshot().UndoStack, qt.HasLen, 1)
}

func TestFlushCommitsPendingInput(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)

	s.Input("draft")
	c.Assert(s.Flush(), qt.IsTrue)
	c.Assert(s.Store().Content(), qt.Equals, "draft")
	c.Assert(s.Flush(), qt.IsFalse)
}

func TestCommitWithoutChange(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)

	changed, err := s.Commit("")
	c.Assert(err, qt.IsNil)
	c.Assert(changed, qt.IsFalse)
	c.Assert(b.messages(), qt.HasLen, 0)
}

func TestUndoRedoPublishDeltas(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)

	_, err := s.Commit("hello")
	c.Assert(err, qt.IsNil)
	_, err = s.Commit("hello world")
	c.Assert(err, qt.IsNil)
	c.Assert(s.CanRedo(), qt.IsFalse)

	undone := s.Undo()
	c.Assert(undone, qt.IsTrue)
	c.Assert(s.Store().Content(), qt.Equals, "hello")
	c.Assert(s.CanRedo(), qt.IsTrue)

	redone := s.Redo()
	c.Assert(redone, qt.IsTrue)
	c.Assert(s.Store().Content(), qt.Equals, "hello world")

	msgs := b.messages()
	c.Assert(msgs, qt.HasLen, 4)
	c.Assert(msgs[1].Delta().Start, qt.Equals, 5)
	c.Assert(msgs[1].NewText, qt.Equals, " world")
	c.Assert(msgs[2], qt.Equals, bus.Message{ActorID: alice.ActorID, DisplayName: "Alice", Start: 5, End: 11, NewText: ""})
	c.Assert(msgs[3], qt.Equals, bus.Message{ActorID: alice.ActorID, DisplayName: "Alice", Start: 5, End: 5, NewText: " world"})
}

func TestUndoWithNothingToUndo(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)

	undone := s.Undo()
	c.Assert(undone, qt.IsFalse)
	c.Assert(s.CanUndo(), qt.IsFalse)
	c.Assert(b.messages(), qt.HasLen, 0)
}

func TestUndoCommitsPendingInputFirst(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)

	_, err := s.Commit("one")
	c.Assert(err, qt.IsNil)
	s.Input("one two")

	c.Assert(s.Undo(), qt.IsTrue)
	c.Assert(s.Store().Content(), qt.Equals, "one")
}

func TestOwnMessagesAreIgnored(t *testing.T) {
	c := qt.New(t)
	s := newSession(c, &recordingBus{}, alice, time.Hour)

	s.Receive(bus.Message{ActorID: alice.ActorID, NewText: "echo"})
	c.Assert(s.Store().Content(), qt.Equals, "")
}

func TestReceiveAppliesRemoteChange(t *testing.T) {
	c := qt.New(t)
	s := newSession(c, &recordingBus{}, alice, time.Hour)
	_, err := s.Commit("ab")
	c.Assert(err, qt.IsNil)
	c.Assert(s.LastAuthor(), qt.Equals, "Alice")

	s.Receive(bus.Message{ActorID: bob.ActorID, DisplayName: "Bob", Start: 1, End: 1, NewText: "X"})
	c.Assert(s.Store().Content(), qt.Equals, "aXb")
	c.Assert(s.LastAuthor(), qt.Equals, "Bob")

	state := s.Store().Snapshot()
	c.Assert(state.UndoStack, qt.HasLen, 1)
	c.Assert(state.RedoStack, qt.HasLen, 0)

	s.Receive(bus.Message{ActorID: "actor-c", Start: 0, End: 0, NewText: "!"})
	c.Assert(s.LastAuthor(), qt.Equals, "actor-c")
}

func TestReceiveDropsOutOfRange(t *testing.T) {
	c := qt.New(t)
	events := event.NewManager()
	var dropped []event.MessageDroppedData
	events.Subscribe(event.TypeMessageDropped, func(e event.Event) bool {
		dropped = append(dropped, e.Data.(event.MessageDroppedData))
		return false
	})

	s := New(Config{
		Store:    document.NewStore(nil),
		Bus:      &recordingBus{},
		Identity: alice,
		Events:   events,
		Debounce: time.Hour,
	})
	c.Assert(s.Start(), qt.IsNil)

	s.Receive(bus.Message{ActorID: bob.ActorID, Start: 3, End: 9, NewText: "x"})
	c.Assert(s.Store().Content(), qt.Equals, "")
	c.Assert(dropped, qt.HasLen, 1)
	c.Assert(dropped[0].ActorID, qt.Equals, bob.ActorID)
	c.Assert(dropped[0].Reason, qt.ErrorIs, document.ErrOutOfRange)
}

func TestStartLoadsSavedDocument(t *testing.T) {
	c := qt.New(t)
	saved := &memoryStore{content: "saved text"}
	s := New(Config{
		Store:    document.NewStore(nil),
		Bus:      &recordingBus{},
		Identity: alice,
		Persist:  saved,
		Debounce: time.Hour,
	})
	c.Assert(s.Start(), qt.IsNil)
	c.Assert(s.Store().Content(), qt.Equals, "saved text")
	c.Assert(s.Store().LastChange(), qt.IsNil)
	c.Assert(s.LastAuthor(), qt.Equals, "")
}

func TestStartFailsWhenLoadFails(t *testing.T) {
	c := qt.New(t)
	s := New(Config{
		Store:    document.NewStore(nil),
		Bus:      &recordingBus{},
		Identity: alice,
		Persist:  &memoryStore{err: errors.New("disk on fire")},
	})
	c.Assert(s.Start(), qt.ErrorMatches, "loading saved document: disk on fire")
}

func TestSessionsConvergeOverLocalBus(t *testing.T) {
	c := qt.New(t)
	hub := pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{})
	busA := bus.NewLocal(hub, "doc")
	busB := bus.NewLocal(hub, "doc")
	defer busA.Close()
	defer busB.Close()

	a := newSession(c, busA, alice, time.Hour)
	b := newSession(c, busB, bob, time.Hour)

	_, err := a.Commit("hello")
	c.Assert(err, qt.IsNil)
	eventually(c, func() bool { return b.Store().Content() == "hello" })
	c.Assert(b.LastAuthor(), qt.Equals, "Alice")
	c.Assert(b.CanUndo(), qt.IsFalse)

	_, err = b.Commit("hello!")
	c.Assert(err, qt.IsNil)
	eventually(c, func() bool { return a.Store().Content() == "hello!" })

	c.Assert(a.Undo(), qt.IsTrue)
	c.Assert(a.Store().Content(), qt.Equals, "!")
	eventually(c, func() bool { return b.Store().Content() == "!" })
}

func TestReceiveCommitsPendingInputFirst(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)

	s.Input("mine")
	s.Receive(bus.Message{ActorID: bob.ActorID, Start: 4, End: 4, NewText: "+theirs"})

	c.Assert(s.Store().Content(), qt.Equals, "mine+theirs")
	c.Assert(b.messages(), qt.HasLen, 1)
	c.Assert(s.Flush(), qt.IsFalse)
}

func TestSnapshotOverlappingRemoteChangeIsDiscarded(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)

	// The debounce timer has already taken "hello" when bob's change lands.
	seen := s.rebased.Load()
	s.Receive(bus.Message{ActorID: bob.ActorID, Start: 0, End: 0, NewText: "X"})

	changed, err := s.commitSince(seen, "hello")
	c.Assert(err, qt.IsNil)
	c.Assert(changed, qt.IsFalse)
	c.Assert(s.Store().Content(), qt.Equals, "X")
	c.Assert(b.messages(), qt.HasLen, 0)
}

func TestSnapshotOverlappingUndoIsDiscarded(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)
	_, err := s.Commit("one")
	c.Assert(err, qt.IsNil)

	seen := s.rebased.Load()
	c.Assert(s.Undo(), qt.IsTrue)

	changed, err := s.commitSince(seen, "one!")
	c.Assert(err, qt.IsNil)
	c.Assert(changed, qt.IsFalse)
	c.Assert(s.Store().Content(), qt.Equals, "")
	c.Assert(s.CanRedo(), qt.IsTrue)
}

func TestOverlappingLocalSnapshotsBothCommit(t *testing.T) {
	c := qt.New(t)
	b := &recordingBus{}
	s := newSession(c, b, alice, time.Hour)

	seen := s.rebased.Load()
	changed, err := s.commitSince(seen, "a")
	c.Assert(err, qt.IsNil)
	c.Assert(changed, qt.IsTrue)
	changed, err = s.commitSince(seen, "ab")
	c.Assert(err, qt.IsNil)
	c.Assert(changed, qt.IsTrue)
	c.Assert(s.Store().Content(), qt.Equals, "ab")
	c.Assert(b.messages(), qt.HasLen, 2)
}

func TestDroppedMessageDoesNotStaleSnapshots(t *testing.T) {
	c := qt.New(t)
	s := newSession(c, &recordingBus{}, alice, time.Hour)

	seen := s.rebased.Load()
	s.Receive(bus.Message{ActorID: bob.ActorID, Start: 7, End: 9, NewText: "x"})

	changed, err := s.commitSince(seen, "kept")
	c.Assert(err, qt.IsNil)
	c.Assert(changed, qt.IsTrue)
	c.Assert(s.Store().Content(), qt.Equals, "kept")
}
