package document_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/bethropolis/tandem/internal/core/document"
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/types"
)

func newStore(content string) *document.Store {
	s := document.NewStore(nil)
	s.SetContent(content)
	return s
}

func mustUndo(c *qt.C, s *document.Store, actorID string) {
	_, ok := s.Undo(actorID)
	c.Assert(ok, qt.IsTrue)
}

func mustRedo(c *qt.C, s *document.Store, actorID string) {
	_, ok := s.Redo(actorID)
	c.Assert(ok, qt.IsTrue)
}

func TestApplyChange(t *testing.T) {
	c := qt.New(t)
	s := newStore("hello world")

	p, err := s.ApplyChange("a", 6, 6, "brave ")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Content(), qt.Equals, "hello brave world")
	c.Assert(p.Start, qt.Equals, 6)
	c.Assert(p.End, qt.Equals, 12)
	c.Assert(p.OldText, qt.Equals, "")
	c.Assert(p.NewText, qt.Equals, "brave ")
	c.Assert(p.Timestamp.IsZero(), qt.IsFalse)

	st := s.Snapshot()
	c.Assert(st.UndoStack, qt.HasLen, 1)
	c.Assert(st.RedoStack, qt.HasLen, 0)
	c.Assert(*st.LastChange, qt.DeepEquals, p)
}

func TestApplyChangeStoresEndOfNewSpan(t *testing.T) {
	c := qt.New(t)
	s := newStore("the cat sat")

	p, err := s.ApplyChange("a", 4, 7, "tiger")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Content(), qt.Equals, "the tiger sat")
	c.Assert(p.OldText, qt.Equals, "cat")
	c.Assert(p.End, qt.Equals, 9)
}

func TestApplyChangeRejectsBadOffsets(t *testing.T) {
	c := qt.New(t)
	s := newStore("abc")

	for _, r := range [][2]int{{-1, 0}, {2, 1}, {0, 4}, {4, 4}} {
		_, err := s.ApplyChange("a", r[0], r[1], "x")
		c.Assert(err, qt.ErrorIs, document.ErrOutOfRange)
		_, err = s.ReceiveExternalChange("b", r[0], r[1], "x")
		c.Assert(err, qt.ErrorIs, document.ErrOutOfRange)
	}
	st := s.Snapshot()
	c.Assert(st.Content, qt.Equals, "abc")
	c.Assert(st.UndoStack, qt.HasLen, 0)
	c.Assert(st.LastChange, qt.IsNil)
}

func TestApplyThenUndoRestoresContent(t *testing.T) {
	tests := []struct {
		content    string
		start, end int
		text       string
	}{
		{"", 0, 0, "hello"},
		{"hello world", 0, 11, ""},
		{"hello world", 6, 11, "there"},
		{"héllo wörld", 1, 4, "ELL"},
		{"日本語", 3, 3, "です"},
		{"abc", 1, 1, ""},
	}
	for _, test := range tests {
		c := qt.New(t)
		s := newStore(test.content)
		_, err := s.ApplyChange("a", test.start, test.end, test.text)
		c.Assert(err, qt.IsNil)
		_, ok := s.Undo("a")
		c.Assert(ok, qt.IsTrue)
		c.Assert(s.Content(), qt.Equals, test.content)
	}
}

func TestUndoRedoSequence(t *testing.T) {
	c := qt.New(t)
	s := newStore("start")

	edits := []struct {
		start, end int
		text       string
	}{
		{5, 5, " one"},
		{0, 5, "begin"},
		{9, 9, " two"},
		{0, 0, ">> "},
	}
	for _, e := range edits {
		_, err := s.ApplyChange("a", e.start, e.end, e.text)
		c.Assert(err, qt.IsNil)
	}
	final := s.Content()
	c.Assert(final, qt.Equals, ">> begin one two")

	for range edits {
		_, ok := s.Undo("a")
		c.Assert(ok, qt.IsTrue)
	}
	c.Assert(s.Content(), qt.Equals, "start")

	for range edits {
		_, ok := s.Redo("a")
		c.Assert(ok, qt.IsTrue)
	}
	c.Assert(s.Content(), qt.Equals, final)
}

func TestUndoWithNothingIsSilent(t *testing.T) {
	c := qt.New(t)
	s := newStore("abc")
	_, err := s.ApplyChange("b", 0, 0, "x")
	c.Assert(err, qt.IsNil)

	delta, ok := s.Undo("a")
	c.Assert(ok, qt.IsFalse)
	c.Assert(delta, qt.Equals, types.Delta{})

	_, ok = s.Redo("a")
	c.Assert(ok, qt.IsFalse)
	c.Assert(s.Content(), qt.Equals, "xabc")
}

func TestUndoPicksNearestEntryOfActor(t *testing.T) {
	c := qt.New(t)
	s := newStore("")

	_, err := s.ApplyChange("A", 0, 0, "one ")
	c.Assert(err, qt.IsNil)
	_, err = s.ApplyChange("B", 4, 4, "two ")
	c.Assert(err, qt.IsNil)
	_, err = s.ApplyChange("A", 8, 8, "three")
	c.Assert(err, qt.IsNil)

	_, ok := s.Undo("A")
	c.Assert(ok, qt.IsTrue)
	c.Assert(s.Content(), qt.Equals, "one two ")

	st := s.Snapshot()
	c.Assert(st.UndoStack, qt.HasLen, 2)
	c.Assert(st.UndoStack[0].NewText, qt.Equals, "one ")
	c.Assert(st.UndoStack[1].ActorID, qt.Equals, "B")
	c.Assert(st.RedoStack, qt.HasLen, 1)
	c.Assert(st.RedoStack[0].NewText, qt.Equals, "three")
}

func TestUndoSetsReversalAsLastChange(t *testing.T) {
	c := qt.New(t)
	s := newStore("the cat sat")
	applied, err := s.ApplyChange("a", 4, 7, "tiger")
	c.Assert(err, qt.IsNil)

	delta, ok := s.Undo("a")
	c.Assert(ok, qt.IsTrue)
	c.Assert(delta, qt.Equals, types.Delta{ActorID: "a", Start: 4, End: 9, NewText: "cat"})

	last := s.LastChange()
	c.Assert(last, qt.Not(qt.IsNil))
	c.Assert(*last, qt.DeepEquals, types.Patch{
		ActorID:   "a",
		Timestamp: applied.Timestamp,
		Start:     4,
		End:       7,
		OldText:   "tiger",
		NewText:   "cat",
	})

	// The entry moves to the redo list unchanged.
	st := s.Snapshot()
	c.Assert(st.RedoStack, qt.DeepEquals, []types.Patch{applied})
}

func TestRedoReappliesAndSetsLastChange(t *testing.T) {
	c := qt.New(t)
	s := newStore("the cat sat")
	applied, err := s.ApplyChange("a", 4, 7, "tiger")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "a")

	delta, ok := s.Redo("a")
	c.Assert(ok, qt.IsTrue)
	c.Assert(delta, qt.Equals, types.Delta{ActorID: "a", Start: 4, End: 7, NewText: "tiger"})
	c.Assert(s.Content(), qt.Equals, "the tiger sat")
	c.Assert(*s.LastChange(), qt.DeepEquals, applied)

	st := s.Snapshot()
	c.Assert(st.UndoStack, qt.DeepEquals, []types.Patch{applied})
	c.Assert(st.RedoStack, qt.HasLen, 0)
}

func TestApplyAfterUndoClearsRedoForEveryone(t *testing.T) {
	c := qt.New(t)
	s := newStore("")
	_, err := s.ApplyChange("A", 0, 0, "a")
	c.Assert(err, qt.IsNil)
	_, err = s.ApplyChange("B", 1, 1, "b")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "A")
	mustUndo(c, s, "B")
	c.Assert(s.CanRedo("A"), qt.IsTrue)
	c.Assert(s.CanRedo("B"), qt.IsTrue)

	_, err = s.ApplyChange("C", 0, 0, "c")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Snapshot().RedoStack, qt.HasLen, 0)
	c.Assert(s.CanRedo("A"), qt.IsFalse)
	c.Assert(s.CanRedo("B"), qt.IsFalse)
}

func TestReceiveExternalChangeLeavesHistoryAlone(t *testing.T) {
	c := qt.New(t)
	s := newStore("hello")
	_, err := s.ApplyChange("A", 5, 5, " world")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "A")
	_, err = s.ApplyChange("A", 0, 0, "> ")
	c.Assert(err, qt.IsNil)
	_, err = s.ApplyChange("A", 0, 0, "#")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "A")

	before := s.Snapshot()
	p, err := s.ReceiveExternalChange("B", 2, 7, "HELLO!")
	c.Assert(err, qt.IsNil)
	after := s.Snapshot()

	c.Assert(after.Content, qt.Equals, "> HELLO!")
	c.Assert(after.UndoStack, qt.DeepEquals, before.UndoStack)
	c.Assert(after.RedoStack, qt.DeepEquals, before.RedoStack)
	c.Assert(p.OldText, qt.Equals, "")
	c.Assert(p.Start, qt.Equals, 2)
	c.Assert(p.End, qt.Equals, 8)
	c.Assert(*after.LastChange, qt.DeepEquals, p)
}

func TestSetContentDropsHistory(t *testing.T) {
	c := qt.New(t)
	s := newStore("abc")
	_, err := s.ApplyChange("A", 0, 0, "x")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "A")
	_, err = s.ApplyChange("A", 0, 0, "y")
	c.Assert(err, qt.IsNil)

	s.SetContent("fresh")
	st := s.Snapshot()
	c.Assert(st.Content, qt.Equals, "fresh")
	c.Assert(st.LastChange, qt.IsNil)
	c.Assert(st.UndoStack, qt.HasLen, 0)
	c.Assert(st.RedoStack, qt.HasLen, 0)
}

func TestUndoAfterDriftClampsToContent(t *testing.T) {
	c := qt.New(t)
	s := newStore("")
	_, err := s.ApplyChange("A", 0, 0, "hello world")
	c.Assert(err, qt.IsNil)
	_, err = s.ReceiveExternalChange("B", 0, 11, "hi")
	c.Assert(err, qt.IsNil)

	// [0,11) runs past "hi": the whole content is replaced.
	delta, ok := s.Undo("A")
	c.Assert(ok, qt.IsTrue)
	c.Assert(delta, qt.Equals, types.Delta{ActorID: "A", Start: 0, End: 2, NewText: ""})
	c.Assert(s.Content(), qt.Equals, "")
	c.Assert(s.CanUndo("A"), qt.IsFalse)
	c.Assert(s.CanRedo("A"), qt.IsTrue)
}

func TestUndoPastDriftedEntryReachesOlderEdits(t *testing.T) {
	c := qt.New(t)
	s := newStore("")
	_, err := s.ApplyChange("B", 0, 0, "X")
	c.Assert(err, qt.IsNil)
	_, err = s.ApplyChange("A", 0, 0, "aa")
	c.Assert(err, qt.IsNil)
	_, err = s.ApplyChange("B", 3, 3, "yy")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "A")
	c.Assert(s.Content(), qt.Equals, "Xyy")

	// B's latest span [3,5) starts at the end of "Xyy".
	delta, ok := s.Undo("B")
	c.Assert(ok, qt.IsTrue)
	c.Assert(delta, qt.Equals, types.Delta{ActorID: "B", Start: 3, End: 3, NewText: ""})
	c.Assert(s.Content(), qt.Equals, "Xyy")

	mustUndo(c, s, "B")
	c.Assert(s.Content(), qt.Equals, "yy")
	c.Assert(s.CanUndo("B"), qt.IsFalse)
	c.Assert(s.Snapshot().UndoStack, qt.HasLen, 0)
}

func TestRedoAfterDriftClampsToContent(t *testing.T) {
	c := qt.New(t)
	s := newStore("abcdef")
	_, err := s.ApplyChange("A", 4, 6, "EF")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "A")
	_, err = s.ReceiveExternalChange("B", 2, 6, "")
	c.Assert(err, qt.IsNil)

	delta, ok := s.Redo("A")
	c.Assert(ok, qt.IsTrue)
	c.Assert(delta, qt.Equals, types.Delta{ActorID: "A", Start: 2, End: 2, NewText: "EF"})
	c.Assert(s.Content(), qt.Equals, "abEF")
	c.Assert(s.CanRedo("A"), qt.IsFalse)
}

func TestRedoIgnoresDrift(t *testing.T) {
	c := qt.New(t)
	s := newStore("abc")
	_, err := s.ApplyChange("A", 3, 3, "def")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "A")

	// Another actor inserts in front; the stored offset is reused unchanged.
	_, err = s.ReceiveExternalChange("B", 0, 0, "XY")
	c.Assert(err, qt.IsNil)
	_, ok := s.Redo("A")
	c.Assert(ok, qt.IsTrue)
	c.Assert(s.Content(), qt.Equals, "XYadefbc")
}

func TestMutationsDispatchEvents(t *testing.T) {
	c := qt.New(t)
	events := event.NewManager()
	s := document.NewStore(events)

	var origins []event.Origin
	var contents []string
	events.Subscribe(event.TypeDocumentChanged, func(e event.Event) bool {
		data := e.Data.(event.DocumentChangedData)
		origins = append(origins, data.Origin)
		contents = append(contents, data.Content)
		// Subscribers may read the store while handling the event.
		c.Check(s.Content(), qt.Equals, data.Content)
		return false
	})
	resets := 0
	events.Subscribe(event.TypeDocumentReset, func(event.Event) bool { resets++; return false })

	s.SetContent("ab")
	_, err := s.ApplyChange("A", 2, 2, "c")
	c.Assert(err, qt.IsNil)
	_, err = s.ReceiveExternalChange("B", 3, 3, "z")
	c.Assert(err, qt.IsNil)
	mustUndo(c, s, "A")
	mustRedo(c, s, "A")

	c.Assert(resets, qt.Equals, 1)
	c.Assert(origins, qt.DeepEquals, []event.Origin{
		event.OriginLocal, event.OriginRemote, event.OriginUndo, event.OriginRedo,
	})
	c.Assert(contents, qt.DeepEquals, []string{"abc", "abcz", "abz", "abcz"})
}
