package diff_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/bethropolis/tandem/internal/core/diff"
)

func TestExtractIdenticalIsNoop(t *testing.T) {
	c := qt.New(t)
	for _, s := range []string{"", "a", "hello world", "héllo\nwörld", "日本語"} {
		r := diff.Extract(s, s)
		c.Assert(r, qt.Equals, diff.NoChange, qt.Commentf("input %q", s))
		c.Assert(r.IsNoop(), qt.IsTrue)
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		about    string
		old, new string
		want     diff.Region
	}{{
		about: "insert in the middle",
		old:   "hello world",
		new:   "hello brave world",
		want:  diff.Region{Start: 6, End: 6, Inserted: "brave "},
	}, {
		about: "delete at the end",
		old:   "hello world",
		new:   "hello",
		want:  diff.Region{Start: 5, End: 11, Inserted: ""},
	}, {
		about: "insert into empty",
		old:   "",
		new:   "abc",
		want:  diff.Region{Start: 0, End: 0, Inserted: "abc"},
	}, {
		about: "clear everything",
		old:   "abc",
		new:   "",
		want:  diff.Region{Start: 0, End: 3, Inserted: ""},
	}, {
		about: "replace a word",
		old:   "the cat sat",
		new:   "the dog sat",
		want:  diff.Region{Start: 4, End: 7, Inserted: "dog"},
	}, {
		about: "repeated characters never cross the prefix",
		old:   "aaa",
		new:   "aaaa",
		want:  diff.Region{Start: 3, End: 3, Inserted: "a"},
	}, {
		about: "two disjoint edits come back as one region",
		old:   "abcdef",
		new:   "Xbcdeg",
		want:  diff.Region{Start: 0, End: 6, Inserted: "Xbcdeg"},
	}, {
		about: "offsets are counted in characters",
		old:   "héllo",
		new:   "héllo wörld",
		want:  diff.Region{Start: 5, End: 5, Inserted: " wörld"},
	}}
	for _, test := range tests {
		t.Run(test.about, func(t *testing.T) {
			qt.Assert(t, diff.Extract(test.old, test.new), qt.Equals, test.want)
		})
	}
}

func TestExtractRegionRebuildsNew(t *testing.T) {
	c := qt.New(t)
	pairs := [][2]string{
		{"hello world", "hello brave new world"},
		{"line one\nline two", "line one\nline 2\nline three"},
		{"abc", "xyz"},
		{"日本語のテキスト", "日本語テキスト"},
	}
	for _, p := range pairs {
		r := diff.Extract(p[0], p[1])
		old := []rune(p[0])
		got := string(old[:r.Start]) + r.Inserted + string(old[r.End:])
		c.Assert(got, qt.Equals, p[1])
	}
}
