package identity

import (
	"regexp"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
)

func TestIdentityIsStable(t *testing.T) {
	c := qt.New(t)
	p := NewProvider("")
	first := p.Identity()
	c.Assert(p.Identity(), qt.Equals, first)

	_, err := uuid.Parse(first.ActorID)
	c.Assert(err, qt.IsNil)
	c.Assert(regexp.MustCompile(`^User-\d{1,3}$`).MatchString(first.DisplayName), qt.IsTrue)
}

func TestProvidersDiffer(t *testing.T) {
	c := qt.New(t)
	c.Assert(NewProvider("").Identity().ActorID, qt.Not(qt.Equals), NewProvider("").Identity().ActorID)
}

func TestConfiguredDisplayName(t *testing.T) {
	c := qt.New(t)
	p := NewProvider("ada")
	c.Assert(p.Identity().DisplayName, qt.Equals, "ada")
}

func TestGeneratedName(t *testing.T) {
	c := qt.New(t)
	p := NewProvider("")
	p.newID = func() string { return "fixed" }
	p.intn = func(n int) int {
		c.Check(n, qt.Equals, 1000)
		return 42
	}
	c.Assert(p.Identity(), qt.Equals, Identity{ActorID: "fixed", DisplayName: "User-42"})
}
