// Package identity names the actor behind a session.
package identity

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Identity is the opaque actor id stamped on every patch plus a name for humans.
type Identity struct {
	ActorID     string
	DisplayName string
}

// Provider hands out one identity for the lifetime of a session.
type Provider struct {
	displayName string
	once        sync.Once
	identity    Identity
	newID       func() string
	intn        func(int) int
}

// NewProvider returns a provider. An empty displayName is replaced by a
// generated "User-NNN".
func NewProvider(displayName string) *Provider {
	return &Provider{
		displayName: displayName,
		newID:       uuid.NewString,
		intn:        rand.Intn,
	}
}

// Identity returns the session identity, generating it on first use.
func (p *Provider) Identity() Identity {
	p.once.Do(func() {
		name := p.displayName
		if name == "" {
			name = fmt.Sprintf("User-%d", p.intn(1000))
		}
		p.identity = Identity{ActorID: p.newID(), DisplayName: name}
	})
	return p.identity
}
