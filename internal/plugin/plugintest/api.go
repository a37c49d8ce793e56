// Package plugintest provides an in-memory EditorAPI for plugin tests.
package plugintest

import (
	"fmt"
	"sync"

	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/identity"
	"github.com/bethropolis/tandem/internal/plugin"
	"github.com/bethropolis/tandem/internal/types"
)

var _ plugin.EditorAPI = (*API)(nil)

// API records what plugins do with it.
type API struct {
	Events *event.Manager
	Config map[string]map[string]interface{}
	Self   identity.Identity

	mu       sync.Mutex
	content  string
	last     *types.Patch
	commands map[string]plugin.CommandFunc
	messages []string
}

// NewAPI returns an API with an empty document.
func NewAPI() *API {
	return &API{
		Events:   event.NewManager(),
		Config:   map[string]map[string]interface{}{},
		Self:     identity.Identity{ActorID: "test-actor", DisplayName: "Tester"},
		commands: map[string]plugin.CommandFunc{},
	}
}

// SetDocument replaces what Content and LastChange return.
func (a *API) SetDocument(content string, last *types.Patch) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.content = content
	a.last = last
}

// Run executes a registered command.
func (a *API) Run(name string, args ...string) error {
	a.mu.Lock()
	cmd, ok := a.commands[name]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(args)
}

// Messages returns every status message set so far.
func (a *API) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.messages...)
}

func (a *API) Content() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.content
}

func (a *API) LastChange() *types.Patch {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *API) Identity() identity.Identity { return a.Self }

func (a *API) DispatchEvent(eventType event.Type, data interface{}) {
	a.Events.Dispatch(eventType, data)
}

func (a *API) SubscribeEvent(eventType event.Type, handler event.Handler) {
	a.Events.Subscribe(eventType, handler)
}

func (a *API) RegisterCommand(name string, cmdFunc plugin.CommandFunc) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.commands[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	a.commands[name] = cmdFunc
	return nil
}

func (a *API) SetStatusMessage(format string, args ...interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, fmt.Sprintf(format, args...))
}

func (a *API) GetPluginConfigValue(pluginName, key string) (interface{}, bool) {
	section, ok := a.Config[pluginName]
	if !ok {
		return nil, false
	}
	v, ok := section[key]
	return v, ok
}
