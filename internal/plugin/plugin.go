// internal/plugin/plugin.go
package plugin

import (
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/identity"
	"github.com/bethropolis/tandem/internal/types"
)

// CommandFunc defines the signature for commands registered by plugins.
// It takes arguments (e.g., from user input) and returns an error.
type CommandFunc func(args []string) error

// EditorAPI defines the methods plugins can use to interact with the editor core.
// Plugins read the shared document; they never mutate it.
type EditorAPI interface {
	// --- Document Access ---
	Content() string
	LastChange() *types.Patch
	Identity() identity.Identity

	// --- Event Bus Interaction ---
	DispatchEvent(eventType event.Type, data interface{})
	SubscribeEvent(eventType event.Type, handler event.Handler)

	// --- Command Registration ---
	RegisterCommand(name string, cmdFunc CommandFunc) error

	// --- Status Bar ---
	SetStatusMessage(format string, args ...interface{})

	// --- Configuration ---
	// GetPluginConfigValue reads a key of the [plugins.<name>] table.
	GetPluginConfigValue(pluginName, key string) (interface{}, bool)
}

// Plugin defines the interface that all plugins must implement.
type Plugin interface {
	// Name returns the unique identifier name of the plugin.
	Name() string

	// Initialize is called once when the plugin is loaded.
	// Used for setup, subscribing to events, registering commands.
	Initialize(api EditorAPI) error

	// Shutdown is called once when the editor is closing.
	Shutdown() error
}
