// internal/plugin/manager.go
package plugin

import (
	"fmt"
	"sync"

	"github.com/bethropolis/tandem/internal/logger"
)

// Manager handles the registration, initialization, and lifecycle of plugins.
// Plugins are initialized in registration order and shut down in reverse.
type Manager struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string
}

// NewManager creates a new plugin manager.
func NewManager() *Manager {
	return &Manager{
		plugins: make(map[string]Plugin),
	}
}

// Register adds a plugin instance to the manager.
// This should be called before InitializePlugins.
func (m *Manager) Register(plugin Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := plugin.Name()
	if name == "" {
		return fmt.Errorf("plugin registration failed: plugin name cannot be empty")
	}
	if _, exists := m.plugins[name]; exists {
		return fmt.Errorf("plugin registration failed: plugin named '%s' already registered", name)
	}

	m.plugins[name] = plugin
	m.order = append(m.order, name)
	logger.DebugTagf("plugin", "Registered plugin '%s'", name)
	return nil
}

// InitializePlugins calls Initialize on every registered plugin. A failing
// plugin is logged and skipped.
func (m *Manager) InitializePlugins(api EditorAPI) {
	pluginsToInit := m.ordered()

	logger.DebugTagf("plugin", "Initializing %d plugins...", len(pluginsToInit))
	for _, plugin := range pluginsToInit {
		if err := plugin.Initialize(api); err != nil {
			logger.ErrorTagf("plugin", "Error initializing plugin '%s': %v", plugin.Name(), err)
			continue
		}
		logger.DebugTagf("plugin", "Initialized plugin '%s'", plugin.Name())
	}
}

// ShutdownPlugins calls Shutdown on all registered plugins.
func (m *Manager) ShutdownPlugins() {
	pluginsToShutdown := m.ordered()

	logger.DebugTagf("plugin", "Shutting down %d plugins...", len(pluginsToShutdown))
	for i := len(pluginsToShutdown) - 1; i >= 0; i-- {
		plugin := pluginsToShutdown[i]
		if err := plugin.Shutdown(); err != nil {
			logger.ErrorTagf("plugin", "Error shutting down plugin '%s': %v", plugin.Name(), err)
		}
	}
}

// GetPlugin returns a registered plugin by name (e.g., for inter-plugin communication). Use cautiously.
func (m *Manager) GetPlugin(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, exists := m.plugins[name]
	return p, exists
}

func (m *Manager) ordered() []Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	plugins := make([]Plugin, 0, len(m.order))
	for _, name := range m.order {
		plugins = append(plugins, m.plugins[name])
	}
	return plugins
}
