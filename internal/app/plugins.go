package app

import (
	"github.com/bethropolis/tandem/internal/persist"
	"github.com/bethropolis/tandem/internal/plugin"

	"github.com/bethropolis/tandem/plugins/autosave"
	"github.com/bethropolis/tandem/plugins/wordcount"
)

// DefaultPlugins returns the built-in plugins. Autosave writes to store and is
// left out when there is no storage backend.
func DefaultPlugins(store persist.Store) []plugin.Plugin {
	plugins := []plugin.Plugin{wordcount.New()}
	if _, none := store.(persist.Nop); store != nil && !none {
		plugins = append(plugins, autosave.New(store))
	}
	return plugins
}
