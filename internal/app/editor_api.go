// internal/app/editor_api.go
package app

import (
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/identity"
	"github.com/bethropolis/tandem/internal/plugin"
	"github.com/bethropolis/tandem/internal/types"
)

// Ensure appEditorAPI implements the plugin.EditorAPI interface.
var _ plugin.EditorAPI = (*appEditorAPI)(nil)

// appEditorAPI provides the concrete implementation of the EditorAPI interface.
type appEditorAPI struct {
	app *App // Reference back to the main application
}

func newEditorAPI(app *App) *appEditorAPI {
	return &appEditorAPI{app: app}
}

// --- Document Access ---

func (api *appEditorAPI) Content() string {
	return api.app.session.Store().Content()
}

func (api *appEditorAPI) LastChange() *types.Patch {
	return api.app.session.Store().LastChange()
}

func (api *appEditorAPI) Identity() identity.Identity {
	return api.app.session.Identity()
}

// --- Event Bus Interaction ---

func (api *appEditorAPI) DispatchEvent(eventType event.Type, data interface{}) {
	api.app.eventManager.Dispatch(eventType, data)
}

func (api *appEditorAPI) SubscribeEvent(eventType event.Type, handler event.Handler) {
	api.app.eventManager.Subscribe(eventType, handler)
}

// --- Command Registration ---

func (api *appEditorAPI) RegisterCommand(name string, cmdFunc plugin.CommandFunc) error {
	return api.app.registerCommand(name, cmdFunc)
}

// --- Status Bar ---

func (api *appEditorAPI) SetStatusMessage(format string, args ...interface{}) {
	api.app.SetStatusMessage(format, args...)
}

// --- Configuration ---

func (api *appEditorAPI) GetPluginConfigValue(pluginName, key string) (interface{}, bool) {
	return api.app.settings.PluginValue(pluginName, key)
}
