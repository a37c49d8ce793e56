package app

import (
	"fmt"

	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/plugin"
	"github.com/bethropolis/tandem/internal/types"
)

// registerCommand adds a named command. Names are unique.
func (a *App) registerCommand(name string, cmdFunc plugin.CommandFunc) error {
	if name == "" || cmdFunc == nil {
		return fmt.Errorf("invalid command registration for %q", name)
	}
	a.cmdMu.Lock()
	defer a.cmdMu.Unlock()
	if _, exists := a.commands[name]; exists {
		return fmt.Errorf("command %q already registered", name)
	}
	a.commands[name] = cmdFunc
	logger.DebugTagf("app", "Registered command %q", name)
	return nil
}

// executeCommand runs a registered command.
func (a *App) executeCommand(name string, args []string) error {
	a.cmdMu.RLock()
	cmdFunc, ok := a.commands[name]
	a.cmdMu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	logger.DebugTagf("app", "Executing command %q %v", name, args)
	return cmdFunc(args)
}

// registerAppCommands registers the built-in commands.
func (a *App) registerAppCommands() {
	builtins := map[string]plugin.CommandFunc{
		"copy": a.copyDocument,
		"undo": func([]string) error { a.undo(); return nil },
		"redo": func([]string) error { a.redo(); return nil },
		"quit": func([]string) error { a.requestQuit(); return nil },
	}
	for name, fn := range builtins {
		if err := a.registerCommand(name, fn); err != nil {
			logger.WarnTagf("app", "Failed to register %q command: %v", name, err)
		}
	}
}

// copyDocument puts the shared document on the system clipboard.
func (a *App) copyDocument([]string) error {
	content := a.session.Store().Content()
	if err := a.copyToClipboard(content); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	a.SetStatusMessage("Copied %d characters", types.RuneLen(content))
	return nil
}
