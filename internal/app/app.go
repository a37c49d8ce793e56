// internal/app/app.go
package app

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"

	"github.com/bethropolis/tandem/internal/config"
	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/input"
	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/plugin"
	"github.com/bethropolis/tandem/internal/session"
	"github.com/bethropolis/tandem/internal/statusbar"
	"github.com/bethropolis/tandem/internal/tui"
)

// Options wires an App to an already started session.
type Options struct {
	Session *session.Session
	Events  *event.Manager
	Config  *config.Config
	Plugins []plugin.Plugin
	Screen  tcell.Screen // nil opens the real terminal
}

// App encapsulates the core components and main loop of the editor.
type App struct {
	tuiManager     *tui.TUI
	session        *session.Session
	surface        *surface
	statusBar      *statusbar.StatusBar
	eventManager   *event.Manager
	pluginManager  *plugin.Manager
	inputProcessor *input.InputProcessor
	editorAPI      plugin.EditorAPI
	settings       *config.Config

	cmdMu    sync.RWMutex
	commands map[string]plugin.CommandFunc

	copyToClipboard func(string) error

	// Channels managed by the App
	quit          chan struct{}
	quitOnce      sync.Once
	redrawRequest chan struct{}
}

// NewApp creates the editor around opts.Session and initializes its plugins.
func NewApp(opts Options) (*App, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("app needs a session")
	}
	if opts.Events == nil {
		return nil, fmt.Errorf("app needs the session's event manager")
	}
	settings := opts.Config
	if settings == nil {
		settings = config.NewDefaultConfig()
	}

	var tuiManager *tui.TUI
	var err error
	if opts.Screen != nil {
		tuiManager, err = tui.NewWithScreen(opts.Screen)
	} else {
		tuiManager, err = tui.New()
	}
	if err != nil {
		return nil, fmt.Errorf("TUI initialization failed: %w", err)
	}

	sbConfig := statusbar.DefaultConfig()
	sbConfig.MessageTimeout = config.MessageTimeout

	a := &App{
		tuiManager:      tuiManager,
		session:         opts.Session,
		surface:         newSurface(),
		statusBar:       statusbar.New(sbConfig),
		eventManager:    opts.Events,
		pluginManager:   plugin.NewManager(),
		inputProcessor:  input.NewInputProcessor(),
		settings:        settings,
		commands:        make(map[string]plugin.CommandFunc),
		copyToClipboard: clipboard.WriteAll,
		quit:            make(chan struct{}),
		redrawRequest:   make(chan struct{}, 1),
	}
	a.editorAPI = newEditorAPI(a)

	store := opts.Session.Store()
	a.surface.reset(store.Content(), store.LastChange(), 0)
	a.statusBar.SetUser(opts.Session.Identity().DisplayName)
	a.refreshDocumentInfo()

	// --- Subscribe Core Components (App level wiring) ---
	a.subscribeEvents()
	a.registerAppCommands()

	// --- Register and Initialize Plugins ---
	for _, p := range opts.Plugins {
		if err := a.pluginManager.Register(p); err != nil {
			logger.WarnTagf("app", "Failed to register plugin %s: %v", p.Name(), err)
		}
	}
	a.pluginManager.InitializePlugins(a.editorAPI)

	return a, nil
}

// Run starts the application's main event and drawing loops. It returns once
// the user quits, after the session flushed its pending edit.
func (a *App) Run() error {
	defer a.tuiManager.Close()
	defer a.pluginManager.ShutdownPlugins()

	go a.eventLoop()

	a.eventManager.Dispatch(event.TypeAppReady, event.AppReadyData{})
	a.statusBar.SetTemporaryMessage("%s - Ctrl+Z Undo | Ctrl+Y Redo | Ctrl+K Copy | Esc Quit", config.AppName)
	a.requestRedraw()

	// --- Main Drawing Loop ---
	for {
		select {
		case <-a.quit:
			if err := a.session.Close(); err != nil {
				logger.WarnTagf("app", "Closing session: %v", err)
			}
			a.eventManager.Dispatch(event.TypeAppQuit, event.AppQuitData{})
			logger.InfoTagf("app", "Exiting application.")
			return nil
		case <-a.redrawRequest:
			a.drawEditor()
		}
	}
}

// eventLoop handles TUI events until the screen is finalized.
func (a *App) eventLoop() {
	for {
		ev := a.tuiManager.PollEvent()
		if ev == nil {
			return
		}

		needsRedraw := false
		switch eventData := ev.(type) {
		case *tcell.EventResize:
			a.tuiManager.Sync()
			needsRedraw = true
		case *tcell.EventKey:
			needsRedraw = a.handleKey(eventData)
		}

		if needsRedraw {
			a.requestRedraw()
		}
	}
}

// handleKey applies one key press and reports whether the screen changed.
func (a *App) handleKey(ev *tcell.EventKey) bool {
	actionEvent := a.inputProcessor.ProcessEvent(ev)
	_, height := a.tuiManager.Size()
	pageSize := height - tui.StatusBarHeight

	switch actionEvent.Action {
	case input.ActionQuit:
		a.requestQuit()
		return false

	case input.ActionInsertRune:
		a.session.Input(a.surface.insert(actionEvent.Rune))
	case input.ActionInsertNewLine:
		a.session.Input(a.surface.insert('\n'))
	case input.ActionDeleteCharBackward:
		text, ok := a.surface.deleteBackward()
		if !ok {
			return false
		}
		a.session.Input(text)
	case input.ActionDeleteCharForward:
		text, ok := a.surface.deleteForward()
		if !ok {
			return false
		}
		a.session.Input(text)

	case input.ActionMoveUp, input.ActionMoveDown, input.ActionMoveLeft, input.ActionMoveRight,
		input.ActionMovePageUp, input.ActionMovePageDown, input.ActionMoveHome, input.ActionMoveEnd:
		return a.surface.move(actionEvent.Action, pageSize)

	case input.ActionUndo:
		a.undo()
	case input.ActionRedo:
		a.redo()

	case input.ActionRunCommand:
		if err := a.executeCommand(actionEvent.Command, nil); err != nil {
			a.statusBar.SetTemporaryMessage("Error: %v", err)
		}

	default:
		return false
	}
	a.refreshDocumentInfo()
	return true
}

func (a *App) undo() {
	if !a.session.Undo() {
		a.statusBar.SetTemporaryMessage("Nothing to undo")
	}
}

func (a *App) redo() {
	if !a.session.Redo() {
		a.statusBar.SetTemporaryMessage("Nothing to redo")
	}
}

// refreshDocumentInfo pushes the session's state to the status bar.
func (a *App) refreshDocumentInfo() {
	a.statusBar.SetDocumentInfo(a.session.LastAuthor(), a.session.CanUndo(), a.session.CanRedo())
}

// SetStatusMessage shows a temporary message in the status bar.
func (a *App) SetStatusMessage(format string, args ...interface{}) {
	a.statusBar.SetTemporaryMessage(format, args...)
	a.requestRedraw()
}

// requestQuit makes Run return. It is safe to call more than once.
func (a *App) requestQuit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// requestRedraw sends a redraw signal non-blockingly.
func (a *App) requestRedraw() {
	select {
	case a.redrawRequest <- struct{}{}:
	default: // Don't block if a redraw is already pending
	}
}
