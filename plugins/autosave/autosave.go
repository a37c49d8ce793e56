package autosave

import (
	"fmt"
	"sync"

	"github.com/bethropolis/tandem/internal/event"
	"github.com/bethropolis/tandem/internal/logger"
	"github.com/bethropolis/tandem/internal/persist"
	"github.com/bethropolis/tandem/internal/plugin"
)

// Ensure AutoSave implements plugin.Plugin
var _ plugin.Plugin = (*AutoSave)(nil)

const defaultEnabled = true

// AutoSave writes the document to the persistent store after every mutation.
// Saves run on a background goroutine; a burst of mutations collapses into
// one save of the latest content.
type AutoSave struct {
	api   plugin.EditorAPI
	store persist.Store

	mutex   sync.Mutex // Protects the fields below
	enabled bool
	pending string
	dirty   bool

	signal   chan struct{}  // Wakes the saver goroutine, capacity 1
	stopChan chan struct{}  // Signals the saver goroutine to stop
	wg       sync.WaitGroup // Waits for the goroutine to finish
}

// New creates a new instance of the AutoSave plugin writing to store.
func New(store persist.Store) *AutoSave {
	return &AutoSave{
		store:   store,
		enabled: defaultEnabled,
		signal:  make(chan struct{}, 1),
	}
}

// Name returns the unique name of the plugin.
func (p *AutoSave) Name() string {
	return "autosave"
}

// Initialize reads configuration, subscribes to document changes and starts
// the saver goroutine.
func (p *AutoSave) Initialize(api plugin.EditorAPI) error {
	p.api = api
	pluginName := p.Name()

	// --- Read Configuration ---
	if enabledVal, ok := api.GetPluginConfigValue(pluginName, "enabled"); ok {
		if boolVal, isBool := enabledVal.(bool); isBool {
			p.enabled = boolVal
		} else {
			logger.Warnf("%s: Invalid type for 'enabled' config (%T), using default (%v)", pluginName, enabledVal, p.enabled)
		}
	}

	if err := api.RegisterCommand("save", p.executeSave); err != nil {
		return fmt.Errorf("failed to register 'save' command: %w", err)
	}

	logger.Infof("%s initialized. Enabled: %v", pluginName, p.enabled)
	if !p.enabled {
		return nil
	}

	api.SubscribeEvent(event.TypeDocumentChanged, p.handleDocumentChanged)

	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.saverLoop()
	return nil
}

// Shutdown stops the saver goroutine and writes anything still pending.
func (p *AutoSave) Shutdown() error {
	if p.stopChan != nil {
		close(p.stopChan)
		p.wg.Wait()
		p.stopChan = nil
	}
	return p.flush()
}

// handleDocumentChanged queues the new content. Empty documents are not saved.
func (p *AutoSave) handleDocumentChanged(e event.Event) bool {
	data, ok := e.Data.(event.DocumentChangedData)
	if !ok || data.Content == "" {
		return false
	}

	p.mutex.Lock()
	p.pending = data.Content
	p.dirty = true
	p.mutex.Unlock()

	select {
	case p.signal <- struct{}{}:
	default: // A wake-up is already queued
	}
	return false
}

func (p *AutoSave) saverLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.signal:
			if err := p.flush(); err != nil {
				logger.ErrorTagf("autosave", "%v", err)
			}
		case <-p.stopChan:
			return
		}
	}
}

// flush saves the pending content, if any.
func (p *AutoSave) flush() error {
	p.mutex.Lock()
	if !p.dirty {
		p.mutex.Unlock()
		return nil
	}
	content := p.pending
	p.dirty = false
	p.mutex.Unlock()

	if err := p.store.Save(content); err != nil {
		return fmt.Errorf("auto-save failed: %w", err)
	}
	logger.DebugTagf("autosave", "Saved %d bytes", len(content))
	return nil
}

// executeSave saves the current document right away.
func (p *AutoSave) executeSave(args []string) error {
	if p.api.LastChange() == nil {
		p.api.SetStatusMessage("Nothing to save yet")
		return nil
	}
	content := p.api.Content()
	if content == "" {
		p.api.SetStatusMessage("Not saving an empty document")
		return nil
	}

	p.mutex.Lock()
	p.dirty = false // Superseded by this save
	p.mutex.Unlock()

	if err := p.store.Save(content); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}
	p.api.SetStatusMessage("Saved %d characters", len([]rune(content)))
	return nil
}
