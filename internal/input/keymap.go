// internal/input/keymap.go
package input

import (
	"github.com/gdamore/tcell/v2"
)

// Keymap maps specific key events to editor actions.
type Keymap map[tcell.Key]ActionEvent

// InputProcessor translates tcell events into ActionEvents.
type InputProcessor struct {
	keymap  Keymap // Special keys (Enter, Arrows, etc.)
	ctrlMap Keymap // Ctrl+letter combinations
}

// NewInputProcessor creates a processor with default keybindings.
func NewInputProcessor() *InputProcessor {
	p := &InputProcessor{
		keymap:  make(Keymap),
		ctrlMap: make(Keymap),
	}
	p.loadDefaultBindings()
	return p
}

// loadDefaultBindings sets up the initial key mappings.
func (p *InputProcessor) loadDefaultBindings() {
	// --- Simple Keys ---
	p.keymap[tcell.KeyUp] = ActionEvent{Action: ActionMoveUp}
	p.keymap[tcell.KeyDown] = ActionEvent{Action: ActionMoveDown}
	p.keymap[tcell.KeyLeft] = ActionEvent{Action: ActionMoveLeft}
	p.keymap[tcell.KeyRight] = ActionEvent{Action: ActionMoveRight}
	p.keymap[tcell.KeyPgUp] = ActionEvent{Action: ActionMovePageUp}
	p.keymap[tcell.KeyPgDn] = ActionEvent{Action: ActionMovePageDown}
	p.keymap[tcell.KeyHome] = ActionEvent{Action: ActionMoveHome}
	p.keymap[tcell.KeyEnd] = ActionEvent{Action: ActionMoveEnd}
	p.keymap[tcell.KeyEnter] = ActionEvent{Action: ActionInsertNewLine}
	p.keymap[tcell.KeyTab] = ActionEvent{Action: ActionInsertRune, Rune: '\t'}
	p.keymap[tcell.KeyBackspace] = ActionEvent{Action: ActionDeleteCharBackward}
	p.keymap[tcell.KeyBackspace2] = ActionEvent{Action: ActionDeleteCharBackward} // Often used for Backspace
	p.keymap[tcell.KeyDelete] = ActionEvent{Action: ActionDeleteCharForward}
	p.keymap[tcell.KeyEscape] = ActionEvent{Action: ActionQuit}

	// --- Ctrl Keys ---
	p.ctrlMap[tcell.KeyCtrlZ] = ActionEvent{Action: ActionUndo}
	p.ctrlMap[tcell.KeyCtrlR] = ActionEvent{Action: ActionRedo}
	p.ctrlMap[tcell.KeyCtrlY] = ActionEvent{Action: ActionRedo}
	p.ctrlMap[tcell.KeyCtrlK] = ActionEvent{Action: ActionRunCommand, Command: "copy"}
	p.ctrlMap[tcell.KeyCtrlS] = ActionEvent{Action: ActionRunCommand, Command: "save"}
	p.ctrlMap[tcell.KeyCtrlW] = ActionEvent{Action: ActionRunCommand, Command: "wc"}
	p.ctrlMap[tcell.KeyCtrlQ] = ActionEvent{Action: ActionQuit}
	p.ctrlMap[tcell.KeyCtrlC] = ActionEvent{Action: ActionQuit}
}

// ProcessEvent takes a tcell key event and returns the corresponding ActionEvent.
func (p *InputProcessor) ProcessEvent(ev *tcell.EventKey) ActionEvent {
	key := ev.Key()
	mod := ev.Modifiers()

	// Named keys first: Enter, Tab and Backspace share codes with Ctrl+M, Ctrl+I and Ctrl+H.
	if action, ok := p.keymap[key]; ok && mod&(tcell.ModAlt|tcell.ModMeta) == 0 {
		return action
	}

	// tcell reports Ctrl+letter as its own key, with or without ModCtrl set.
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		if action, ok := p.ctrlMap[key]; ok {
			return action
		}
		return ActionEvent{Action: ActionUnknown}
	}

	// Plain and shifted runes are text.
	if key == tcell.KeyRune && mod&^tcell.ModShift == tcell.ModNone {
		return ActionEvent{Action: ActionInsertRune, Rune: ev.Rune()}
	}

	return ActionEvent{Action: ActionUnknown}
}
