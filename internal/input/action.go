// internal/input/action.go
package input

// Action represents a command or operation to be performed by the editor.
type Action int

// Define the set of possible editor actions.
const (
	// --- Meta Actions ---
	ActionUnknown Action = iota // Default/invalid action
	ActionQuit
	ActionRunCommand // Requires Command argument

	// --- Cursor Movement ---
	ActionMoveUp
	ActionMoveDown
	ActionMoveLeft
	ActionMoveRight
	ActionMovePageUp
	ActionMovePageDown
	ActionMoveHome // Beginning of line
	ActionMoveEnd  // End of line

	// --- Text Manipulation ---
	ActionInsertRune         // Requires Rune argument
	ActionInsertNewLine      // Specific action for Enter
	ActionDeleteCharForward  // Delete key
	ActionDeleteCharBackward // Backspace key

	// --- History ---
	ActionUndo
	ActionRedo
)

// ActionEvent represents a decoded input event resulting in an action.
type ActionEvent struct {
	Action  Action
	Rune    rune   // Used for ActionInsertRune
	Command string // Used for ActionRunCommand
}
