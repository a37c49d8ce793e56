// internal/statusbar/statusbar.go
package statusbar

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg" // For proper Unicode width calculation

	"github.com/bethropolis/tandem/internal/types"
)

// Config defines the appearance and behavior of the status bar.
type Config struct {
	StyleDefault   tcell.Style // Default background/foreground
	StyleAuthor    tcell.Style // Style for the "last change by" name
	StyleMessage   tcell.Style // Style for temporary messages
	MessageTimeout time.Duration
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		StyleDefault:   tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorBlue),
		StyleAuthor:    tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlue).Bold(true),
		StyleMessage:   tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlue).Bold(true),
		MessageTimeout: 4 * time.Second,
	}
}

// StatusBar represents the UI component for the status line.
type StatusBar struct {
	config Config
	mu     sync.RWMutex // Protect access to text fields

	// Content fields (updated externally)
	userName   string
	cursorPos  types.Position
	lastAuthor string
	canUndo    bool
	canRedo    bool

	// Temporary message state
	tempMessage     string
	tempMessageTime time.Time
	now             func() time.Time
}

// New creates a new StatusBar with the given configuration.
func New(config Config) *StatusBar {
	return &StatusBar{
		config: config,
		now:    time.Now,
	}
}

// SetUser sets the local display name.
func (sb *StatusBar) SetUser(name string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.userName = name
}

// SetCursorInfo updates the cursor position shown.
func (sb *StatusBar) SetCursorInfo(pos types.Position) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.cursorPos = pos
}

// SetDocumentInfo updates who made the highlighted change and which history
// actions are available.
func (sb *StatusBar) SetDocumentInfo(lastAuthor string, canUndo, canRedo bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.lastAuthor = lastAuthor
	sb.canUndo = canUndo
	sb.canRedo = canRedo
}

// SetTemporaryMessage displays a message for a configured duration.
func (sb *StatusBar) SetTemporaryMessage(format string, args ...interface{}) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = fmt.Sprintf(format, args...)
	sb.tempMessageTime = sb.now()
}

// ResetTemporaryMessage clears any temporary message being displayed
func (sb *StatusBar) ResetTemporaryMessage() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = ""
	sb.tempMessageTime = time.Time{}
}

// Text returns what the status line currently says.
func (sb *StatusBar) Text() string {
	text, _ := sb.current()
	return text
}

// defaultText builds the status line shown when no message is active.
// Callers hold the lock.
func (sb *StatusBar) defaultText() string {
	var b strings.Builder
	name := sb.userName
	if name == "" {
		name = "[anonymous]"
	}
	fmt.Fprintf(&b, "%s -- Ln %d, Col %d", name, sb.cursorPos.Line+1, sb.cursorPos.Col+1)
	if sb.lastAuthor != "" {
		fmt.Fprintf(&b, " -- last change by %s", sb.lastAuthor)
	}

	var actions []string
	if sb.canUndo {
		actions = append(actions, "undo")
	}
	if sb.canRedo {
		actions = append(actions, "redo")
	}
	if len(actions) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(actions, " "))
	}
	return b.String()
}

// current picks the temporary message while it is fresh, the default text otherwise.
func (sb *StatusBar) current() (string, tcell.Style) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	isTempMsgActive := !sb.tempMessageTime.IsZero() && sb.now().Sub(sb.tempMessageTime) <= sb.config.MessageTimeout
	if !sb.tempMessageTime.IsZero() && !isTempMsgActive {
		sb.tempMessage = ""
		sb.tempMessageTime = time.Time{}
	}
	if isTempMsgActive {
		return sb.tempMessage, sb.config.StyleMessage
	}
	return sb.defaultText(), sb.config.StyleDefault
}

// Draw renders the status bar onto the last screen row using visual widths.
func (sb *StatusBar) Draw(screen tcell.Screen, width, height int) {
	if height <= 0 || width <= 0 {
		return
	}
	y := height - 1

	text, style := sb.current()

	sb.mu.RLock()
	author := sb.lastAuthor
	authorStyle := sb.config.StyleAuthor
	sb.mu.RUnlock()

	// The author's name stands out when the default line is shown.
	authorStart, authorEnd := -1, -1
	if style == sb.config.StyleDefault && author != "" {
		if i := strings.Index(text, "by "+author); i >= 0 {
			authorStart = i + len("by ")
			authorEnd = authorStart + len(author)
		}
	}

	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, style)
	}

	gr := uniseg.NewGraphemes(text)
	currentX := 0
	for gr.Next() {
		clusterWidth := gr.Width()
		if currentX+clusterWidth > width {
			break // Stop if cluster doesn't fit
		}
		runes := gr.Runes()
		cellStyle := style
		if from, _ := gr.Positions(); from >= authorStart && from < authorEnd {
			cellStyle = authorStyle
		}
		screen.SetContent(currentX, y, runes[0], runes[1:], cellStyle)
		currentX += clusterWidth
	}
}
