// internal/event/event.go
package event

import "github.com/bethropolis/tandem/internal/types"

// Type identifies the kind of event.
type Type int

// Define specific event types.
const (
	TypeUnknown Type = iota

	// Document Events
	TypeDocumentChanged // Fired after every mutation of the shared content
	TypeDocumentReset   // Fired after the content was replaced wholesale (history dropped)

	// Session Events
	TypeMessageDropped // Fired when an inbound sync message could not be applied

	// Application Lifecycle Events
	TypeAppReady // Fired when the application is fully initialized
	TypeAppQuit  // Fired just before application termination begins
)

// String returns a readable name, used in debug logs.
func (t Type) String() string {
	switch t {
	case TypeDocumentChanged:
		return "DocumentChanged"
	case TypeDocumentReset:
		return "DocumentReset"
	case TypeMessageDropped:
		return "MessageDropped"
	case TypeAppReady:
		return "AppReady"
	case TypeAppQuit:
		return "AppQuit"
	default:
		return "Unknown"
	}
}

// Origin tells subscribers what kind of mutation produced a change.
type Origin int

const (
	OriginLocal  Origin = iota // applyChange from this session
	OriginRemote               // receiveExternalChange from the sync bus
	OriginUndo
	OriginRedo
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	case OriginUndo:
		return "undo"
	case OriginRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// Event is the structure passed through the event bus.
type Event struct {
	Type Type        // The kind of event
	Data interface{} // Payload carrying event-specific data
}

// --- Specific Event Data Structures ---

// DocumentChangedData carries the content after a mutation and the patch to highlight.
type DocumentChangedData struct {
	Origin     Origin
	Content    string
	LastChange types.Patch
}

// DocumentResetData carries the content installed by a reset.
type DocumentResetData struct {
	Content string
}

// MessageDroppedData describes a sync message that was rejected.
type MessageDroppedData struct {
	ActorID string
	Reason  error
}

// AppQuitData could contain exit code or reason later.
type AppQuitData struct{}

// AppReadyData could contain initial config or state later.
type AppReadyData struct{}
