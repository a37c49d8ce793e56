// Package bus carries document deltas between editing sessions.
package bus

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bethropolis/tandem/internal/types"
)

// ErrMalformed is returned by Decode for payloads that are not a usable message.
var ErrMalformed = errors.New("malformed sync message")

// Message is the wire shape of a delta on the sync bus.
type Message struct {
	ActorID     string `json:"actorId"`
	DisplayName string `json:"displayName,omitempty"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	NewText     string `json:"newText"`
}

// wireMessage uses pointers so missing fields can be told apart from zero values.
type wireMessage struct {
	ActorID     *string `json:"actorId"`
	DisplayName *string `json:"displayName"`
	Start       *int    `json:"start"`
	End         *int    `json:"end"`
	NewText     *string `json:"newText"`
}

// FromDelta builds the message announcing delta.
func FromDelta(delta types.Delta, displayName string) Message {
	return Message{
		ActorID:     delta.ActorID,
		DisplayName: displayName,
		Start:       delta.Start,
		End:         delta.End,
		NewText:     delta.NewText,
	}
}

// Delta returns the replacement the message describes.
func (m Message) Delta() types.Delta {
	return types.Delta{
		ActorID: m.ActorID,
		Start:   m.Start,
		End:     m.End,
		NewText: m.NewText,
	}
}

// Validate checks the fields every receiver relies on.
func (m Message) Validate() error {
	if m.ActorID == "" {
		return fmt.Errorf("%w: empty actorId", ErrMalformed)
	}
	if m.Start < 0 || m.End < 0 {
		return fmt.Errorf("%w: negative offset [%d:%d]", ErrMalformed, m.Start, m.End)
	}
	if m.Start > m.End {
		return fmt.Errorf("%w: start %d after end %d", ErrMalformed, m.Start, m.End)
	}
	return nil
}

// Encode validates m and returns its JSON form.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding sync message: %w", err)
	}
	return data, nil
}

// Decode parses an inbound payload. Everything arriving on the bus is
// untrusted; any shape problem is reported as ErrMalformed.
func Decode(data []byte) (Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case wire.ActorID == nil:
		return Message{}, fmt.Errorf("%w: missing actorId", ErrMalformed)
	case wire.Start == nil:
		return Message{}, fmt.Errorf("%w: missing start", ErrMalformed)
	case wire.End == nil:
		return Message{}, fmt.Errorf("%w: missing end", ErrMalformed)
	case wire.NewText == nil:
		return Message{}, fmt.Errorf("%w: missing newText", ErrMalformed)
	}

	msg := Message{
		ActorID: *wire.ActorID,
		Start:   *wire.Start,
		End:     *wire.End,
		NewText: *wire.NewText,
	}
	if wire.DisplayName != nil {
		msg.DisplayName = *wire.DisplayName
	}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}
