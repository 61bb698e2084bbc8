// Defines the Payload struct that models one image submitted for
// delivery, and its origin-side lifecycle.

package sim

import (
	"fmt"

	"github.com/rs/xid"
)

// PayloadState represents the origin-side lifecycle of a payload.
// Completed is about origin-side work only: every fragment has been
// handed to the transport (or the payload was dropped). End-to-end
// delivery is tracked separately by the Tracker.
type PayloadState string

const (
	StateClassifying PayloadState = "classifying"
	StateFragmenting PayloadState = "fragmenting"
	StateSending     PayloadState = "sending"
	StateCompleted   PayloadState = "completed"
)

// Payload is an immutable byte sequence plus its source-assigned
// identity. Data is written once at submission time and never mutated;
// the orchestrator owns the payload until it is fully fragmented.
type Payload struct {
	ID     string // unique identifier, assigned at creation
	Origin int    // source-assigned index (submission order)
	Data   []byte

	// Class is the destination class the payload was bound to.
	// ClassUnresolved until classification, and permanently so for
	// dropped payloads.
	Class Class

	State    PayloadState
	SubmitAt int64 // ticks
}

// NewPayload creates a payload in the Classifying state.
func NewPayload(origin int, data []byte, submitAt int64) *Payload {
	return &Payload{
		ID:       xid.New().String(),
		Origin:   origin,
		Data:     data,
		Class:    ClassUnresolved,
		State:    StateClassifying,
		SubmitAt: submitAt,
	}
}

func (p Payload) String() string {
	return fmt.Sprintf("Payload: (ID: %s, Origin: %d, Size: %d, Class: %s, State: %s)",
		p.ID, p.Origin, len(p.Data), p.Class, p.State)
}
