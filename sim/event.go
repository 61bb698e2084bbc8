package sim

import "github.com/sirupsen/logrus"

// PayloadSubmitEvent represents a payload entering the system at the
// origin. Execution runs the one-shot classification and, when the
// payload binds to a destination, computes the fragment schedule.
type PayloadSubmitEvent struct {
	time    int64 // submission time (in ticks)
	Orch    *Orchestrator
	Payload *Payload
}

// Timestamp returns the scheduled time of the PayloadSubmitEvent.
func (e *PayloadSubmitEvent) Timestamp() int64 {
	return e.time
}

// Execute runs the payload through classification and fragmentation.
func (e *PayloadSubmitEvent) Execute(sim *Simulator) {
	logrus.Infof("<< Submit: %s at %d ticks", e.Payload.ID, e.time)
	e.Orch.handleSubmit(e.Payload, e.time)
}

// FragmentSendEvent fires when one fragment's scheduled send time
// arrives. The orchestrator hands the fragment to the transport, or
// retries later under backpressure.
type FragmentSendEvent struct {
	time int64
	Orch *Orchestrator
	Flow *flowState
}

// Timestamp returns the scheduled time of the FragmentSendEvent.
func (e *FragmentSendEvent) Timestamp() int64 {
	return e.time
}

// Execute attempts the flow's next fragment send.
func (e *FragmentSendEvent) Execute(sim *Simulator) {
	e.Orch.handleFragmentSend(e.Flow, e.time)
}

// packetArrivalEvent completes a packet's traversal of a link and
// invokes the destination's receive callback.
type packetArrivalEvent struct {
	time    int64
	network *Network
	packet  Packet
}

func (e *packetArrivalEvent) Timestamp() int64 {
	return e.time
}

func (e *packetArrivalEvent) Execute(sim *Simulator) {
	e.network.deliver(e.packet, e.time)
}
