// sim/simulator.go
package sim

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// Virtual time is measured in ticks of one microsecond. The clock only
// advances when a scheduled event is processed; it is unrelated to wall
// time.
const (
	TicksPerMillisecond int64 = 1_000
	TicksPerSecond      int64 = 1_000_000
)

// Event defines the interface for all simulation events.
// Each event has a Timestamp (in ticks) and an Execute method that
// advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Simulator)
}

// EventHandle identifies one scheduled occurrence of an event. Holding
// the handle allows the event to be cancelled before it fires.
type EventHandle struct {
	event     Event
	seq       uint64
	cancelled bool
}

// eventQueue implements heap.Interface. Events are ordered by timestamp
// first and by schedule order second, so two events scheduled for the
// same tick fire in the order they were scheduled. The FIFO tie-break
// is what makes same-tick scenarios reproducible.
type eventQueue []*EventHandle

func (eq eventQueue) Len() int { return len(eq) }

func (eq eventQueue) Less(i, j int) bool {
	if eq[i].event.Timestamp() != eq[j].event.Timestamp() {
		return eq[i].event.Timestamp() < eq[j].event.Timestamp()
	}
	return eq[i].seq < eq[j].seq
}

func (eq eventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *eventQueue) Push(x any) {
	*eq = append(*eq, x.(*EventHandle))
}

func (eq *eventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Simulator owns the virtual clock and the event loop. All simulation
// activity happens inside Event.Execute callbacks; the loop processes
// one event at a time in non-decreasing virtual-time order.
//
// A Simulator is single-threaded by design. Parameter sweeps run one
// Simulator (and one Tracker, one Network, ...) per run; instances are
// never shared across goroutines.
type Simulator struct {
	Clock   int64
	Horizon int64

	queue   eventQueue
	nextSeq uint64
	stopped bool

	// EventsProcessed counts events actually executed; cancelled
	// entries are excluded.
	EventsProcessed int64
}

// NewSimulator creates a simulator that runs until horizon ticks.
func NewSimulator(horizon int64) *Simulator {
	return &Simulator{
		Clock:   0,
		Horizon: horizon,
		queue:   make(eventQueue, 0),
	}
}

// Now returns the current virtual time in ticks.
func (sim *Simulator) Now() int64 {
	return sim.Clock
}

// Schedule enqueues ev for execution at ev.Timestamp(). Scheduling in
// the past is a bug: the event would violate clock monotonicity.
func (sim *Simulator) Schedule(ev Event) *EventHandle {
	if ev.Timestamp() < sim.Clock {
		logrus.Panicf("scheduled %T at tick %d, before current clock %d", ev, ev.Timestamp(), sim.Clock)
	}
	h := &EventHandle{event: ev, seq: sim.nextSeq}
	sim.nextSeq++
	heap.Push(&sim.queue, h)
	return h
}

// Cancel marks a scheduled event so it never fires. Cancelling an
// already-fired or already-cancelled handle is a no-op. The entry is
// dropped lazily when it reaches the head of the queue.
func (sim *Simulator) Cancel(h *EventHandle) {
	if h != nil {
		h.cancelled = true
	}
}

// Stop ends the run after the current event. Remaining scheduled
// events are discarded without firing, so no dangling callbacks
// survive a stopped run.
func (sim *Simulator) Stop() {
	sim.stopped = true
}

// Run processes events until the queue drains, the horizon is reached,
// or Stop is called.
func (sim *Simulator) Run() {
	for len(sim.queue) > 0 && !sim.stopped {
		h := heap.Pop(&sim.queue).(*EventHandle)
		if h.cancelled {
			continue
		}
		if h.event.Timestamp() > sim.Horizon {
			// Nothing earlier can remain in the queue; the run is over.
			sim.Clock = sim.Horizon
			break
		}
		// advance the clock
		sim.Clock = h.event.Timestamp()
		logrus.Debugf("[tick %07d] Executing %T", sim.Clock, h.event)
		h.event.Execute(sim)
		sim.EventsProcessed++
	}
	if sim.stopped {
		sim.queue = sim.queue[:0]
	}
	logrus.Infof("[tick %07d] Simulation ended after %d events", sim.Clock, sim.EventsProcessed)
}

// Pending returns the number of not-yet-fired scheduled events,
// cancelled entries included until they are lazily dropped.
func (sim *Simulator) Pending() int {
	return len(sim.queue)
}
