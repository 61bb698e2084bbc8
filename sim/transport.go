// Modeled transport: named endpoints joined by point-to-point links
// with a serialization rate and a propagation delay. The network moves
// opaque fragment packets between endpoints; it knows nothing about
// classes, payloads, or pacing.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Endpoint is an opaque handle naming one attachment point: a node
// name plus a port-equivalent. Each payload's delivery uses a distinct
// source port, so (source, destination) identifies exactly one flow.
type Endpoint struct {
	Node string
	Port uint16
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Node, e.Port)
}

// Packet is one fragment on the wire: addressing plus the minimal
// header the receiver needs to correlate the fragment with its flow.
type Packet struct {
	Src       Endpoint
	Dst       Endpoint
	PayloadID string
	Seq       int
	Length    int // fragment body length in bytes
}

// ReceiveFunc is the arrival callback registered per destination
// endpoint. arrivedAt is the virtual time the packet finished
// propagating.
type ReceiveFunc func(pkt Packet, arrivedAt int64)

type linkKey struct {
	from, to string
}

// Link models one direction of a point-to-point connection. A packet
// occupies the link for its serialization time; a send requested while
// the link is still serializing an earlier packet is refused with a
// backpressure hint.
type Link struct {
	RateBps   int64
	PropDelay int64 // ticks
	busyUntil int64 // tick at which the link is free again
}

// Network is the set of links and registered receivers for one
// simulation run. One Network per Simulator; never shared.
type Network struct {
	sim       *Simulator
	links     map[linkKey]*Link
	receivers map[Endpoint]ReceiveFunc

	// PacketsDelivered counts arrival callbacks invoked.
	PacketsDelivered int64
}

// NewNetwork creates an empty network bound to sim's clock.
func NewNetwork(sim *Simulator) *Network {
	return &Network{
		sim:       sim,
		links:     make(map[linkKey]*Link),
		receivers: make(map[Endpoint]ReceiveFunc),
	}
}

// Connect installs a bidirectional link between two nodes.
func (n *Network) Connect(a, b string, rateBps, propDelay int64) error {
	if rateBps <= 0 {
		return fmt.Errorf("link %s<->%s %w: got %d", a, b, ErrZeroRate, rateBps)
	}
	n.links[linkKey{a, b}] = &Link{RateBps: rateBps, PropDelay: propDelay}
	n.links[linkKey{b, a}] = &Link{RateBps: rateBps, PropDelay: propDelay}
	return nil
}

// Register installs the arrival callback for a destination endpoint.
// One callback per endpoint; a second Register replaces the first.
func (n *Network) Register(dst Endpoint, fn ReceiveFunc) {
	n.receivers[dst] = fn
}

// Send hands a packet to the link toward pkt.Dst at the current
// virtual time. On success it schedules the arrival event and returns
// (true, 0). If the link is still serializing an earlier packet it
// refuses the send and returns (false, retryAt): the tick at which the
// link frees up. Backpressure is an expected transient, not an error.
func (n *Network) Send(pkt Packet) (ok bool, retryAt int64) {
	link, found := n.links[linkKey{pkt.Src.Node, pkt.Dst.Node}]
	if !found {
		logrus.Panicf("send %s -> %s: %v", pkt.Src, pkt.Dst, ErrNoLink)
	}

	now := n.sim.Now()
	if link.busyUntil > now {
		logrus.Debugf("[tick %07d] link %s->%s busy until %d, backpressure on seq %d",
			now, pkt.Src.Node, pkt.Dst.Node, link.busyUntil, pkt.Seq)
		return false, link.busyUntil
	}

	txDone := now + transmitTicks(pkt.Length, link.RateBps)
	link.busyUntil = txDone
	n.sim.Schedule(&packetArrivalEvent{
		time:    txDone + link.PropDelay,
		network: n,
		packet:  pkt,
	})
	return true, 0
}

// deliver invokes the destination's registered callback. A packet for
// an endpoint nobody registered is dropped on the floor, loudly.
func (n *Network) deliver(pkt Packet, arrivedAt int64) {
	fn, found := n.receivers[pkt.Dst]
	if !found {
		logrus.Warnf("[tick %07d] packet for unregistered endpoint %s dropped", arrivedAt, pkt.Dst)
		return
	}
	n.PacketsDelivered++
	fn(pkt, arrivedAt)
}
