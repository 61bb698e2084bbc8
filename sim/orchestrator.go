// Simulation orchestrator: drives each payload through
// classification, fragmentation, and paced sending, and feeds the
// delivery tracker from transport callbacks.

package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// flowState tracks the origin-side send progress of one payload's
// flow: the precomputed fragment schedule, the next fragment to send,
// and the handle of the currently scheduled send event so it can be
// cancelled on an early stop.
type flowState struct {
	payload *Payload
	key     FlowKey
	frags   []Fragment
	next    int
	pending *EventHandle
}

// Orchestrator composes the classifier binding, the fragmenter/pacer,
// the modeled network, and the delivery tracker for one simulation
// run. Per payload it walks the state machine
// Classifying -> Fragmenting -> Sending -> Completed, with the direct
// Classifying -> Completed edge for dropped payloads.
type Orchestrator struct {
	sim        *Simulator
	cfg        Config
	classifier Classifier
	binding    *Binding
	network    *Network
	tracker    *Tracker

	nextPort  uint16
	flows     []*flowState
	flowClass map[FlowKey]Class

	// Submitted counts payloads handed to SubmitAt; Completed counts
	// payloads that reached the terminal state, dropped ones included.
	Submitted int
	Completed int
}

// NewOrchestrator wires a run together. It builds the star topology
// (origin plus one receiver per class), the binding, and the arrival
// callbacks. cfg must already be validated.
func NewOrchestrator(sim *Simulator, cfg Config, classifier Classifier, network *Network, tracker *Tracker) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	destinations, err := BuildStarTopology(network, cfg)
	if err != nil {
		return nil, err
	}
	binding, err := NewBinding(cfg.ConfidenceThreshold, cfg.FallbackClass, destinations)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		sim:        sim,
		cfg:        cfg,
		classifier: classifier,
		binding:    binding,
		network:    network,
		tracker:    tracker,
		nextPort:   originBasePort,
		flowClass:  make(map[FlowKey]Class),
	}
	for _, dst := range destinations {
		network.Register(dst, o.onReceive)
	}
	return o, nil
}

// Binding exposes the classifier binding for counter inspection.
func (o *Orchestrator) Binding() *Binding {
	return o.binding
}

// Tracker exposes the run's delivery tracker.
func (o *Orchestrator) Tracker() *Tracker {
	return o.tracker
}

// DroppedPayloads returns the count of payloads dropped for lack of a
// fallback destination.
func (o *Orchestrator) DroppedPayloads() int {
	return o.binding.Dropped
}

// SubmitAt creates a payload from data and schedules its submission
// at tick at. The payload starts a fresh state machine instance.
func (o *Orchestrator) SubmitAt(data []byte, at int64) *Payload {
	p := NewPayload(o.Submitted, data, at)
	o.Submitted++
	o.sim.Schedule(&PayloadSubmitEvent{time: at, Orch: o, Payload: p})
	return p
}

// handleSubmit runs classification and fragmentation for one payload.
// Every payload goes through the binding, simulated or not; fallback
// data is not special-cased.
func (o *Orchestrator) handleSubmit(p *Payload, now int64) {
	decision, ok := o.binding.Resolve(o.classifier.Classify(p.Data))
	if !ok {
		// Classifying -> Completed: zero fragments, counted drop.
		p.State = StateCompleted
		o.Completed++
		return
	}
	p.Class = decision.Class
	p.State = StateFragmenting

	frags, err := BuildSchedule(len(p.Data), o.cfg.FragmentSize, o.cfg.PaceRateBps, now)
	if err != nil {
		// Validate() rules this out; reaching it is a bug.
		logrus.Panicf("fragmenting %s: %v", p.ID, err)
	}
	if len(frags) == 0 {
		// Empty payload: trivially delivered, sent = received = 0.
		logrus.Infof("<< Payload %s is empty, trivially delivered", p.ID)
		p.State = StateCompleted
		o.Completed++
		return
	}

	// Each payload's delivery gets its own source port, so the flow
	// key is unique even when several payloads share a destination.
	// A wrapped counter would silently reuse ports and merge flows,
	// so exhaustion of the ephemeral range is fatal.
	if o.nextPort < originBasePort {
		logrus.Panicf("source port range exhausted after %d payloads", o.Submitted)
	}
	src := Endpoint{Node: OriginNode, Port: o.nextPort}
	o.nextPort++

	flow := &flowState{
		payload: p,
		key:     FlowKey{Src: src, Dst: decision.Destination},
		frags:   frags,
	}
	o.flows = append(o.flows, flow)
	o.flowClass[flow.key] = decision.Class

	p.State = StateSending
	logrus.Infof("<< Payload %s bound to %s (%s), %d fragments", p.ID, decision.Class, decision.Reason, len(frags))
	flow.pending = o.sim.Schedule(&FragmentSendEvent{time: frags[0].SendAt, Orch: o, Flow: flow})
}

// handleFragmentSend hands the flow's next fragment to the transport.
// Under backpressure the same fragment is rescheduled for the tick the
// link frees up; the pacer never advances time on its own.
func (o *Orchestrator) handleFragmentSend(f *flowState, now int64) {
	f.pending = nil
	frag := f.frags[f.next]

	ok, retryAt := o.network.Send(Packet{
		Src:       f.key.Src,
		Dst:       f.key.Dst,
		PayloadID: f.payload.ID,
		Seq:       frag.Seq,
		Length:    frag.Length,
	})
	if !ok {
		f.pending = o.sim.Schedule(&FragmentSendEvent{time: retryAt, Orch: o, Flow: f})
		return
	}

	o.tracker.RecordSend(f.key, frag.Seq, now, frag.Length)
	f.next++

	if f.next == len(f.frags) {
		// Sending -> Completed: all fragments handed to the transport.
		// Delivery confirmation is the tracker's business, not a gate.
		f.payload.State = StateCompleted
		o.Completed++
		logrus.Infof("<< Payload %s fully sent (%d fragments)", f.payload.ID, len(f.frags))
		return
	}

	nextAt := f.frags[f.next].SendAt
	if nextAt < now {
		// Backpressure pushed us past the precomputed schedule; send
		// as soon as the loop allows without rewriting the schedule.
		nextAt = now
	}
	f.pending = o.sim.Schedule(&FragmentSendEvent{time: nextAt, Orch: o, Flow: f})
}

// onReceive is the arrival callback registered for every destination.
func (o *Orchestrator) onReceive(pkt Packet, arrivedAt int64) {
	o.tracker.RecordReceive(FlowKey{Src: pkt.Src, Dst: pkt.Dst}, pkt.Seq, arrivedAt, pkt.Length)
}

// CancelPending cancels every not-yet-fired fragment send. Called when
// a run is stopped early; partially-sent payloads keep their partial
// sent/received counts in the statistics.
func (o *Orchestrator) CancelPending() {
	for _, f := range o.flows {
		if f.pending != nil {
			o.sim.Cancel(f.pending)
			f.pending = nil
		}
	}
}

// ClassSummary aggregates the finalized statistics of every flow bound
// to one class. Means are unweighted across flows; flows whose delay
// or throughput is undefined are skipped for that statistic only.
type ClassSummary struct {
	Class         Class
	Flows         int
	Sent          int
	Received      int
	MeanDelay     float64 // ticks
	ThroughputBps float64
	LossRatio     float64
}

// ClassSummaries finalizes every flow and averages per class, in
// canonical class order.
func (o *Orchestrator) ClassSummaries() []ClassSummary {
	summaries := make([]ClassSummary, 0, len(Classes))
	for _, class := range Classes {
		s := ClassSummary{Class: class, MeanDelay: math.NaN(), ThroughputBps: math.NaN()}
		var delaySum, tputSum, lossSum float64
		var delayN, tputN int
		for _, key := range o.tracker.Flows() {
			if o.flowClass[key] != class {
				continue
			}
			stats := o.tracker.Finalize(key)
			s.Flows++
			s.Sent += stats.Sent
			s.Received += stats.Received
			lossSum += stats.LossRatio
			if !math.IsNaN(stats.MeanDelay) {
				delaySum += stats.MeanDelay
				delayN++
			}
			if !math.IsNaN(stats.ThroughputBps) {
				tputSum += stats.ThroughputBps
				tputN++
			}
		}
		if delayN > 0 {
			s.MeanDelay = delaySum / float64(delayN)
		}
		if tputN > 0 {
			s.ThroughputBps = tputSum / float64(tputN)
		}
		if s.Flows > 0 {
			s.LossRatio = lossSum / float64(s.Flows)
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// FlowClass returns the class a flow was bound to.
func (o *Orchestrator) FlowClass(key FlowKey) Class {
	return o.flowClass[key]
}
