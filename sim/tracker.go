// Delivery tracker: correlates fragment send events with arrival
// events per flow and derives per-flow statistics.

package sim

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// FlowKey identifies one logical stream of fragments: one payload's
// delivery between a source endpoint and a destination endpoint.
type FlowKey struct {
	Src Endpoint
	Dst Endpoint
}

func (k FlowKey) String() string {
	return k.Src.String() + " -> " + k.Dst.String()
}

// FlowRecord is the mutable per-flow aggregate. Created lazily on the
// flow's first RecordSend; updated by send and receive events; read,
// never mutated, when statistics are finalized.
type FlowRecord struct {
	Sent          int
	Received      int
	BytesSent     int64
	BytesReceived int64
	DelaySum      int64 // ticks, over received fragments with a matching send
	FirstSend     int64 // ticks
	LastReceive   int64 // ticks

	// Inconsistencies counts receive events with no matching send.
	// Such samples are dropped, not accumulated; a nonzero count
	// indicates a protocol bug upstream.
	Inconsistencies int

	sendTimes map[int]int64 // seq -> send tick
}

// FlowStatistics is the finalized, read-only view of one flow.
// MeanDelay and ThroughputBps are NaN when undefined (no fragments
// received, or a non-positive active duration).
type FlowStatistics struct {
	Sent          int
	Received      int
	BytesReceived int64
	MeanDelay     float64 // ticks
	ThroughputBps float64
	LossRatio     float64
	Inconsistent  int
}

// Tracker aggregates delivery events for all flows of one simulation
// run. The single-threaded event model needs no locking here, but a
// Tracker must never be shared between concurrent runs; parameter
// sweeps get one Tracker each.
type Tracker struct {
	flows map[FlowKey]*FlowRecord
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{flows: make(map[FlowKey]*FlowRecord)}
}

// RecordSend notes that fragment seq of the flow was handed to the
// transport at tick sentAt. The first send for a flow creates its
// record and fixes the flow's start time.
func (t *Tracker) RecordSend(key FlowKey, seq int, sentAt int64, size int) {
	rec, ok := t.flows[key]
	if !ok {
		rec = &FlowRecord{
			FirstSend: sentAt,
			sendTimes: make(map[int]int64),
		}
		t.flows[key] = rec
	}
	rec.Sent++
	rec.BytesSent += int64(size)
	rec.sendTimes[seq] = sentAt
}

// RecordReceive notes that fragment seq arrived at tick receivedAt.
// A receive with no matching send is a StatsInconsistency: the sample
// is dropped and counted, the simulation continues.
func (t *Tracker) RecordReceive(key FlowKey, seq int, receivedAt int64, size int) {
	rec, ok := t.flows[key]
	if !ok {
		// No send was ever recorded for this flow at all.
		logrus.Warnf("[tick %07d] stats inconsistency: receive for unknown flow %s seq %d, sample dropped",
			receivedAt, key, seq)
		rec = &FlowRecord{sendTimes: make(map[int]int64)}
		rec.Inconsistencies++
		t.flows[key] = rec
		return
	}
	sentAt, matched := rec.sendTimes[seq]
	if !matched {
		logrus.Warnf("[tick %07d] stats inconsistency: receive with no matching send, flow %s seq %d, sample dropped",
			receivedAt, key, seq)
		rec.Inconsistencies++
		return
	}
	rec.Received++
	rec.BytesReceived += int64(size)
	rec.DelaySum += receivedAt - sentAt
	rec.LastReceive = receivedAt
}

// Finalize computes the flow's statistics from its record. It is a
// pure read: calling it repeatedly without intervening records returns
// identical results, and it may be called mid-run for rolling numbers.
// An unknown flow finalizes to all-zero statistics with NaN-flagged
// delay and throughput.
func (t *Tracker) Finalize(key FlowKey) FlowStatistics {
	rec, ok := t.flows[key]
	if !ok {
		return FlowStatistics{MeanDelay: math.NaN(), ThroughputBps: math.NaN()}
	}

	stats := FlowStatistics{
		Sent:          rec.Sent,
		Received:      rec.Received,
		BytesReceived: rec.BytesReceived,
		Inconsistent:  rec.Inconsistencies,
	}

	if rec.Received > 0 {
		stats.MeanDelay = float64(rec.DelaySum) / float64(rec.Received)
	} else {
		stats.MeanDelay = math.NaN()
	}

	duration := rec.LastReceive - rec.FirstSend
	if rec.Received > 0 && duration > 0 {
		stats.ThroughputBps = float64(rec.BytesReceived) * 8 / (float64(duration) / float64(TicksPerSecond))
	} else {
		stats.ThroughputBps = math.NaN()
	}

	if rec.Sent > 0 {
		stats.LossRatio = float64(rec.Sent-rec.Received) / float64(rec.Sent)
	}
	return stats
}

// Flows returns all tracked flow keys in a deterministic order.
func (t *Tracker) Flows() []FlowKey {
	keys := make([]FlowKey, 0, len(t.flows))
	for k := range t.flows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Record exposes the raw record for a flow, or nil. Read-only use.
func (t *Tracker) Record(key FlowKey) *FlowRecord {
	return t.flows[key]
}

// Inconsistencies totals the dropped-sample count across all flows.
func (t *Tracker) Inconsistencies() int {
	total := 0
	for _, rec := range t.flows {
		total += rec.Inconsistencies
	}
	return total
}
