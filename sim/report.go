// End-of-run reporting over the tracker's finalized statistics.

package sim

import (
	"fmt"
	"math"
)

// ticksToMs renders a tick count (or mean) in milliseconds.
func ticksToMs(ticks float64) float64 {
	return ticks / float64(TicksPerMillisecond)
}

// PrintReport displays per-node tallies, per-flow statistics, and
// per-class summaries at the end of a run. Undefined statistics print
// as "n/a" rather than NaN.
func (o *Orchestrator) PrintReport() {
	fmt.Println("=== Simulation Results ===")
	fmt.Printf("Payloads submitted   : %d\n", o.Submitted)
	fmt.Printf("Payloads completed   : %d\n", o.Completed)
	fmt.Printf("Payloads dropped     : %d\n", o.DroppedPayloads())
	fmt.Printf("Stats inconsistencies: %d\n", o.tracker.Inconsistencies())

	fmt.Println("\n--- Per-Node Statistics ---")
	totalSent := 0
	received := make(map[Class]int)
	for _, key := range o.tracker.Flows() {
		rec := o.tracker.Record(key)
		totalSent += rec.Sent
		received[o.flowClass[key]] += rec.Received
	}
	fmt.Printf("Node %s (sender): Fragments Sent: %d\n", OriginNode, totalSent)
	for _, class := range Classes {
		fmt.Printf("Node %s: Fragments Received: %d (assigned payloads: %d)\n",
			ReceiverNode(class), received[class], o.binding.Assigned[class])
	}

	fmt.Println("\n--- Per-Flow Statistics ---")
	for _, key := range o.tracker.Flows() {
		stats := o.tracker.Finalize(key)
		fmt.Printf("Flow %s (%s)\n", key, o.flowClass[key])
		fmt.Printf("  Tx Fragments: %d\n", stats.Sent)
		fmt.Printf("  Rx Fragments: %d\n", stats.Received)
		fmt.Printf("  Throughput: %s\n", formatBps(stats.ThroughputBps))
		fmt.Printf("  Mean Delay: %s\n", formatMs(stats.MeanDelay))
		fmt.Printf("  Loss Ratio: %.2f%%\n", stats.LossRatio*100)
	}

	fmt.Println("\n--- Per-Class Summaries ---")
	for _, s := range o.ClassSummaries() {
		fmt.Printf("%-8s flows=%d sent=%d received=%d throughput=%s delay=%s loss=%.2f%%\n",
			s.Class, s.Flows, s.Sent, s.Received,
			formatBps(s.ThroughputBps), formatMs(s.MeanDelay), s.LossRatio*100)
	}
}

func formatMs(ticks float64) string {
	if math.IsNaN(ticks) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f ms", ticksToMs(ticks))
}

func formatBps(bps float64) string {
	if math.IsNaN(bps) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f Mbps", bps/1e6)
}
