package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClassifier returns a fixed result, whatever the payload.
type stubClassifier struct {
	res ClassificationResult
}

func (c stubClassifier) Classify([]byte) ClassificationResult { return c.res }

// patternData builds payload bytes the simulated classifier decodes
// back to class.
func patternData(class Class, size int) []byte {
	pattern := byte(0)
	for i, c := range Classes {
		if c == class {
			pattern = byte(i*50 + 10)
		}
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = pattern + byte(i)
	}
	return data
}

func newTestRun(t *testing.T, cfg Config, classifier Classifier) (*Simulator, *Orchestrator) {
	t.Helper()
	s := NewSimulator(cfg.Horizon)
	orch, err := NewOrchestrator(s, cfg, classifier, NewNetwork(s), NewTracker())
	require.NoError(t, err)
	return s, orch
}

func TestOrchestrator_DeliversOnePayloadEndToEnd(t *testing.T) {
	// GIVEN the reference configuration and one confidently classified
	// 50000-byte payload
	cfg := DefaultConfig()
	rng := NewPartitionedRNG(7)
	classifier := NewSimulatedClassifier(rng.ForSubsystem(SubsystemClassifier), 0, 0)
	s, orch := newTestRun(t, cfg, classifier)
	p := orch.SubmitAt(patternData(ClassMessi, 50_000), 2*TicksPerSecond)

	// WHEN the simulation runs to completion
	s.Run()

	// THEN the payload completes with all 49 fragments delivered to
	// the Messi receiver
	assert.Equal(t, StateCompleted, p.State)
	assert.Equal(t, ClassMessi, p.Class)
	assert.Equal(t, 1, orch.Completed)
	assert.Zero(t, orch.DroppedPayloads())

	flows := orch.Tracker().Flows()
	require.Len(t, flows, 1)
	assert.Equal(t, "receiver-messi", flows[0].Dst.Node)
	assert.Equal(t, ClassMessi, orch.FlowClass(flows[0]))

	stats := orch.Tracker().Finalize(flows[0])
	assert.Equal(t, 49, stats.Sent)
	assert.Equal(t, 49, stats.Received)
	assert.Equal(t, int64(50_000), stats.BytesReceived)
	assert.InDelta(t, 0.0, stats.LossRatio, 1e-9)
	// Each fragment's delay is its link serialization plus the 2 ms
	// propagation: 3638 ticks for full fragments, 3356 for the
	// 848-byte tail.
	assert.InDelta(t, float64(48*3638+3356)/49, stats.MeanDelay, 1e-6)
	assert.Zero(t, stats.Inconsistent)
}

func TestOrchestrator_UncertainWithoutFallbackDropsPayload(t *testing.T) {
	// GIVEN a classification above the distance threshold and no
	// fallback class
	cfg := DefaultConfig()
	s, orch := newTestRun(t, cfg, stubClassifier{ClassificationResult{Class: ClassRonaldo, Distance: 150}})
	p := orch.SubmitAt(patternData(ClassRonaldo, 50_000), TicksPerSecond)

	// WHEN the simulation runs
	s.Run()

	// THEN the payload goes straight to Completed with zero fragments
	// and the drop is counted
	assert.Equal(t, StateCompleted, p.State)
	assert.Equal(t, ClassUnresolved, p.Class)
	assert.Equal(t, 1, orch.DroppedPayloads())
	assert.Equal(t, 1, orch.Completed)
	assert.Empty(t, orch.Tracker().Flows())
}

func TestOrchestrator_UncertainWithFallbackRoutesAllFragments(t *testing.T) {
	// GIVEN the same uncertain classification with Haaland configured
	// as fallback
	cfg := DefaultConfig()
	cfg.FallbackClass = ClassHaaland
	s, orch := newTestRun(t, cfg, stubClassifier{ClassificationResult{Class: ClassRonaldo, Distance: 150}})
	p := orch.SubmitAt(patternData(ClassRonaldo, 10_240), TicksPerSecond)

	// WHEN the simulation runs
	s.Run()

	// THEN every fragment lands on the fallback class's destination
	assert.Equal(t, ClassHaaland, p.Class)
	assert.Zero(t, orch.DroppedPayloads())

	flows := orch.Tracker().Flows()
	require.Len(t, flows, 1)
	assert.Equal(t, "receiver-haaland", flows[0].Dst.Node)
	stats := orch.Tracker().Finalize(flows[0])
	assert.Equal(t, 10, stats.Sent)
	assert.Equal(t, 10, stats.Received)
}

func TestOrchestrator_EmptyPayloadTriviallyDelivered(t *testing.T) {
	// GIVEN an empty payload that still classifies confidently
	cfg := DefaultConfig()
	s, orch := newTestRun(t, cfg, stubClassifier{ClassificationResult{Class: ClassMessi, Distance: 50}})
	p := orch.SubmitAt(nil, TicksPerSecond)

	// WHEN the simulation runs
	s.Run()

	// THEN the payload completes with zero fragments and no flow, and
	// it is not a drop
	assert.Equal(t, StateCompleted, p.State)
	assert.Equal(t, 1, orch.Completed)
	assert.Zero(t, orch.DroppedPayloads())
	assert.Empty(t, orch.Tracker().Flows())
}

func TestOrchestrator_BackpressureRetriesWithoutLoss(t *testing.T) {
	// GIVEN a pacing rate twice the link rate, so every other send
	// meets a busy link
	cfg := DefaultConfig()
	cfg.PaceRateBps = 10_000_000
	cfg.LinkRateBps = 5_000_000
	s, orch := newTestRun(t, cfg, stubClassifier{ClassificationResult{Class: ClassNeymar, Distance: 50}})
	orch.SubmitAt(patternData(ClassNeymar, 20_480), TicksPerSecond)

	// WHEN the simulation runs
	s.Run()

	// THEN backpressure resolves by rescheduling: all fragments are
	// eventually sent and delivered, none lost or duplicated
	flows := orch.Tracker().Flows()
	require.Len(t, flows, 1)
	stats := orch.Tracker().Finalize(flows[0])
	assert.Equal(t, 20, stats.Sent)
	assert.Equal(t, 20, stats.Received)
	assert.Zero(t, stats.Inconsistent)
	assert.Equal(t, 1, orch.Completed)
}

func TestOrchestrator_EarlyHorizonKeepsPartialCounts(t *testing.T) {
	// GIVEN a horizon that cuts the payload off mid-send (49 fragments
	// need ~400 ms of pacing from t=100 ms)
	cfg := DefaultConfig()
	cfg.Horizon = 200 * TicksPerMillisecond
	s, orch := newTestRun(t, cfg, stubClassifier{ClassificationResult{Class: ClassMbappe, Distance: 50}})
	p := orch.SubmitAt(patternData(ClassMbappe, 50_000), 100*TicksPerMillisecond)

	// WHEN the run ends at the horizon and pending sends are cancelled
	s.Run()
	orch.CancelPending()

	// THEN the partially-sent payload contributes its partial counts
	// instead of being excluded
	assert.Equal(t, StateSending, p.State)
	flows := orch.Tracker().Flows()
	require.Len(t, flows, 1)
	stats := orch.Tracker().Finalize(flows[0])
	assert.Greater(t, stats.Sent, 0)
	assert.Less(t, stats.Sent, 49)
	assert.LessOrEqual(t, stats.Received, stats.Sent)
}

func TestOrchestrator_PerClassSummariesAverageFlows(t *testing.T) {
	// GIVEN two payloads bound to the same class and one to another
	cfg := DefaultConfig()
	rng := NewPartitionedRNG(11)
	classifier := NewSimulatedClassifier(rng.ForSubsystem(SubsystemClassifier), 0, 0)
	s, orch := newTestRun(t, cfg, classifier)
	orch.SubmitAt(patternData(ClassMessi, 10_240), 1*TicksPerSecond)
	orch.SubmitAt(patternData(ClassMessi, 20_480), 2*TicksPerSecond)
	orch.SubmitAt(patternData(ClassHaaland, 10_240), 3*TicksPerSecond)

	// WHEN the simulation runs and summaries are computed
	s.Run()
	summaries := orch.ClassSummaries()

	// THEN per-class summaries aggregate across that class's flows
	// only, unweighted by flow size
	byClass := make(map[Class]ClassSummary)
	for _, s := range summaries {
		byClass[s.Class] = s
	}
	assert.Equal(t, 2, byClass[ClassMessi].Flows)
	assert.Equal(t, 30, byClass[ClassMessi].Sent)
	assert.Equal(t, 30, byClass[ClassMessi].Received)
	assert.Equal(t, 1, byClass[ClassHaaland].Flows)
	assert.Equal(t, 10, byClass[ClassHaaland].Sent)
	assert.Zero(t, byClass[ClassRonaldo].Flows)
	assert.InDelta(t, 0.0, byClass[ClassMessi].LossRatio, 1e-9)
}

func TestOrchestrator_SameSeedSameResults(t *testing.T) {
	// GIVEN two identical runs with the same master seed and some
	// classifier noise
	run := func() map[FlowKey]FlowStatistics {
		cfg := DefaultConfig()
		cfg.FallbackClass = ClassMessi
		rng := NewPartitionedRNG(1234)
		classifier := NewSimulatedClassifier(rng.ForSubsystem(SubsystemClassifier), 0.1, 0.2)
		s := NewSimulator(cfg.Horizon)
		orch, err := NewOrchestrator(s, cfg, classifier, NewNetwork(s), NewTracker())
		require.NoError(t, err)
		for i, class := range Classes {
			orch.SubmitAt(patternData(class, 10_240), (2*TicksPerSecond)+int64(i)*500*TicksPerMillisecond)
		}
		s.Run()
		out := make(map[FlowKey]FlowStatistics)
		for _, key := range orch.Tracker().Flows() {
			out[key] = orch.Tracker().Finalize(key)
		}
		return out
	}

	// WHEN both runs complete
	first := run()
	second := run()

	// THEN the finalized statistics are identical, fragment for
	// fragment (flow keys differ only in payload IDs, which are not
	// part of the key)
	assert.Equal(t, first, second)
}

func TestOrchestrator_PortExhaustionPanics(t *testing.T) {
	// GIVEN an orchestrator whose source port counter sits at the top
	// of the range
	cfg := DefaultConfig()
	s, orch := newTestRun(t, cfg, stubClassifier{ClassificationResult{Class: ClassMessi, Distance: 50}})
	orch.nextPort = 65535

	// WHEN one more payload than the range can hold is submitted
	orch.SubmitAt(patternData(ClassMessi, 1024), 0)
	orch.SubmitAt(patternData(ClassMessi, 1024), TicksPerMillisecond)

	// THEN the wrapped counter is caught loudly instead of silently
	// reusing a port
	assert.Panics(t, func() { s.Run() })
}
