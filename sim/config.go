package sim

import "fmt"

// Config carries every recognized knob of the pacing-and-routing core.
// Defaults mirror the reference topology: 1024-byte fragments paced at
// 1 Mbps over 5 Mbps links with 2 ms propagation delay, a distance
// threshold of 100, and a 10 s run.
type Config struct {
	FragmentSize int   // bytes per fragment (must be > 0)
	PaceRateBps  int64 // target pacing rate, bits/s (must be > 0)
	LinkRateBps  int64 // modeled link serialization rate, bits/s (must be > 0)
	LinkDelay    int64 // one-way propagation delay in ticks (>= 0)

	// ConfidenceThreshold is the maximum classification distance still
	// treated as confident. Lower distance is better.
	ConfidenceThreshold float64

	// FallbackClass receives payloads that fail the threshold.
	// ClassUnresolved means no fallback: such payloads are dropped.
	FallbackClass Class

	Horizon int64 // simulation duration in ticks (must be > 0)
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		FragmentSize:        1024,
		PaceRateBps:         1_000_000,
		LinkRateBps:         5_000_000,
		LinkDelay:           2 * TicksPerMillisecond,
		ConfidenceThreshold: 100.0,
		FallbackClass:       ClassUnresolved,
		Horizon:             10 * TicksPerSecond,
	}
}

// Validate fails fast on configuration errors, before any event is
// scheduled.
func (c Config) Validate() error {
	if c.FragmentSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrZeroFragmentSize, c.FragmentSize)
	}
	if c.PaceRateBps <= 0 {
		return fmt.Errorf("pace %w: got %d", ErrZeroRate, c.PaceRateBps)
	}
	if c.LinkRateBps <= 0 {
		return fmt.Errorf("link %w: got %d", ErrZeroRate, c.LinkRateBps)
	}
	if c.LinkDelay < 0 {
		return fmt.Errorf("link delay must not be negative: got %d", c.LinkDelay)
	}
	if c.ConfidenceThreshold <= 0 {
		return fmt.Errorf("confidence threshold must be positive: got %g", c.ConfidenceThreshold)
	}
	if c.FallbackClass != ClassUnresolved && !c.FallbackClass.Known() {
		return fmt.Errorf("%w: fallback %v", ErrUnknownClass, c.FallbackClass)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive: got %d", c.Horizon)
	}
	return nil
}
