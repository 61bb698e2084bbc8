// Package scenario loads YAML scenario specifications and synthesizes
// the payloads a run submits.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/delivery-sim/delivery-sim/sim"
)

// Spec is the top-level scenario configuration, loaded from YAML via
// Load(path). Zero-valued fields pick up reference defaults in
// ApplyDefaults.
type Spec struct {
	Seed                int64         `yaml:"seed"`
	DurationMs          int64         `yaml:"duration_ms"`
	FragmentSize        int           `yaml:"fragment_size"`
	PaceRateBps         int64         `yaml:"pace_rate_bps"`
	LinkRateBps         int64         `yaml:"link_rate_bps"`
	LinkDelayMs         int64         `yaml:"link_delay_ms"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	FallbackClass       string        `yaml:"fallback_class,omitempty"`
	UnresolvedRate      float64       `yaml:"unresolved_rate"`
	UncertainRate       float64       `yaml:"uncertain_rate"`
	Payloads            []PayloadSpec `yaml:"payloads"`
}

// PayloadSpec describes one group of synthetic payloads of the same
// class. Count payloads are submitted starting at StartMs, spaced
// StaggerMs apart.
type PayloadSpec struct {
	Class     string `yaml:"class"`
	Size      int    `yaml:"size"`
	Count     int    `yaml:"count"`
	StartMs   int64  `yaml:"start_ms"`
	StaggerMs int64  `yaml:"stagger_ms"`
}

// Load reads, defaults, and validates a scenario spec.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &spec, nil
}

// ApplyDefaults fills zero-valued fields with the reference setup:
// 1024-byte fragments at 1 Mbps over 5 Mbps / 2 ms links, threshold
// 100, a 10 s run, and one 50000-byte payload per class submitted
// from t=2 s with 500 ms stagger.
func (s *Spec) ApplyDefaults() {
	if s.Seed == 0 {
		s.Seed = 42
	}
	if s.DurationMs == 0 {
		s.DurationMs = 10_000
	}
	if s.FragmentSize == 0 {
		s.FragmentSize = 1024
	}
	if s.PaceRateBps == 0 {
		s.PaceRateBps = 1_000_000
	}
	if s.LinkRateBps == 0 {
		s.LinkRateBps = 5_000_000
	}
	if s.LinkDelayMs == 0 {
		s.LinkDelayMs = 2
	}
	if s.ConfidenceThreshold == 0 {
		s.ConfidenceThreshold = 100.0
	}
	if len(s.Payloads) == 0 {
		for i, class := range sim.Classes {
			s.Payloads = append(s.Payloads, PayloadSpec{
				Class:   class.String(),
				Size:    50_000,
				Count:   1,
				StartMs: 2_000 + int64(i)*500,
			})
		}
	}
	for i := range s.Payloads {
		if s.Payloads[i].Count == 0 {
			s.Payloads[i].Count = 1
		}
		if s.Payloads[i].Size == 0 {
			s.Payloads[i].Size = 50_000
		}
		if s.Payloads[i].Count > 1 && s.Payloads[i].StaggerMs == 0 {
			s.Payloads[i].StaggerMs = 100
		}
	}
}

// Validate rejects specs the simulator would fail on later anyway.
func (s *Spec) Validate() error {
	if _, err := s.Config(); err != nil {
		return err
	}
	for i, p := range s.Payloads {
		if _, err := sim.ParseClass(p.Class); err != nil {
			return fmt.Errorf("payloads[%d]: %w", i, err)
		}
		if p.Size < 0 {
			return fmt.Errorf("payloads[%d]: size must not be negative: got %d", i, p.Size)
		}
		if p.Count < 0 {
			return fmt.Errorf("payloads[%d]: count must not be negative: got %d", i, p.Count)
		}
	}
	if s.UnresolvedRate < 0 || s.UnresolvedRate > 1 {
		return fmt.Errorf("unresolved_rate must be in [0,1]: got %g", s.UnresolvedRate)
	}
	if s.UncertainRate < 0 || s.UncertainRate > 1 {
		return fmt.Errorf("uncertain_rate must be in [0,1]: got %g", s.UncertainRate)
	}
	return nil
}

// Config translates the spec into the simulator configuration and
// runs its fail-fast validation.
func (s *Spec) Config() (sim.Config, error) {
	fallback, err := sim.ParseClass(s.FallbackClass)
	if err != nil {
		return sim.Config{}, fmt.Errorf("fallback_class: %w", err)
	}
	cfg := sim.Config{
		FragmentSize:        s.FragmentSize,
		PaceRateBps:         s.PaceRateBps,
		LinkRateBps:         s.LinkRateBps,
		LinkDelay:           s.LinkDelayMs * sim.TicksPerMillisecond,
		ConfidenceThreshold: s.ConfidenceThreshold,
		FallbackClass:       fallback,
		Horizon:             s.DurationMs * sim.TicksPerMillisecond,
	}
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, err
	}
	return cfg, nil
}
