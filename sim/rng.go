package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for partitioned RNG derivation. Each randomized part
// of a run draws from its own stream so that, for example, adding more
// synthetic payloads does not perturb classifier noise.
const (
	// SubsystemWorkload seeds synthetic payload generation.
	SubsystemWorkload = "workload"

	// SubsystemClassifier seeds the simulated classification backend's
	// distance scores.
	SubsystemClassifier = "classifier"
)

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem. Two runs with the same master seed and identical
// configuration produce bit-for-bit identical results.
//
// Derivation: masterSeed XOR fnv1a64(subsystemName).
//
// Thread-safety: NOT thread-safe. Must be called from a single
// goroutine, which holds for the single-threaded simulation model.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same subsystem name always returns the same
// *rand.Rand instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed this PartitionedRNG was created with.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
