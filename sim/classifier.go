// Classification backend contract plus the simulated backend used when
// no real vision model is wired in.

package sim

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// ClassificationResult carries the backend's verdict for one payload:
// a class label and an LBPH-style distance score. Lower distance means
// a better match, so "confident" is distance below the configured
// threshold, not above it.
type ClassificationResult struct {
	Class    Class
	Distance float64
}

// Classifier turns raw payload bytes into a ClassificationResult.
// Classification is synchronous and one-shot: exactly one call per
// payload, no retries, no secondary passes.
type Classifier interface {
	Classify(payload []byte) ClassificationResult
}

// SimulatedClassifier stands in for the trained face-recognition
// backend. Synthetic payloads encode their true class in the byte
// pattern (see scenario.SynthesizeImage); the simulated classifier
// decodes it and draws a plausible distance score, occasionally
// reporting an uncertain or unresolved result so the fallback path is
// exercised.
type SimulatedClassifier struct {
	rng *rand.Rand

	// UnresolvedRate is the probability that a payload yields no
	// detectable subject at all.
	UnresolvedRate float64

	// UncertainRate is the probability that the label is right but the
	// distance lands above any reasonable threshold.
	UncertainRate float64
}

// NewSimulatedClassifier builds a classifier drawing from rng.
func NewSimulatedClassifier(rng *rand.Rand, unresolvedRate, uncertainRate float64) *SimulatedClassifier {
	return &SimulatedClassifier{
		rng:            rng,
		UnresolvedRate: unresolvedRate,
		UncertainRate:  uncertainRate,
	}
}

// Classify implements Classifier.
func (c *SimulatedClassifier) Classify(payload []byte) ClassificationResult {
	if len(payload) == 0 {
		return ClassificationResult{Class: ClassUnresolved, Distance: 0}
	}

	roll := c.rng.Float64()
	if roll < c.UnresolvedRate {
		logrus.Debugf("classifier: no detectable subject")
		return ClassificationResult{Class: ClassUnresolved, Distance: 0}
	}

	class := decodePatternClass(payload[0])
	if roll < c.UnresolvedRate+c.UncertainRate {
		// Right label, weak match: distance in [150, 250).
		return ClassificationResult{Class: class, Distance: 150 + c.rng.Float64()*100}
	}
	// Confident match: distance in [40, 90).
	return ClassificationResult{Class: class, Distance: 40 + c.rng.Float64()*50}
}

// decodePatternClass inverts the synthetic image pattern
// (classIndex*50 + 10) back to a class. Bytes that fit no class decode
// to ClassUnresolved.
func decodePatternClass(b byte) Class {
	for i, class := range Classes {
		if b == byte(i*50+10) {
			return class
		}
	}
	return ClassUnresolved
}
