package scenario

import (
	"fmt"

	"github.com/delivery-sim/delivery-sim/sim"
)

// Submission is one payload ready for the orchestrator: its synthetic
// image bytes and its submission tick.
type Submission struct {
	Data []byte
	At   int64 // ticks
}

// SynthesizeImage produces deterministic stand-in image bytes for a
// class: a per-class base pattern of classIndex*50+10 incremented per
// byte. The simulated classifier decodes the class back out of the
// first byte.
func SynthesizeImage(class sim.Class, size int) []byte {
	pattern := byte(0)
	for i, c := range sim.Classes {
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

// BuildSubmissions expands the spec's payload groups into concrete
// submissions, ordered as listed. Deterministic: the same spec always
// yields the same submissions.
func BuildSubmissions(spec *Spec) ([]Submission, error) {
	var subs []Submission
	for i, p := range spec.Payloads {
		class, err := sim.ParseClass(p.Class)
		if err != nil {
			return nil, fmt.Errorf("payloads[%d]: %w", i, err)
		}
		for n := 0; n < p.Count; n++ {
			subs = append(subs, Submission{
				Data: SynthesizeImage(class, p.Size),
				At:   (p.StartMs + int64(n)*p.StaggerMs) * sim.TicksPerMillisecond,
			})
		}
	}
	return subs, nil
}
