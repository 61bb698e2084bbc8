// Classifier binding: maps a classification result to the destination
// endpoint the payload will be delivered to, and owns the fallback
// policy for uncertain or unresolved results.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// BindDecision records where one payload was bound and why.
type BindDecision struct {
	Class       Class
	Destination Endpoint
	Reason      string // human-readable explanation
	Fallback    bool   // true when the fallback policy chose the class
}

// Binding resolves classification results to destinations. Binding is
// a one-shot decision per payload: no retries, no secondary passes.
//
// Confidence is an LBPH distance, so a result passes the threshold
// when its Distance is strictly below it.
type Binding struct {
	// Threshold is the maximum distance still considered confident.
	Threshold float64

	// Fallback is the class uncertain and unresolved payloads are
	// routed to. ClassUnresolved means no fallback is configured, in
	// which case such payloads are dropped and counted.
	Fallback Class

	destinations map[Class]Endpoint

	// Assigned counts payloads bound per class, fallback included.
	Assigned map[Class]int

	// Dropped counts payloads that failed the threshold with no
	// fallback configured. Never silent: every drop is logged and
	// counted here.
	Dropped int
}

// NewBinding creates a binding over the given class-to-destination
// table. Every known class must have a destination.
func NewBinding(threshold float64, fallback Class, destinations map[Class]Endpoint) (*Binding, error) {
	for _, class := range Classes {
		if _, ok := destinations[class]; !ok {
			return nil, fmt.Errorf("%w: no destination for %s", ErrUnknownClass, class)
		}
	}
	if fallback != ClassUnresolved && !fallback.Known() {
		return nil, fmt.Errorf("%w: fallback %v", ErrUnknownClass, fallback)
	}
	return &Binding{
		Threshold:    threshold,
		Fallback:     fallback,
		destinations: destinations,
		Assigned:     make(map[Class]int),
	}, nil
}

// Resolve returns the destination for a classification result. The
// second return value is false when the payload must be dropped: the
// result failed the threshold (or was unresolved) and no fallback is
// configured.
func (b *Binding) Resolve(res ClassificationResult) (BindDecision, bool) {
	if res.Class.Known() && res.Distance < b.Threshold {
		b.Assigned[res.Class]++
		return BindDecision{
			Class:       res.Class,
			Destination: b.destinations[res.Class],
			Reason:      fmt.Sprintf("confident[distance=%.1f]", res.Distance),
		}, true
	}

	if b.Fallback.Known() {
		logrus.Warnf("classification uncertain (class=%s distance=%.1f), falling back to %s",
			res.Class, res.Distance, b.Fallback)
		b.Assigned[b.Fallback]++
		return BindDecision{
			Class:       b.Fallback,
			Destination: b.destinations[b.Fallback],
			Reason:      fmt.Sprintf("fallback[class=%s distance=%.1f]", res.Class, res.Distance),
			Fallback:    true,
		}, true
	}

	b.Dropped++
	logrus.Warnf("classification uncertain (class=%s distance=%.1f) and no fallback configured, payload dropped",
		res.Class, res.Distance)
	return BindDecision{Reason: "dropped: no fallback"}, false
}

// Destination returns the endpoint bound to a known class.
func (b *Binding) Destination(class Class) Endpoint {
	return b.destinations[class]
}
