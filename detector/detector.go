// Package detector defines the Detector contract every graph node
// implements: a diagnostic identity and an end-of-visit hook. The
// per-subscribed-type Evaluate methods a detector needs are declared
// directly on concrete detector types (Go has no way to express "one
// Evaluate per subscribed type" as a single interface method), and wired to
// their topics via graph.Subscribe.
package detector

import "github.com/google/uuid"

// Detector is the node type the graph schedules. Concrete detectors embed
// Base for the diagnostic-identity and default-CompleteEvaluation
// bookkeeping rather than reimplementing those shared fields per type.
type Detector interface {
	// ID returns a stable identifier used only for diagnostics (topology
	// dumps, cycle-detection error messages, registration-order tie
	// breaking is by registration sequence, not by this ID).
	ID() string

	// CompleteEvaluation is invoked once per traversal visit, after every
	// Evaluate call for this visit, iff at least one subscribed topic was
	// dirty. Detectors publish derived outputs here.
	CompleteEvaluation()
}

// Base is embedded by concrete detectors to satisfy Detector without
// boilerplate. Embed it first, then declare Evaluate(T) per subscribed
// type and optionally override CompleteEvaluation by shadowing the method
// on the embedding type.
type Base struct {
	id string
}

// ID lazily assigns and returns a stable diagnostic identifier.
func (b *Base) ID() string {
	if b.id == "" {
		b.id = uuid.NewString()
	}
	return b.id
}

// CompleteEvaluation is a no-op default for detectors with no derived
// publishing step (e.g. a detector that only records observations).
func (b *Base) CompleteEvaluation() {}
