// Package dgerrors defines the fatal error taxonomy the detectorgraph core
// can raise. None of these are recoverable by the engine; they propagate out
// of EvaluateGraph (or the registry/topic call that detected them) for the
// caller to handle or crash on.
package dgerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors identifying the taxonomy from the error-handling design.
// Use errors.Is against these, not string comparison.
var (
	// ErrTopicNotFound is returned by a lookup-only topic accessor
	// (graph.LookupTopic) when the requested type was never resolved
	// against the owning graph.
	ErrTopicNotFound = errors.New("detectorgraph: topic not found")

	// ErrCyclicGraph is returned by the first EvaluateGraph call when the
	// non-lagged dependency DAG contains a cycle.
	ErrCyclicGraph = errors.New("detectorgraph: cyclic graph")

	// ErrInvariantViolation wraps assertion failures raised by user code
	// (e.g. negative derived state) that should abort the traversal.
	ErrInvariantViolation = errors.New("detectorgraph: invariant violation")
)

// TopicNotFound wraps ErrTopicNotFound with the offending type name.
func TopicNotFound(typeName string) error {
	return fmt.Errorf("%w: %s", ErrTopicNotFound, typeName)
}

// CyclicGraph wraps ErrCyclicGraph with the detectors that could not be
// ordered, identified by their diagnostic IDs.
func CyclicGraph(remaining []string) error {
	return fmt.Errorf("%w: %d detector(s) could not be ordered: %v", ErrCyclicGraph, len(remaining), remaining)
}

// InvariantViolation wraps ErrInvariantViolation with a caller-supplied
// description of the violated invariant.
func InvariantViolation(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, reason)
}
