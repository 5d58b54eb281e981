// Package topic implements the typed topic container at the core of the
// detectorgraph dataflow engine: Topic[T] holds the current and
// in-traversal-new values of one value type T, and dispatches new values to
// its subscribers in publish order.
//
// Identity is per-type: within one graph there is exactly one Topic[T] per
// T, enforced by graph.ResolveTopic, not by this package.
package topic

import "github.com/evalgraph/detectorgraph/dispatch"

// TopicState marks a user type as eligible to ride the graph as a topic
// value. Any value type qualifies; the constraint exists so generic
// functions can be written against "a topic value type" without caring what
// concrete type it is.
type TopicState interface {
	any
}

// Lagged wraps a value carried one traversal later on a distinct topic from
// its origin T, so a lagged subscription is never accidentally a zero-lag
// one. See the lag package for the detector that produces it.
type Lagged[T TopicState] struct {
	Data T
}

// DirtyMarker lets a Topic report itself dirty to its owning graph without
// topic importing graph (which owns the topological scheduler and would
// create an import cycle). Graph implements this interface and passes
// itself to every Topic it creates in graph.ResolveTopic.
type DirtyMarker interface {
	MarkDirty(id any)
}

// Topic holds one value type's current and pending-new values plus its
// registered subscribers.
type Topic[T TopicState] struct {
	id          any // stable key this topic is registered under in its registry
	current     T
	newValues   []T
	subscribers []dispatch.Subscriber[T]
	dirty       DirtyMarker
	lite        bool
	liteCap     int
}

// New constructs an empty Topic[T]. Graph/registry code is the only
// intended caller; user code reaches a Topic only through
// Graph.ResolveTopic.
func New[T TopicState](id any, dirty DirtyMarker) *Topic[T] {
	return &Topic[T]{id: id, dirty: dirty}
}

// EnableLite bounds newValues to cap entries, evicting the oldest newValues
// entry on overflow instead of growing unboundedly. A cap of 0 or less leaves
// newValues unbounded. The subscriber list is not bounded.
func (t *Topic[T]) EnableLite(cap int) {
	t.lite = true
	t.liteCap = cap
}

// Subscribe registers a subscriber in order. Called by graph.Subscribe at
// detector-construction time; never after the graph starts evaluating.
func (t *Topic[T]) Subscribe(s dispatch.Subscriber[T]) {
	t.subscribers = append(t.subscribers, s)
}

// Publish appends v to newValues and marks the topic dirty in the owning
// graph. Multiple publishes within one traversal are preserved in order,
// with no deduplication.
func (t *Topic[T]) Publish(v T) {
	t.newValues = append(t.newValues, v)
	if t.lite && t.liteCap > 0 && len(t.newValues) > t.liteCap {
		t.newValues = t.newValues[len(t.newValues)-t.liteCap:]
	}
	if t.dirty != nil {
		t.dirty.MarkDirty(t.id)
	}
}

// HasNewValue reports whether any value was published on this topic during
// the current traversal.
func (t *Topic[T]) HasNewValue() bool {
	return len(t.newValues) > 0
}

// GetNewValue returns the last value published this traversal. The caller
// must have checked HasNewValue first; calling this with no new value
// returns the zero value of T.
func (t *Topic[T]) GetNewValue() T {
	if len(t.newValues) == 0 {
		var zero T
		return zero
	}
	return t.newValues[len(t.newValues)-1]
}

// GetCurrentValues returns the sequence of values published this traversal,
// or, if none were published, a single-element sequence containing the
// consolidated current value.
func (t *Topic[T]) GetCurrentValues() []T {
	if len(t.newValues) > 0 {
		out := make([]T, len(t.newValues))
		copy(out, t.newValues)
		return out
	}
	return []T{t.current}
}

// Current returns the last fully-consolidated value, ignoring any pending
// new values from the traversal in progress.
func (t *Topic[T]) Current() T {
	return t.current
}

// DispatchIntoSubscribers delivers every value published this traversal, in
// publish order, to every subscriber, in registration order.
func (t *Topic[T]) DispatchIntoSubscribers() {
	for _, v := range t.newValues {
		for _, sub := range t.subscribers {
			sub.Evaluate(v)
		}
	}
}

// Consolidate promotes the last new value to current and clears newValues.
// Called once per topic at the end of every traversal.
func (t *Topic[T]) Consolidate() {
	if len(t.newValues) > 0 {
		t.current = t.newValues[len(t.newValues)-1]
	}
	t.newValues = t.newValues[:0]
}
