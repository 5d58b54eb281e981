// Package lag implements the built-in Lag[T] detector: the one-traversal
// delay operator that lets a graph express a feedback loop without
// deadlocking the topological scheduler.
package lag

import (
	"github.com/evalgraph/detectorgraph/detector"
	"github.com/evalgraph/detectorgraph/dispatch"
	"github.com/evalgraph/detectorgraph/graph"
	"github.com/evalgraph/detectorgraph/topic"
)

// Lag subscribes to Topic[T] and publishes Topic[Lagged[T]] one traversal
// later: a value observed on T during traversal N is delivered to
// Lagged[T]'s subscribers during traversal N+1, never N.
//
// Its T subscription is an ordinary edge (Lag runs after T's producer, in
// the same traversal, to capture the fresh value). Its publish onto
// Lagged[T] is never part of that same traversal: it is queued with
// graph.RegisterPendingDrain and only reaches Topic[Lagged[T]] at the start
// of the next traversal, via flush. Because of that, graph's topological
// sort excludes any edge whose producer is a Lag detector (see
// graph.LagMarker) — the dependency always spans traversals, so it can
// never close a same-traversal cycle back into whatever produced T.
type Lag[T topic.TopicState] struct {
	detector.Base
	pending *T
	out     *topic.Topic[topic.Lagged[T]]
}

// New constructs a Lag[T] wired into g: subscribed to Topic[T], publishing
// Topic[Lagged[T]] one traversal later.
func New[T topic.TopicState](g *graph.Graph) *Lag[T] {
	l := &Lag[T]{}
	graph.Subscribe[T](g, l, dispatch.SubscriberFunc[T](l.observe))
	l.out = graph.SetupPublishing[topic.Lagged[T]](g, l)
	g.RegisterPendingDrain(l.flush)
	return l
}

func (l *Lag[T]) observe(v T) {
	l.pending = &v
}

// flush runs at the start of the traversal following the one that captured
// pending, publishing it onto Lagged[T] if anything was captured.
func (l *Lag[T]) flush() {
	if l.pending != nil {
		l.out.Publish(topic.Lagged[T]{Data: *l.pending})
		l.pending = nil
	}
}

// IsLagDetector implements graph.LagMarker.
func (l *Lag[T]) IsLagDetector() bool { return true }
