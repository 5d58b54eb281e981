// Package graph implements the detectorgraph topological scheduler: the
// type-indexed topic registry, the dependency DAG built from subscription
// and publish calls, and the single-pass traversal that visits each
// detector at most once per external input, in dependency order.
//
// The topological sort runs Kahn's algorithm over []detector.Detector, with
// edges derived generically from Subscribe/SetupPublishing calls: a FIFO
// queue so ties break by registration order, and a cycle reported whenever
// fewer detectors come out ordered than went in.
package graph

import (
	"reflect"
	"sync"

	"github.com/evalgraph/detectorgraph/detector"
	"github.com/evalgraph/detectorgraph/dgerrors"
	"github.com/evalgraph/detectorgraph/dglog"
	"github.com/evalgraph/detectorgraph/dispatch"
	"github.com/evalgraph/detectorgraph/topic"
)

// subscription records one detector's subscription to one topic type: a
// dirty check and a delivery closure, both closing over the concrete
// *topic.Topic[T] so the graph package never needs to know T.
type subscription struct {
	topicKey reflect.Type
	hasNew   func() bool
	deliver  func()
}

// edgeRecord is a diagnostics-only record of one producer/subscriber pair,
// independent of whether it contributed a precedence constraint.
type edgeRecord struct {
	producerID string // "" for an externally-seeded topic with no in-graph producer
	subID      string
	topicName  string
	backedge   bool
}

// Graph owns the topic registry, the registration-ordered detector list,
// the subscription/publish edges, and the per-traversal dirty set.
type Graph struct {
	mu sync.Mutex

	topics       map[reflect.Type]any // reflect.Type -> *topic.Topic[T]
	consolidate  []func()
	typeNames    map[reflect.Type]string

	detectors    []detector.Detector
	detectorSeen map[detector.Detector]bool

	subsByDetector map[detector.Detector][]*subscription
	publishers     map[reflect.Type][]detector.Detector
	edges          []edgeRecord

	dirty map[any]bool

	order         []detector.Detector
	orderComputed bool

	pendingDrains []func()

	lite    bool
	liteCap int

	log *dglog.Logger
}

// New constructs an empty Graph ready for detector construction.
func New() *Graph {
	return &Graph{
		topics:         make(map[reflect.Type]any),
		typeNames:      make(map[reflect.Type]string),
		detectorSeen:   make(map[detector.Detector]bool),
		subsByDetector: make(map[detector.Detector][]*subscription),
		publishers:     make(map[reflect.Type][]detector.Detector),
		dirty:          make(map[any]bool),
		log:            dglog.Noop(),
	}
}

// SetLogger attaches a logger used for traversal and cycle-detection
// diagnostics.
func (g *Graph) SetLogger(l *dglog.Logger) {
	if l != nil {
		g.log = l
	}
}

// EnableLite turns on bounded in-place storage for every topic subsequently
// resolved.
func (g *Graph) EnableLite(cap int) {
	g.lite = true
	g.liteCap = cap
}

// LagMarker is implemented by the lag package's Lag[T] detector so the
// topological sort can tell a Lag-produced edge from an ordinary one, both
// to leave it out of the ordering and to flag it in diagnostics, without
// graph importing lag (which imports graph). Exported
// because an unexported interface method here could only ever be satisfied
// by a type defined in this same package.
type LagMarker interface {
	IsLagDetector() bool
}

// MarkDirty implements topic.DirtyMarker.
func (g *Graph) MarkDirty(id any) {
	g.dirty[id] = true
}

func typeKey[T topic.TopicState]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// ResolveTopic returns the graph's single Topic[T], creating it on first
// use. At most one Topic[T] ever exists per graph.
func ResolveTopic[T topic.TopicState](g *Graph) *topic.Topic[T] {
	g.mu.Lock()
	defer g.mu.Unlock()
	return resolveTopicLocked[T](g)
}

// LookupTopic returns the graph's existing Topic[T] without creating one,
// for introspection callers that must not silently bring a
// topic into existence just by asking about it. It fails with
// dgerrors.ErrTopicNotFound if Topic[T] has never been resolved via
// ResolveTopic/SetupPublishing.
func LookupTopic[T topic.TopicState](g *Graph) (*topic.Topic[T], error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := typeKey[T]()
	existing, ok := g.topics[k]
	if !ok {
		return nil, dgerrors.TopicNotFound(k.String())
	}
	return existing.(*topic.Topic[T]), nil
}

func resolveTopicLocked[T topic.TopicState](g *Graph) *topic.Topic[T] {
	k := typeKey[T]()
	if existing, ok := g.topics[k]; ok {
		return existing.(*topic.Topic[T])
	}
	t := topic.New[T](k, g)
	if g.lite {
		t.EnableLite(g.liteCap)
	}
	g.topics[k] = t
	g.typeNames[k] = k.String()
	g.consolidate = append(g.consolidate, t.Consolidate)
	return t
}

func (g *Graph) registerDetector(d detector.Detector) {
	if g.detectorSeen[d] {
		return
	}
	g.detectorSeen[d] = true
	g.detectors = append(g.detectors, d)
	g.orderComputed = false
}

// Subscribe registers d as a subscriber of Topic[T], declaring the "topic
// precedes detector" edge used by topological ordering. When T's only
// producer is a Lag detector this edge is still recorded for delivery and
// diagnostics, but computeOrder excludes it from the precedence graph: a
// Lag publish is always deferred to the start of the next traversal (see
// the lag package), so it can never be a same-traversal dependency.
func Subscribe[T topic.TopicState](g *Graph, d detector.Detector, sub dispatch.Subscriber[T]) {
	g.mu.Lock()
	t := resolveTopicLocked[T](g)
	t.Subscribe(sub)
	g.registerDetector(d)
	k := typeKey[T]()
	sr := &subscription{
		topicKey: k,
		hasNew:   t.HasNewValue,
		deliver: func() {
			for _, v := range t.GetCurrentValues() {
				sub.Evaluate(v)
			}
		},
	}
	g.subsByDetector[d] = append(g.subsByDetector[d], sr)
	g.orderComputed = false
	g.mu.Unlock()
}

// SetupPublishing declares d as a publisher of Topic[T] and returns the
// topic so d can call Publish on it.
func SetupPublishing[T topic.TopicState](g *Graph, d detector.Detector) *topic.Topic[T] {
	g.mu.Lock()
	t := resolveTopicLocked[T](g)
	g.registerDetector(d)
	k := typeKey[T]()
	g.publishers[k] = append(g.publishers[k], d)
	g.orderComputed = false
	g.mu.Unlock()
	return t
}

// PostNewTopicStateOnto seeds Topic[T] with v, the input funnel external
// callers use to start a traversal.
func PostNewTopicStateOnto[T topic.TopicState](g *Graph, v T) {
	ResolveTopic[T](g).Publish(v)
}

// Detectors returns registration-ordered diagnostic descriptions of every
// registered detector, for a topology-dump consumer.
type DetectorInfo struct {
	ID string
}

func (g *Graph) Detectors() []DetectorInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]DetectorInfo, 0, len(g.detectors))
	for _, d := range g.detectors {
		out = append(out, DetectorInfo{ID: d.ID()})
	}
	return out
}

// EdgeInfo describes one producer/subscriber relationship for a diagnostic
// renderer: Backedge marks edges produced by a Lag detector, rendered
// differently since they never constrain traversal order.
type EdgeInfo struct {
	ProducerID string
	SubID      string
	TopicType  string
	Backedge   bool
}

func (g *Graph) Edges() []EdgeInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]EdgeInfo, len(g.edges))
	for i, e := range g.edges {
		out[i] = EdgeInfo{ProducerID: e.producerID, SubID: e.subID, TopicType: e.topicName, Backedge: e.backedge}
	}
	return out
}

// registerEdgesLocked rebuilds the diagnostic edge list from the current
// publisher/subscriber maps. Called whenever the order is (re)computed.
func (g *Graph) registerEdgesLocked(lagProducers map[reflect.Type]bool) {
	g.edges = g.edges[:0]
	for d, subs := range g.subsByDetector {
		for _, sr := range subs {
			producers := g.publishers[sr.topicKey]
			name := g.typeNames[sr.topicKey]
			backedge := lagProducers[sr.topicKey]
			if len(producers) == 0 {
				g.edges = append(g.edges, edgeRecord{producerID: "", subID: d.ID(), topicName: name, backedge: backedge})
				continue
			}
			for _, p := range producers {
				_, isLag := p.(LagMarker)
				g.edges = append(g.edges, edgeRecord{producerID: p.ID(), subID: d.ID(), topicName: name, backedge: isLag})
			}
		}
	}
}

// computeOrder runs Kahn's algorithm over the precedence graph: build
// in-degree counts from edges, seed the queue with zero-indegree nodes in
// registration order, and pop in FIFO order so ties break by registration
// order. Returns dgerrors.ErrCyclicGraph if any detector remains unordered
// once the queue drains.
func (g *Graph) computeOrder() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.orderComputed {
		return nil
	}

	indexOf := make(map[detector.Detector]int, len(g.detectors))
	for i, d := range g.detectors {
		indexOf[d] = i
	}

	adjacency := make([][]int, len(g.detectors))
	inDegree := make([]int, len(g.detectors))
	lagProducers := make(map[reflect.Type]bool)

	for typ, producers := range g.publishers {
		for _, p := range producers {
			if _, ok := p.(LagMarker); ok {
				lagProducers[typ] = true
			}
		}
	}

	for si, d := range g.detectors {
		for _, sr := range g.subsByDetector[d] {
			for _, p := range g.publishers[sr.topicKey] {
				pi, ok := indexOf[p]
				if !ok || pi == si {
					continue
				}
				// A Lag-produced topic's consumers never depend on Lag
				// within the same traversal: Lag always defers its publish
				// to the start of the next traversal (see the lag
				// package), so this edge would otherwise close a cycle
				// back into the detector that fed Lag's input.
				if _, ok := p.(LagMarker); ok {
					continue
				}
				adjacency[pi] = append(adjacency[pi], si)
				inDegree[si]++
			}
		}
	}

	queue := make([]int, 0, len(g.detectors))
	for i := range g.detectors {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]detector.Detector, 0, len(g.detectors))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, g.detectors[i])
		for _, j := range adjacency[i] {
			inDegree[j]--
			if inDegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}

	g.registerEdgesLocked(lagProducers)

	if len(order) != len(g.detectors) {
		var remaining []string
		for i, deg := range inDegree {
			if deg > 0 {
				remaining = append(remaining, g.detectors[i].ID())
			}
		}
		g.log.With(map[string]any{"remaining": remaining}).Error("cyclic graph detected")
		return dgerrors.CyclicGraph(remaining)
	}

	g.order = order
	g.orderComputed = true
	g.log.With(map[string]any{"detectors": len(order)}).Debug("topological order computed")
	return nil
}

// EvaluateGraph runs one full traversal: visits every detector in
// topological order, delivering each dirty subscribed topic's buffered
// values and invoking CompleteEvaluation, then consolidates every topic and
// clears the dirty set.
func (g *Graph) EvaluateGraph() error {
	if err := g.computeOrder(); err != nil {
		return err
	}
	g.DrainPending()

	g.log.Debug("traversal start")
	for _, d := range g.order {
		subs := g.subsByDetector[d]
		visiting := false
		for _, sr := range subs {
			if g.dirty[sr.topicKey] {
				visiting = true
				break
			}
		}
		if !visiting {
			continue
		}
		for _, sr := range subs {
			if g.dirty[sr.topicKey] {
				sr.deliver()
			}
		}
		d.CompleteEvaluation()
	}

	for _, consolidate := range g.consolidate {
		consolidate()
	}
	g.dirty = make(map[any]bool)
	g.log.Debug("traversal end")
	return nil
}

// RegisterPendingDrain records a closure to run at the start of every
// subsequent traversal, after any seed was posted and before any detector is
// visited. Used by the future package to
// implement FuturePublisher/TimeoutPublisher's "visible at the next
// traversal" contract without graph needing to know the payload type.
func (g *Graph) RegisterPendingDrain(fn func()) {
	g.mu.Lock()
	g.pendingDrains = append(g.pendingDrains, fn)
	g.mu.Unlock()
}

// DrainPending runs every registered pending-drain closure once. Called by
// EvaluateGraph before visiting any detector.
func (g *Graph) DrainPending() {
	g.mu.Lock()
	drains := g.pendingDrains
	g.mu.Unlock()
	for _, fn := range drains {
		fn()
	}
}
