// Package future implements two re-entrant publication helpers for values
// that must not appear on a topic until a later traversal: FuturePublisher,
// a plain next-traversal queue, and TimeoutPublisher, a deadline-ordered
// queue built on top of it.
package future

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evalgraph/detectorgraph/graph"
	"github.com/evalgraph/detectorgraph/topic"
)

// FuturePublisher queues values that become visible on Topic[T] at the
// start of the next traversal rather than the current one, breaking the
// re-entrancy a detector would otherwise cause by publishing into a topic
// the scheduler has already passed this traversal.
type FuturePublisher[T topic.TopicState] struct {
	mu      sync.Mutex
	topic   *topic.Topic[T]
	pending []T
}

// NewFuturePublisher resolves Topic[T] on g and registers a drain hook that
// runs at the start of every subsequent traversal.
func NewFuturePublisher[T topic.TopicState](g *graph.Graph) *FuturePublisher[T] {
	fp := &FuturePublisher[T]{topic: graph.ResolveTopic[T](g)}
	g.RegisterPendingDrain(fp.drain)
	return fp
}

// Publish queues v for delivery at the start of the next traversal.
func (fp *FuturePublisher[T]) Publish(v T) {
	fp.mu.Lock()
	fp.pending = append(fp.pending, v)
	fp.mu.Unlock()
}

func (fp *FuturePublisher[T]) drain() {
	fp.mu.Lock()
	pending := fp.pending
	fp.pending = nil
	fp.mu.Unlock()
	for _, v := range pending {
		fp.topic.Publish(v)
	}
}

// timeoutEntry is one scheduled-but-not-yet-fired publication.
type timeoutEntry[T any] struct {
	deadline time.Time
	value    T
	token    uuid.UUID
	index    int
}

// timeoutHeap is a container/heap min-heap ordered by deadline.
type timeoutHeap[T any] []*timeoutEntry[T]

func (h timeoutHeap[T]) Len() int            { return len(h) }
func (h timeoutHeap[T]) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h timeoutHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timeoutHeap[T]) Push(x any) {
	e := x.(*timeoutEntry[T])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timeoutHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// TimeoutPublisher schedules values for delivery at or after an absolute
// deadline, via a FuturePublisher so firing never bypasses the
// next-traversal-only visibility rule. FireOverdue must be driven by the
// container's clock source once per external input.
type TimeoutPublisher[T topic.TopicState] struct {
	mu      sync.Mutex
	future  *FuturePublisher[T]
	heap    timeoutHeap[T]
	byToken map[uuid.UUID]*timeoutEntry[T]
}

// NewTimeoutPublisher resolves Topic[T] on g via an internal FuturePublisher.
func NewTimeoutPublisher[T topic.TopicState](g *graph.Graph) *TimeoutPublisher[T] {
	return &TimeoutPublisher[T]{
		future:  NewFuturePublisher[T](g),
		byToken: make(map[uuid.UUID]*timeoutEntry[T]),
	}
}

// PublishAt schedules v for delivery once FireOverdue observes a time no
// earlier than deadline, and returns a cancellation token.
func (tp *TimeoutPublisher[T]) PublishAt(deadline time.Time, v T) uuid.UUID {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	token := uuid.New()
	e := &timeoutEntry[T]{deadline: deadline, value: v, token: token}
	heap.Push(&tp.heap, e)
	tp.byToken[token] = e
	return token
}

// Cancel removes a pending scheduled publication. Reports false if the
// token was already fired or cancelled.
func (tp *TimeoutPublisher[T]) Cancel(token uuid.UUID) bool {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	e, ok := tp.byToken[token]
	if !ok {
		return false
	}
	heap.Remove(&tp.heap, e.index)
	delete(tp.byToken, token)
	return true
}

// FireOverdue pops every entry whose deadline is at or before now and queues
// it on the underlying FuturePublisher, returning the count fired.
func (tp *TimeoutPublisher[T]) FireOverdue(now time.Time) int {
	tp.mu.Lock()
	var due []T
	for len(tp.heap) > 0 && !tp.heap[0].deadline.After(now) {
		e := heap.Pop(&tp.heap).(*timeoutEntry[T])
		delete(tp.byToken, e.token)
		due = append(due, e.value)
	}
	tp.mu.Unlock()
	for _, v := range due {
		tp.future.Publish(v)
	}
	return len(due)
}
