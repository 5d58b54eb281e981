package future

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgraph/detectorgraph/detector"
	"github.com/evalgraph/detectorgraph/dispatch"
	"github.com/evalgraph/detectorgraph/graph"
)

type value int

// recorder is a pure observer detector: graph.Subscribe is the only way a
// value delivered through a traversal is ever observed, so tests wire one in
// rather than subscribing to the topic directly.
type recorder[T any] struct {
	detector.Base
	values []T
}

func newRecorder[T any](g *graph.Graph) *recorder[T] {
	r := &recorder[T]{}
	graph.Subscribe[T](g, r, dispatch.SubscriberFunc[T](func(v T) { r.values = append(r.values, v) }))
	return r
}

type trigger int

func TestFuturePublisher_VisibleOnlyAtNextTraversal(t *testing.T) {
	g := graph.New()
	fp := NewFuturePublisher[value](g)

	rec := newRecorder[value](g)

	// queue the future publish from inside the first traversal, as a
	// detector would.
	graph.Subscribe[trigger](g, &recorder[trigger]{}, dispatch.SubscriberFunc[trigger](func(trigger) { fp.Publish(7) }))
	graph.PostNewTopicStateOnto[trigger](g, trigger(1))
	require.NoError(t, g.EvaluateGraph())
	assert.Empty(t, rec.values, "a future publish must not be visible in the traversal it was queued during")

	require.NoError(t, g.EvaluateGraph())
	assert.Equal(t, []value{7}, rec.values, "it becomes visible at the start of the next traversal")
}

// TestTimeoutPublisher_FireOverdue covers a deadline in the future being a
// no-op, and the same deadline once reached firing and becoming a seed for
// the next ProcessData.
func TestTimeoutPublisher_FireOverdue(t *testing.T) {
	g := graph.New()
	tp := NewTimeoutPublisher[value](g)

	rec := newRecorder[value](g)

	base := time.Unix(0, 0)
	tp.PublishAt(base.Add(100*time.Second), 42)

	fired := tp.FireOverdue(base.Add(99 * time.Second))
	assert.Zero(t, fired, "FireOverdue before the deadline is a no-op")

	fired = tp.FireOverdue(base.Add(101 * time.Second))
	assert.Equal(t, 1, fired)

	require.NoError(t, g.EvaluateGraph())
	assert.Equal(t, []value{42}, rec.values, "the fired value becomes a seed of the next traversal")
}

func TestTimeoutPublisher_CancelPreventsFiring(t *testing.T) {
	g := graph.New()
	tp := NewTimeoutPublisher[value](g)

	base := time.Unix(0, 0)
	token := tp.PublishAt(base.Add(time.Second), 1)

	assert.True(t, tp.Cancel(token))
	assert.False(t, tp.Cancel(token), "cancelling twice reports no-op the second time")

	fired := tp.FireOverdue(base.Add(time.Hour))
	assert.Zero(t, fired)
}

func TestTimeoutPublisher_FiresInDeadlineOrder(t *testing.T) {
	g := graph.New()
	tp := NewTimeoutPublisher[value](g)

	base := time.Unix(0, 0)
	tp.PublishAt(base.Add(3*time.Second), 3)
	tp.PublishAt(base.Add(1*time.Second), 1)
	tp.PublishAt(base.Add(2*time.Second), 2)

	rec := newRecorder[value](g)

	tp.FireOverdue(base.Add(10 * time.Second))
	require.NoError(t, g.EvaluateGraph())

	assert.Equal(t, []value{1, 2, 3}, rec.values)
}
