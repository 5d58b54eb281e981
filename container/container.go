// Package container implements ProcessorContainer, the façade an embedding
// application drives: one ProcessData call per external input, running the
// seed / drain-pending / evaluate / output sequence as a single entry point
// that orchestrates one phase of work per input.
package container

import (
	"github.com/evalgraph/detectorgraph/dglog"
	"github.com/evalgraph/detectorgraph/graph"
	"github.com/evalgraph/detectorgraph/topic"
)

// ProcessorContainer owns a Graph and the hook run after every traversal.
type ProcessorContainer struct {
	*graph.Graph
	onOutput func()
}

// Option configures a ProcessorContainer at construction time.
type Option func(*ProcessorContainer)

// WithLogger attaches a logger to the container's graph.
func WithLogger(l *dglog.Logger) Option {
	return func(c *ProcessorContainer) { c.SetLogger(l) }
}

// WithLite enables bounded topic storage.
func WithLite(cap int) Option {
	return func(c *ProcessorContainer) { c.EnableLite(cap) }
}

// WithOutputHook registers fn to run after every successful traversal, the
// extension point concrete applications override to read out results.
func WithOutputHook(fn func()) Option {
	return func(c *ProcessorContainer) { c.onOutput = fn }
}

// New constructs an empty ProcessorContainer.
func New(opts ...Option) *ProcessorContainer {
	c := &ProcessorContainer{Graph: graph.New()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProcessData seeds Topic[T] with v and runs one full traversal: posting v,
// evaluating the graph (which itself drains any future/timeout
// publications queued for this traversal before visiting a single
// detector), and finally invoking the output hook. Go disallows a generic
// method on ProcessorContainer's concrete receiver, so this is a free
// function, mirroring graph.PostNewTopicStateOnto/graph.ResolveTopic's
// shape.
func ProcessData[T topic.TopicState](c *ProcessorContainer, v T) error {
	graph.PostNewTopicStateOnto[T](c.Graph, v)
	if err := c.EvaluateGraph(); err != nil {
		return err
	}
	c.ProcessOutput()
	return nil
}

// ProcessOutput runs the registered output hook, if any. Exported so an
// embedding application can call it directly (e.g. to flush output after a
// batch of ProcessData calls that intentionally skip it), and so it can be
// overridden by wrapping New's WithOutputHook option.
func (c *ProcessorContainer) ProcessOutput() {
	if c.onOutput != nil {
		c.onOutput()
	}
}
