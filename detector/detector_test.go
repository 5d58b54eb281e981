package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBase_IDIsLazyAndStable(t *testing.T) {
	var b Base

	first := b.ID()
	assert.NotEmpty(t, first)
	assert.Equal(t, first, b.ID(), "ID must not change across calls")
}

func TestBase_IDsAreUniquePerInstance(t *testing.T) {
	var a, b Base

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestBase_CompleteEvaluationIsNoop(t *testing.T) {
	var b Base
	assert.NotPanics(t, func() { b.CompleteEvaluation() })
}
