package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriberFunc_Evaluate(t *testing.T) {
	var got int
	var sub Subscriber[int] = SubscriberFunc[int](func(v int) { got = v })

	sub.Evaluate(42)

	assert.Equal(t, 42, got)
}

