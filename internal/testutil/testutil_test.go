package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdersLibrary(t *testing.T) {
	lib := OrdersLibrary(t)
	assert.Equal(t, []string{"Customer", "Order"}, lib.Names())

	order := Order(t)
	tags, err := order.Resolve("items.tags.label")
	require.NoError(t, err)
	assert.Equal(t, "label", tags.Column)
}

func TestFixedTraceIDGenerator(t *testing.T) {
	gen := NewFixedTraceIDGenerator("trace-123")
	assert.Equal(t, "trace-123", gen.Generate())
	assert.Equal(t, "trace-123", gen.Generate())

	assert.Equal(t, "test-trace-default", NewFixedTraceIDGenerator("").Generate())
}
