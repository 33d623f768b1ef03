// Package testutil provides shared fixtures for tests.
package testutil

import (
	_ "embed"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/recfilter/internal/recordtypes"
)

//go:embed testdata/orders.cue
var ordersCUE []byte

// OrdersCUE returns the CUE source of the orders fixture library.
//
// Order has scalar properties, an items collection whose elements have a
// nested tags collection, and a notes collection.
func OrdersCUE() []byte {
	return ordersCUE
}

// OrdersLibrary loads the orders fixture library.
func OrdersLibrary(t testing.TB) *recordtypes.Library {
	t.Helper()
	lib, err := recordtypes.Load("orders.cue", ordersCUE)
	require.NoError(t, err)
	return lib
}

// Order returns the Order record type of the fixture library.
func Order(t testing.TB) *recordtypes.RecordType {
	t.Helper()
	rt, err := OrdersLibrary(t).RecordType("Order")
	require.NoError(t, err)
	return rt
}
