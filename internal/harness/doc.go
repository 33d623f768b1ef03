// Package harness runs filter conformance scenarios.
//
// A scenario is a YAML file naming a record type library, a record type, a
// filter specification and the expected outcome: the WHERE clause, the
// FROM clause with its joins, the runtime parameters, the property paths
// the filter reads, or a compile error. Scenarios that seed records are
// also executed against a fresh in-memory SQLite store and compared by
// the ids they select.
//
// Example:
//
//	name: item_price
//	description: Orders with an expensive item
//	types: ../../../testutil/testdata/orders.cue
//	record_type: Order
//	filter: ["items", [["price gt", {param: min}]]]
//	params:
//	  min: 50
//	records:
//	  - {id: 1, status: open, customer: Ann, total: 120, placedOn: "2024-01-10T00:00:00Z",
//	     items: [{id: 10, sku: A-1, price: 100, quantity: 1}]}
//	expect:
//	  where: "EXISTS (SELECT 1 FROM order_items AS s1 WHERE s1.order_id = z.id AND s1.price > ?)"
//	  ids: [1]
//
// RunWithGolden additionally snapshots the outcome under testdata/golden.
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
