// Package filter compiles the nested-array records filter DSL into an
// immutable predicate tree and translates that tree into SQL.
//
// A filter specification is a nested []any. The first element is a
// predicate string, the rest are its arguments:
//
//	[":or", [
//	    ["status", "open"],
//	    ["total between", 10, 100],
//	    ["items", [["price gt", 50]]],
//	    ["items count", 3],
//	    ["customer containsi", filter.Param{Name: "q"}],
//	]]
//
// A predicate starting with a colon is a logical junction and takes exactly
// one array of nested specifications. Any other predicate names a value
// expression optionally followed by a test name, either after whitespace
// ("total between") or after an arrow ("total => between").
//
// Tests on collection properties become correlated EXISTS or COUNT(*)
// subqueries. Their optional nested filter is evaluated against the
// collection elements, and the property paths it uses inside the collection
// are not reported by the outer node.
//
// Compile is the only operation that returns usage errors. The resulting
// Node never changes and may be translated any number of times, including
// concurrently, as long as every translation has its own TranslationContext.
package filter
