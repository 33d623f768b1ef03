package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePredicate(t *testing.T) {
	testCases := []struct {
		pred string
		want predicate
	}{
		{":or", predicate{junction: "or"}},
		{" : !all ", predicate{junction: "!all"}},
		{"status", predicate{expr: "status"}},
		{"  status  ", predicate{expr: "status"}},
		{"status eq", predicate{expr: "status", test: "eq"}},
		{"status\t!in", predicate{expr: "status", test: "!in"}},
		{"status => eq", predicate{expr: "status", test: "eq"}},
		{"status=>!eq", predicate{expr: "status", test: "!eq"}},
		{"items.price gt", predicate{expr: "items.price", test: "gt"}},
		{"^.total min", predicate{expr: "^.total", test: "min"}},
		{"concat(a, b)", predicate{expr: "concat(a, b)"}},
		{"concat(a, b) eq", predicate{expr: "concat(a, b)", test: "eq"}},
		{"coalesce(a, 'x y') => ne", predicate{expr: "coalesce(a, 'x y')", test: "ne"}},
	}

	for _, tc := range testCases {
		t.Run(tc.pred, func(t *testing.T) {
			got, err := parsePredicate(tc.pred)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePredicateErrors(t *testing.T) {
	testCases := []struct {
		pred string
		kind predicateErrorKind
	}{
		{"", predicateEmpty},
		{"   ", predicateEmpty},
		{":", predicateBadJunction},
		{":!", predicateBadJunction},
		{":and or", predicateBadJunction},
		{":a-b", predicateBadJunction},
		{"=> eq", predicateMissingExpr},
		{"=status", predicateMissingExpr},
		{"status =>", predicateBadArrowTest},
		{"status => a b", predicateBadArrowTest},
		{"status => !", predicateBadArrowTest},
		{"status ne => eq", predicateDuplicateTest},
	}

	for _, tc := range testCases {
		t.Run(tc.pred, func(t *testing.T) {
			_, err := parsePredicate(tc.pred)
			var pe *predicateError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.kind, pe.kind)
			assert.Contains(t, err.Error(), "has invalid syntax")
		})
	}
}

func TestKeywordTables(t *testing.T) {
	// Every junction token maps to exactly the documented operator.
	assert.Len(t, junctionKeywords, 10)
	assert.Equal(t, junctionKeyword{Or, false}, junctionKeywords["!none"])
	assert.Equal(t, junctionKeyword{Or, true}, junctionKeywords["none"])

	assert.Len(t, testKeywords, 44)
	assert.Equal(t, testKeyword{TestEmpty, false, arityNone}, testKeywords["!present"])
	assert.Equal(t, testKeyword{TestEmpty, true, arityNone}, testKeywords["present"])
	assert.Equal(t, testKeyword{TestNe, false, aritySingle}, testKeywords["!eq"])
	assert.Equal(t, testKeyword{TestIn, true, arityList}, testKeywords["!oneof"])
	_, ok := testKeywords["!alt"]
	assert.False(t, ok)
}

func TestTranslateInvariants(t *testing.T) {
	empty := newJunctionBuilder(And, false).build()
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.NeedsParen(Or))
	assert.False(t, empty.HasCollectionTests())

	_, err := Translate(empty, nil)
	require.Error(t, err)
	assert.True(t, IsInvariantError(err))
	assert.False(t, IsUsageError(err))
	assert.Contains(t, err.Error(), "translating empty logical junction")

	_, err = Translate(nil, nil)
	assert.True(t, IsInvariantError(err))
}

func TestJunctionBuilderSkipsEmpty(t *testing.T) {
	b := newJunctionBuilder(Or, false)
	b.add(nil).add(newJunctionBuilder(And, false).build())
	assert.Equal(t, 0, b.len())
}

func TestFirstSegment(t *testing.T) {
	assert.Equal(t, "items", firstSegment("items"))
	assert.Equal(t, "items", firstSegment("items.tags.label"))
	assert.Equal(t, "^.notes", firstSegment("^.notes.text"))
	assert.Equal(t, "^.^.notes", firstSegment("^.^.notes"))
}

func TestAsInteger(t *testing.T) {
	testCases := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{3, 3, true},
		{int64(-2), -2, true},
		{uint8(7), 7, true},
		{4.0, 4, true},
		{4.5, 0, false},
		{"4", 0, false},
		{nil, 0, false},
	}
	for _, tc := range testCases {
		got, ok := asInteger(tc.in)
		assert.Equal(t, tc.wantOK, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func TestAsList(t *testing.T) {
	l, ok := asList([]string{"a", "b"})
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, l)

	_, ok = asList("ab")
	assert.False(t, ok)
	_, ok = asList([]byte("ab"))
	assert.False(t, ok)
	_, ok = asList(nil)
	assert.False(t, ok)
}

func TestUsageErrorFormat(t *testing.T) {
	err := &UsageError{Message: "boom"}
	assert.Equal(t, "invalid filter specification: boom", err.Error())

	err = &UsageError{BasePath: "items", Message: "boom"}
	assert.Equal(t, "invalid filter specification on items: boom", err.Error())
}
