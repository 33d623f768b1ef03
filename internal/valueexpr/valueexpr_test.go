package valueexpr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recfilter/internal/dialect"
	"github.com/roach88/recfilter/internal/filter"
	"github.com/roach88/recfilter/internal/testutil"
)

// columnContext renders property paths as "t.<path with underscores>".
type columnContext struct{}

func (columnContext) Dialect() dialect.Dialect          { return dialect.SQLite{} }
func (columnContext) Params() filter.ParamsHandler       { return nil }
func (columnContext) QueryTree() filter.QueryTreeBuilder { return nil }
func (columnContext) PropertyRef(path string) (string, error) {
	return "t." + strings.ReplaceAll(path, ".", "_"), nil
}

func TestNormalizePropertyRef(t *testing.T) {
	root := NewContext(testutil.Order(t))

	items, err := root.RelativeContext("items")
	require.NoError(t, err)
	tags, err := items.RelativeContext("tags")
	require.NoError(t, err)

	assert.Equal(t, "", root.BasePath())
	assert.Equal(t, "items", items.BasePath())
	assert.Equal(t, "items.tags", tags.BasePath())

	testCases := []struct {
		name string
		ctx  filter.ExprContext
		ref  string
		want string
	}{
		{"root", root, "status", "status"},
		{"root dotted", root, "items.price", "items.price"},
		{"collection", items, "price", "items.price"},
		{"back reference", items, "^.status", "status"},
		{"nested", tags, "label", "items.tags.label"},
		{"one level up", tags, "^.sku", "items.sku"},
		{"two levels up", tags, "^.^.total", "total"},
		{"above root drops references", root, "^.status", "status"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.ctx.NormalizePropertyRef(tc.ref))
		})
	}
}

func TestRelativeContextErrors(t *testing.T) {
	root := NewContext(testutil.Order(t))

	_, err := root.RelativeContext("status")
	require.ErrorIs(t, err, ErrNotCollection)

	_, err = root.RelativeContext("missing")
	require.Error(t, err)

	_, err = root.RelativeContext("^.items")
	require.ErrorIs(t, err, ErrOutOfContext)
}

func TestParse(t *testing.T) {
	root := NewContext(testutil.Order(t))
	items, err := root.RelativeContext("items")
	require.NoError(t, err)

	testCases := []struct {
		name       string
		ctx        filter.ExprContext
		src        string
		wantSQL    string
		wantPaths  []string
		singlePath bool
	}{
		{"property", root, "status", "t.status", []string{"status"}, true},
		{"collection property", root, "items", "t.items", []string{"items"}, true},
		{"nested property", items, "price", "t.items_price", []string{"items.price"}, true},
		{"back reference", items, "^.total", "t.total", []string{"total"}, true},
		{"number", root, "42", "42", nil, false},
		{"negative decimal", root, "-1.5", "-1.5", nil, false},
		{"string", root, "'it''s'", "'it''s'", nil, false},
		{"lower", root, "lower(customer)", "LOWER(t.customer)", []string{"customer"}, false},
		{"upper case function name", root, "UPPER(customer)", "UPPER(t.customer)", []string{"customer"}, false},
		{"length", root, "length(status)", "LENGTH(t.status)", []string{"status"}, false},
		{"abs", items, "abs(price)", "ABS(t.items_price)", []string{"items.price"}, false},
		{
			"coalesce", root, "coalesce(note, status, 'none')",
			"COALESCE(t.note, t.status, 'none')", []string{"note", "status"}, false,
		},
		{
			"concat", root, "concat(status, '-', customer)",
			"(t.status || '-' || t.customer)", []string{"customer", "status"}, false,
		},
		{
			"nested calls", items, "lower(concat(sku, ^.status))",
			"LOWER((t.items_sku || t.status))", []string{"items.sku", "status"}, false,
		},
		{"whitespace", root, "  lower( status )  ", "LOWER(t.status)", []string{"status"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := tc.ctx.ParseExpr(tc.src)
			require.NoError(t, err)

			sql, err := e.Translate(columnContext{})
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, sql)
			assert.Equal(t, tc.wantPaths, e.UsedPropertyPaths())
			assert.Equal(t, tc.singlePath, e.IsSinglePropRef())
		})
	}
}

func TestParseErrors(t *testing.T) {
	root := NewContext(testutil.Order(t))

	testCases := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"empty", "", "expected value instead of end of expression"},
		{"unknown property", "missing", "unknown property"},
		{"unknown function", "trim(status)", `unknown function "trim"`},
		{"arity", "lower(status, customer)", "wrong number of arguments for lower: 2"},
		{"concat arity", "concat(status)", "wrong number of arguments for concat: 1"},
		{"unclosed call", "lower(status", `expected ")" instead of end of expression`},
		{"trailing tokens", "status status", "expected end of expression instead of property reference"},
		{"unclosed string", "'abc", "unclosed string"},
		{"malformed number", "1.2.3", "malformed number"},
		{"illegal character", "status + 1", "unexpected character"},
		{"trailing dot", "items.", "malformed property reference"},
		{"above root", "^.status", "leaves the record type"},
		{"collection argument", "length(items)", `collection property "items" cannot be a function argument`},
		{"through scalar", "status.x", "not a collection"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := root.ParseExpr(tc.src)
			require.Error(t, err)
			var pe ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	root := NewContext(testutil.Order(t))

	_, err := root.ParseExpr("lower(status, nope)")
	var pe ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 14, pe.Position)
}

func TestTypes(t *testing.T) {
	types := Types(testutil.Order(t))

	info, err := types.Resolve("items")
	require.NoError(t, err)
	assert.False(t, info.IsScalar())
	assert.Equal(t, "object", info.ElementKind())

	info, err = types.Resolve("items.price")
	require.NoError(t, err)
	assert.True(t, info.IsScalar())
	assert.Equal(t, "number", info.ElementKind())

	info, err = types.Resolve("nope")
	require.Error(t, err)
	assert.Nil(t, info)
}
