package querytree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recfilter/internal/dialect"
	"github.com/roach88/recfilter/internal/filter"
	"github.com/roach88/recfilter/internal/params"
	"github.com/roach88/recfilter/internal/testutil"
)

func TestNewQuery(t *testing.T) {
	rt := testutil.Order(t)

	q, err := NewQuery(rt, dialect.SQLite{}, params.NewHandler(dialect.SQLite{}),
		[]string{"status", "notes.text", "items.tags.label", "items.price"})
	require.NoError(t, err)

	assert.Equal(t, "orders", q.Table)
	assert.Equal(t, "z", q.Alias)
	assert.Equal(t, []Join{
		{Table: "order_items", Alias: "z_1", On: "z_1.order_id = z.id"},
		{Table: "order_item_tags", Alias: "z_2", On: "z_2.item_id = z_1.id"},
		{Table: "order_notes", Alias: "z_3", On: "z_3.order_id = z.id"},
	}, q.Joins)
	assert.Equal(t, "orders AS z", q.FromTable())
	assert.Equal(t, "z.id", q.IDColumn())

	ctx := q.Context()
	for path, want := range map[string]string{
		"status":           "z.status",
		"customer":         "z.customer_name",
		"items.price":      "z_1.price",
		"items.tags.label": "z_2.label",
		"notes.text":       "z_3.text",
	} {
		got, err := ctx.PropertyRef(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
}

func TestPropertyRefNotPlanned(t *testing.T) {
	rt := testutil.Order(t)
	q, err := NewQuery(rt, dialect.SQLite{}, params.NewHandler(dialect.SQLite{}), nil)
	require.NoError(t, err)

	_, err = q.Context().PropertyRef("items.price")
	assert.True(t, filter.IsInvariantError(err))

	_, err = q.Context().PropertyRef("nope")
	assert.True(t, filter.IsInvariantError(err))
}

func TestPlanSubquery(t *testing.T) {
	rt := testutil.Order(t)
	q, err := NewQuery(rt, dialect.SQLite{}, params.NewHandler(dialect.SQLite{}), nil)
	require.NoError(t, err)
	root := q.Context()

	plan, err := root.QueryTree().PlanSubquery(root, "items", []string{"items", "items.tags.label", "total"})
	require.NoError(t, err)

	assert.Equal(t, []filter.SubqueryTable{
		{Name: "order_items", Alias: "s1"},
		{Name: "order_item_tags", Alias: "s1_1", JoinCondition: "s1_1.item_id = s1.id"},
	}, plan.Tables)
	assert.Equal(t, "s1.order_id = z.id", plan.BaseJoinCondition)

	sub := plan.Context
	for path, want := range map[string]string{
		"items.sku":        "s1.sku",
		"items.tags.label": "s1_1.label",
		"total":            "z.total",
	} {
		got, err := sub.PropertyRef(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	// A nested subquery correlates with the enclosing subquery and keeps
	// numbering within the translation.
	nested, err := sub.QueryTree().PlanSubquery(sub, "items.tags", []string{"items.tags"})
	require.NoError(t, err)
	assert.Equal(t, []filter.SubqueryTable{{Name: "order_item_tags", Alias: "s2"}}, nested.Tables)
	assert.Equal(t, "s2.item_id = s1.id", nested.BaseJoinCondition)
	assert.Same(t, sub.Params(), nested.Context.Params())

	label, err := nested.Context.PropertyRef("items.tags.label")
	require.NoError(t, err)
	assert.Equal(t, "s2.label", label)
}

func TestPlanSubqueryErrors(t *testing.T) {
	rt := testutil.Order(t)
	q, err := NewQuery(rt, dialect.SQLite{}, params.NewHandler(dialect.SQLite{}), nil)
	require.NoError(t, err)
	root := q.Context()

	_, err = root.QueryTree().PlanSubquery(root, "status", nil)
	assert.True(t, filter.IsInvariantError(err))

	_, err = root.QueryTree().PlanSubquery(root, "missing", nil)
	assert.True(t, filter.IsInvariantError(err))

	// The parent of items.tags is not in scope of the root query.
	_, err = root.QueryTree().PlanSubquery(root, "items.tags", []string{"items.tags"})
	assert.True(t, filter.IsInvariantError(err))
}

func TestTranslateNoFilter(t *testing.T) {
	tr, err := Translate(testutil.Order(t), dialect.Postgres{}, nil)
	require.NoError(t, err)
	assert.Empty(t, tr.Where)
	assert.Equal(t, 0, tr.Params.Len())
	assert.Equal(t, "orders AS z", tr.Query.From())
}
