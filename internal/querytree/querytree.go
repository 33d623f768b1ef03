// Package querytree plans the tables a translated filter needs and
// implements the filter translation context on top of that plan.
//
// The outer query selects from the record type table aliased "z" and
// LEFT JOINs every collection that a filter reads directly, aliased "z_1",
// "z_2" and so on in path order. Collection tests become subqueries
// aliased "s1", "s2" in translation order, whose own joins are "s1_1",
// "s1_2" and so on.
package querytree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/recfilter/internal/dialect"
	"github.com/roach88/recfilter/internal/filter"
	"github.com/roach88/recfilter/internal/params"
	"github.com/roach88/recfilter/internal/recordtypes"
)

// RootAlias is the alias of the record type table in the outer query.
const RootAlias = "z"

// Join is a LEFT JOIN of the outer query.
type Join struct {
	Table string
	Alias string
	On    string
}

// Query is the planned outer query of a filter.
type Query struct {
	Table string
	Alias string
	Joins []Join

	ctx *Context
}

// NewQuery plans the outer query of rt so that every path in usedPaths is
// addressable, and returns it with its root translation context.
func NewQuery(rt *recordtypes.RecordType, d dialect.Dialect, ph filter.ParamsHandler, usedPaths []string) (*Query, error) {
	scope := map[string]string{"": RootAlias}
	q := &Query{Table: rt.Table, Alias: RootAlias}

	cols, err := collectionPaths(rt, "", usedPaths)
	if err != nil {
		return nil, err
	}
	for i, cp := range cols {
		prop, err := rt.Resolve(cp)
		if err != nil {
			return nil, err
		}
		alias := fmt.Sprintf("%s_%d", RootAlias, i+1)
		q.Joins = append(q.Joins, Join{
			Table: prop.Element.Table,
			Alias: alias,
			On:    joinCondition(alias, prop, scope[parentPath(cp)]),
		})
		scope[cp] = alias
	}

	q.ctx = &Context{
		rt:      rt,
		dialect: d,
		params:  ph,
		planner: &planner{rt: rt},
		scope:   scope,
	}
	return q, nil
}

// Context returns the root translation context of the query.
func (q *Query) Context() *Context {
	return q.ctx
}

// IDColumn returns the column reference of the record id.
func (q *Query) IDColumn() string {
	return q.Alias + "." + q.ctx.rt.ID().Column
}

// FromTable returns the aliased record type table.
func (q *Query) FromTable() string {
	return q.Table + " AS " + q.Alias
}

// From returns the full FROM clause body including joins.
func (q *Query) From() string {
	var b strings.Builder
	b.WriteString(q.FromTable())
	for _, j := range q.Joins {
		b.WriteString(" LEFT JOIN ")
		b.WriteString(j.String())
	}
	return b.String()
}

// String returns the join as "table AS alias ON condition".
func (j Join) String() string {
	return j.Table + " AS " + j.Alias + " ON " + j.On
}

// Context is a filter translation context bound to one query scope. Paths
// that are not in scope resolve through the enclosing context.
type Context struct {
	rt      *recordtypes.RecordType
	dialect dialect.Dialect
	params  filter.ParamsHandler
	planner *planner
	// scope maps collection paths to table aliases; "" is the record root.
	scope  map[string]string
	parent filter.TranslationContext
}

var _ filter.TranslationContext = (*Context)(nil)

func (c *Context) Dialect() dialect.Dialect { return c.dialect }

func (c *Context) Params() filter.ParamsHandler { return c.params }

func (c *Context) QueryTree() filter.QueryTreeBuilder { return c.planner }

func (c *Context) PropertyRef(path string) (string, error) {
	prop, err := c.rt.Resolve(path)
	if err != nil {
		return "", &filter.InvariantError{Message: err.Error()}
	}
	if alias, ok := c.scope[parentPath(path)]; ok {
		return alias + "." + prop.Column, nil
	}
	if c.parent != nil {
		return c.parent.PropertyRef(path)
	}
	return "", &filter.InvariantError{Message: fmt.Sprintf("property %q is not available in the query", path)}
}

// planner numbers the subqueries of one translation.
type planner struct {
	rt  *recordtypes.RecordType
	seq int
}

func (p *planner) PlanSubquery(tc filter.TranslationContext, basePath string, required []string) (*filter.SubqueryPlan, error) {
	base, err := p.rt.Resolve(basePath)
	if err != nil {
		return nil, &filter.InvariantError{Message: err.Error()}
	}
	if base.IsScalar() {
		return nil, &filter.InvariantError{Message: fmt.Sprintf("subquery base %q is not a collection", basePath)}
	}

	elem := base.Element
	parentIDRef, err := tc.PropertyRef(joinPath(parentPath(basePath), elem.Parent.IDProperty))
	if err != nil {
		return nil, err
	}

	p.seq++
	alias := fmt.Sprintf("s%d", p.seq)
	plan := &filter.SubqueryPlan{
		Tables:            []filter.SubqueryTable{{Name: elem.Table, Alias: alias}},
		BaseJoinCondition: alias + "." + elem.ParentColumn + " = " + parentIDRef,
	}
	scope := map[string]string{basePath: alias}

	cols, err := collectionPaths(p.rt, basePath+".", required)
	if err != nil {
		return nil, err
	}
	for i, cp := range cols {
		prop, err := p.rt.Resolve(cp)
		if err != nil {
			return nil, &filter.InvariantError{Message: err.Error()}
		}
		joinAlias := fmt.Sprintf("%s_%d", alias, i+1)
		plan.Tables = append(plan.Tables, filter.SubqueryTable{
			Name:          prop.Element.Table,
			Alias:         joinAlias,
			JoinCondition: joinCondition(joinAlias, prop, scope[parentPath(cp)]),
		})
		scope[cp] = joinAlias
	}

	plan.Context = &Context{
		rt:      p.rt,
		dialect: tc.Dialect(),
		params:  tc.Params(),
		planner: p,
		scope:   scope,
		parent:  tc,
	}
	return plan, nil
}

// collectionPaths returns the sorted collection paths that start with
// prefix and lie on the way to any of paths. Sorting puts every collection
// before the collections nested in it.
func collectionPaths(rt *recordtypes.RecordType, prefix string, paths []string) ([]string, error) {
	set := map[string]struct{}{}
	for _, path := range paths {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		chain, err := rt.Chain(path)
		if err != nil {
			return nil, &filter.InvariantError{Message: err.Error()}
		}
		for _, prop := range chain {
			if prop.Collection && strings.HasPrefix(prop.Path, prefix) {
				set[prop.Path] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// joinCondition links the element table of a collection to its container.
func joinCondition(alias string, prop *recordtypes.Property, parentAlias string) string {
	return alias + "." + prop.ParentColumn + " = " + parentAlias + "." + prop.Element.Parent.ID().Column
}

func parentPath(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return ""
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Translation is a filter translated against a planned query.
type Translation struct {
	Query *Query
	// Where is the WHERE clause body, empty when there is no filter.
	Where  string
	Params *params.Handler
}

// Translate plans the query of rt for n and translates n. A nil n yields
// an unfiltered query.
func Translate(rt *recordtypes.RecordType, d dialect.Dialect, n filter.Node) (*Translation, error) {
	ph := params.NewHandler(d)

	var used []string
	if n != nil {
		used = n.UsedPropertyPaths()
	}
	q, err := NewQuery(rt, d, ph, used)
	if err != nil {
		return nil, err
	}

	t := &Translation{Query: q, Params: ph}
	if n != nil {
		where, err := filter.Translate(n, q.Context())
		if err != nil {
			return nil, err
		}
		t.Where = where
	}
	return t, nil
}
