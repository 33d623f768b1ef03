package filter

import "github.com/roach88/recfilter/internal/dialect"

// PropertyInfo describes a resolved record property.
type PropertyInfo interface {
	// IsScalar reports whether the property holds a single value.
	IsScalar() bool
	// ElementKind is the value type of the property or of its elements.
	ElementKind() string
}

// TypeProvider resolves normalized property paths of a record type.
type TypeProvider interface {
	Resolve(path string) (PropertyInfo, error)
}

// ExprContext is the value expression context a filter is compiled in.
// The root context has an empty base path. A collection element context has
// the path of the collection as its base path.
type ExprContext interface {
	BasePath() string
	// RelativeContext returns the context rebased at the property path.
	RelativeContext(path string) (ExprContext, error)
	// NormalizePropertyRef turns a path relative to this context into a
	// path relative to the record type root.
	NormalizePropertyRef(path string) string
	// ParseExpr parses a value expression in this context.
	ParseExpr(raw string) (Expression, error)
}

// Expression is a parsed value expression.
type Expression interface {
	// UsedPropertyPaths returns the normalized property paths the
	// expression reads, sorted.
	UsedPropertyPaths() []string
	// IsSinglePropRef reports whether the expression is a bare property
	// reference.
	IsSinglePropRef() bool
	Translate(tc TranslationContext) (string, error)
}

// ParamsHandler collects the runtime parameters of one translation.
type ParamsHandler interface {
	// AddParam registers an occurrence of the named parameter and returns
	// its SQL placeholder. valueFunc, if not nil, is applied to the string
	// form of the value when it is bound.
	AddParam(name string, valueFunc func(string) string) string
	// ParamValueToSQL renders value as an inline SQL literal.
	ParamValueToSQL(d dialect.Dialect, value any, valueFunc func(string) string) string
}

// TranslationContext carries the mutable state of a single translation.
// It must not be shared between concurrent translations.
type TranslationContext interface {
	Dialect() dialect.Dialect
	Params() ParamsHandler
	// PropertyRef returns the SQL column reference for a normalized path,
	// resolving it in the current query scope or an enclosing one.
	PropertyRef(path string) (string, error)
	QueryTree() QueryTreeBuilder
}

// QueryTreeBuilder plans the tables of collection subqueries.
type QueryTreeBuilder interface {
	// PlanSubquery plans a subquery over the collection at basePath that
	// makes every required path under it addressable. Paths outside
	// basePath are resolved through tc.
	PlanSubquery(tc TranslationContext, basePath string, required []string) (*SubqueryPlan, error)
}

// SubqueryTable is one table of a subquery FROM clause. JoinCondition is
// empty for the first table.
type SubqueryTable struct {
	Name          string
	Alias         string
	JoinCondition string
}

// SubqueryPlan is the planned FROM and correlation of a subquery.
type SubqueryPlan struct {
	Tables []SubqueryTable
	// BaseJoinCondition correlates the first table with the enclosing query.
	BaseJoinCondition string
	// Context translates expressions inside the subquery.
	Context TranslationContext
}
