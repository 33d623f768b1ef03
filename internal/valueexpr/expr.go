package valueexpr

import (
	"sort"
	"strings"

	"github.com/roach88/recfilter/internal/filter"
)

// Expression is a parsed value expression.
type Expression struct {
	src   string
	root  node
	paths []string
}

var _ filter.Expression = (*Expression)(nil)

func newExpression(src string, root node, paths map[string]struct{}) *Expression {
	e := &Expression{src: src, root: root}
	for p := range paths {
		e.paths = append(e.paths, p)
	}
	sort.Strings(e.paths)
	return e
}

// String returns the source text of the expression.
func (e *Expression) String() string {
	return e.src
}

func (e *Expression) UsedPropertyPaths() []string {
	return append([]string(nil), e.paths...)
}

func (e *Expression) IsSinglePropRef() bool {
	_, ok := e.root.(propRef)
	return ok
}

func (e *Expression) Translate(tc filter.TranslationContext) (string, error) {
	return e.root.translate(tc)
}

type node interface {
	translate(tc filter.TranslationContext) (string, error)
}

type propRef struct {
	path string
}

func (r propRef) translate(tc filter.TranslationContext) (string, error) {
	return tc.PropertyRef(r.path)
}

type numberLit struct {
	text string
}

func (n numberLit) translate(filter.TranslationContext) (string, error) {
	return n.text, nil
}

type stringLit struct {
	value string
}

func (s stringLit) translate(tc filter.TranslationContext) (string, error) {
	return tc.Dialect().StringLiteral(s.value), nil
}

// call is a function call. An empty fn is a null-propagating concatenation.
type call struct {
	fn   string
	args []node
}

func (c call) translate(tc filter.TranslationContext) (string, error) {
	args := make([]string, len(c.args))
	for i, a := range c.args {
		s, err := a.translate(tc)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	if c.fn == "" {
		return tc.Dialect().NullableConcat(args...), nil
	}
	return c.fn + "(" + strings.Join(args, ", ") + ")", nil
}
