package filter

import (
	"slices"
	"sort"
	"strings"
)

// JunctionType is the logical operator of a Junction.
type JunctionType string

const (
	And JunctionType = "AND"
	Or  JunctionType = "OR"
)

// Node is a compiled records filter.
//
// This is a sealed interface - only *Junction, *ValueTest and
// *CollectionTest implement it. Nodes are immutable once built; translating
// a node never modifies it.
type Node interface {
	// UsedPropertyPaths returns the property paths the outer query must
	// make available, sorted. Paths resolved inside collection subqueries
	// are not included.
	UsedPropertyPaths() []string
	// IsEmpty reports whether the node is a no-op.
	IsEmpty() bool
	// NeedsParen reports whether the node must be parenthesized as an
	// element of a junction of the given type.
	NeedsParen(parent JunctionType) bool
	// HasCollectionTests reports whether translating the node produces
	// collection subqueries.
	HasCollectionTests() bool
	// Translate renders the node as an SQL boolean expression.
	Translate(tc TranslationContext) (string, error)
	// Conjoin returns the AND of the node and other without modifying
	// either.
	Conjoin(other Node) Node

	filterNode() // Marker method - seals interface to this package
}

// Junction is a logical AND or OR of its elements, optionally negated.
//
// A junction always has at least one element when returned by Compile. A
// single-element junction renders and parenthesizes exactly like its
// element.
type Junction struct {
	typ       JunctionType
	invert    bool
	elements  []Node
	usedPaths []string
}

func (*Junction) filterNode() {}

// Type returns the junction operator.
func (j *Junction) Type() JunctionType { return j.typ }

// Inverted reports whether the junction is wrapped in NOT.
func (j *Junction) Inverted() bool { return j.invert }

// Elements returns a copy of the junction elements.
func (j *Junction) Elements() []Node { return slices.Clone(j.elements) }

func (j *Junction) UsedPropertyPaths() []string { return slices.Clone(j.usedPaths) }

func (j *Junction) IsEmpty() bool { return len(j.elements) == 0 }

func (j *Junction) NeedsParen(parent JunctionType) bool {
	if j.IsEmpty() || j.invert {
		return false
	}
	if len(j.elements) == 1 {
		return j.elements[0].NeedsParen(parent)
	}
	return j.typ != parent
}

func (j *Junction) HasCollectionTests() bool {
	for _, e := range j.elements {
		if e.HasCollectionTests() {
			return true
		}
	}
	return false
}

func (j *Junction) Translate(tc TranslationContext) (string, error) { return Translate(j, tc) }

func (j *Junction) Conjoin(other Node) Node { return Conjoin(j, other) }

// junctionBuilder owns the element list of a junction under construction.
type junctionBuilder struct {
	typ      JunctionType
	invert   bool
	elements []Node
	paths    pathSet
}

func newJunctionBuilder(typ JunctionType, invert bool) *junctionBuilder {
	return &junctionBuilder{typ: typ, invert: invert, paths: pathSet{}}
}

// add appends n unless it is nil or empty.
func (b *junctionBuilder) add(n Node) *junctionBuilder {
	if n == nil || n.IsEmpty() {
		return b
	}
	b.elements = append(b.elements, n)
	b.paths.addAll(n.UsedPropertyPaths())
	return b
}

func (b *junctionBuilder) len() int { return len(b.elements) }

// build freezes the builder into a junction. The builder must not be used
// afterwards.
func (b *junctionBuilder) build() *Junction {
	j := &Junction{
		typ:       b.typ,
		invert:    b.invert,
		elements:  slices.Clip(b.elements),
		usedPaths: b.paths.sorted(),
	}
	b.elements = nil
	b.paths = nil
	return j
}

// TestType is the kind of a ValueTest.
type TestType string

const (
	TestEq        TestType = "eq"
	TestNe        TestType = "ne"
	TestGe        TestType = "ge"
	TestLe        TestType = "le"
	TestGt        TestType = "gt"
	TestLt        TestType = "lt"
	TestIn        TestType = "in"
	TestBetween   TestType = "between"
	TestContains  TestType = "contains"
	TestContainsI TestType = "containsi"
	TestStarts    TestType = "starts"
	TestStartsI   TestType = "startsi"
	TestMatches   TestType = "matches"
	TestMatchesI  TestType = "matchesi"
	TestEmpty     TestType = "empty"
)

// ValueTest tests a single value expression.
type ValueTest struct {
	expr      Expression
	testType  TestType
	invert    bool
	args      []operand
	usedPaths []string
}

func newValueTest(expr Expression, testType TestType, invert bool, args []operand) *ValueTest {
	paths := pathSet{}
	paths.addAll(expr.UsedPropertyPaths())
	for _, a := range args {
		if e, ok := a.(exprOperand); ok {
			paths.addAll(e.expr.UsedPropertyPaths())
		}
	}
	return &ValueTest{
		expr:      expr,
		testType:  testType,
		invert:    invert,
		args:      args,
		usedPaths: paths.sorted(),
	}
}

func (*ValueTest) filterNode() {}

// TestType returns the kind of test.
func (v *ValueTest) TestType() TestType { return v.testType }

// Inverted reports whether the test is negated.
func (v *ValueTest) Inverted() bool { return v.invert }

func (v *ValueTest) UsedPropertyPaths() []string { return slices.Clone(v.usedPaths) }

func (v *ValueTest) IsEmpty() bool { return false }

func (v *ValueTest) NeedsParen(JunctionType) bool { return false }

func (v *ValueTest) HasCollectionTests() bool { return false }

func (v *ValueTest) Translate(tc TranslationContext) (string, error) { return Translate(v, tc) }

func (v *ValueTest) Conjoin(other Node) Node { return Conjoin(v, other) }

// CollectionTestType is the kind of a CollectionTest.
type CollectionTestType string

const (
	CollectionEmpty CollectionTestType = "empty"
	CollectionCount CollectionTestType = "count"
)

// CollectionTest tests the elements of a collection property through a
// correlated subquery.
type CollectionTest struct {
	// colPath is the full path of the tested collection. colBasePath is its
	// first segment below the current context, where the subquery starts.
	colPath     string
	colBasePath string
	testType    CollectionTestType
	invert      bool
	count       int64
	filter      Node
	usedPaths   []string
}

func newCollectionTest(colPath, colBasePath string, testType CollectionTestType, invert bool, count int64, filter Node) *CollectionTest {
	paths := pathSet{}
	if filter != nil {
		prefix := colBasePath + "."
		for _, p := range filter.UsedPropertyPaths() {
			if !strings.HasPrefix(p, prefix) {
				paths.add(p)
			}
		}
	}
	return &CollectionTest{
		colPath:     colPath,
		colBasePath: colBasePath,
		testType:    testType,
		invert:      invert,
		count:       count,
		filter:      filter,
		usedPaths:   paths.sorted(),
	}
}

func (*CollectionTest) filterNode() {}

// Path returns the full path of the tested collection.
func (c *CollectionTest) Path() string { return c.colPath }

// TestType returns the kind of test.
func (c *CollectionTest) TestType() CollectionTestType { return c.testType }

// Inverted reports whether the test is negated.
func (c *CollectionTest) Inverted() bool { return c.invert }

// Filter returns the nested element filter, or nil.
func (c *CollectionTest) Filter() Node { return c.filter }

func (c *CollectionTest) UsedPropertyPaths() []string { return slices.Clone(c.usedPaths) }

func (c *CollectionTest) IsEmpty() bool { return false }

func (c *CollectionTest) NeedsParen(JunctionType) bool { return false }

func (c *CollectionTest) HasCollectionTests() bool { return true }

func (c *CollectionTest) Translate(tc TranslationContext) (string, error) { return Translate(c, tc) }

func (c *CollectionTest) Conjoin(other Node) Node { return Conjoin(c, other) }

// Conjoin returns the logical AND of a and b. Neither operand is modified.
// If either operand is nil or empty the other one is returned unchanged.
func Conjoin(a, b Node) Node {
	switch {
	case a == nil || a.IsEmpty():
		return b
	case b == nil || b.IsEmpty():
		return a
	}
	return newJunctionBuilder(And, false).add(a).add(b).build()
}

// operand is a ValueTest argument.
type operand interface {
	operandNode()
}

type literalOperand struct {
	value any
}

type paramOperand struct {
	name string
}

type exprOperand struct {
	expr Expression
}

func (literalOperand) operandNode() {}
func (paramOperand) operandNode()   {}
func (exprOperand) operandNode()    {}

// pathSet accumulates property paths during node construction.
type pathSet map[string]struct{}

func (s pathSet) add(p string) { s[p] = struct{}{} }

func (s pathSet) addAll(paths []string) {
	for _, p := range paths {
		s.add(p)
	}
}

func (s pathSet) sorted() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
