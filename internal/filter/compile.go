package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

type junctionKeyword struct {
	typ    JunctionType
	invert bool
}

var junctionKeywords = map[string]junctionKeyword{
	"or":    {Or, false},
	"any":   {Or, false},
	"!none": {Or, false},
	"!or":   {Or, true},
	"!any":  {Or, true},
	"none":  {Or, true},
	"and":   {And, false},
	"all":   {And, false},
	"!and":  {And, true},
	"!all":  {And, true},
}

type arity int

const (
	aritySingle arity = iota
	arityTwo
	arityList
	arityNone
)

type testKeyword struct {
	typ    TestType
	invert bool
	arity  arity
}

var testKeywords = map[string]testKeyword{
	"is":  {TestEq, false, aritySingle},
	"eq":  {TestEq, false, aritySingle},
	"not": {TestNe, false, aritySingle},
	"ne":  {TestNe, false, aritySingle},
	"!eq": {TestNe, false, aritySingle},
	"min": {TestGe, false, aritySingle},
	"ge":  {TestGe, false, aritySingle},
	"!lt": {TestGe, false, aritySingle},
	"max": {TestLe, false, aritySingle},
	"le":  {TestLe, false, aritySingle},
	"!gt": {TestLe, false, aritySingle},
	"gt":  {TestGt, false, aritySingle},
	"lt":  {TestLt, false, aritySingle},

	"in":      {TestIn, false, arityList},
	"oneof":   {TestIn, false, arityList},
	"alt":     {TestIn, false, arityList},
	"!in":     {TestIn, true, arityList},
	"!oneof":  {TestIn, true, arityList},
	"between": {TestBetween, false, arityTwo},

	"!between":   {TestBetween, true, arityTwo},
	"contains":   {TestContains, false, aritySingle},
	"!contains":  {TestContains, true, aritySingle},
	"containsi":  {TestContainsI, false, aritySingle},
	"substring":  {TestContainsI, false, aritySingle},
	"!containsi": {TestContainsI, true, aritySingle},
	"!substring": {TestContainsI, true, aritySingle},
	"starts":     {TestStarts, false, aritySingle},
	"!starts":    {TestStarts, true, aritySingle},
	"startsi":    {TestStartsI, false, aritySingle},
	"prefix":     {TestStartsI, false, aritySingle},
	"!startsi":   {TestStartsI, true, aritySingle},
	"!prefix":    {TestStartsI, true, aritySingle},
	"matches":    {TestMatches, false, aritySingle},
	"!matches":   {TestMatches, true, aritySingle},
	"matchesi":   {TestMatchesI, false, aritySingle},
	"pattern":    {TestMatchesI, false, aritySingle},
	"re":         {TestMatchesI, false, aritySingle},
	"!matchesi":  {TestMatchesI, true, aritySingle},
	"!pattern":   {TestMatchesI, true, aritySingle},
	"!re":        {TestMatchesI, true, aritySingle},

	"empty":    {TestEmpty, false, arityNone},
	"!present": {TestEmpty, false, arityNone},
	"!empty":   {TestEmpty, true, arityNone},
	"present":  {TestEmpty, true, arityNone},
}

// Compile parses a filter specification against a record type.
//
// A nil Node with a nil error means the specification does not filter
// anything, for example a junction whose nested specifications are all
// empty. Every specification problem is reported as a *UsageError.
func Compile(spec any, types TypeProvider, ctx ExprContext) (Node, error) {
	c := &compiler{types: types, fold: cases.Fold()}
	return c.build(ctx, spec)
}

type compiler struct {
	types TypeProvider
	fold  cases.Caser
}

func (c *compiler) build(ctx ExprContext, spec any) (Node, error) {
	fail := func(path, format string, args ...any) error {
		return &UsageError{BasePath: ctx.BasePath(), Path: path, Message: fmt.Sprintf(format, args...)}
	}

	testSpec, ok := asList(spec)
	if !ok || len(testSpec) == 0 {
		return nil, fail("", "filter test specification must be an array and must not be empty")
	}

	rawPred, ok := testSpec[0].(string)
	if !ok {
		return nil, fail("", "invalid type for predicate %v", testSpec[0])
	}
	pred, err := parsePredicate(rawPred)
	if err != nil {
		return nil, &UsageError{BasePath: ctx.BasePath(), Message: err.Error(), Err: err}
	}

	if pred.junction != "" {
		return c.buildJunction(ctx, pred, testSpec, fail)
	}

	expr, err := ctx.ParseExpr(pred.expr)
	if err != nil {
		return nil, &UsageError{
			BasePath: ctx.BasePath(),
			Path:     pred.expr,
			Message:  fmt.Sprintf("invalid value expression %q: %v", pred.expr, err),
			Err:      err,
		}
	}

	if expr.IsSinglePropRef() {
		path := ctx.NormalizePropertyRef(pred.expr)
		info, err := c.types.Resolve(path)
		if err != nil {
			return nil, &UsageError{BasePath: ctx.BasePath(), Path: path, Message: err.Error(), Err: err}
		}
		if !info.IsScalar() {
			return c.buildCollectionTest(ctx, rawPred, pred, testSpec, fail)
		}
	}

	return c.buildValueTest(ctx, pred, expr, testSpec, fail)
}

type failFunc func(path, format string, args ...any) error

func (c *compiler) buildJunction(ctx ExprContext, pred predicate, testSpec []any, fail failFunc) (Node, error) {
	if len(testSpec) != 2 || !isList(testSpec[1]) {
		return nil, fail("", "logical junction must be followed by exactly one array of nested tests")
	}
	nested, _ := asList(testSpec[1])

	kw, ok := junctionKeywords[c.fold.String(pred.junction)]
	if !ok {
		return nil, fail("", "unknown junction type %q", pred.junction)
	}

	b := newJunctionBuilder(kw.typ, kw.invert)
	for _, nestedSpec := range nested {
		n, err := c.build(ctx, nestedSpec)
		if err != nil {
			return nil, err
		}
		b.add(n)
	}
	if b.len() == 0 {
		return nil, nil
	}
	return b.build(), nil
}

func (c *compiler) buildCollectionTest(ctx ExprContext, rawPred string, pred predicate, testSpec []any, fail failFunc) (Node, error) {
	rawTest := pred.test
	if rawTest == "" {
		rawTest = "!empty"
	}

	var (
		testType  CollectionTestType
		invert    bool
		count     int64
		filterIdx = 1
	)
	switch c.fold.String(rawTest) {
	case "!empty":
		testType, invert = CollectionEmpty, true
	case "empty":
		testType = CollectionEmpty
	case "!count":
		invert = true
		fallthrough
	case "count":
		testType = CollectionCount
		var ok bool
		if len(testSpec) > 1 {
			count, ok = asInteger(testSpec[1])
		}
		if !ok {
			return nil, fail(pred.expr, "test %q expects an integer number argument", rawTest)
		}
		filterIdx = 2
	default:
		return nil, fail(pred.expr,
			`invalid collection test %q as it may only be "empty", "!empty", "count" or "!count"`, rawPred)
	}

	var filterSpec []any
	if len(testSpec) > filterIdx+1 || len(testSpec) == filterIdx+1 && !isList(testSpec[filterIdx]) {
		return nil, fail(pred.expr,
			"collection test may only have none or a single collection filter argument and it must be an array")
	}
	if len(testSpec) == filterIdx+1 {
		filterSpec, _ = asList(testSpec[filterIdx])
	}

	colCtx, err := ctx.RelativeContext(pred.expr)
	if err != nil {
		return nil, &UsageError{BasePath: ctx.BasePath(), Path: pred.expr, Message: err.Error(), Err: err}
	}
	colBasePath := ctx.NormalizePropertyRef(firstSegment(pred.expr))

	var filter Node
	if filterSpec != nil {
		filter, err = c.build(colCtx, []any{":and", filterSpec})
		if err != nil {
			return nil, err
		}
	}

	return newCollectionTest(colCtx.BasePath(), colBasePath, testType, invert, count, filter), nil
}

func (c *compiler) buildValueTest(ctx ExprContext, pred predicate, expr Expression, testSpec []any, fail failFunc) (Node, error) {
	rawTest := pred.test
	if rawTest == "" {
		if len(testSpec) > 1 {
			rawTest = "is"
		} else {
			rawTest = "present"
		}
	}

	kw, ok := testKeywords[c.fold.String(rawTest)]
	if !ok {
		return nil, fail(pred.expr, "unknown test %q", rawTest)
	}

	var rawArgs []any
	switch kw.arity {
	case aritySingle:
		if len(testSpec) != 2 || testSpec[1] == nil || isList(testSpec[1]) {
			return nil, fail(pred.expr, "test %q expects a single non-null, non-array argument", rawTest)
		}
		rawArgs = testSpec[1:]

	case arityTwo:
		var v1, v2 any
		switch len(testSpec) {
		case 2:
			if pair, ok := asList(testSpec[1]); ok && len(pair) == 2 {
				v1, v2 = pair[0], pair[1]
			}
		case 3:
			v1, v2 = testSpec[1], testSpec[2]
		}
		if v1 == nil || v2 == nil || isList(v1) || isList(v2) {
			return nil, fail(pred.expr, "test %q expects two non-null, non-array arguments", rawTest)
		}
		rawArgs = []any{v1, v2}

	case arityList:
		var ok bool
		rawArgs, ok = flatten(nil, testSpec[1:])
		if !ok || len(rawArgs) == 0 {
			return nil, fail(pred.expr, "test %q expects a list of non-null arguments", rawTest)
		}

	case arityNone:
		if len(testSpec) > 1 {
			return nil, fail(pred.expr, "test %q expects no arguments", rawTest)
		}
	}

	args := make([]operand, len(rawArgs))
	for i, raw := range rawArgs {
		a, err := c.compileOperand(ctx, raw)
		if err != nil {
			var ue *UsageError
			if errors.As(err, &ue) {
				return nil, err
			}
			return nil, fail(pred.expr, "test %q: %v", rawTest, err)
		}
		args[i] = a
	}

	return newValueTest(expr, kw.typ, kw.invert, args), nil
}

func (c *compiler) compileOperand(ctx ExprContext, raw any) (operand, error) {
	switch v := raw.(type) {
	case Expr:
		return c.compileExprOperand(ctx, v.Expr)
	case *Expr:
		return c.compileExprOperand(ctx, v.Expr)
	case Param:
		return paramOperand{name: v.Name}, nil
	case *Param:
		return paramOperand{name: v.Name}, nil
	case string, bool, json.Number, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return literalOperand{value: v}, nil
	default:
		return nil, fmt.Errorf("argument of unsupported type %T", raw)
	}
}

// compileExprOperand parses an expression argument. A bare reference to a
// collection has no single value and is rejected.
func (c *compiler) compileExprOperand(ctx ExprContext, raw string) (operand, error) {
	expr, err := ctx.ParseExpr(raw)
	if err != nil {
		return nil, &UsageError{
			BasePath: ctx.BasePath(),
			Path:     raw,
			Message:  fmt.Sprintf("invalid value expression %q: %v", raw, err),
			Err:      err,
		}
	}
	if expr.IsSinglePropRef() {
		path := ctx.NormalizePropertyRef(raw)
		info, err := c.types.Resolve(path)
		if err != nil {
			return nil, &UsageError{BasePath: ctx.BasePath(), Path: path, Message: err.Error(), Err: err}
		}
		if !info.IsScalar() {
			return nil, &UsageError{
				BasePath: ctx.BasePath(),
				Path:     path,
				Message:  fmt.Sprintf("collection property %q cannot be used as a value", path),
			}
		}
	}
	return exprOperand{expr: expr}, nil
}

// flatten appends the non-list values of vals to dst, descending into
// nested lists. It reports false if any value is nil.
func flatten(dst []any, vals []any) ([]any, bool) {
	for _, v := range vals {
		if v == nil {
			return nil, false
		}
		if list, ok := asList(v); ok {
			var valid bool
			dst, valid = flatten(dst, list)
			if !valid {
				return nil, false
			}
			continue
		}
		dst = append(dst, v)
	}
	return dst, true
}

// firstSegment returns the path up to its first separator, keeping any
// leading "^." back references.
func firstSegment(path string) string {
	prefix := ""
	for strings.HasPrefix(path, "^.") {
		prefix += "^."
		path = path[2:]
	}
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[:i]
	}
	return prefix + path
}

// asList returns v as a []any if it is any kind of slice or array other
// than a byte slice.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case nil, []byte, string:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isList(v any) bool {
	_, ok := asList(v)
	return ok
}

// asInteger returns v as an int64 if it is an integral number.
func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float32:
		return floatInteger(float64(n))
	case float64:
		return floatInteger(n)
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func floatInteger(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}
