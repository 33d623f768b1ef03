package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Translate renders n as an SQL boolean expression in the given context.
// Runtime parameters referenced by the filter are registered with the
// context's ParamsHandler in placeholder order.
//
// The only error a correctly compiled node can produce is an
// *InvariantError, or an error from a collaborator of tc.
func Translate(n Node, tc TranslationContext) (string, error) {
	switch n := n.(type) {
	case *Junction:
		return translateJunction(n, tc)
	case *ValueTest:
		return translateValueTest(n, tc)
	case *CollectionTest:
		return translateCollectionTest(n, tc)
	case nil:
		return "", &InvariantError{Message: "translating nil filter"}
	default:
		return "", &InvariantError{Message: fmt.Sprintf("unknown filter node %T", n)}
	}
}

func translateJunction(j *Junction, tc TranslationContext) (string, error) {
	if j.IsEmpty() {
		return "", &InvariantError{Message: "translating empty logical junction"}
	}

	var sql string
	if len(j.elements) == 1 {
		s, err := Translate(j.elements[0], tc)
		if err != nil {
			return "", err
		}
		sql = s
	} else {
		parts := make([]string, len(j.elements))
		for i, e := range j.elements {
			s, err := Translate(e, tc)
			if err != nil {
				return "", err
			}
			if e.NeedsParen(j.typ) {
				s = "(" + s + ")"
			}
			parts[i] = s
		}
		sql = strings.Join(parts, " "+string(j.typ)+" ")
	}

	if j.invert {
		return "NOT (" + sql + ")", nil
	}
	return sql, nil
}

var comparisonOps = map[TestType]string{
	TestEq: " = ",
	TestNe: " <> ",
	TestGe: " >= ",
	TestLe: " <= ",
	TestGt: " > ",
	TestLt: " < ",
}

func translateValueTest(v *ValueTest, tc TranslationContext) (string, error) {
	valSQL, err := v.expr.Translate(tc)
	if err != nil {
		return "", err
	}
	d := tc.Dialect()

	if op, ok := comparisonOps[v.testType]; ok {
		arg, err := operandSQL(tc, v.args[0], nil, nil)
		if err != nil {
			return "", err
		}
		return valSQL + op + arg, nil
	}

	switch v.testType {
	case TestIn:
		args := make([]string, len(v.args))
		for i, a := range v.args {
			s, err := operandSQL(tc, a, nil, nil)
			if err != nil {
				return "", err
			}
			args[i] = s
		}
		return valSQL + not(v.invert) + " IN (" + strings.Join(args, ", ") + ")", nil

	case TestBetween:
		lo, err := operandSQL(tc, v.args[0], nil, nil)
		if err != nil {
			return "", err
		}
		hi, err := operandSQL(tc, v.args[1], nil, nil)
		if err != nil {
			return "", err
		}
		return valSQL + not(v.invert) + " BETWEEN " + lo + " AND " + hi, nil

	case TestContains, TestContainsI:
		pattern, err := operandSQL(tc, v.args[0],
			func(lit string) string {
				return "%" + d.SafeLikePatternFromString(lit) + "%"
			},
			func(expr string) string {
				return d.NullableConcat(
					d.StringLiteral("%"),
					d.SafeLikePatternFromExpr(expr),
					d.StringLiteral("%"),
				)
			})
		if err != nil {
			return "", err
		}
		return d.PatternMatch(valSQL, pattern, v.invert, v.testType == TestContains), nil

	case TestStarts, TestStartsI:
		pattern, err := operandSQL(tc, v.args[0],
			func(lit string) string {
				return d.SafeLikePatternFromString(lit) + "%"
			},
			func(expr string) string {
				return d.NullableConcat(
					d.SafeLikePatternFromExpr(expr),
					d.StringLiteral("%"),
				)
			})
		if err != nil {
			return "", err
		}
		return d.PatternMatch(valSQL, pattern, v.invert, v.testType == TestStarts), nil

	case TestMatches, TestMatchesI:
		pattern, err := operandSQL(tc, v.args[0], nil, nil)
		if err != nil {
			return "", err
		}
		return d.RegexpMatch(valSQL, pattern, v.invert, v.testType == TestMatches), nil

	case TestEmpty:
		return valSQL + " IS" + not(v.invert) + " NULL", nil
	}

	return "", &InvariantError{Message: fmt.Sprintf("unknown value test type %q", v.testType)}
}

// operandSQL renders a test argument. litFunc transforms the string form of
// literal and runtime parameter values, exprFunc the SQL of nested value
// expressions.
func operandSQL(tc TranslationContext, a operand, litFunc, exprFunc func(string) string) (string, error) {
	switch a := a.(type) {
	case exprOperand:
		sql, err := a.expr.Translate(tc)
		if err != nil {
			return "", err
		}
		if exprFunc != nil {
			sql = exprFunc(sql)
		}
		return sql, nil
	case paramOperand:
		return tc.Params().AddParam(a.name, litFunc), nil
	case literalOperand:
		return tc.Params().ParamValueToSQL(tc.Dialect(), a.value, litFunc), nil
	default:
		return "", &InvariantError{Message: fmt.Sprintf("unknown test argument %T", a)}
	}
}

func translateCollectionTest(c *CollectionTest, tc TranslationContext) (string, error) {
	required := []string{c.colPath}
	if c.filter != nil {
		required = append(required, c.filter.UsedPropertyPaths()...)
	}

	plan, err := tc.QueryTree().PlanSubquery(tc, c.colBasePath, required)
	if err != nil {
		return "", err
	}
	if len(plan.Tables) == 0 {
		return "", &InvariantError{Message: fmt.Sprintf("no subquery tables planned for %q", c.colPath)}
	}

	var b strings.Builder
	b.WriteString("FROM ")
	for i, t := range plan.Tables {
		if i > 0 {
			b.WriteString(" INNER JOIN ")
		}
		b.WriteString(t.Name)
		b.WriteString(" AS ")
		b.WriteString(t.Alias)
		if i > 0 {
			b.WriteString(" ON ")
			b.WriteString(t.JoinCondition)
		}
	}
	b.WriteString(" WHERE ")
	b.WriteString(plan.BaseJoinCondition)

	if c.filter != nil {
		filterSQL, err := Translate(c.filter, plan.Context)
		if err != nil {
			return "", err
		}
		b.WriteString(" AND ")
		if c.filter.NeedsParen(And) {
			b.WriteString("(" + filterSQL + ")")
		} else {
			b.WriteString(filterSQL)
		}
	}
	subquery := b.String()

	switch c.testType {
	case CollectionCount:
		op := "= "
		if c.invert {
			op = "<> "
		}
		return "(SELECT COUNT(*) " + subquery + ") " + op + strconv.FormatInt(c.count, 10), nil
	case CollectionEmpty:
		if c.invert {
			return "EXISTS (SELECT 1 " + subquery + ")", nil
		}
		return "NOT EXISTS (SELECT 1 " + subquery + ")", nil
	}

	return "", &InvariantError{Message: fmt.Sprintf("unknown collection test type %q", c.testType)}
}

func not(invert bool) string {
	if invert {
		return " NOT"
	}
	return ""
}
