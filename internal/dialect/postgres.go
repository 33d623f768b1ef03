package dialect

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Postgres renders SQL for PostgreSQL.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

// StringLiteral quotes s with pq.QuoteLiteral. pq prefixes escape-string
// literals with a space; it is trimmed because every caller already
// separates literals from the preceding token.
func (Postgres) StringLiteral(s string) string {
	return strings.TrimLeft(pq.QuoteLiteral(s), " ")
}

func (Postgres) BooleanLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (Postgres) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (Postgres) Placeholder(position int) string {
	return "$" + strconv.Itoa(position)
}

func (Postgres) SafeLikePatternFromString(s string) string {
	return likeEscaper.Replace(s)
}

func (d Postgres) SafeLikePatternFromExpr(exprSQL string) string {
	return escapeLikeExpr(d, exprSQL)
}

func (Postgres) NullableConcat(parts ...string) string {
	return concat(parts)
}

func (Postgres) PatternMatch(exprSQL, patternSQL string, invert, caseSensitive bool) string {
	op := "LIKE"
	if !caseSensitive {
		op = "ILIKE"
	}
	if invert {
		op = "NOT " + op
	}
	return exprSQL + " " + op + " " + patternSQL
}

func (Postgres) RegexpMatch(exprSQL, patternSQL string, invert, caseSensitive bool) string {
	op := "~"
	if !caseSensitive {
		op += "*"
	}
	if invert {
		op = "!" + op
	}
	return exprSQL + " " + op + " " + patternSQL
}
