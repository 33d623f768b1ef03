package dialect

import "strings"

// SQLite renders SQL for SQLite.
//
// Case-sensitive pattern tests rely on the connection having
// case_sensitive_like enabled (the "_cslike" DSN option of go-sqlite3), and
// regular expression tests rely on a regexp() function registered on the
// connection. The store package opens connections that satisfy both.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) StringLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (SQLite) BooleanLiteral(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (SQLite) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Placeholder(int) string { return "?" }

func (SQLite) SafeLikePatternFromString(s string) string {
	return likeEscaper.Replace(s)
}

func (d SQLite) SafeLikePatternFromExpr(exprSQL string) string {
	return escapeLikeExpr(d, exprSQL)
}

func (SQLite) NullableConcat(parts ...string) string {
	return concat(parts)
}

func (SQLite) PatternMatch(exprSQL, patternSQL string, invert, caseSensitive bool) string {
	op := " LIKE "
	if invert {
		op = " NOT LIKE "
	}
	if !caseSensitive {
		return "LOWER(" + exprSQL + ")" + op + "LOWER(" + patternSQL + `) ESCAPE '\'`
	}
	return exprSQL + op + patternSQL + ` ESCAPE '\'`
}

func (SQLite) RegexpMatch(exprSQL, patternSQL string, invert, caseSensitive bool) string {
	if !caseSensitive {
		patternSQL = "('(?i)' || " + patternSQL + ")"
	}
	op := " REGEXP "
	if invert {
		op = " NOT REGEXP "
	}
	return exprSQL + op + patternSQL
}
