// Package dialect renders the SQL fragments that differ between database
// engines: literals, LIKE pattern escaping, pattern and regular expression
// matching, and bind placeholders.
//
// Every fragment that embeds user supplied text goes through StringLiteral or
// one of the SafeLikePattern helpers. Callers never concatenate raw values into
// SQL.
package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// Dialect is implemented by each supported database engine.
type Dialect interface {
	// Name returns the canonical dialect name ("sqlite", "postgres").
	Name() string

	// StringLiteral renders s as a quoted SQL string literal.
	StringLiteral(s string) string

	// BooleanLiteral renders b as a SQL boolean literal.
	BooleanLiteral(b bool) string

	// QuoteIdentifier renders name as a quoted SQL identifier.
	QuoteIdentifier(name string) string

	// Placeholder returns the bind placeholder for the 1-based position.
	Placeholder(position int) string

	// SafeLikePatternFromString escapes LIKE wildcards in a literal string.
	// The result is raw pattern text, not yet a SQL literal.
	SafeLikePatternFromString(s string) string

	// SafeLikePatternFromExpr wraps a SQL expression so that wildcards in its
	// runtime value are escaped.
	SafeLikePatternFromExpr(exprSQL string) string

	// NullableConcat concatenates SQL expressions. The result is NULL if any
	// part is NULL.
	NullableConcat(parts ...string) string

	// PatternMatch renders a LIKE test of exprSQL against patternSQL.
	PatternMatch(exprSQL, patternSQL string, invert, caseSensitive bool) string

	// RegexpMatch renders a regular expression test of exprSQL against
	// patternSQL.
	RegexpMatch(exprSQL, patternSQL string, invert, caseSensitive bool) string
}

// ErrUnknownDialect is returned by ByName for unsupported names.
var ErrUnknownDialect = errors.New("unknown dialect")

// Names lists the canonical names accepted by ByName.
func Names() []string {
	return []string{"sqlite", "postgres"}
}

// ByName returns the dialect registered under name. Matching is
// case-insensitive and accepts the common aliases "sqlite3", "postgresql"
// and "pg".
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "postgres", "postgresql", "pg":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (must be one of %v)", ErrUnknownDialect, name, Names())
	}
}

// likeEscaper escapes the LIKE wildcards and the escape character itself.
// Both dialects use backslash as the LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLikeExpr builds the runtime equivalent of likeEscaper around a SQL
// expression.
func escapeLikeExpr(d Dialect, exprSQL string) string {
	lit := d.StringLiteral
	return "REPLACE(REPLACE(REPLACE(" + exprSQL + ", " +
		lit(`\`) + ", " + lit(`\\`) + "), " +
		lit(`%`) + ", " + lit(`\%`) + "), " +
		lit(`_`) + ", " + lit(`\_`) + ")"
}

// concat joins parts with the standard || operator.
func concat(parts []string) string {
	return "(" + strings.Join(parts, " || ") + ")"
}
