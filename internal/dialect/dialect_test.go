package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	testCases := []struct {
		name string
		want string
	}{
		{"sqlite", "sqlite"},
		{"SQLite3", "sqlite"},
		{"postgres", "postgres"},
		{" PostgreSQL ", "postgres"},
		{"pg", "postgres"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := ByName(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, d.Name())
		})
	}
}

func TestByNameUnknown(t *testing.T) {
	_, err := ByName("oracle")
	require.ErrorIs(t, err, ErrUnknownDialect)
	assert.Contains(t, err.Error(), "oracle")
}

func TestSQLiteLiterals(t *testing.T) {
	d := SQLite{}

	assert.Equal(t, "'it''s'", d.StringLiteral("it's"))
	assert.Equal(t, "1", d.BooleanLiteral(true))
	assert.Equal(t, "0", d.BooleanLiteral(false))
	assert.Equal(t, `"we""ird"`, d.QuoteIdentifier(`we"ird`))
	assert.Equal(t, "?", d.Placeholder(3))
}

func TestPostgresLiterals(t *testing.T) {
	d := Postgres{}

	assert.Equal(t, "'it''s'", d.StringLiteral("it's"))
	assert.Equal(t, `E'a\\b'`, d.StringLiteral(`a\b`))
	assert.Equal(t, "TRUE", d.BooleanLiteral(true))
	assert.Equal(t, `"order"`, d.QuoteIdentifier("order"))
	assert.Equal(t, "$3", d.Placeholder(3))
}

func TestSafeLikePatternFromString(t *testing.T) {
	for _, d := range []Dialect{SQLite{}, Postgres{}} {
		t.Run(d.Name(), func(t *testing.T) {
			assert.Equal(t, `50\% off\_now \\o/`, d.SafeLikePatternFromString(`50% off_now \o/`))
			assert.Equal(t, "plain", d.SafeLikePatternFromString("plain"))
		})
	}
}

func TestSafeLikePatternFromExpr(t *testing.T) {
	got := SQLite{}.SafeLikePatternFromExpr("z.name")
	assert.Equal(t,
		`REPLACE(REPLACE(REPLACE(z.name, '\', '\\'), '%', '\%'), '_', '\_')`,
		got)
}

func TestPatternMatch(t *testing.T) {
	testCases := []struct {
		name          string
		d             Dialect
		invert        bool
		caseSensitive bool
		want          string
	}{
		{"sqlite sensitive", SQLite{}, false, true, `z.name LIKE '%a%' ESCAPE '\'`},
		{"sqlite sensitive inverted", SQLite{}, true, true, `z.name NOT LIKE '%a%' ESCAPE '\'`},
		{"sqlite insensitive", SQLite{}, false, false, `LOWER(z.name) LIKE LOWER('%a%') ESCAPE '\'`},
		{"postgres sensitive", Postgres{}, false, true, `z.name LIKE '%a%'`},
		{"postgres insensitive inverted", Postgres{}, true, false, `z.name NOT ILIKE '%a%'`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.d.PatternMatch("z.name", "'%a%'", tc.invert, tc.caseSensitive))
		})
	}
}

func TestRegexpMatch(t *testing.T) {
	testCases := []struct {
		name          string
		d             Dialect
		invert        bool
		caseSensitive bool
		want          string
	}{
		{"sqlite", SQLite{}, false, true, `z.name REGEXP '^a'`},
		{"sqlite insensitive inverted", SQLite{}, true, false, `z.name NOT REGEXP ('(?i)' || '^a')`},
		{"postgres", Postgres{}, false, true, `z.name ~ '^a'`},
		{"postgres insensitive", Postgres{}, false, false, `z.name ~* '^a'`},
		{"postgres inverted", Postgres{}, true, true, `z.name !~ '^a'`},
		{"postgres insensitive inverted", Postgres{}, true, false, `z.name !~* '^a'`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.d.RegexpMatch("z.name", "'^a'", tc.invert, tc.caseSensitive))
		})
	}
}

func TestNullableConcat(t *testing.T) {
	assert.Equal(t, "('%' || z.name || '%')", SQLite{}.NullableConcat("'%'", "z.name", "'%'"))
}
