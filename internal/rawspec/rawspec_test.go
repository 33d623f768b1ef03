package rawspec

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recfilter/internal/filter"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{
			name: "yaml list",
			src: `
- ":or"
- - ["status", "open"]
  - ["total gt", 10]
  - ["total lt", 99.5]
  - ["rush", true]
  - ["note empty"]
`,
			want: []any{":or", []any{
				[]any{"status", "open"},
				[]any{"total gt", int64(10)},
				[]any{"total lt", 99.5},
				[]any{"rush", true},
				[]any{"note empty"},
			}},
		},
		{
			name: "json",
			src:  `[":and", [["status in", ["open", "held"]], ["items count", 2]]]`,
			want: []any{":and", []any{
				[]any{"status in", []any{"open", "held"}},
				[]any{"items count", int64(2)},
			}},
		},
		{
			name: "placeholders",
			src: `
- ":and"
- - ["total ge", {param: minTotal}]
  - ["items", [["price gt", {expr: "^.total"}]]]
`,
			want: []any{":and", []any{
				[]any{"total ge", filter.Param{Name: "minTotal"}},
				[]any{"items", []any{[]any{"price gt", filter.Expr{Expr: "^.total"}}}},
			}},
		},
		{
			name: "null argument",
			src:  `["status eq", null]`,
			want: []any{"status eq", nil},
		},
		{
			name: "timestamp",
			src:  "- placedOn lt\n- 2024-03-01T10:00:00Z\n",
			want: []any{"placedOn lt", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		},
		{
			name: "quoted number stays a string",
			src:  `["status", "10"]`,
			want: []any{"status", "10"},
		},
		{
			name: "alias",
			src: `
- ":or"
- - &open ["status", "open"]
  - [":none", [*open]]
`,
			want: []any{":or", []any{
				[]any{"status", "open"},
				[]any{":none", []any{[]any{"status", "open"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, src := range []string{"", "\n", "null", "# nothing\n"} {
		got, err := Decode([]byte(src))
		require.NoError(t, err, "%q", src)
		assert.Nil(t, got, "%q", src)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `[["status", "open"]`, "yaml"},
		{"unknown placeholder", `[["total", {value: 1}]]`, `line 1, column 13: unknown placeholder "value"`},
		{"two keys", `[["total", {param: a, expr: b}]]`, "exactly one of the keys param or expr"},
		{"empty param", `[["total", {param: ""}]]`, "param placeholder requires a non-empty string"},
		{"numeric param", `[["total", {param: 1}]]`, "param placeholder requires a non-empty string"},
		{"binary", `[["status", !!binary aGVsbG8=]]`, "unsupported value of type !!binary"},
		{"infinite", `[["total lt", .inf]]`, "not finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, IsDecodeError(err))
		})
	}
}

func TestDecodeParams(t *testing.T) {
	got, err := DecodeParams([]byte(`
minTotal: 25
q: "50%"
rush: false
ratio: 0.5
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"minTotal": int64(25),
		"q":        "50%",
		"rush":     false,
		"ratio":    0.5,
	}, got)

	empty, err := DecodeParams(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeParamsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"not a mapping", `[1, 2]`, "parameters must be a mapping"},
		{"list value", "ids: [1, 2]\n", `parameter "ids" must be a scalar`},
		{"non-string key", "1: x\n", "parameter names must be strings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeParams([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`[["status", {param: s}]]`), 0o644))

	got, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"status", filter.Param{Name: "s"}}}, got)

	_, err = DecodeFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read filter file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`[{x: 1}]`), 0o644))
	_, err = DecodeFile(bad)
	assert.ErrorContains(t, err, "bad.yaml: line 1, column 3")
}

func TestDecodeNode(t *testing.T) {
	var doc struct {
		Filter  yaml.Node `yaml:"filter"`
		Params  yaml.Node `yaml:"params"`
		Missing yaml.Node `yaml:"missing"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`
filter: ["total gt", {param: min}]
params:
  min: 3
`), &doc))

	spec, err := DecodeNode(&doc.Filter)
	require.NoError(t, err)
	assert.Equal(t, []any{"total gt", filter.Param{Name: "min"}}, spec)

	values, err := DecodeParamsNode(&doc.Params)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"min": int64(3)}, values)

	spec, err = DecodeNode(&doc.Missing)
	require.NoError(t, err)
	assert.Nil(t, spec)

	values, err = DecodeParamsNode(&doc.Missing)
	require.NoError(t, err)
	assert.Empty(t, values)
}
