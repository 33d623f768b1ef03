package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidateCmd(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewValidateCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), errBuf.String(), err
}

func TestValidateValidFilter(t *testing.T) {
	filterPath := writeFile(t, t.TempDir(), "filter.yaml", `["items count", 2, [["price min", 10]]]`)

	output, _, err := runValidateCmd(t, &RootOptions{Format: "text"},
		"--types", ordersTypes(t), "--type", "Order", filterPath)
	require.NoError(t, err)
	assert.Contains(t, output, "✓ "+filterPath+" is a valid Order filter")
	assert.NotContains(t, output, "matches every record")
}

func TestValidateValidFilterJSON(t *testing.T) {
	filterPath := writeFile(t, t.TempDir(), "filter.json", `["notes", [["text", "x"]]]`)

	output, _, err := runValidateCmd(t, jsonOpts(),
		"--types", ordersTypes(t), "--type", "Order", filterPath)
	require.NoError(t, err)

	var resp struct {
		Status  string           `json:"status"`
		Data    ValidationResult `json:"data"`
		TraceID string           `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test-trace", resp.TraceID)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, "Order", resp.Data.RecordType)
	assert.False(t, resp.Data.Empty)
	assert.True(t, resp.Data.HasCollectionTests)
}

func TestValidateEmptyFilter(t *testing.T) {
	filterPath := writeFile(t, t.TempDir(), "filter.yaml", "")

	output, _, err := runValidateCmd(t, &RootOptions{Format: "text"},
		"--types", ordersTypes(t), "--type", "Order", filterPath)
	require.NoError(t, err)
	assert.Contains(t, output, "matches every record")
}

func TestValidateInvalidFilter(t *testing.T) {
	tests := []struct {
		name     string
		filter   string
		wantCode string
		wantMsg  string
	}{
		{
			name:     "between arity",
			filter:   `["total between", 1]`,
			wantCode: ErrCodeUsage,
			wantMsg:  `test "between" expects two non-null, non-array arguments`,
		},
		{
			name:     "unknown junction",
			filter:   `[":xor", [["status", "open"]]]`,
			wantCode: ErrCodeUsage,
			wantMsg:  "unknown junction type",
		},
		{
			name:     "bad placeholder",
			filter:   `["status", {name: x}]`,
			wantCode: ErrCodeDecode,
			wantMsg:  `unknown placeholder "name"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filterPath := writeFile(t, t.TempDir(), "filter.yaml", tt.filter)

			output, _, err := runValidateCmd(t, jsonOpts(),
				"--types", ordersTypes(t), "--type", "Order", filterPath)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(output), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.wantMsg)
		})
	}
}

func TestValidateInvalidFilterText(t *testing.T) {
	filterPath := writeFile(t, t.TempDir(), "filter.yaml", `["items empty", 3]`)

	output, _, err := runValidateCmd(t, &RootOptions{Format: "text"},
		"--types", ordersTypes(t), "--type", "Order", filterPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "E201")
}

func TestValidateUnknownRecordType(t *testing.T) {
	filterPath := writeFile(t, t.TempDir(), "filter.yaml", `["status", "open"]`)

	output, _, err := runValidateCmd(t, &RootOptions{Format: "text"},
		"--types", ordersTypes(t), "--type", "Invoice", filterPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "unknown record type")
}

func TestValidateVerboseOutput(t *testing.T) {
	filterPath := writeFile(t, t.TempDir(), "filter.yaml", `["status", "open"]`)

	opts := jsonOpts()
	opts.Verbose = true
	output, errOutput, err := runValidateCmd(t, opts,
		"--types", ordersTypes(t), "--type", "Order", filterPath)
	require.NoError(t, err)

	// Verbose logs stay out of the JSON response
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Contains(t, errOutput, "Validated "+filterPath+" against Order")
}
