package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot captures the deterministic outcome of a scenario for golden
// comparison. Bound argument values are left out because their Go types
// depend on how they were decoded.
type Snapshot struct {
	ScenarioName string   `json:"scenario_name"`
	Dialect      string   `json:"dialect"`
	Where        string   `json:"where,omitempty"`
	From         string   `json:"from,omitempty"`
	Statement    string   `json:"statement,omitempty"`
	Params       []string `json:"params,omitempty"`
	UsedPaths    []string `json:"used_paths,omitempty"`
	IDs          []string `json:"ids,omitempty"`
	CompileError string   `json:"compile_error,omitempty"`
}

// NewSnapshot builds the snapshot of a scenario result.
func NewSnapshot(scenario *Scenario, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: scenario.Name,
		Dialect:      scenario.dialect(),
		Where:        result.Where,
		From:         result.From,
		Statement:    result.Statement,
		Params:       result.Params,
		UsedPaths:    result.UsedPaths,
		IDs:          result.IDs,
		CompileError: result.CompileError,
	}
}

// Marshal renders the snapshot as indented JSON. SQL operators such as
// "<>" are kept verbatim.
func (s Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check its expectations. Test
// failure (via goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the snapshot of an already executed scenario
// against its golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenario, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
