package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines a filter conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Types is the path of the CUE record type library. Relative paths are
	// resolved against the scenario file location.
	Types string `yaml:"types"`

	// RecordType names the record type the filter applies to.
	RecordType string `yaml:"record_type"`

	// Dialect is "sqlite" (default) or "postgres".
	Dialect string `yaml:"dialect,omitempty"`

	// Filter is the filter specification, with {param: name} and
	// {expr: expression} placeholders.
	Filter yaml.Node `yaml:"filter"`

	// Params holds runtime parameter values keyed by name.
	Params yaml.Node `yaml:"params,omitempty"`

	// Records are inserted into a fresh SQLite store before the filter is
	// executed. Collection properties hold lists of element records.
	Records []map[string]any `yaml:"records,omitempty"`

	// Expect specifies the expected outcome.
	Expect Expect `yaml:"expect"`
}

// Expect specifies the expected outcome of a scenario. Only the fields
// that are set are compared.
type Expect struct {
	// Where is the expected WHERE clause body.
	Where string `yaml:"where,omitempty"`

	// From is the expected FROM clause body including joins.
	From string `yaml:"from,omitempty"`

	// Params lists the parameter names in placeholder order.
	Params []string `yaml:"params,omitempty"`

	// UsedPaths lists the property paths the outer query must provide.
	UsedPaths []string `yaml:"used_paths,omitempty"`

	// IDs are the ids of the selected records in id order. An empty list
	// expects no match.
	IDs *[]string `yaml:"ids,omitempty"`

	// Error is a substring of the expected compile error.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Types != "" && !filepath.IsAbs(scenario.Types) {
		scenario.Types = filepath.Join(filepath.Dir(path), scenario.Types)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Types == "" {
		return fmt.Errorf("types is required")
	}

	if s.RecordType == "" {
		return fmt.Errorf("record_type is required")
	}

	switch s.Dialect {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("dialect must be sqlite or postgres, got %q", s.Dialect)
	}

	if s.Filter.Kind == 0 {
		return fmt.Errorf("filter is required")
	}

	e := s.Expect
	if e.Error != "" {
		if e.Where != "" || e.From != "" || e.Params != nil || e.UsedPaths != nil || e.IDs != nil {
			return fmt.Errorf("expect.error cannot be combined with other expectations")
		}
		if len(s.Records) > 0 {
			return fmt.Errorf("records cannot be used with expect.error")
		}
		return nil
	}

	if e.Where == "" && e.From == "" && e.Params == nil && e.UsedPaths == nil && e.IDs == nil {
		return fmt.Errorf("expect must specify at least one of where, from, params, used_paths, ids or error")
	}

	if (len(s.Records) > 0 || e.IDs != nil) && s.dialect() != "sqlite" {
		return fmt.Errorf("records and expect.ids require the sqlite dialect")
	}

	return nil
}

func (s *Scenario) dialect() string {
	if s.Dialect == "" {
		return "sqlite"
	}
	return s.Dialect
}
