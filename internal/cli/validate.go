package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	RecordType string `json:"record_type"`
	// Empty is true when the filter does not restrict anything.
	Empty              bool `json:"empty"`
	HasCollectionTests bool `json:"has_collection_tests"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <filter-file>",
		Short: "Check a filter without translating it",
		Long: `Validate a YAML or JSON filter against a record type.

Checks the filter grammar, test arities and property paths without
planning or translating the query. Faster than compile for editor and
pre-commit feedback.

Exit codes:
  0 - Filter is valid
  1 - Filter is invalid
  2 - Command error (record types not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func runValidate(opts *FilterOptions, filterPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cf, err := CompileFilter(opts, filterPath)
	if err != nil {
		code, _ := ErrorCode(err)
		// A broken filter is a validation failure, anything else is a
		// command error.
		exitCode := ExitCommandError
		if code == ErrCodeUsage || code == ErrCodeDecode {
			exitCode = ExitFailure
		}
		return formatter.Fail(exitCode, "Validation failed", err)
	}

	result := ValidationResult{
		Valid:              true,
		RecordType:         cf.RecordType.Name,
		Empty:              cf.Node == nil,
		HasCollectionTests: cf.Node != nil && cf.Node.HasCollectionTests(),
	}
	formatter.VerboseLog("Validated %s against %s", filterPath, result.RecordType)

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	msg := fmt.Sprintf("✓ %s is a valid %s filter", filterPath, result.RecordType)
	if result.Empty {
		msg += " (matches every record)"
	}
	return formatter.Success(msg)
}
