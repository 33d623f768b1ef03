package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recfilter/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	FilterOptions
	Output string // write the result as JSON to this file
}

// CompileResult is the translated SQL of a filter.
type CompileResult struct {
	RecordType string `json:"record_type"`
	Dialect    string `json:"dialect"`
	// Where is empty when the filter does not restrict anything.
	Where     string   `json:"where"`
	From      string   `json:"from"`
	Statement string   `json:"statement"`
	Params    []string `json:"params"`
	UsedPaths []string `json:"used_paths"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{FilterOptions: FilterOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "compile <filter-file>",
		Short: "Translate a filter to SQL",
		Long: `Compile a YAML or JSON filter against a record type and print the
translated WHERE clause, the FROM clause with its joins, the full SELECT
statement and the runtime parameter names in placeholder order.

Examples:
  recfilter compile --types types.cue --type Order filter.yaml
  recfilter compile --types types.cue --type Order --dialect postgres filter.yaml
  recfilter compile --types types.cue --type Order -o out.json filter.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled result as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, filterPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	cf, err := CompileFilter(&opts.FilterOptions, filterPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, "Compilation failed", err)
	}
	if err := cf.Translate(); err != nil {
		return formatter.Fail(ExitCommandError, "Compilation failed", err)
	}

	stmt, err := store.Statement(cf.Translation)
	if err != nil {
		return formatter.Fail(ExitCommandError, "Compilation failed", err)
	}

	tr := cf.Translation
	result := CompileResult{
		RecordType: cf.RecordType.Name,
		Dialect:    cf.Dialect.Name(),
		Where:      tr.Where,
		From:       tr.Query.From(),
		Statement:  stmt,
		Params:     tr.Params.Names(),
		UsedPaths:  cf.UsedPaths(),
	}
	logger.Debug("filter compiled",
		"record_type", result.RecordType,
		"dialect", result.Dialect,
		"joins", len(tr.Query.Joins),
		"params", tr.Params.Len(),
		"sql", stmt)

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, "Compilation failed",
				&LoadError{Code: ErrCodeWriteFailed, Message: err.Error()})
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled filter for %s (%s)\n", result.RecordType, result.Dialect)
	fmt.Fprintln(w)
	where := result.Where
	if where == "" {
		where = "(none)"
	}
	fmt.Fprintf(w, "WHERE:      %s\n", where)
	fmt.Fprintf(w, "FROM:       %s\n", result.From)
	fmt.Fprintf(w, "SQL:        %s\n", result.Statement)
	fmt.Fprintf(w, "Params:     %s\n", listOrNone(result.Params))
	fmt.Fprintf(w, "Used paths: %s\n", listOrNone(result.UsedPaths))
	return nil
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

// writeResultToFile writes the compile result as indented JSON.
func writeResultToFile(result CompileResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
