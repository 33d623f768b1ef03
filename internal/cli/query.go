package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recfilter/internal/params"
	"github.com/roach88/recfilter/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	FilterOptions
	DB     string // SQLite database file
	Params string // runtime parameter file
}

// QueryResult holds the ids of the matching records.
type QueryResult struct {
	RecordType string `json:"record_type"`
	IDs        []any  `json:"ids"`
	Count      int    `json:"count"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{FilterOptions: FilterOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "query <filter-file>",
		Short: "Select the ids of matching records",
		Long: `Run a filter against a SQLite database and print the ids of the
matching records in id order.

The database must hold the tables of the record type. Runtime parameters
referenced with {param: name} are read from a YAML or JSON mapping.

Examples:
  recfilter query --types types.cue --type Order --db orders.db filter.yaml
  recfilter query --types types.cue --type Order --db orders.db --params params.yaml filter.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database file (required)")
	cmd.Flags().StringVar(&opts.Params, "params", "", "YAML or JSON file with runtime parameter values")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQuery(opts *QueryOptions, filterPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	const title = "Query failed"

	if opts.Dialect != "sqlite" {
		return formatter.Fail(ExitCommandError, title, &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("query runs against SQLite databases only, got dialect %q", opts.Dialect),
		})
	}
	// Opening a missing file would create an empty database.
	if _, err := os.Stat(opts.DB); err != nil {
		return formatter.Fail(ExitCommandError, title, &LoadError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("database not found: %s", opts.DB),
		})
	}

	cf, err := CompileFilter(&opts.FilterOptions, filterPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, title, err)
	}
	if err := cf.Translate(); err != nil {
		return formatter.Fail(ExitCommandError, title, err)
	}
	values, err := LoadParams(opts.Params)
	if err != nil {
		return formatter.Fail(ExitCommandError, title, err)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return formatter.Fail(ExitCommandError, title, &LoadError{Code: ErrCodeQuery, Message: err.Error()})
	}
	defer st.Close()
	st.SetLogger(formatter.Logger())

	ids, err := st.Select(cmd.Context(), cf.Translation, values)
	if err != nil {
		code := ErrCodeQuery
		if errors.Is(err, params.ErrMissingParam) {
			code = ErrCodeParams
		}
		return formatter.Fail(ExitCommandError, title, &LoadError{Code: code, Message: err.Error()})
	}

	result := QueryResult{
		RecordType: cf.RecordType.Name,
		IDs:        ids,
		Count:      len(ids),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %d %s record(s) matched\n", result.Count, result.RecordType)
	for _, id := range ids {
		fmt.Fprintf(w, "  %v\n", id)
	}
	return nil
}
