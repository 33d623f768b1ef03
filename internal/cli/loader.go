package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/recfilter/internal/dialect"
	"github.com/roach88/recfilter/internal/filter"
	"github.com/roach88/recfilter/internal/params"
	"github.com/roach88/recfilter/internal/querytree"
	"github.com/roach88/recfilter/internal/rawspec"
	"github.com/roach88/recfilter/internal/recordtypes"
	"github.com/roach88/recfilter/internal/valueexpr"
)

// Error codes reported by the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeDecode      = "E002" // Filter or parameter file malformed
	ErrCodeUnknown     = "E003" // Unknown record type or dialect
	ErrCodeLoadFailed  = "E004" // Record type file could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeTypeDef     = "E006" // Invalid record type definition
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeUsage     = "E201" // Malformed filter
	ErrCodeInvariant = "E202" // Translation invariant violated
	ErrCodeParams    = "E203" // Parameter binding failed
	ErrCodeQuery     = "E204" // Query execution failed
)

// LoadError is an error with a CLI error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the CLI error code and message of err.
func ErrorCode(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	switch {
	case filter.IsUsageError(err):
		return ErrCodeUsage, err.Error()
	case filter.IsInvariantError(err):
		return ErrCodeInvariant, err.Error()
	case errors.Is(err, params.ErrMissingParam):
		return ErrCodeParams, err.Error()
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// FilterOptions holds the flags of commands that compile a filter file.
type FilterOptions struct {
	*RootOptions
	Types      string // CUE record type library
	RecordType string
	Dialect    string // "sqlite" | "postgres"
}

func (o *FilterOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Types, "types", "", "CUE file defining the record types (required)")
	cmd.Flags().StringVar(&o.RecordType, "type", "", "record type the filter applies to (required)")
	cmd.Flags().StringVar(&o.Dialect, "dialect", "sqlite", "SQL dialect (sqlite|postgres)")
	_ = cmd.MarkFlagRequired("types")
	_ = cmd.MarkFlagRequired("type")
}

// CompiledFilter is a filter file compiled against a record type.
type CompiledFilter struct {
	RecordType *recordtypes.RecordType
	Dialect    dialect.Dialect
	// Node is nil when the filter does not restrict anything.
	Node filter.Node
	// Translation is set by Translate.
	Translation *querytree.Translation
}

// CompileFilter loads the record types named by opts and compiles the
// filter file at path. Every error is a *LoadError or a filter error.
func CompileFilter(opts *FilterOptions, path string) (*CompiledFilter, error) {
	rt, err := loadRecordType(opts.Types, opts.RecordType)
	if err != nil {
		return nil, err
	}
	d, err := dialect.ByName(opts.Dialect)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeUnknown, Message: err.Error()}
	}

	spec, err := rawspec.DecodeFile(path)
	if err != nil {
		return nil, decodeError(err)
	}
	// An empty document selects every record.
	if spec == nil {
		return &CompiledFilter{RecordType: rt, Dialect: d}, nil
	}

	n, err := filter.Compile(spec, valueexpr.Types(rt), valueexpr.NewContext(rt))
	if err != nil {
		return nil, err
	}
	return &CompiledFilter{RecordType: rt, Dialect: d, Node: n}, nil
}

// Translate plans the query of the compiled filter and translates it.
func (c *CompiledFilter) Translate() error {
	tr, err := querytree.Translate(c.RecordType, c.Dialect, c.Node)
	if err != nil {
		return err
	}
	c.Translation = tr
	return nil
}

// UsedPaths returns the property paths read by the outer query.
func (c *CompiledFilter) UsedPaths() []string {
	if c.Node == nil {
		return []string{}
	}
	return c.Node.UsedPropertyPaths()
}

// LoadParams decodes the runtime parameter file at path. An empty path
// yields no parameters.
func LoadParams(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	values, err := rawspec.DecodeParamsFile(path)
	if err != nil {
		return nil, decodeError(err)
	}
	return values, nil
}

func loadRecordType(typesPath, name string) (*recordtypes.RecordType, error) {
	lib, err := recordtypes.LoadFile(typesPath)
	if err != nil {
		var defErr *recordtypes.LoadError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("record types file not found: %s", typesPath)}
		case errors.As(err, &defErr):
			return nil, &LoadError{Code: ErrCodeTypeDef, Message: fmt.Sprintf("%s: %s", defErr.Field, defErr.Message), Pos: defErr.Pos}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}

	rt, err := lib.RecordType(name)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeUnknown, Message: err.Error()}
	}
	return rt, nil
}

func decodeError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeDecode, Message: err.Error()}
}
