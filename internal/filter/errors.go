package filter

import (
	"errors"
	"strings"
)

// UsageError reports an invalid filter specification. It is only returned
// by Compile and retrying with the same specification cannot succeed.
type UsageError struct {
	// BasePath is the base path of the value expression context, empty at
	// the record type root.
	BasePath string
	// Path is the offending property path or expression, if known.
	Path    string
	Message string
	Err     error
}

func (e *UsageError) Error() string {
	var b strings.Builder
	b.WriteString("invalid filter specification")
	if e.BasePath != "" {
		b.WriteString(" on ")
		b.WriteString(e.BasePath)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// InvariantError reports an internal defect reached during translation,
// such as translating an empty junction. It never describes a caller
// mistake.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "internal filter error: " + e.Message
}

// IsUsageError reports whether err is or wraps a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// IsInvariantError reports whether err is or wraps an *InvariantError.
func IsInvariantError(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
