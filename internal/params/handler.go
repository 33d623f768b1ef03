// Package params accumulates the runtime parameters referenced by a
// translated filter and renders inline literals.
//
// A Handler belongs to exactly one translation. The filter AST itself never
// holds parameter values, so the same compiled filter can be translated and
// bound any number of times with different values.
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/recfilter/internal/dialect"
)

// ErrMissingParam is returned by Bind when a referenced parameter has no value.
var ErrMissingParam = errors.New("missing filter parameter")

// binding is one placeholder occurrence in the translated SQL.
type binding struct {
	name      string
	valueFunc func(string) string
}

// Handler registers named parameters in placeholder order.
type Handler struct {
	dialect  dialect.Dialect
	bindings []binding
}

// NewHandler creates a handler that emits placeholders for d.
func NewHandler(d dialect.Dialect) *Handler {
	return &Handler{dialect: d}
}

// AddParam registers an occurrence of the named parameter and returns its
// placeholder. If valueFunc is not nil, the bound value is converted to a
// string and passed through it at bind time.
func (h *Handler) AddParam(name string, valueFunc func(string) string) string {
	h.bindings = append(h.bindings, binding{name: name, valueFunc: valueFunc})
	return h.dialect.Placeholder(len(h.bindings))
}

// ParamValueToSQL renders value as an inline literal of dialect d. If
// valueFunc is not nil the value is rendered as the string literal of
// valueFunc applied to its string form.
func (h *Handler) ParamValueToSQL(d dialect.Dialect, value any, valueFunc func(string) string) string {
	if valueFunc != nil {
		return d.StringLiteral(valueFunc(ValueString(value)))
	}

	switch v := value.(type) {
	case string:
		return d.StringLiteral(v)
	case bool:
		return d.BooleanLiteral(v)
	case int:
		return strconv.FormatInt(int64(v), 10)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case json.Number:
		return v.String()
	default:
		return d.StringLiteral(ValueString(value))
	}
}

// Len returns the number of registered placeholders.
func (h *Handler) Len() int {
	return len(h.bindings)
}

// Names returns the parameter names in placeholder order. A name appears
// once per occurrence.
func (h *Handler) Names() []string {
	names := make([]string, len(h.bindings))
	for i, b := range h.bindings {
		names[i] = b.name
	}
	return names
}

// Bind resolves the registered parameters against values and returns the
// driver arguments in placeholder order. Times are bound in their
// ValueString form.
func (h *Handler) Bind(values map[string]any) ([]any, error) {
	args := make([]any, len(h.bindings))
	for i, b := range h.bindings {
		v, ok := values[b.name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingParam, b.name)
		}
		if b.valueFunc != nil {
			v = b.valueFunc(ValueString(v))
		} else if t, ok := v.(time.Time); ok {
			v = ValueString(t)
		}
		args[i] = v
	}
	return args, nil
}

// TimeLayout is the text form of times in literals, bound arguments and
// stored columns. The fraction has a fixed width so that text comparison
// orders times chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ValueString returns the string form used for pattern parameters and
// for literals without a dedicated SQL rendering. Times are rendered in UTC
// with TimeLayout.
func ValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.UTC().Format(TimeLayout)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}
