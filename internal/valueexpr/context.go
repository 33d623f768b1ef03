// Package valueexpr resolves value expressions used in records filters:
// property references relative to a collection context and simple
// function calls over them.
package valueexpr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recfilter/internal/filter"
	"github.com/roach88/recfilter/internal/recordtypes"
)

// ErrOutOfContext is returned when "^." back references step above the
// record type root.
var ErrOutOfContext = errors.New("property reference leaves the record type")

// ErrNotCollection is returned when a relative context is requested for a
// scalar property.
var ErrNotCollection = errors.New("property is not a collection")

const backRef = "^."

// Context is a value expression context. Property references are relative
// to the context base path, and each leading "^." steps out of one nested
// collection.
type Context struct {
	rt       *recordtypes.RecordType
	basePath string
}

var _ filter.ExprContext = (*Context)(nil)

// NewContext returns the root context of a record type.
func NewContext(rt *recordtypes.RecordType) *Context {
	return &Context{rt: rt}
}

// RecordType returns the record type of the context.
func (c *Context) RecordType() *recordtypes.RecordType {
	return c.rt
}

func (c *Context) BasePath() string {
	return c.basePath
}

// RelativeContext returns the context of the elements of the collection at
// path.
func (c *Context) RelativeContext(path string) (filter.ExprContext, error) {
	norm, err := c.normalize(path)
	if err != nil {
		return nil, err
	}
	p, err := c.rt.Resolve(norm)
	if err != nil {
		return nil, err
	}
	if p.IsScalar() {
		return nil, fmt.Errorf("%w: %q", ErrNotCollection, norm)
	}
	return &Context{rt: c.rt, basePath: norm}, nil
}

// NormalizePropertyRef returns the path of ref relative to the record type
// root. Back references above the root are dropped.
func (c *Context) NormalizePropertyRef(ref string) string {
	norm, err := c.normalize(ref)
	if err != nil {
		for strings.HasPrefix(ref, backRef) {
			ref = ref[len(backRef):]
		}
		return ref
	}
	return norm
}

func (c *Context) normalize(ref string) (string, error) {
	var segments []string
	if c.basePath != "" {
		segments = strings.Split(c.basePath, ".")
	}
	for strings.HasPrefix(ref, backRef) {
		if len(segments) == 0 {
			return "", fmt.Errorf("%w: %q", ErrOutOfContext, ref)
		}
		segments = segments[:len(segments)-1]
		ref = ref[len(backRef):]
	}
	return strings.Join(append(segments, ref), "."), nil
}

// ParseExpr parses a value expression in the context.
func (c *Context) ParseExpr(raw string) (filter.Expression, error) {
	e, err := Parse(c, raw)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Types adapts a record type to the filter type provider.
func Types(rt *recordtypes.RecordType) filter.TypeProvider {
	return typeProvider{rt: rt}
}

type typeProvider struct {
	rt *recordtypes.RecordType
}

func (t typeProvider) Resolve(path string) (filter.PropertyInfo, error) {
	p, err := t.rt.Resolve(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}
