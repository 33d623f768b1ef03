// Package recordtypes describes the shape of stored records: the table that
// holds each record type, its scalar properties and the nested collections
// stored in child tables.
package recordtypes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownRecordType is returned when a library has no such record type.
	ErrUnknownRecordType = errors.New("unknown record type")
	// ErrUnknownProperty is returned when a property path does not resolve.
	ErrUnknownProperty = errors.New("unknown property")
	// ErrNotCollection is returned when a path steps through a scalar property.
	ErrNotCollection = errors.New("property is not a collection")
)

// ValueType is the type of a property value.
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeInteger  ValueType = "integer"
	TypeNumber   ValueType = "number"
	TypeBoolean  ValueType = "boolean"
	TypeDatetime ValueType = "datetime"
	TypeObject   ValueType = "object"
)

// Property is a single record property.
//
// A collection property holds nested objects stored in the Element table,
// each row pointing back at its container through ParentColumn.
type Property struct {
	Name         string
	Path         string
	Type         ValueType
	Column       string
	Optional     bool
	Collection   bool
	ParentColumn string
	Element      *Shape
}

// IsScalar reports whether the property holds a single value.
func (p *Property) IsScalar() bool {
	return !p.Collection
}

// ElementKind returns the value type of the property or of its elements.
func (p *Property) ElementKind() string {
	return string(p.Type)
}

// Shape is a table-backed set of properties: a record type root or the
// element of a collection.
type Shape struct {
	Name       string
	Table      string
	IDProperty string
	Properties []*Property

	// Parent and ParentColumn are set for collection elements only.
	Parent       *Shape
	ParentColumn string

	byName map[string]*Property
}

// Property returns the named property of the shape.
func (s *Shape) Property(name string) (*Property, bool) {
	p, ok := s.byName[name]
	return p, ok
}

// ID returns the id property of the shape.
func (s *Shape) ID() *Property {
	return s.byName[s.IDProperty]
}

// RecordType is a named top-level record shape.
type RecordType struct {
	*Shape
}

// Resolve returns the property at the dotted path. Intermediate segments
// must be collections.
func (rt *RecordType) Resolve(path string) (*Property, error) {
	chain, err := rt.Chain(path)
	if err != nil {
		return nil, err
	}
	return chain[len(chain)-1], nil
}

// Chain returns every property along the dotted path, outermost first.
func (rt *RecordType) Chain(path string) ([]*Property, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in record type %s", ErrUnknownProperty, rt.Name)
	}

	var chain []*Property
	shape := rt.Shape
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if shape == nil {
			return nil, fmt.Errorf("%w: %q in record type %s", ErrNotCollection,
				strings.Join(segments[:i], "."), rt.Name)
		}
		p, ok := shape.Property(seg)
		if !ok {
			return nil, fmt.Errorf("%w: %q in record type %s", ErrUnknownProperty, path, rt.Name)
		}
		chain = append(chain, p)
		shape = p.Element
	}
	return chain, nil
}

// Library is a set of record types keyed by name.
type Library struct {
	types map[string]*RecordType
}

// NewLibrary creates a library of the given record types.
func NewLibrary(types ...*RecordType) *Library {
	l := &Library{types: make(map[string]*RecordType, len(types))}
	for _, rt := range types {
		l.types[rt.Name] = rt
	}
	return l
}

// RecordType returns the named record type.
func (l *Library) RecordType(name string) (*RecordType, error) {
	rt, ok := l.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecordType, name)
	}
	return rt, nil
}

// Names returns the record type names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.types))
	for name := range l.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shapes returns the shape and every nested element shape, parents first.
func (rt *RecordType) Shapes() []*Shape {
	var shapes []*Shape
	var walk func(s *Shape)
	walk = func(s *Shape) {
		shapes = append(shapes, s)
		for _, p := range s.Properties {
			if p.Element != nil {
				walk(p.Element)
			}
		}
	}
	walk(rt.Shape)
	return shapes
}
