package recordtypes

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/go-openapi/inflect"
)

//go:embed schema.cue
var schemaSource string

const defaultIDProperty = "id"

// LoadError is a record type definition error with its CUE position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads record type definitions from a CUE file.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record types: %w", err)
	}
	return Load(filepath.Base(path), data)
}

// Load compiles CUE record type definitions.
//
// The source is unified with the embedded #Library schema, so unknown
// fields and wrong value types are rejected with their position:
//
//	recordTypes: Order: {
//		table: "orders"
//		properties: {
//			status: type: "string"
//			items: {
//				type:       "object"
//				collection: true
//				table:      "order_items"
//				properties: price: type: "number"
//			}
//		}
//	}
func Load(filename string, src []byte) (*Library, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Library")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	typesVal := v.LookupPath(cue.ParsePath("recordTypes"))
	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var types []*RecordType
	for iter.Next() {
		rt, err := compileRecordType(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	if len(types) == 0 {
		return nil, &LoadError{
			Field:   "recordTypes",
			Message: "at least one record type is required",
			Pos:     v.Pos(),
		}
	}

	return NewLibrary(types...), nil
}

func compileRecordType(name string, v cue.Value) (*RecordType, error) {
	table, _, err := lookupString(v, "table")
	if err != nil {
		return nil, err
	}
	id, ok, err := lookupString(v, "id")
	if err != nil {
		return nil, err
	}
	if !ok {
		id = defaultIDProperty
	}

	shape, err := compileShape(name, "", table, id, v.LookupPath(cue.ParsePath("properties")), nil)
	if err != nil {
		return nil, err
	}
	return &RecordType{Shape: shape}, nil
}

// compileShape builds a shape from a CUE properties struct. parent is nil
// for record type roots.
func compileShape(name, pathPrefix, table, id string, propsVal cue.Value, parent *Shape) (*Shape, error) {
	shape := &Shape{
		Name:       name,
		Table:      table,
		IDProperty: id,
		Parent:     parent,
		byName:     make(map[string]*Property),
	}

	if propsVal.Exists() {
		iter, err := propsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			p, err := compileProperty(shape, pathPrefix, iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			shape.add(p)
		}
	}

	idProp, ok := shape.byName[id]
	if !ok {
		// Implicit integer id column.
		shape.add(&Property{Name: id, Path: joinPath(pathPrefix, id), Type: TypeInteger, Column: id})
	} else if !idProp.IsScalar() {
		return nil, &LoadError{
			Field:   joinPath(pathPrefix, id),
			Message: "id property must be scalar",
			Pos:     propsVal.Pos(),
		}
	}

	return shape, nil
}

func compileProperty(container *Shape, pathPrefix, name string, v cue.Value) (*Property, error) {
	path := joinPath(pathPrefix, name)

	typ, _, err := lookupString(v, "type")
	if err != nil {
		return nil, err
	}
	column, ok, err := lookupString(v, "column")
	if err != nil {
		return nil, err
	}
	if !ok {
		column = name
	}
	optional, _, err := lookupBool(v, "optional")
	if err != nil {
		return nil, err
	}
	collection, _, err := lookupBool(v, "collection")
	if err != nil {
		return nil, err
	}

	p := &Property{
		Name:       name,
		Path:       path,
		Type:       ValueType(typ),
		Column:     column,
		Optional:   optional,
		Collection: collection,
	}

	switch {
	case collection && p.Type != TypeObject:
		return nil, &LoadError{Field: path, Message: "collection elements must be of type object", Pos: v.Pos()}
	case !collection && p.Type == TypeObject:
		return nil, &LoadError{Field: path, Message: "object properties must be collections", Pos: v.Pos()}
	case !collection:
		return p, nil
	}

	table, ok, err := lookupString(v, "table")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &LoadError{Field: path, Message: "collection table is required", Pos: v.Pos()}
	}
	id, ok, err := lookupString(v, "id")
	if err != nil {
		return nil, err
	}
	if !ok {
		id = defaultIDProperty
	}
	parentColumn, ok, err := lookupString(v, "parentColumn")
	if err != nil {
		return nil, err
	}
	if !ok {
		parentColumn = inflect.Underscore(inflect.Singularize(container.Name)) + "_id"
	}
	p.ParentColumn = parentColumn

	elem, err := compileShape(name, path, table, id, v.LookupPath(cue.ParsePath("properties")), container)
	if err != nil {
		return nil, err
	}
	elem.ParentColumn = parentColumn
	p.Element = elem

	return p, nil
}

func (s *Shape) add(p *Property) {
	s.Properties = append(s.Properties, p)
	s.byName[p.Name] = p
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// lookupString returns a concrete string field. ok is false when the field
// is absent.
func lookupString(v cue.Value, field string) (s string, ok bool, err error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() || !f.IsConcrete() {
		return "", false, nil
	}
	s, err = f.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func lookupBool(v cue.Value, field string) (b bool, ok bool, err error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() || !f.IsConcrete() {
		return false, false, nil
	}
	b, err = f.Bool()
	if err != nil {
		return false, false, formatCUEError(err)
	}
	return b, true, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
