package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/recfilter/internal/params"
	"github.com/roach88/recfilter/internal/recordtypes"
)

// Record is a record keyed by property name. Collection properties hold a
// list of element records.
type Record map[string]any

// Insert writes records of type rt and their collection elements in a
// single transaction. Every record and element must carry its id.
func (s *Store) Insert(ctx context.Context, rt *recordtypes.RecordType, records ...Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert %s: %w", rt.Name, err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if err := s.insertShape(ctx, tx, rt.Shape, rec, nil); err != nil {
			return fmt.Errorf("insert %s: %w", rt.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert %s: %w", rt.Name, err)
	}
	return nil
}

func (s *Store) insertShape(ctx context.Context, tx *sql.Tx, shape *recordtypes.Shape, rec Record, parentID any) error {
	id, ok := rec[shape.IDProperty]
	if !ok || id == nil {
		return fmt.Errorf("%s record has no %s", shape.Name, shape.IDProperty)
	}

	row := map[string]any{}
	if shape.Parent != nil {
		row[s.dialect.QuoteIdentifier(shape.ParentColumn)] = parentID
	}

	// Sorted for deterministic statements.
	names := make([]string, 0, len(rec))
	for name := range rec {
		names = append(names, name)
	}
	sort.Strings(names)

	var children []func() error
	for _, name := range names {
		prop, ok := shape.Property(name)
		if !ok {
			return fmt.Errorf("%s record has unknown property %q", shape.Name, name)
		}
		if prop.Collection {
			elems, err := elementRecords(rec[name])
			if err != nil {
				return fmt.Errorf("property %s: %w", prop.Path, err)
			}
			for _, elem := range elems {
				children = append(children, func() error {
					return s.insertShape(ctx, tx, prop.Element, elem, id)
				})
			}
			continue
		}
		row[s.dialect.QuoteIdentifier(prop.Column)] = columnValue(prop, rec[name])
	}

	b := sq.Insert(s.dialect.QuoteIdentifier(shape.Table)).SetMap(row)
	if s.dialect.Name() == "postgres" {
		b = b.PlaceholderFormat(sq.Dollar)
	}
	stmt, args, err := b.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("write %s: %w", shape.Table, err)
	}

	// Elements reference the container row, so they go in after it.
	for _, insert := range children {
		if err := insert(); err != nil {
			return err
		}
	}
	return nil
}

func elementRecords(v any) ([]Record, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []Record:
		return list, nil
	case []map[string]any:
		out := make([]Record, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out, nil
	case []any:
		out := make([]Record, len(list))
		for i, e := range list {
			switch m := e.(type) {
			case Record:
				out[i] = m
			case map[string]any:
				out[i] = m
			default:
				return nil, fmt.Errorf("element %d is %T, not a record", i, e)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("collection value is %T, not a list", v)
	}
}

// columnValue stores times in the same text form that filter parameters
// are bound in. RFC 3339 strings of datetime properties are rewritten to
// that form too.
func columnValue(prop *recordtypes.Property, v any) any {
	switch val := v.(type) {
	case time.Time:
		return params.ValueString(val)
	case string:
		if prop.Type != recordtypes.TypeDatetime {
			return val
		}
		if t, err := time.Parse(time.RFC3339Nano, val); err == nil {
			return params.ValueString(t)
		}
	}
	return v
}
