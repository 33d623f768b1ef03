package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/recfilter/internal/dialect"
	"github.com/roach88/recfilter/internal/recordtypes"
)

// SchemaDDL returns the CREATE TABLE statements for every table of rt,
// container tables first.
func SchemaDDL(d dialect.Dialect, rt *recordtypes.RecordType) []string {
	shapes := rt.Shapes()
	stmts := make([]string, 0, len(shapes))
	for _, shape := range shapes {
		stmts = append(stmts, createTable(d, shape))
	}
	return stmts
}

func createTable(d dialect.Dialect, shape *recordtypes.Shape) string {
	id := shape.ID()
	cols := []string{d.QuoteIdentifier(id.Column) + " " + columnType(d, id.Type) + " PRIMARY KEY"}

	if shape.Parent != nil {
		parentID := shape.Parent.ID()
		cols = append(cols, fmt.Sprintf("%s %s NOT NULL REFERENCES %s (%s)",
			d.QuoteIdentifier(shape.ParentColumn), columnType(d, parentID.Type),
			d.QuoteIdentifier(shape.Parent.Table), d.QuoteIdentifier(parentID.Column)))
	}

	for _, p := range shape.Properties {
		if p.Collection || p.Name == shape.IDProperty {
			continue
		}
		col := d.QuoteIdentifier(p.Column) + " " + columnType(d, p.Type)
		if !p.Optional {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", d.QuoteIdentifier(shape.Table), strings.Join(cols, ", "))
}

func columnType(d dialect.Dialect, t recordtypes.ValueType) string {
	if d.Name() == "postgres" {
		switch t {
		case recordtypes.TypeInteger:
			return "BIGINT"
		case recordtypes.TypeNumber:
			return "DOUBLE PRECISION"
		case recordtypes.TypeBoolean:
			return "BOOLEAN"
		case recordtypes.TypeDatetime:
			return "TIMESTAMPTZ"
		default:
			return "TEXT"
		}
	}

	switch t {
	case recordtypes.TypeInteger, recordtypes.TypeBoolean:
		return "INTEGER"
	case recordtypes.TypeNumber:
		return "REAL"
	default:
		return "TEXT"
	}
}

// CreateSchema creates the tables of rt if they do not exist.
func (s *Store) CreateSchema(ctx context.Context, rt *recordtypes.RecordType) error {
	for _, stmt := range SchemaDDL(s.dialect, rt) {
		s.logger.Debug("creating table", "sql", stmt)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema for %s: %w", rt.Name, err)
		}
	}
	return nil
}
