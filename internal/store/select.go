package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/recfilter/internal/querytree"
)

// Statement renders the SELECT that returns the ids of the records matched
// by tr. The placeholders in tr.Where are kept as rendered by the dialect.
func Statement(tr *querytree.Translation) (string, error) {
	q := tr.Query
	b := sq.Select(q.IDColumn()).Distinct().From(q.FromTable())
	for _, j := range q.Joins {
		b = b.LeftJoin(j.String())
	}
	if tr.Where != "" {
		b = b.Where(tr.Where)
	}
	stmt, _, err := b.OrderBy(q.IDColumn()).ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}
	return stmt, nil
}

// Select binds values to the parameters of tr and returns the ids of the
// matching records in id order. tr must have been translated for the
// dialect of the store.
//
// Returns an empty slice (not nil) if no record matches.
func (s *Store) Select(ctx context.Context, tr *querytree.Translation, values map[string]any) ([]any, error) {
	stmt, err := Statement(tr)
	if err != nil {
		return nil, err
	}
	args, err := tr.Params.Bind(values)
	if err != nil {
		return nil, fmt.Errorf("bind filter parameters: %w", err)
	}

	s.logger.Debug("selecting records",
		"table", tr.Query.Table,
		"sql", stmt,
		"params", len(args),
		"joins", len(tr.Query.Joins))

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tr.Query.Table, err)
	}
	defer rows.Close()

	ids := []any{}
	for rows.Next() {
		var id any
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", tr.Query.Table, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", tr.Query.Table, err)
	}

	s.logger.Info("records selected", "table", tr.Query.Table, "rows", len(ids))
	return ids, nil
}
