package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recfilter/internal/dialect"
	"github.com/roach88/recfilter/internal/filter"
	"github.com/roach88/recfilter/internal/testutil"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, dialect.Postgres{}), mock
}

func TestSelect_PostgresStatement(t *testing.T) {
	s, mock := newMockStore(t)
	rt := testutil.Order(t)

	tr := translate(t, s, rt, []any{":and", []any{
		[]any{"status", filter.Param{Name: "status"}},
		[]any{"customer containsi", filter.Param{Name: "q"}},
		[]any{"items", []any{[]any{"price gt", filter.Param{Name: "min"}}}},
	}})

	mock.ExpectQuery(`SELECT DISTINCT z.id FROM orders AS z` +
		` WHERE z.status = $1 AND z.customer_name ILIKE $2` +
		` AND EXISTS (SELECT 1 FROM order_items AS s1 WHERE s1.order_id = z.id AND s1.price > $3)` +
		` ORDER BY z.id`).
		WithArgs("open", `%o\_h%`, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)).AddRow(int64(9)))

	ids, err := s.Select(context.Background(), tr, map[string]any{"status": "open", "q": "o_h", "min": 10})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), int64(9)}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_QueryError(t *testing.T) {
	s, mock := newMockStore(t)
	rt := testutil.Order(t)

	tr := translate(t, s, rt, []any{"status", "open"})
	mock.ExpectQuery(`SELECT DISTINCT z.id FROM orders AS z WHERE z.status = 'open' ORDER BY z.id`).
		WillReturnError(assert.AnError)

	_, err := s.Select(context.Background(), tr, nil)
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "query orders")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_PostgresStatements(t *testing.T) {
	s, mock := newMockStore(t)
	rt := testutil.Order(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "orders" ("customer_name","id","status") VALUES ($1,$2,$3)`).
		WithArgs("Ann", 1, "open").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO "order_notes" ("id","order_id","text") VALUES ($1,$2,$3)`).
		WithArgs(5, 1, "hi").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	err := s.Insert(context.Background(), rt, Record{
		"id": 1, "status": "open", "customer": "Ann",
		"notes": []Record{{"id": 5, "text": "hi"}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
