package datasets

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kabirhiking/healthcare-data-quality/internal/rules/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	fields []pgconn.FieldDescription
	values [][]any
	pos    int
	err    error
	closed bool
}

func newFakeRows(columns []string, values ...[]any) *fakeRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, c := range columns {
		fields[i] = pgconn.FieldDescription{Name: c}
	}
	return &fakeRows{fields: fields, values: values}
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.values[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	if len(dest) == 1 {
		if rs, ok := dest[0].(pgx.RowScanner); ok {
			return rs.ScanRow(r)
		}
	}
	return errors.New("unsupported scan")
}

type stubQueryer struct {
	rows pgx.Rows
	err  error
	sql  string
	args []any
}

func (q *stubQueryer) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = sql
	q.args = args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestConnQueryCollectsRowsByColumnName(t *testing.T) {
	t.Parallel()

	rows := newFakeRows([]string{"patient_id", "name"},
		[]any{"P001", "Ada"},
		[]any{"P002", nil},
	)
	q := &stubQueryer{rows: rows}
	conn := &Conn{q: q, release: func() {}}

	got, err := conn.Query(context.Background(), "SELECT 1 WHERE $1", "x")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, engine.Row{"patient_id": "P001", "name": "Ada"}, got[0])
	assert.True(t, got[1].IsNull("name"))
	assert.Equal(t, []any{"x"}, q.args)
	assert.True(t, rows.closed)
}

func TestConnQueryClassifiesErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		closed bool
		want   engine.DataAccessErrorKind
	}{
		{name: "undefined table", err: &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, want: engine.DataAccessInvalidQuery},
		{name: "syntax", err: &pgconn.PgError{Code: "42601"}, want: engine.DataAccessInvalidQuery},
		{name: "bad data", err: &pgconn.PgError{Code: "22007"}, want: engine.DataAccessDecodeFailed},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, want: engine.DataAccessConnectionLost},
		{name: "closed conn", err: errors.New("conn closed"), closed: true, want: engine.DataAccessConnectionLost},
		{name: "other", err: errors.New("boom"), want: engine.DataAccessQueryFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			closed := tc.closed
			conn := &Conn{q: &stubQueryer{err: tc.err}, release: func() {}, isClosed: func() bool { return closed }}
			_, err := conn.Query(context.Background(), "SELECT 1")

			var de engine.DataAccessError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tc.want, de.Kind)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestConnQueryRowsErr(t *testing.T) {
	t.Parallel()

	rows := newFakeRows([]string{"id"})
	rows.err = &pgconn.PgError{Code: "42703"}
	conn := &Conn{q: &stubQueryer{rows: rows}, release: func() {}}

	_, err := conn.Query(context.Background(), "SELECT id")
	var de engine.DataAccessError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, engine.DataAccessInvalidQuery, de.Kind)
}

func TestConnReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	released := 0
	conn := &Conn{q: &stubQueryer{}, release: func() { released++ }}
	conn.Release()
	conn.Release()
	assert.Equal(t, 1, released)

	_, err := conn.Query(context.Background(), "SELECT 1")
	var de engine.DataAccessError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, engine.DataAccessConnectionLost, de.Kind)
}

func TestPoolAcquireWithoutPool(t *testing.T) {
	t.Parallel()

	_, err := NewPool(nil).Acquire(context.Background())
	var ce engine.ConnectionError
	require.ErrorAs(t, err, &ce)
}
