package postgres_test

import (
	"context"
	"errors"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowStub implements pgx.Row
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// rowsStub implements pgx.Rows over a fixed set of value rows.
type rowsStub struct {
	rows [][]any
	idx  int
	err  error
}

func (r *rowsStub) Close()                                       {}
func (r *rowsStub) Err() error                                   { return r.err }
func (r *rowsStub) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *rowsStub) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *rowsStub) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}

func (r *rowsStub) Scan(dest ...any) error {
	return assign(dest, r.rows[r.idx-1])
}

func (r *rowsStub) Values() ([]any, error) { return r.rows[r.idx-1], nil }
func (r *rowsStub) RawValues() [][]byte    { return nil }
func (r *rowsStub) Conn() *pgx.Conn        { return nil }

// assign copies stub values into Scan destinations.
func assign(dest []any, vals []any) error {
	if len(dest) != len(vals) {
		return errors.New("stub: scan arity mismatch")
	}
	for i, v := range vals {
		dv := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		sv := reflect.ValueOf(v)
		if sv.Type() != dv.Type() && sv.Type().ConvertibleTo(dv.Type()) {
			sv = sv.Convert(dv.Type())
		}
		dv.Set(sv)
	}
	return nil
}

// poolStub implements postgres.PgxPool for tests. Define it in a shared
// helper so multiple *_test.go files can reuse it without redefs.
type poolStub struct {
	execErr  error
	queryErr error
	row      rowStub
	rows     *rowsStub

	gotSQL  []string
	gotArgs [][]any
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.gotSQL = append(p.gotSQL, sql)
	p.gotArgs = append(p.gotArgs, args)
	return pgconn.CommandTag{}, p.execErr
}

func (p *poolStub) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.gotSQL = append(p.gotSQL, sql)
	p.gotArgs = append(p.gotArgs, args)
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	if p.rows == nil {
		return &rowsStub{}, nil
	}
	return p.rows, nil
}

func (p *poolStub) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.gotSQL = append(p.gotSQL, sql)
	p.gotArgs = append(p.gotArgs, args)
	if p.row.scan == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}
