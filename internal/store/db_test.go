package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestCommandTagAdapter_RowsAffected(t *testing.T) {
	tag := pgconn.NewCommandTag("UPDATE 12")
	got := commandTagAdapter{tag: tag}.RowsAffected()
	if got != 12 {
		t.Fatalf("expected RowsAffected 12, got %d", got)
	}
}

type fakePgxRow struct {
	ScanFunc func(dest ...any) error
}

func (f fakePgxRow) Scan(dest ...any) error {
	if f.ScanFunc != nil {
		return f.ScanFunc(dest...)
	}
	return errors.New("ScanFunc not set")
}

type fakePgxRows struct {
	rows [][]any
	idx  int
	err  error
}

func (f *fakePgxRows) Close()                        {}
func (f *fakePgxRows) Err() error                    { return f.err }
func (f *fakePgxRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (f *fakePgxRows) FieldDescriptions() []pgconn.FieldDescription {
	return nil
}
func (f *fakePgxRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}
func (f *fakePgxRows) Scan(dest ...any) error {
	if f.idx == 0 || f.idx > len(f.rows) {
		return errors.New("scan called without active row")
	}
	return assignRow(dest, f.rows[f.idx-1])
}
func (f *fakePgxRows) Values() ([]any, error) { return nil, errors.New("not implemented") }
func (f *fakePgxRows) RawValues() [][]byte    { return nil }
func (f *fakePgxRows) Conn() *pgx.Conn        { return nil }

type fakePgxPool struct {
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (f *fakePgxPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("UPDATE 0"), nil
}

func (f *fakePgxPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, sql, args...)
	}
	return &fakePgxRows{}, nil
}

func (f *fakePgxPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.QueryRowFunc != nil {
		return f.QueryRowFunc(ctx, sql, args...)
	}
	return fakePgxRow{}
}

func assignRow(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("expected %d destinations, got %d", len(values), len(dest))
	}
	for i, value := range values {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("destination %d is not a pointer", i)
		}
		sv := reflect.ValueOf(value)
		if !sv.IsValid() {
			dv.Elem().Set(reflect.Zero(dv.Elem().Type()))
			continue
		}
		if !sv.Type().AssignableTo(dv.Elem().Type()) {
			return fmt.Errorf("cannot assign %s to destination %d", sv.Type(), i)
		}
		dv.Elem().Set(sv)
	}
	return nil
}

func TestPoolAdapter_ExecDelegates(t *testing.T) {
	pool := &fakePgxPool{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 1"), nil
		},
	}
	adapter := &PoolAdapter{pool: pool}

	tag, err := adapter.Exec(context.Background(), "DELETE FROM reactions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("expected 1 row affected, got %d", tag.RowsAffected())
	}
}

func TestPoolAdapter_QueryError(t *testing.T) {
	queryErr := errors.New("query failed")
	pool := &fakePgxPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return nil, queryErr
		},
	}
	adapter := &PoolAdapter{pool: pool}

	if _, err := adapter.Query(context.Background(), "SELECT 1"); !errors.Is(err, queryErr) {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestPoolAdapter_QueryRowsIterate(t *testing.T) {
	pool := &fakePgxPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &fakePgxRows{rows: [][]any{{"like"}, {"love"}}}, nil
		},
	}
	adapter := &PoolAdapter{pool: pool}

	rows, err := adapter.Query(context.Background(), "SELECT value FROM reactions")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		values = append(values, v)
	}
	if rows.Err() != nil {
		t.Fatalf("rows error: %v", rows.Err())
	}
	if len(values) != 2 || values[0] != "like" || values[1] != "love" {
		t.Fatalf("unexpected values: %v", values)
	}
}

func TestPoolAdapter_QueryRowDelegates(t *testing.T) {
	pool := &fakePgxPool{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return fakePgxRow{ScanFunc: func(dest ...any) error {
				return assignRow(dest, []any{int64(3)})
			}}
		},
	}
	adapter := &PoolAdapter{pool: pool}

	var count int64
	if err := adapter.QueryRow(context.Background(), "SELECT count(*) FROM reactions").Scan(&count); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected count 3, got %d", count)
	}
}
