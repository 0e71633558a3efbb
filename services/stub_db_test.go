package services

import (
	"context"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubDB satisfies DB and records every statement so tests can assert on
// which tables a code path touched. Unset hooks succeed with empty results.
type stubDB struct {
	mu       sync.Mutex
	calls    []stubCall
	queryRow func(sql string, args []any) pgx.Row
	query    func(sql string, args []any) (pgx.Rows, error)
	exec     func(sql string, args []any) (pgconn.CommandTag, error)
}

type stubCall struct {
	sql  string
	args []any
}

func (s *stubDB) record(sql string, args []any) {
	s.mu.Lock()
	s.calls = append(s.calls, stubCall{sql: sql, args: args})
	s.mu.Unlock()
}

func (s *stubDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	s.record(sql, args)
	if s.query != nil {
		return s.query(sql, args)
	}
	return emptyRows{}, nil
}

func (s *stubDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	s.record(sql, args)
	if s.queryRow != nil {
		return s.queryRow(sql, args)
	}
	return stubRow{err: pgx.ErrNoRows}
}

func (s *stubDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.record(sql, args)
	if s.exec != nil {
		return s.exec(sql, args)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (s *stubDB) recorded() []stubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stubCall(nil), s.calls...)
}

func (s *stubDB) touched(sqlFragment string) bool {
	for _, c := range s.recorded() {
		if strings.Contains(c.sql, sqlFragment) {
			return true
		}
	}
	return false
}

type stubRow struct {
	err  error
	scan func(dest []any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.scan != nil {
		return r.scan(dest)
	}
	return nil
}

type emptyRows struct{}

func (emptyRows) Close()                                       {}
func (emptyRows) Err() error                                   { return nil }
func (emptyRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (emptyRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (emptyRows) Next() bool                                   { return false }
func (emptyRows) Scan(dest ...any) error                       { return nil }
func (emptyRows) Values() ([]any, error)                       { return nil, nil }
func (emptyRows) RawValues() [][]byte                          { return nil }
func (emptyRows) Conn() *pgx.Conn                              { return nil }
