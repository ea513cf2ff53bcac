package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"schoolrecords/internal/database"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type querier struct {
	db      DBTX
	dialect database.Dialect
	timeout time.Duration
}

func (q querier) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, q.timeout)
}

// Execute runs a parameterized statement and returns the rows affected.
func (q querier) Execute(ctx context.Context, stmt string, args ...any) (int64, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	res, err := q.db.ExecContext(ctx, q.dialect.Rebind(stmt), args...)
	if err != nil {
		return 0, &StoreError{Op: "execute", Stmt: stmt, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StoreError{Op: "rows affected", Stmt: stmt, Err: err}
	}
	return n, nil
}

// Query runs a parameterized query and hands every row to scan. Rows are
// consumed before Query returns.
func (q querier) Query(ctx context.Context, stmt string, scan func(*sql.Rows) error, args ...any) error {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	rows, err := q.db.QueryContext(ctx, q.dialect.Rebind(stmt), args...)
	if err != nil {
		return &StoreError{Op: "query", Stmt: stmt, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return &StoreError{Op: "scan", Stmt: stmt, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &StoreError{Op: "query", Stmt: stmt, Err: err}
	}
	return nil
}

// queryOne is Query for statements expected to return at most one row.
func (q querier) queryOne(ctx context.Context, stmt string, scan func(*sql.Rows) error, args ...any) error {
	found := false
	err := q.Query(ctx, stmt, func(rows *sql.Rows) error {
		if found {
			return nil
		}
		found = true
		return scan(rows)
	}, args...)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// AccountStore is the only path from the account manager to the database.
type AccountStore struct {
	querier
	db *sql.DB

	Users    *UserRepository
	Students *StudentRepository
	Teachers *TeacherRepository
}

func NewAccountStore(db *sql.DB, dialect database.Dialect, timeout time.Duration) *AccountStore {
	s := &AccountStore{db: db}
	s.bind(querier{db: db, dialect: dialect, timeout: timeout})
	return s
}

func (s *AccountStore) bind(q querier) {
	s.querier = q
	s.Users = &UserRepository{querier: q}
	s.Students = &StudentRepository{querier: q}
	s.Teachers = &TeacherRepository{querier: q}
}

// WithTx runs fn against a store bound to one transaction. The transaction
// commits if fn returns nil and rolls back otherwise.
func (s *AccountStore) WithTx(ctx context.Context, fn func(tx *AccountStore) error) (err error) {
	if s.db == nil {
		return errors.New("repository: nested transaction")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "begin", Err: err}
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
	}()

	txStore := &AccountStore{}
	txStore.bind(querier{db: tx, dialect: s.dialect, timeout: s.timeout})
	if err = fn(txStore); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return &StoreError{Op: "commit", Err: err}
	}
	return nil
}

// Clear deletes every account and role row and zeroes the counts row.
func (s *AccountStore) Clear(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *AccountStore) error {
		for _, stmt := range tx.dialect.ClearStatements() {
			if _, err := tx.Execute(ctx, stmt); err != nil {
				return err
			}
		}
		_, err := tx.Execute(ctx, `UPDATE counts SET usrcnt = 0, stdcnt = 0, tchcnt = 0 WHERE id = 1`)
		return err
	})
}
