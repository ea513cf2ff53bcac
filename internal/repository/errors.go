package repository

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("repository: no matching row")

// StoreError wraps any failure reported by the database.
type StoreError struct {
	Op   string
	Stmt string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Stmt == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %q: %v", e.Op, e.Stmt, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
