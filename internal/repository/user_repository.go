package repository

import (
	"context"
	"database/sql"
	"fmt"

	"schoolrecords/internal/entity"
)

type UserRepository struct {
	querier
}

type User struct {
	ID        int64
	FirstName string
	LastName  string
	Gender    entity.Gender
	Username  string
	Password  string
	// Role is empty for rows created before the role column existed.
	Role entity.Kind
}

// Credential is the part of a user row needed to authenticate.
type Credential struct {
	ID       int64
	Password string
}

// FindCredentials returns every account sharing username. Usernames are not
// unique, so more than one row is a valid answer.
func (r *UserRepository) FindCredentials(ctx context.Context, username string) ([]Credential, error) {
	var creds []Credential
	err := r.Query(ctx, `
		SELECT id, password FROM users WHERE username = $1 ORDER BY id
	`, func(rows *sql.Rows) error {
		var c Credential
		if err := rows.Scan(&c.ID, &c.Password); err != nil {
			return err
		}
		creds = append(creds, c)
		return nil
	}, username)
	return creds, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.queryOne(ctx, `
		SELECT id, first_name, last_name, gender, username, role FROM users WHERE id = $1
	`, func(rows *sql.Rows) error {
		var gender bool
		var role sql.NullString
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &gender, &u.Username, &role); err != nil {
			return err
		}
		u.Gender = entity.Gender(gender)
		u.Role = entity.Kind(role.String)
		return nil
	}, id)
	return u, err
}

func (r *UserRepository) Insert(ctx context.Context, u User) error {
	var role any
	if u.Role != "" {
		role = string(u.Role)
	}
	_, err := r.Execute(ctx, `
		INSERT INTO users (id, first_name, last_name, gender, username, password, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, u.FirstName, u.LastName, bool(u.Gender), u.Username, u.Password, role)
	return err
}

func (r *UserRepository) UpdatePasswordByID(ctx context.Context, id int64, digest string) (int64, error) {
	return r.Execute(ctx, `UPDATE users SET password = $1 WHERE id = $2`, digest, id)
}

// UpdatePasswordByUsername changes the digest of every account sharing username.
func (r *UserRepository) UpdatePasswordByUsername(ctx context.Context, username, digest string) (int64, error) {
	return r.Execute(ctx, `UPDATE users SET password = $1 WHERE username = $2`, digest, username)
}

// NextID returns one past the highest user ID, or 0 for an empty table.
func (r *UserRepository) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := r.queryOne(ctx, `SELECT COALESCE(MAX(id), -1) + 1 FROM users`, func(rows *sql.Rows) error {
		return rows.Scan(&next)
	})
	return next, err
}

// RaiseUserCount moves usrcnt up to n. It never lowers it.
func (r *UserRepository) RaiseUserCount(ctx context.Context, n int64) (int64, error) {
	return r.Execute(ctx, `UPDATE counts SET usrcnt = $1 WHERE id = 1 AND usrcnt < $2`, n, n)
}

func (r *UserRepository) Counts(ctx context.Context) (entity.Counts, error) {
	var c entity.Counts
	err := r.queryOne(ctx, `SELECT usrcnt, stdcnt, tchcnt FROM counts WHERE id = 1`, func(rows *sql.Rows) error {
		return rows.Scan(&c.Users, &c.Students, &c.Teachers)
	})
	return c, err
}

// BumpCounts records one created account of kind in the counts row.
func (r *UserRepository) BumpCounts(ctx context.Context, kind entity.Kind) error {
	var stmt string
	switch kind {
	case entity.KindStudent:
		stmt = `UPDATE counts SET usrcnt = usrcnt + 1, stdcnt = stdcnt + 1 WHERE id = 1`
	case entity.KindTeacher:
		stmt = `UPDATE counts SET usrcnt = usrcnt + 1, tchcnt = tchcnt + 1 WHERE id = 1`
	default:
		return fmt.Errorf("repository: unknown kind %q", kind)
	}
	n, err := r.Execute(ctx, stmt)
	if err != nil {
		return err
	}
	if n != 1 {
		return &StoreError{Op: "bump counts", Stmt: stmt, Err: ErrNotFound}
	}
	return nil
}
