package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolrecords/internal/database"
	"schoolrecords/internal/database/databasetest"
	"schoolrecords/internal/entity"
	"schoolrecords/internal/repository"
)

func newStore(t *testing.T) *repository.AccountStore {
	t.Helper()
	db, cfg := databasetest.NewSQLite(t)
	dialect, err := database.DialectFor(cfg.Driver)
	require.NoError(t, err)
	return repository.NewAccountStore(db, dialect, 2*time.Second)
}

func insertUser(t *testing.T, s *repository.AccountStore, id int64, first, last string) {
	t.Helper()
	err := s.Users.Insert(context.Background(), repository.User{
		ID: id, FirstName: first, LastName: last, Gender: entity.Female,
		Username: entity.Username(first, last), Password: "digest", Role: entity.KindStudent,
	})
	require.NoError(t, err)
}

func TestFindCredentialsReturnsDuplicates(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	creds, err := s.Users.FindCredentials(ctx, "ada.lovelace")
	require.NoError(t, err)
	assert.Empty(t, creds)

	insertUser(t, s, 0, "Ada", "Lovelace")
	insertUser(t, s, 1, "Ada", "Lovelace")
	insertUser(t, s, 2, "Alan", "Turing")

	creds, err = s.Users.FindCredentials(ctx, "ada.lovelace")
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, int64(0), creds[0].ID)
	assert.Equal(t, int64(1), creds[1].ID)
}

func TestFindByIDNotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Users.FindByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Students.FindByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Teachers.FindByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRoleRowsRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	insertUser(t, s, 0, "Anshuman", "Medhi")
	insertUser(t, s, 1, "Hari", "Prasad")

	require.NoError(t, s.Students.Insert(ctx, repository.Student{ID: 0, Classes: "C1 - English SL", Grade: 11, Section: "B"}))
	require.NoError(t, s.Teachers.Insert(ctx, repository.Teacher{ID: 1, Subject: "Economics", Classes: "C1 11", HOD: true}))

	st, err := s.Students.FindByID(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, repository.Student{ID: 0, Classes: "C1 - English SL", Grade: 11, Section: "B"}, st)

	tc, err := s.Teachers.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, repository.Teacher{ID: 1, Subject: "Economics", Classes: "C1 11", HOD: true}, tc)

	u, err := s.Users.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "hari.prasad", u.Username)
	assert.Equal(t, entity.KindStudent, u.Role)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("role insert failed")

	err := s.WithTx(ctx, func(tx *repository.AccountStore) error {
		insertUser(t, tx, 0, "Orphan", "Row")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users.FindByID(ctx, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *repository.AccountStore) error {
		insertUser(t, tx, 0, "Grace", "Hopper")
		return tx.Users.BumpCounts(ctx, entity.KindStudent)
	})
	require.NoError(t, err)

	counts, err := s.Users.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.Counts{Users: 1, Students: 1}, counts)
}

func TestDuplicateIDIsStoreError(t *testing.T) {
	s := newStore(t)
	insertUser(t, s, 0, "Grace", "Hopper")

	err := s.Users.Insert(context.Background(), repository.User{ID: 0, FirstName: "X", LastName: "Y", Username: "x.y", Password: "d"})
	var storeErr *repository.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "execute", storeErr.Op)
}

func TestExecuteAndQuery(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	insertUser(t, s, 0, "Ada", "Lovelace")
	insertUser(t, s, 1, "Ada", "Lovelace")

	n, err := s.Users.UpdatePasswordByUsername(ctx, "ada.lovelace", "new-digest")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var digests []string
	err = s.Query(ctx, `SELECT password FROM users WHERE username = $1`, func(rows *sql.Rows) error {
		var d string
		if err := rows.Scan(&d); err != nil {
			return err
		}
		digests = append(digests, d)
		return nil
	}, "ada.lovelace")
	require.NoError(t, err)
	assert.Equal(t, []string{"new-digest", "new-digest"}, digests)

	n, err = s.Users.UpdatePasswordByID(ctx, 1, "only-one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Execute(ctx, `UPDATE nowhere SET x = 1`)
	var storeErr *repository.StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestClear(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	insertUser(t, s, 0, "Ada", "Lovelace")
	require.NoError(t, s.Students.Insert(ctx, repository.Student{ID: 0, Grade: 9, Section: "A"}))
	require.NoError(t, s.Users.BumpCounts(ctx, entity.KindStudent))

	require.NoError(t, s.Clear(ctx))

	creds, err := s.Users.FindCredentials(ctx, "ada.lovelace")
	require.NoError(t, err)
	assert.Empty(t, creds)
	_, err = s.Students.FindByID(ctx, 0)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	counts, err := s.Users.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.Counts{}, counts)
}

func TestNextIDAndRaiseUserCount(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	next, err := s.Users.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)

	insertUser(t, s, 4, "Lost", "Soul")
	next, err = s.Users.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), next)

	n, err := s.Users.RaiseUserCount(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// never lowers
	n, err = s.Users.RaiseUserCount(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, n)

	counts, err := s.Users.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.Counts{Users: 5}, counts)
}
