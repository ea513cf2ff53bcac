// Package account authenticates users and creates student and teacher
// accounts.
//
// An account is a users row plus exactly one students or teachers row with
// the same ID. Both rows, and the counts row, are written in one transaction
// while the identifier counter is held, so a failed creation leaves nothing
// behind and never consumes an ID.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolrecords/internal/counter"
	"schoolrecords/internal/credential"
	"schoolrecords/internal/enrollment"
	"schoolrecords/internal/entity"
	"schoolrecords/internal/repository"
)

const DefaultMinPasswordLength = 8

type Options struct {
	MinPasswordLength int
}

type Manager struct {
	store   *repository.AccountStore
	counter *counter.Counter
	hasher  credential.Hasher
	codec   *enrollment.Codec
	logger  *zap.Logger
	opts    Options
}

func New(store *repository.AccountStore, cnt *counter.Counter, hasher credential.Hasher, codec *enrollment.Codec, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if codec == nil {
		codec = enrollment.New(enrollment.Strict)
	}
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = DefaultMinPasswordLength
	}
	return &Manager{
		store:   store,
		counter: cnt,
		hasher:  hasher,
		codec:   codec,
		logger:  logger,
		opts:    opts,
	}
}

// Counts returns the in-memory account totals.
func (m *Manager) Counts() entity.Counts {
	return m.counter.Snapshot()
}

// Sync moves the counter forward to the store's counts row when the row has
// seen more accounts, e.g. after a crash lost the side file. User rows above
// the counted total (orphans left without a role row) are skipped over so the
// next ID is always free.
func (m *Manager) Sync(ctx context.Context) error {
	stored, err := m.store.Users.Counts(ctx)
	if err != nil {
		return fmt.Errorf("account: read counts: %w", err)
	}
	next, err := m.store.Users.NextID(ctx)
	if err != nil {
		return fmt.Errorf("account: read next id: %w", err)
	}
	if next > stored.Users {
		m.logger.Warn("Skipping user IDs without counted accounts",
			zap.Int64("counted", stored.Users), zap.Int64("next", next))
		if _, err := m.store.Users.RaiseUserCount(ctx, next); err != nil {
			return fmt.Errorf("account: raise counts: %w", err)
		}
		stored.Users = next
	}
	if m.counter.Adopt(stored) {
		m.logger.Warn("Counter was behind the store", zap.Stringer("counts", stored))
	}
	return nil
}

// Login returns the ID of the single account matching username and password.
func (m *Manager) Login(ctx context.Context, username, password string) (int64, error) {
	creds, err := m.store.Users.FindCredentials(ctx, username)
	if err != nil {
		return 0, err
	}
	if len(creds) == 0 {
		return 0, ErrNoAccount
	}

	var matched []repository.Credential
	for _, c := range creds {
		ok, err := m.hasher.Verify(password, c.Password)
		if err != nil {
			m.logger.Warn("Stored digest unreadable", zap.Int64("id", c.ID), zap.Error(err))
			continue
		}
		if ok {
			matched = append(matched, c)
		}
	}

	switch len(matched) {
	case 0:
		return 0, ErrPasswordMismatch
	case 1:
		m.rehash(ctx, matched[0], password)
		return matched[0].ID, nil
	}
	ids := make([]int64, len(matched))
	for i, c := range matched {
		ids[i] = c.ID
	}
	m.logger.Warn("Duplicate accounts matched login",
		zap.String("username", username), zap.Int64s("ids", ids))
	return 0, ErrDuplicateAccounts
}

type rehasher interface {
	NeedsRehash(stored string) bool
}

// rehash replaces a legacy or outdated digest after a successful login. A
// failure only costs the upgrade, never the login.
func (m *Manager) rehash(ctx context.Context, c repository.Credential, password string) {
	r, ok := m.hasher.(rehasher)
	if !ok || !r.NeedsRehash(c.Password) {
		return
	}
	digest, err := m.hasher.Hash(password)
	if err == nil {
		_, err = m.store.Users.UpdatePasswordByID(ctx, c.ID, digest)
	}
	if err != nil {
		m.logger.Warn("Digest upgrade failed", zap.Int64("id", c.ID), zap.Error(err))
		return
	}
	m.logger.Info("Digest upgraded", zap.Int64("id", c.ID))
}

// LoginProfile authenticates and loads the full person record.
func (m *Manager) LoginProfile(ctx context.Context, username, password string) (*entity.Person, error) {
	id, err := m.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return m.Profile(ctx, id)
}

// Profile loads the person with the given account ID. Rows written before
// the role column existed are resolved by probing students, then teachers.
func (m *Manager) Profile(ctx context.Context, id int64) (*entity.Person, error) {
	u, err := m.store.Users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoAccount
	}
	if err != nil {
		return nil, err
	}

	person := &entity.Person{
		FirstName: strings.TrimSpace(u.FirstName),
		LastName:  strings.TrimSpace(u.LastName),
		Gender:    u.Gender,
	}

	switch u.Role {
	case entity.KindStudent:
		person.Enrollment, err = m.loadStudent(ctx, id)
	case entity.KindTeacher:
		person.Enrollment, err = m.loadTeacher(ctx, id, person.FullName())
	default:
		person.Enrollment, err = m.probeRole(ctx, id, person.FullName())
	}
	if errors.Is(err, repository.ErrNotFound) {
		m.logger.Warn("Account has no role row", zap.Int64("id", id), zap.String("role", string(u.Role)))
		return nil, ErrNoAccount
	}
	if err != nil {
		return nil, err
	}
	return person, nil
}

func (m *Manager) probeRole(ctx context.Context, id int64, fullName string) (entity.Enrollment, error) {
	student, err := m.loadStudent(ctx, id)
	if err == nil {
		return student, nil
	}
	if !isLookupMiss(err) {
		return nil, err
	}
	teacher, err := m.loadTeacher(ctx, id, fullName)
	if err == nil {
		return teacher, nil
	}
	if !isLookupMiss(err) {
		return nil, err
	}
	return nil, repository.ErrNotFound
}

// isLookupMiss reports failures that mean "not this role" while probing.
func isLookupMiss(err error) bool {
	var storeErr *repository.StoreError
	return errors.Is(err, repository.ErrNotFound) || errors.As(err, &storeErr)
}

func (m *Manager) loadStudent(ctx context.Context, id int64) (entity.Student, error) {
	row, err := m.store.Students.FindByID(ctx, id)
	if err != nil {
		return entity.Student{}, err
	}
	classes, err := m.codec.DecodeStudent(row.Classes, row.Grade)
	if err != nil {
		return entity.Student{}, fmt.Errorf("account: student %d classes: %w", id, err)
	}
	var section rune
	if r := []rune(row.Section); len(r) > 0 {
		section = r[0]
	}
	return entity.Student{Classes: classes, Grade: row.Grade, Section: section}, nil
}

func (m *Manager) loadTeacher(ctx context.Context, id int64, fullName string) (entity.Teacher, error) {
	row, err := m.store.Teachers.FindByID(ctx, id)
	if err != nil {
		return entity.Teacher{}, err
	}
	subject := entity.Subject(row.Subject)
	classes, err := m.codec.DecodeTeacher(row.Classes, subject, fullName)
	if err != nil {
		return entity.Teacher{}, fmt.Errorf("account: teacher %d classes: %w", id, err)
	}
	return entity.Teacher{Subject: subject, Classes: classes, HOD: row.HOD}, nil
}

// ChangePassword replaces the password of the account that authenticates
// with current.
func (m *Manager) ChangePassword(ctx context.Context, username, current, next string) error {
	id, err := m.Login(ctx, username, current)
	if err != nil {
		return err
	}
	digest, err := m.digest(next)
	if err != nil {
		return err
	}
	n, err := m.store.Users.UpdatePasswordByID(ctx, id, digest)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoAccount
	}
	m.logger.Info("Password changed", zap.Int64("id", id))
	return nil
}

// ResetPassword sets the password of every account named username without
// checking the old one. It is an administrative operation.
func (m *Manager) ResetPassword(ctx context.Context, username, next string) (int64, error) {
	digest, err := m.digest(next)
	if err != nil {
		return 0, err
	}
	n, err := m.store.Users.UpdatePasswordByUsername(ctx, username, digest)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoAccount
	}
	m.logger.Warn("Password reset", zap.String("username", username), zap.Int64("accounts", n))
	return n, nil
}

// Clear deletes every account and zeroes the counter. Not for production use.
func (m *Manager) Clear(ctx context.Context) error {
	err := m.counter.ResetAfter(ctx, func() error {
		return m.store.Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("account: clear: %w", err)
	}
	m.logger.Warn("All accounts cleared")
	return nil
}

func (m *Manager) digest(password string) (string, error) {
	if len([]rune(password)) < m.opts.MinPasswordLength {
		return "", fmt.Errorf("%w: at least %d characters", ErrPasswordPolicy, m.opts.MinPasswordLength)
	}
	return m.hasher.Hash(password)
}

func newOpID() string {
	return uuid.NewString()
}
