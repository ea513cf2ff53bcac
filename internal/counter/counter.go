// Package counter tracks how many accounts have been created. The total is
// also the source of new account IDs.
package counter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"schoolrecords/internal/entity"
)

type Counter struct {
	mu     sync.Mutex
	counts entity.Counts
	store  Store
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// Load reads persisted counts. Missing or unusable data starts the counter at
// zero, which is the same as "no accounts yet".
func Load(ctx context.Context, store Store, logger *zap.Logger) (*Counter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Counter{store: store, logger: logger}

	counts, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		logger.Info("No persisted counts, starting from zero")
	case errors.Is(err, ErrCorrupt):
		logger.Warn("Persisted counts unreadable, starting from zero", zap.Error(err))
	case err != nil:
		return nil, err
	case !counts.Valid():
		logger.Warn("Persisted counts inconsistent, starting from zero", zap.Stringer("counts", counts))
	default:
		c.counts = counts
	}
	return c, nil
}

// Next returns the ID the next account will get. It does not advance the
// counter; only a bump does.
func (c *Counter) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts.Users
}

func (c *Counter) BumpStudent() { c.Bump(entity.KindStudent) }

func (c *Counter) BumpTeacher() { c.Bump(entity.KindTeacher) }

// Bump records one created account of the given kind. Call it exactly once per
// completed creation.
func (c *Counter) Bump(kind entity.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bump(kind)
}

func (c *Counter) bump(kind entity.Kind) {
	c.counts.Users++
	switch kind {
	case entity.KindStudent:
		c.counts.Students++
	case entity.KindTeacher:
		c.counts.Teachers++
	}
}

func (c *Counter) Snapshot() entity.Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts
}

// Reserve runs fn with the next ID while holding the counter, then bumps it
// if fn succeeded. Two Reserve calls never see the same ID. The bumped value
// is written through to the store.
func (c *Counter) Reserve(ctx context.Context, kind entity.Kind, fn func(id int64) error) (int64, error) {
	if kind != entity.KindStudent && kind != entity.KindTeacher {
		return 0, fmt.Errorf("counter: unknown kind %q", kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.counts.Users
	if err := fn(id); err != nil {
		return 0, err
	}
	c.bump(kind)

	if err := c.store.Save(ctx, c.counts); err != nil {
		c.logger.Warn("Counts write-through failed", zap.Int64("id", id), zap.Error(err))
	}
	return id, nil
}

// Adopt replaces the in-memory counts when other has seen more accounts.
func (c *Counter) Adopt(other entity.Counts) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !other.Ahead(c.counts) {
		return false
	}
	c.logger.Info("Adopting counts", zap.Stringer("from", c.counts), zap.Stringer("to", other))
	c.counts = other
	return true
}

// Reset zeroes the counter and persists the zero state.
func (c *Counter) Reset(ctx context.Context) error {
	return c.ResetAfter(ctx, func() error { return nil })
}

// ResetAfter runs fn while holding the counter and zeroes it only if fn
// succeeds. No Reserve can run between fn and the reset.
func (c *Counter) ResetAfter(ctx context.Context, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	c.counts = entity.Counts{}
	return c.store.Save(ctx, c.counts)
}

func (c *Counter) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Save(ctx, c.counts)
}

// Close flushes once; later calls return the first result.
func (c *Counter) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeErr = c.Flush(ctx)
		if c.closeErr != nil {
			c.logger.Error("Final counts flush failed", zap.Error(c.closeErr))
			return
		}
		c.logger.Info("Counts flushed", zap.Stringer("counts", c.Snapshot()))
	})
	return c.closeErr
}
