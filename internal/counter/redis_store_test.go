package counter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schoolrecords/internal/entity"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "test:counts"), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	want := entity.Counts{Users: 3, Students: 2, Teachers: 1}
	require.NoError(t, store.Save(ctx, want))
	assert.Equal(t, "2", mr.HGet("test:counts", "stdcnt"))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRedisStoreCorruptField(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.HSet("test:counts", "usrcnt", "many", "stdcnt", "1", "tchcnt", "0")

	_, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrCorrupt)

	c, err := Load(context.Background(), store, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, entity.Counts{}, c.Snapshot())
}

func TestCounterOverRedis(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	c, err := Load(ctx, store, zaptest.NewLogger(t))
	require.NoError(t, err)
	_, err = c.Reserve(ctx, entity.KindStudent, func(int64) error { return nil })
	require.NoError(t, err)

	again, err := Load(ctx, store, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, entity.Counts{Users: 1, Students: 1}, again.Snapshot())
}
