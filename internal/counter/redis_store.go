package counter

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"schoolrecords/internal/entity"
)

const (
	fieldUsers    = "usrcnt"
	fieldStudents = "stdcnt"
	fieldTeachers = "tchcnt"
)

// RedisStore keeps counts in a hash with fields usrcnt, stdcnt and tchcnt.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = "records:counts"
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (entity.Counts, error) {
	data, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return entity.Counts{}, fmt.Errorf("counter: redis HGETALL %s: %w", s.key, err)
	}
	if len(data) == 0 {
		return entity.Counts{}, ErrNotFound
	}

	var counts entity.Counts
	for field, dst := range map[string]*int64{
		fieldUsers:    &counts.Users,
		fieldStudents: &counts.Students,
		fieldTeachers: &counts.Teachers,
	} {
		raw, ok := data[field]
		if !ok {
			return entity.Counts{}, fmt.Errorf("%w: missing field %s", ErrCorrupt, field)
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return entity.Counts{}, fmt.Errorf("%w: field %s: %v", ErrCorrupt, field, err)
		}
		*dst = n
	}
	return counts, nil
}

func (s *RedisStore) Save(ctx context.Context, counts entity.Counts) error {
	err := s.client.HSet(ctx, s.key, map[string]interface{}{
		fieldUsers:    counts.Users,
		fieldStudents: counts.Students,
		fieldTeachers: counts.Teachers,
	}).Err()
	if err != nil {
		return fmt.Errorf("counter: redis HSET %s: %w", s.key, err)
	}
	return nil
}
