package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisBucketTTL bounds memory use. Keys embed the day, so anything older than
// the day boundary plus timezone skew is dead weight.
const redisBucketTTL = 48 * time.Hour

// RedisStore keeps each bucket as a hash under <prefix>:<rowKey>.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a store using the given key prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if client == nil {
		panic("ratelimit: redis client required")
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: redisBucketTTL}
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + ":" + key
}

// Get loads the bucket for key, or returns ErrBucketNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (*Bucket, error) {
	fields, err := s.client.HGetAll(ctx, s.redisKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrBucketNotFound
	}
	count, err := strconv.Atoi(fields["count"])
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis count %q: %w", fields["count"], err)
	}
	b := &Bucket{
		Key:    key,
		IP:     fields["ip"],
		UAHash: fields["uaHash"],
		DayKey: fields["dayKey"],
		Count:  count,
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["createdAt"])
	b.LastRequest, _ = time.Parse(time.RFC3339Nano, fields["lastRequest"])
	return b, nil
}

// createScript writes the whole bucket and its TTL in one step. It returns 0
// when the key already exists.
var createScript = redis.NewScript(`
if redis.call("HSETNX", KEYS[1], "count", ARGV[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], "ip", ARGV[2], "uaHash", ARGV[3], "dayKey", ARGV[4], "createdAt", ARGV[5], "lastRequest", ARGV[6])
redis.call("EXPIRE", KEYS[1], ARGV[7])
return 1
`)

// incrementScript bumps an existing bucket and refreshes its TTL. It returns
// 0 when the key is gone, so an expired bucket is never recreated partially.
var incrementScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HINCRBY", KEYS[1], "count", 1)
redis.call("HSET", KEYS[1], "lastRequest", ARGV[1])
redis.call("EXPIRE", KEYS[1], ARGV[2])
return 1
`)

// Create stores a new bucket, or returns ErrBucketExists.
func (s *RedisStore) Create(ctx context.Context, b *Bucket) error {
	created, err := createScript.Run(ctx, s.client, []string{s.redisKey(b.Key)},
		b.Count,
		b.IP,
		b.UAHash,
		b.DayKey,
		b.CreatedAt.UTC().Format(time.RFC3339Nano),
		b.LastRequest.UTC().Format(time.RFC3339Nano),
		int64(s.ttl/time.Second),
	).Int()
	if err != nil {
		return fmt.Errorf("ratelimit: redis create: %w", err)
	}
	if created == 0 {
		return ErrBucketExists
	}
	return nil
}

// Increment adds one to the bucket count, or returns ErrBucketNotFound.
func (s *RedisStore) Increment(ctx context.Context, key string, at time.Time) error {
	updated, err := incrementScript.Run(ctx, s.client, []string{s.redisKey(key)},
		at.UTC().Format(time.RFC3339Nano),
		int64(s.ttl/time.Second),
	).Int()
	if err != nil {
		return fmt.Errorf("ratelimit: redis increment: %w", err)
	}
	if updated == 0 {
		return ErrBucketNotFound
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
