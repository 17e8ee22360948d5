package report

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is the key prefix used when RedisStore.Prefix is empty.
const DefaultRedisPrefix = "mcp-test-harness:reports"

type redisWriter interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
}

// RedisStore saves each report under <prefix>:<timestamp> and adds the key to the sorted set
// <prefix>:index, scored by the report time, so reports can be listed in order.
type RedisStore struct {
	client redisWriter
	addr   string
	prefix string
}

// NewRedisStore creates a RedisStore from a URL such as "redis://localhost:6379/0".
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts), addr: opts.Addr, prefix: prefix}, nil
}

func (s *RedisStore) String() string { return "redis://" + s.addr }

func (s *RedisStore) Save(ctx context.Context, r AggregateReport) (string, error) {
	data, err := r.MarshalJSON()
	if err != nil {
		return "", err
	}
	prefix := s.prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	key := prefix + ":" + r.Timestamp
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return "", err
	}
	score := float64(0)
	if t, err := time.Parse(TimestampFormat, r.Timestamp); err == nil {
		score = float64(t.UnixMilli())
	}
	if err := s.client.ZAdd(ctx, prefix+":index", redis.Z{Score: score, Member: key}).Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("redis://%s/%s", s.addr, key), nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	if c, ok := s.client.(*redis.Client); ok {
		return c.Close()
	}
	return nil
}
