package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prasanth-t0205/quiz-compiler/internal/model"
)

// RedisStore keeps checkpoints in Redis. Intended for lab/kiosk fleets
// where a local Redis survives the browser shell and lets a candidate move
// between machines mid-exam.
type RedisStore struct {
	rdb   *redis.Client
	codec Codec
	ttl   time.Duration
}

// NewRedisStore wraps an existing Redis client. A zero ttl keeps snapshots
// until cleared.
func NewRedisStore(rdb *redis.Client, codec Codec, ttl time.Duration) *RedisStore {
	if codec == nil {
		codec = JSON()
	}
	return &RedisStore{rdb: rdb, codec: codec, ttl: ttl}
}

// DialRedis creates and validates a Redis client connection.
func DialRedis(ctx context.Context, redisURL string, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}

// checkpointKey returns the cache key for a test's checkpoint record.
func checkpointKey(testID string) string {
	return fmt.Sprintf("test:%s:checkpoint", testID)
}

func (s *RedisStore) Save(ctx context.Context, testID string, snap *model.Snapshot) error {
	payload, err := s.codec.Encode(snap)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := s.rdb.Set(ctx, checkpointKey(testID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, testID string) (*model.Snapshot, error) {
	payload, err := s.rdb.Get(ctx, checkpointKey(testID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return s.codec.Decode(payload)
}

func (s *RedisStore) Clear(ctx context.Context, testID string) error {
	if err := s.rdb.Del(ctx, checkpointKey(testID)).Err(); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}
