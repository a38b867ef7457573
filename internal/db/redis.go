package db

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "inkpad:"

type redisStore struct{ rdb *redis.Client }

func openRedis(ctx context.Context, url string) (Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &redisStore{rdb: rdb}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return v, err
}

// Put uses SET, which replaces the value atomically.
func (s *redisStore) Put(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, redisPrefix+key, value, 0).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisPrefix+key).Err()
}

func (s *redisStore) Close() error { return s.rdb.Close() }
