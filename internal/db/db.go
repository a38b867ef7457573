package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is the durable key-value surface documents and preferences persist
// into. Each Put replaces the whole value for a key atomically.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var ErrNotFound = errors.New("not found")

// Open returns a Store based on a URL: mem://, sqlite://path, redis://..., postgres://...
// A bare path is treated as a sqlite file.
func Open(ctx context.Context, url string) (Store, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "" || strings.HasPrefix(url, "mem://"):
		return newMemStore(), nil
	case strings.HasPrefix(url, "sqlite://"):
		return openSQLite(ctx, url)
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return openRedis(ctx, url)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return openPostgres(ctx, url)
	case !strings.Contains(url, "://"):
		return openSQLite(ctx, "sqlite://"+url)
	default:
		return nil, fmt.Errorf("unsupported store url %q", url)
	}
}
