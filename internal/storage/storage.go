package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key holds nothing
	ErrNotFound = errors.New("storage: key not found")
	// ErrQuotaExceeded is returned by Set when the store is full
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// KV is the local key-value store the attendance cache persists into
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects a KV backend
type Options struct {
	Backend    string // memory, file, redis
	Dir        string
	RedisURL   string
	Retention  time.Duration
	QuotaBytes int
}

// Open builds the backend named by opts.Backend
func Open(ctx context.Context, opts Options) (KV, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "memory":
		return NewMemoryStorage(opts.QuotaBytes), nil
	case "file":
		return NewFileStorage(opts.Dir)
	case "redis":
		return NewRedisStorage(ctx, opts.RedisURL, opts.Retention)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}
}
