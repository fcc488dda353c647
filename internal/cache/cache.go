// Package cache stores serialized discovery results. Two backends are provided:
// an in-process store built on go-cache and a shared Redis store.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by New.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store is a byte-oriented cache with per-entry TTL.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and tunes a backend.
type Config struct {
	Backend       string
	DefaultTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Prefix namespaces every key, e.g. "getlisticled:".
	Prefix string
}

// New builds the configured backend. It returns (nil, nil) when caching is disabled.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemory(cfg.DefaultTTL, cfg.Prefix), nil
	case BackendRedis:
		store, err := NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
