// Package store is the key-value document store shared by the comparison cache
// and conversation memory. Backends only need get, put, delete and list-by-prefix.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("STORE_KEY_NOT_FOUND")

// ErrUnavailable wraps backend failures.
var ErrUnavailable = errors.New("STORE_UNAVAILABLE")

// Store is implemented by MemoryStore, RedisStore and PostgresStore.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes value. A positive ttl lets the backend expire the key on its own.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// List returns every live key starting with prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
}

type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix namespaces every key under prefix + ":".
func WithPrefix(s Store, prefix string) Store {
	if prefix == "" {
		return s
	}
	return &prefixed{inner: s, prefix: prefix + ":"}
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.inner.Put(ctx, p.prefix+key, value, ttl)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *prefixed) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.inner.List(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, p.prefix)
	}
	return keys, nil
}

func (p *prefixed) Ping(ctx context.Context) error {
	return p.inner.Ping(ctx)
}
