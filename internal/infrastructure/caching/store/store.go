// Package store defines the keyed cache store contract and its adapters.
// The store is a shared remote key-value service; everything above it
// (key schemas, invalidation, stampede protection) lives in the manager.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// ErrStoreUnavailable is returned when the store cannot be reached or a call
// timed out. Callers treat it as a signal to fall back to the data source.
var ErrStoreUnavailable = errors.New("cache: store unavailable")

// KeyedCacheStore is the contract a remote key-value store must satisfy.
// Keys are namespaced strings of the form prefix:entity:id:variant.
// DeletePrefix drops every key under a namespace segment; invalidation uses
// it so cascades reach keys written by other processes and past restarts.
type KeyedCacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Ping(ctx context.Context) (time.Duration, error)
}
