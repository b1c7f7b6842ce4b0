// Package memo is the time-bounded memoization cache injected into services.
// Entries are keyed by function identity plus normalized arguments and expire
// after a TTL. Values are msgpack encoded and lz4 compressed before they reach
// a backend, so backends only ever see opaque bytes.
package memo

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Cache is a byte-level TTL store
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Purge(ctx context.Context) error
	Name() string
}

// Memoizer memoizes function results in a Cache
type Memoizer struct {
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewMemoizer creates a memoizer. A nil cache disables memoization.
func NewMemoizer(cache Cache, ttl time.Duration, log zerolog.Logger) *Memoizer {
	return &Memoizer{
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "memo").Logger(),
	}
}

// Backend returns the backend name, or "none"
func (m *Memoizer) Backend() string {
	if m == nil || m.cache == nil {
		return "none"
	}
	return m.cache.Name()
}

// Invalidate drops the entry for fn and args
func (m *Memoizer) Invalidate(ctx context.Context, fn string, args ...interface{}) error {
	if m == nil || m.cache == nil {
		return nil
	}
	return m.cache.Delete(ctx, Key(fn, args...))
}

// Do returns the cached result of fn(args) or computes and stores it.
// Errors from compute are returned as-is and never cached. Cache failures are
// logged and fall through to compute.
func Do[T any](ctx context.Context, m *Memoizer, fn string, args []interface{}, compute func(ctx context.Context) (T, error)) (T, error) {
	if m == nil || m.cache == nil {
		return compute(ctx)
	}

	key := Key(fn, args...)

	raw, ok, err := m.cache.Get(ctx, key)
	if err != nil {
		m.log.Warn().Err(err).Str("fn", fn).Msg("Cache read failed")
	} else if ok {
		var cached T
		if err := Decode(raw, &cached); err == nil {
			m.log.Debug().Str("fn", fn).Str("key", key).Msg("Cache hit")
			return cached, nil
		}
		m.log.Warn().Err(err).Str("fn", fn).Msg("Discarding undecodable cache entry")
		_ = m.cache.Delete(ctx, key)
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := Encode(value)
	if err != nil {
		m.log.Warn().Err(err).Str("fn", fn).Msg("Failed to encode cache entry")
		return value, nil
	}
	if err := m.cache.Set(ctx, key, encoded, m.ttl); err != nil {
		m.log.Warn().Err(err).Str("fn", fn).Msg("Failed to store cache entry")
	}

	return value, nil
}
