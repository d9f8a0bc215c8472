package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is the maximum age of a usable entry
const DefaultTTL = 48 * time.Hour

// entry is the persisted envelope around a cached value
type entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// Stats are running counters for a Store
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// Store is a TTL cache over a Backend. It is safe for concurrent use and a
// nil *Store behaves as a cache that always misses.
type Store struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// Option configures a Store
type Option func(*Store)

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store on top of backend
func NewStore(backend Backend, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend: backend,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  logger.With(zap.String("component", "cache")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key. Missing, stale, corrupt and
// unreadable entries are all reported as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if s == nil || s.backend == nil {
		return nil, false
	}

	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.errs.Add(1)
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.misses.Add(1)
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.errs.Add(1)
		s.misses.Add(1)
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	age := s.now().Sub(e.Timestamp)
	if e.Key != key || age > s.ttl || age < 0 {
		s.misses.Add(1)
		s.logger.Debug("cache entry expired", zap.String("key", key), zap.Duration("age", age))
		return nil, false
	}

	s.hits.Add(1)
	return e.Value, true
}

// Set stores value under key, replacing any previous entry. value must be
// valid JSON. Failures are logged and swallowed.
func (s *Store) Set(ctx context.Context, key string, value []byte) {
	if s == nil || s.backend == nil {
		return
	}

	data, err := json.Marshal(entry{Key: key, Value: value, Timestamp: s.now()})
	if err != nil {
		s.errs.Add(1)
		s.logger.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.backend.Set(ctx, key, data, s.ttl); err != nil {
		s.errs.Add(1)
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// GetJSON decodes a cached value into dst
func (s *Store) GetJSON(ctx context.Context, key string, dst any) bool {
	raw, ok := s.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		if s != nil {
			s.errs.Add(1)
			s.logger.Warn("failed to decode cached value", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key
func (s *Store) SetJSON(ctx context.Context, key string, v any) {
	if s == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.errs.Add(1)
		s.logger.Warn("failed to encode cache value", zap.String("key", key), zap.Error(err))
		return
	}
	s.Set(ctx, key, data)
}

// Stats returns a snapshot of the counters
func (s *Store) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Errors: s.errs.Load(),
	}
}
