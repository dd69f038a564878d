package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Well-known setting keys.
const (
	SettingInsuranceFee   = "pricing.insurance_fee"
	SettingBaseFineMonths = "termination.base_fine_months"
	SettingMatchLimit     = "matching.max_results"
)

// Settings serves tunable business parameters. Implementations are injected
// into the usecases; there is no process-global settings state. Reads may be
// stale up to the configured TTL; Invalidate forces the next read through.
type Settings interface {
	Decimal(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal
	Int(ctx context.Context, key string, def int) int
	Invalidate(ctx context.Context, key string) error
}

const settingsKeyPrefix = "settings:"

type cachedValue struct {
	raw       string
	ok        bool
	expiresAt time.Time
}

// RedisSettings reads settings from redis with a small in-process
// read-through cache. Missing or unparsable values fall back to the default
// passed by the caller, so a cold store is always safe.
type RedisSettings struct {
	rdb *redis.Client
	ttl time.Duration

	mu    sync.Mutex
	local map[string]cachedValue
}

func NewRedisSettings(rdb *redis.Client, ttl time.Duration) *RedisSettings {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSettings{rdb: rdb, ttl: ttl, local: make(map[string]cachedValue)}
}

func (s *RedisSettings) Decimal(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal {
	raw, ok := s.fetch(ctx, key)
	if !ok {
		return def
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return def
	}
	return d
}

func (s *RedisSettings) Int(ctx context.Context, key string, def int) int {
	raw, ok := s.fetch(ctx, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func (s *RedisSettings) Invalidate(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.local, key)
	s.mu.Unlock()
	return s.rdb.Del(ctx, settingsKeyPrefix+key).Err()
}

// Set writes a value through to redis and drops the local copy.
func (s *RedisSettings) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	delete(s.local, key)
	s.mu.Unlock()
	return s.rdb.Set(ctx, settingsKeyPrefix+key, value, 0).Err()
}

func (s *RedisSettings) fetch(ctx context.Context, key string) (string, bool) {
	now := time.Now()
	s.mu.Lock()
	if c, ok := s.local[key]; ok && now.Before(c.expiresAt) {
		s.mu.Unlock()
		return c.raw, c.ok
	}
	s.mu.Unlock()

	raw, err := s.rdb.Get(ctx, settingsKeyPrefix+key).Result()
	found := err == nil
	if err != nil && err != redis.Nil {
		// store unreachable: don't cache, let the caller use its default
		return "", false
	}

	s.mu.Lock()
	s.local[key] = cachedValue{raw: raw, ok: found, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return raw, found
}

// StaticSettings is a fixed in-memory implementation for tests and tooling.
type StaticSettings map[string]string

func (s StaticSettings) Decimal(_ context.Context, key string, def decimal.Decimal) decimal.Decimal {
	if raw, ok := s[key]; ok {
		if d, err := decimal.NewFromString(raw); err == nil {
			return d
		}
	}
	return def
}

func (s StaticSettings) Int(_ context.Context, key string, def int) int {
	if raw, ok := s[key]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return def
}

func (s StaticSettings) Invalidate(_ context.Context, key string) error {
	delete(s, key)
	return nil
}
