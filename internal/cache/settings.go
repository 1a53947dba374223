// Package cache keeps hot, rarely written rows in Redis.  Every read path
// degrades to the database when Redis is absent or misbehaving; a cache
// failure is logged, never returned.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// SettingsSource loads the settings row from the system of record.
type SettingsSource interface {
	Get(ctx context.Context) (model.Settings, error)
}

// Settings is a read-through cache for the restaurant settings singleton.
// Pricing reads it on every order write, so the row is served from Redis
// until the TTL lapses or an admin edit calls Invalidate.
type Settings struct {
	rdb *redis.Client
	src SettingsSource
	ttl time.Duration
	key string
	log *slog.Logger
}

// NewSettings wires a cache in front of src.  A nil rdb turns the cache into
// a pass-through.
func NewSettings(rdb *redis.Client, src SettingsSource, ttl time.Duration, prefix string, log *slog.Logger) *Settings {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if prefix == "" {
		prefix = "pos:cache"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Settings{rdb: rdb, src: src, ttl: ttl, key: prefix + ":settings", log: log}
}

// Get returns the cached settings or loads and caches them.
func (s *Settings) Get(ctx context.Context) (model.Settings, error) {
	if s.rdb == nil {
		return s.src.Get(ctx)
	}
	bs, err := s.rdb.Get(ctx, s.key).Bytes()
	switch {
	case err == nil:
		var cached model.Settings
		if jerr := json.Unmarshal(bs, &cached); jerr == nil {
			return cached, nil
		}
		s.log.Warn("settings cache entry unreadable", slog.String("key", s.key))
	case !errors.Is(err, redis.Nil):
		s.log.Warn("settings cache get failed", slog.Any("error", err))
	}

	settings, err := s.src.Get(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	if bs, err := json.Marshal(settings); err == nil {
		if err := s.rdb.Set(ctx, s.key, bs, s.ttl).Err(); err != nil {
			s.log.Warn("settings cache set failed", slog.Any("error", err))
		}
	}
	return settings, nil
}

// Invalidate drops the cached row so the next Get reloads it.
func (s *Settings) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		s.log.Warn("settings cache invalidate failed", slog.Any("error", err))
	}
}
