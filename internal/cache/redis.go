// Package cache provides a Redis backed room listing cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/roombook/internal/application"
)

const keyPrefix = "roombook:rooms:"

// RoomCache stores room listings as JSON strings in Redis. A RoomCache with a
// nil client is a no-op.
type RoomCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ application.RoomCache = (*RoomCache)(nil)

// Connect dials addr and verifies it with PING. An empty address returns a
// nil cache so callers can keep running without Redis.
func Connect(ctx context.Context, addr string, ttl time.Duration, logger *slog.Logger) (*RoomCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		logger.WarnContext(ctx, "redis address not configured, room cache disabled")
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	logger.InfoContext(ctx, "connected to redis", "addr", addr)
	return New(client, ttl, logger), nil
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RoomCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RoomCache{client: client, ttl: ttl, logger: logger}
}

// GetRooms returns the cached listing for key. A miss reports false.
func (c *RoomCache) GetRooms(ctx context.Context, key string) ([]application.Room, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get rooms: %w", err)
	}
	var rooms []application.Room
	if err := json.Unmarshal(raw, &rooms); err != nil {
		c.logger.WarnContext(ctx, "discarding undecodable room cache entry", "key", key, "error", err)
		_ = c.client.Del(ctx, keyPrefix+key).Err()
		return nil, false, nil
	}
	return rooms, true, nil
}

// SetRooms stores rooms under key with the configured TTL.
func (c *RoomCache) SetRooms(ctx context.Context, key string, rooms []application.Room) error {
	if c == nil || c.client == nil {
		return nil
	}
	if rooms == nil {
		rooms = []application.Room{}
	}
	payload, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("redis: encode rooms: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set rooms: %w", err)
	}
	return nil
}

// InvalidateRooms removes every cached listing.
func (c *RoomCache) InvalidateRooms(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("redis: scan rooms: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis: delete rooms: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping reports whether Redis is reachable.
func (c *RoomCache) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the client.
func (c *RoomCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
