package application

import (
	"context"
	"sync"
	"time"
)

// RoomCache stores room listings keyed by filter. Implementations must be
// safe for concurrent use.
type RoomCache interface {
	GetRooms(ctx context.Context, key string) ([]Room, bool, error)
	SetRooms(ctx context.Context, key string, rooms []Room) error
	InvalidateRooms(ctx context.Context) error
}

// MemoryRoomCache keeps room listings in process until their TTL passes or a
// room mutation invalidates them.
type MemoryRoomCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]roomCacheEntry
}

type roomCacheEntry struct {
	rooms     []Room
	expiresAt time.Time
}

// NewMemoryRoomCache constructs an in-process cache.
func NewMemoryRoomCache(ttl time.Duration, maxEntries int, now func() time.Time) *MemoryRoomCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 16
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryRoomCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]roomCacheEntry),
	}
}

// GetRooms returns a copy of the cached listing.
func (c *MemoryRoomCache) GetRooms(_ context.Context, key string) ([]Room, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return cloneRooms(entry.rooms), true, nil
}

// SetRooms stores a copy of rooms under key.
func (c *MemoryRoomCache) SetRooms(_ context.Context, key string, rooms []Room) error {
	if c == nil {
		return nil
	}
	cloned := cloneRooms(rooms)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = roomCacheEntry{rooms: cloned, expiresAt: expiry}
	return nil
}

// InvalidateRooms drops every cached listing.
func (c *MemoryRoomCache) InvalidateRooms(context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	c.entries = make(map[string]roomCacheEntry)
	c.mu.Unlock()
	return nil
}

func (c *MemoryRoomCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryRoomCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

// cloneRooms copies rooms deeply enough that callers cannot mutate cached lists.
func cloneRooms(rooms []Room) []Room {
	if rooms == nil {
		return nil
	}
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		r.Equipment = append([]string(nil), r.Equipment...)
		r.Tags = append([]string(nil), r.Tags...)
		r.ImageURLs = append([]string(nil), r.ImageURLs...)
		out[i] = r
	}
	return out
}

func roomCacheKey(filter RoomFilter) string {
	if filter.Active == nil {
		return "all"
	}
	if *filter.Active {
		return "active"
	}
	return "inactive"
}
