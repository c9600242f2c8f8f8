package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"user-auth/internal/domain"
)

// UserViewCache guarda la vista publica de usuarios por username.
type UserViewCache interface {
	Get(ctx context.Context, username string) (domain.UserView, bool, error)
	Set(ctx context.Context, view domain.UserView) error
	Invalidate(ctx context.Context, username string) error
}

type cacheEntry struct {
	view      domain.UserView
	expiresAt time.Time
}

type memoryUserViewCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]cacheEntry
}

// NewMemoryUserViewCache crea un cache en memoria con expiracion por entrada.
func NewMemoryUserViewCache(ttl time.Duration) UserViewCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &memoryUserViewCache{
		ttl:   ttl,
		items: make(map[string]cacheEntry),
	}
}

func (c *memoryUserViewCache) Get(_ context.Context, username string) (domain.UserView, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[username]
	if !ok {
		return domain.UserView{}, false, nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(c.items, username)
		return domain.UserView{}, false, nil
	}
	return entry.view, true, nil
}

func (c *memoryUserViewCache) Set(_ context.Context, view domain.UserView) error {
	if strings.TrimSpace(view.Username) == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[view.Username] = cacheEntry{view: view, expiresAt: time.Now().UTC().Add(c.ttl)}
	return nil
}

func (c *memoryUserViewCache) Invalidate(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, username)
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisUserViewCache struct {
	client redisKV
	ttl    time.Duration
	prefix string
}

// NewRedisUserViewCache crea un cache respaldado por Redis.
func NewRedisUserViewCache(client *redis.Client, ttl time.Duration) UserViewCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &redisUserViewCache{
		client: client,
		ttl:    ttl,
		prefix: "users:view:",
	}
}

func (c *redisUserViewCache) Get(ctx context.Context, username string) (domain.UserView, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+username).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.UserView{}, false, nil
		}
		return domain.UserView{}, false, err
	}
	var view domain.UserView
	if err := json.Unmarshal(raw, &view); err != nil {
		return domain.UserView{}, false, err
	}
	return view, true, nil
}

func (c *redisUserViewCache) Set(ctx context.Context, view domain.UserView) error {
	if strings.TrimSpace(view.Username) == "" {
		return nil
	}
	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return c.client.Set(ctx, c.prefix+view.Username, payload, c.ttl).Err()
}

func (c *redisUserViewCache) Invalidate(ctx context.Context, username string) error {
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return c.client.Del(ctx, c.prefix+username).Err()
}
