package users

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
)

// ErrCacheMiss is returned when a key is not cached
var ErrCacheMiss = errors.New("user is not cached")

// UserCacheInterface caches users by id
type UserCacheInterface interface {
	Add(ctx context.Context, key string, user *User) error
	Invalidate(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (*User, error)
}

// UserCacheMemory caches users in process
type UserCacheMemory struct {
	Cache *lru.Cache
}

// NewUserCacheMemory initializes a new UserCacheMemory holding up to size users
func NewUserCacheMemory(size int) (*UserCacheMemory, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &UserCacheMemory{
		Cache: cache,
	}, nil
}

// Add adds a copy of a user to the cache
func (c *UserCacheMemory) Add(_ context.Context, key string, user *User) error {
	entry := *user
	_ = c.Cache.Add(key, &entry)
	return nil
}

// Invalidate removes a user from the cache
func (c *UserCacheMemory) Invalidate(_ context.Context, key string) error {
	c.Cache.Remove(key)
	return nil
}

// Get retrieves a copy of a cached user
func (c *UserCacheMemory) Get(_ context.Context, key string) (*User, error) {
	result, ok := c.Cache.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}

	user, ok := result.(*User)
	if !ok {
		return nil, errors.New("cache entry was not a user")
	}

	found := *user
	return &found, nil
}

// UserCacheRedis caches users in Redis so that all instances share them
type UserCacheRedis struct {
	Cache *cache.Cache
	TTL   time.Duration
}

// NewUserCacheRedis initializes a new UserCacheRedis
func NewUserCacheRedis(redisClient *redis.Client) *UserCacheRedis {
	redisCache := cache.New(&cache.Options{
		Redis: redisClient,
	})

	return &UserCacheRedis{
		Cache: redisCache,
		TTL:   time.Minute * 10,
	}
}

func (c *UserCacheRedis) key(key string) string {
	return "user:" + key
}

// Add adds a user
func (c *UserCacheRedis) Add(ctx context.Context, key string, user *User) error {
	return c.Cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   c.key(key),
		Value: user,
		TTL:   c.TTL,
	})
}

// Invalidate invalidates an entry
func (c *UserCacheRedis) Invalidate(ctx context.Context, key string) error {
	err := c.Cache.Delete(ctx, c.key(key))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}

	return err
}

// Get retrieves a user
func (c *UserCacheRedis) Get(ctx context.Context, key string) (*User, error) {
	result := User{}
	err := c.Cache.Get(ctx, c.key(key), &result)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, err
	}

	return &result, nil
}
