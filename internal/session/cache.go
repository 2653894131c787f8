package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// VersionCache remembers the current token version of a user.
type VersionCache interface {
	Get(ctx context.Context, userID string) (string, bool)
	Set(ctx context.Context, userID, version string)
	Delete(ctx context.Context, userID string)
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Connect opens a client and pings it once.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}
	log.Printf("Redis connected at %s", addr)
	return client, nil
}

func cacheKey(userID string) string {
	return "session:" + userID
}

func (c *RedisCache) Get(ctx context.Context, userID string) (string, bool) {
	v, err := c.client.Get(ctx, cacheKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("session cache get %s: %v", userID, err)
		}
		return "", false
	}
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, userID, version string) {
	if err := c.client.Set(ctx, cacheKey(userID), version, c.ttl).Err(); err != nil {
		log.Printf("session cache set %s: %v", userID, err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		log.Printf("session cache delete %s: %v", userID, err)
	}
}
