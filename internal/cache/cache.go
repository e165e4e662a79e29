package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// localCacheSize число записей в локальном TinyLFU кеше процесса.
const localCacheSize = 10000

// Cache кеш с TTL. Get возвращает false при промахе.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
}

// RedisCache двухуровневый кеш: локальный TinyLFU и Redis.
type RedisCache struct {
	cache *cache.Cache
}

// New создаёт кеш. Если redisURL пуст, работает только локальный уровень.
func New(redisURL string) (*RedisCache, error) {
	opts := &cache.Options{
		LocalCache: cache.NewTinyLFU(localCacheSize, time.Minute),
	}

	if redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("cache: parse redis url: %w", err)
		}
		opts.Redis = redis.NewClient(redisOpts)
	}

	return &RedisCache{cache: cache.New(opts)}, nil
}

// NewWithClient создаёт кеш поверх готового клиента Redis.
func NewWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{cache: cache.New(&cache.Options{
		Redis:      client,
		LocalCache: cache.NewTinyLFU(localCacheSize, time.Minute),
	})}
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	err := r.cache.Get(ctx, key, dest)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	err := r.cache.Delete(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}

// ConnectStatusKey ключ статуса подключённого платёжного аккаунта пользователя.
func ConnectStatusKey(userID string) string {
	return "connect_status:" + userID
}
