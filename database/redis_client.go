package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"bot-file-system/conf"
	"bot-file-system/model"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connect to Redis, returns nil client when disabled
func NewRedisClient(ctx context.Context, cfg conf.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		log.Println("Redis cache is disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("Redis connected successfully: %s:%d (DB: %d, TTL: %ds)",
		cfg.Host, cfg.Port, cfg.DB, cfg.CacheTTL)
	return client, nil
}

const fileRecordCachePrefix = "bfs:file:"

// RedisFileCache read-through cache of file records. File records never
// change after creation so entries are only dropped by TTL. A nil client
// turns every call into a miss.
type RedisFileCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisFileCache(client redis.Cmdable, ttl time.Duration) *RedisFileCache {
	return &RedisFileCache{client: client, ttl: ttl}
}

// Get returns the cached record, or nil on a miss
func (c *RedisFileCache) Get(ctx context.Context, fileID string) *model.FileRecord {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, fileRecordCachePrefix+fileID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Failed to get cache for file %s: %v", fileID, err)
		}
		return nil
	}
	var file model.FileRecord
	if err := json.Unmarshal(data, &file); err != nil {
		log.Printf("Failed to unmarshal cache for file %s: %v", fileID, err)
		return nil
	}
	return &file
}

func (c *RedisFileCache) Set(ctx context.Context, file *model.FileRecord) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(file)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, fileRecordCachePrefix+file.FileId, data, c.ttl).Err(); err != nil {
		log.Printf("Failed to set cache for file %s: %v", file.FileId, err)
	}
}
