package quota_service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"bot-file-system/common"

	"github.com/redis/go-redis/v9"
)

const (
	usedBytesField   = "bytes_used"
	uploadCountField = "upload_count"
	quotaKeyPrefix   = "bfs:quota:"
)

// RedisQuota usage counters in one redis hash per owner, shared by every
// instance behind the same redis
type RedisQuota struct {
	client redis.Cmdable
	limit  int64
}

func NewRedisQuota(client redis.Cmdable, limit int64) *RedisQuota {
	return &RedisQuota{client: client, limit: limit}
}

func quotaKey(ownerID string) string {
	return quotaKeyPrefix + ownerID
}

func (q *RedisQuota) CheckUpload(ctx context.Context, ownerID string, size int64) error {
	if q.limit <= 0 {
		return nil
	}
	used, err := q.client.HGet(ctx, quotaKey(ownerID), usedBytesField).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read quota usage: %w", err)
	}
	if exceeds(q.limit, used, size) {
		return fmt.Errorf("%w: %d bytes used of %d", common.ErrQuotaExceeded, used, q.limit)
	}
	return nil
}

func (q *RedisQuota) RecordUpload(ctx context.Context, ownerID string, size int64) error {
	key := quotaKey(ownerID)
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, usedBytesField, size)
		pipe.HIncrBy(ctx, key, uploadCountField, 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}
	return nil
}

// Usage current counters of owner
func (q *RedisQuota) Usage(ctx context.Context, ownerID string) (Usage, error) {
	vals, err := q.client.HMGet(ctx, quotaKey(ownerID), usedBytesField, uploadCountField).Result()
	if err != nil {
		return Usage{}, fmt.Errorf("failed to read quota usage: %w", err)
	}
	var u Usage
	if s, ok := vals[0].(string); ok {
		u.BytesUsed, _ = strconv.ParseInt(s, 10, 64)
	}
	if s, ok := vals[1].(string); ok {
		u.UploadCount, _ = strconv.ParseInt(s, 10, 64)
	}
	return u, nil
}
