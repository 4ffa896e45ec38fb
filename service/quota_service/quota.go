// Package quota_service holds the storage quota hook consumed by uploads.
// Plans and billing live elsewhere; this package only counts bytes and
// uploads per owner against one configured limit.
package quota_service

import (
	"context"
	"fmt"
	"sync"

	"bot-file-system/common"
	"bot-file-system/conf"

	"github.com/redis/go-redis/v9"
)

// Quota check before accepting bytes, record after a file is created
type Quota interface {
	// CheckUpload returns common.ErrQuotaExceeded when size more bytes
	// would take owner past the limit
	CheckUpload(ctx context.Context, ownerID string, size int64) error
	// RecordUpload adds one finished upload of size bytes to owner's usage
	RecordUpload(ctx context.Context, ownerID string, size int64) error
}

// Usage accounted storage of one owner
type Usage struct {
	BytesUsed   int64 `json:"bytesUsed"`
	UploadCount int64 `json:"uploadCount"`
}

// Quota types
const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// NewQuota quota hook by configuration. The redis type needs a client.
func NewQuota(cfg conf.QuotaConfig, client redis.Cmdable) (Quota, error) {
	switch cfg.Type {
	case TypeNone, "":
		return Noop{}, nil
	case TypeMemory:
		return NewMemoryQuota(cfg.DefaultLimit), nil
	case TypeRedis:
		if client == nil {
			return nil, fmt.Errorf("quota type redis requires redis to be enabled")
		}
		return NewRedisQuota(client, cfg.DefaultLimit), nil
	default:
		return nil, fmt.Errorf("unknown quota type %q", cfg.Type)
	}
}

func exceeds(limit, used, size int64) bool {
	return limit > 0 && used+size > limit
}

// Noop quota that never refuses and records nothing
type Noop struct{}

func (Noop) CheckUpload(context.Context, string, int64) error  { return nil }
func (Noop) RecordUpload(context.Context, string, int64) error { return nil }

// MemoryQuota process-local counters, for single instance deployments and
// tests
type MemoryQuota struct {
	mu    sync.Mutex
	limit int64
	usage map[string]Usage
}

func NewMemoryQuota(limit int64) *MemoryQuota {
	return &MemoryQuota{limit: limit, usage: make(map[string]Usage)}
}

func (q *MemoryQuota) CheckUpload(ctx context.Context, ownerID string, size int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if exceeds(q.limit, q.usage[ownerID].BytesUsed, size) {
		return fmt.Errorf("%w: %d bytes used of %d", common.ErrQuotaExceeded, q.usage[ownerID].BytesUsed, q.limit)
	}
	return nil
}

func (q *MemoryQuota) RecordUpload(ctx context.Context, ownerID string, size int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	u := q.usage[ownerID]
	u.BytesUsed += size
	u.UploadCount++
	q.usage[ownerID] = u
	return nil
}

// Usage current counters of owner
func (q *MemoryQuota) Usage(ownerID string) Usage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.usage[ownerID]
}
