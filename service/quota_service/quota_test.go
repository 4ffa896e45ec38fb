package quota_service

import (
	"context"
	"os"
	"testing"

	"bot-file-system/common"
	"bot-file-system/conf"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuota(t *testing.T) {
	q, err := NewQuota(conf.QuotaConfig{Type: TypeNone}, nil)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, q)

	q, err = NewQuota(conf.QuotaConfig{Type: TypeMemory, DefaultLimit: 10}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryQuota{}, q)

	_, err = NewQuota(conf.QuotaConfig{Type: TypeRedis}, nil)
	assert.Error(t, err)

	_, err = NewQuota(conf.QuotaConfig{Type: "plan"}, nil)
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, Noop{}.CheckUpload(ctx, "alice", 1<<40))
	assert.NoError(t, Noop{}.RecordUpload(ctx, "alice", 1<<40))
}

func TestMemoryQuota(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQuota(100)

	require.NoError(t, q.CheckUpload(ctx, "alice", 100))
	require.NoError(t, q.RecordUpload(ctx, "alice", 60))
	assert.Equal(t, Usage{BytesUsed: 60, UploadCount: 1}, q.Usage("alice"))

	assert.NoError(t, q.CheckUpload(ctx, "alice", 40))
	assert.ErrorIs(t, q.CheckUpload(ctx, "alice", 41), common.ErrQuotaExceeded)

	// Owners are counted apart
	assert.NoError(t, q.CheckUpload(ctx, "bob", 100))
}

func TestMemoryQuota_Unlimited(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQuota(0)
	require.NoError(t, q.RecordUpload(ctx, "alice", 1<<40))
	assert.NoError(t, q.CheckUpload(ctx, "alice", 1<<40))
}

// Runs against a real server when BFS_TEST_REDIS_ADDR is set
func TestRedisQuota(t *testing.T) {
	addr := os.Getenv("BFS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BFS_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	owner := "test-" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, quotaKey(owner)) })

	q := NewRedisQuota(client, 100)
	require.NoError(t, q.CheckUpload(ctx, owner, 100))
	require.NoError(t, q.RecordUpload(ctx, owner, 70))

	usage, err := q.Usage(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, Usage{BytesUsed: 70, UploadCount: 1}, usage)
	assert.ErrorIs(t, q.CheckUpload(ctx, owner, 31), common.ErrQuotaExceeded)
}
