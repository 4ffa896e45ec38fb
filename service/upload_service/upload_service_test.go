package upload_service

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"bot-file-system/common"
	"bot-file-system/conf"
	"bot-file-system/database"
	"bot-file-system/logging"
	"bot-file-system/model"
	"bot-file-system/node"
	"bot-file-system/service/quota_service"
	"bot-file-system/service/transfer_service"
	"bot-file-system/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mib = 1 << 20

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc     *UploadService
	db      database.Database
	sink    *storage.MemorySink
	chunker *transfer_service.Chunker
	quota   *quota_service.MemoryQuota
	clock   *fakeClock
	cfg     *conf.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := conf.Default()

	db, err := database.NewPebbleDatabase(&database.PebbleConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sink := storage.NewMemorySink()
	reg, err := node.NewRegistryFromNodes(node.NewNode("mem", "", sink))
	require.NoError(t, err)

	noSleep := func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	tr := transfer_service.NewTransfer(node.NewSelector(reg), transfer_service.RetryPolicyFromConfig(cfg.Transfer),
		logging.Discard(), transfer_service.WithSleep(noSleep))
	chunker := transfer_service.NewChunker(tr, cfg.Transfer, logging.Discard())

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	quota := quota_service.NewMemoryQuota(0)
	svc := NewUploadService(db, tr, chunker, quota, cfg.Upload, logging.Discard(), WithClock(clock.Now))

	return &fixture{svc: svc, db: db, sink: sink, chunker: chunker, quota: quota, clock: clock, cfg: cfg}
}

func payload(size int) []byte {
	data := make([]byte, size)
	rand.New(rand.NewSource(int64(size))).Read(data)
	return data
}

func meta(owner, name string) FileMeta {
	return FileMeta{OwnerId: owner, FileName: name, MimeType: "application/octet-stream"}
}

func (f *fixture) init(t *testing.T, owner string, size int64) *InitSessionResponse {
	t.Helper()
	resp, err := f.svc.InitSession(context.Background(), &InitSessionRequest{FileMeta: meta(owner, "file.bin"), FileSize: size})
	require.NoError(t, err)
	return resp
}

func (f *fixture) readBack(t *testing.T, file *model.FileRecord) []byte {
	t.Helper()
	rows, err := f.db.ListFileChunks(context.Background(), file.FileId)
	require.NoError(t, err)
	parts := make([]transfer_service.Part, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, transfer_service.Part{ChunkIndex: r.ChunkIndex, NodeID: r.NodeId, BlobID: r.BlobId, Size: r.Size})
	}
	data, err := f.chunker.Read(context.Background(), parts)
	require.NoError(t, err)
	return data
}

func TestSession_25MiBOutOfOrder(t *testing.T) {
	orders := []struct {
		name  string
		order []int
	}{
		{name: "middle first", order: []int{1, 0, 2}},
		{name: "last first", order: []int{2, 0, 1}},
	}
	for _, tc := range orders {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			data := payload(25 * mib)

			resp := f.init(t, "alice", int64(len(data)))
			assert.Equal(t, 3, resp.TotalChunks)
			assert.Equal(t, int64(10*mib), resp.ChunkSize)
			assert.Equal(t, f.clock.Now().Add(24*time.Hour), resp.ExpiresAt)

			slice := func(i int) []byte {
				end := (i + 1) * 10 * mib
				if end > len(data) {
					end = len(data)
				}
				return data[i*10*mib : end]
			}

			for n, i := range tc.order {
				progress, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, i, slice(i))
				require.NoError(t, err)
				assert.Equal(t, n+1, progress.UploadedChunks)
				assert.Equal(t, 3, progress.TotalChunks)
				assert.False(t, progress.AlreadyPresent)
			}

			file, err := f.svc.CompleteSession(ctx, "alice", resp.SessionId)
			require.NoError(t, err)
			assert.True(t, file.IsChunked)
			assert.Equal(t, 3, file.TotalChunks)
			assert.Equal(t, int64(25*mib), file.FileSize)
			assert.Equal(t, "alice", file.OwnerId)
			assert.True(t, bytes.Equal(data, f.readBack(t, file)))

			// Session and its chunk rows are gone
			_, err = f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, slice(0))
			assert.ErrorIs(t, err, common.ErrNotFound)
			chunks, err := f.db.ListUploadChunks(ctx, resp.SessionId)
			require.NoError(t, err)
			assert.Empty(t, chunks)

			assert.Equal(t, quota_service.Usage{BytesUsed: 25 * mib, UploadCount: 1}, f.quota.Usage("alice"))
		})
	}
}

func TestSession_SingleChunkIsNotChunked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	data := payload(1000)

	resp := f.init(t, "alice", int64(len(data)))
	require.Equal(t, 1, resp.TotalChunks)
	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, data)
	require.NoError(t, err)

	file, err := f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	require.NoError(t, err)
	assert.False(t, file.IsChunked)
	assert.Equal(t, "mem", file.NodeId)
	assert.NotEmpty(t, file.BlobId)

	stored, err := f.sink.Download(ctx, file.BlobId)
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestSession_EmptyFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp := f.init(t, "alice", 0)
	require.Equal(t, 1, resp.TotalChunks)
	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, nil)
	require.NoError(t, err)

	file, err := f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	require.NoError(t, err)
	assert.Equal(t, int64(0), file.FileSize)
	assert.Empty(t, f.readBack(t, file))
}

func TestSession_IdempotentChunk(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 15*mib)
	chunk := payload(10 * mib)

	first, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, chunk)
	require.NoError(t, err)
	assert.Equal(t, 1, first.UploadedChunks)

	again, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, chunk)
	require.NoError(t, err)
	assert.True(t, again.AlreadyPresent)
	assert.Equal(t, 1, again.UploadedChunks)
	assert.Equal(t, 2, again.TotalChunks)

	// The resend did not reach the backend
	assert.Equal(t, 1, f.sink.Len())
}

func TestSession_ResendReportsStoredCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 15*mib)
	chunk := payload(10 * mib)

	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, chunk)
	require.NoError(t, err)

	// Another writer stored chunk 1 without touching the session counter
	require.NoError(t, f.db.CreateUploadChunk(ctx, &model.UploadChunk{
		SessionId: resp.SessionId, ChunkIndex: 1, NodeId: "mem", BlobId: "other", Size: 5 * mib}))

	again, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, chunk)
	require.NoError(t, err)
	assert.True(t, again.AlreadyPresent)
	assert.Equal(t, 2, again.UploadedChunks)
}

// cancellingTransfer stores the blob and then cancels the session, as a
// concurrent DELETE landing while the chunk is in flight would.
type cancellingTransfer struct {
	transfer_service.BlobTransfer
	cancel func()
}

func (c *cancellingTransfer) Upload(ctx context.Context, data []byte, name string) (transfer_service.BlobRef, error) {
	ref, err := c.BlobTransfer.Upload(ctx, data, name)
	if err == nil {
		c.cancel()
	}
	return ref, err
}

func TestSession_CancelledDuringUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 5)

	f.svc.transfer = &cancellingTransfer{
		BlobTransfer: f.svc.transfer,
		cancel: func() {
			require.NoError(t, f.svc.CancelSession(ctx, "alice", resp.SessionId))
		},
	}

	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	assert.ErrorIs(t, err, common.ErrNotFound)

	chunks, err := f.db.ListUploadChunks(ctx, resp.SessionId)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	_, err = f.db.GetUploadSession(ctx, resp.SessionId)
	assert.ErrorIs(t, err, database.ErrNotFound)
	// The blob itself stays behind
	assert.Equal(t, 1, f.sink.Len())
}

func TestSession_CompleteRejectsMisplacedChunk(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 15*mib)

	// Right row count, wrong indices
	for _, idx := range []int{0, 5} {
		require.NoError(t, f.db.CreateUploadChunk(ctx, &model.UploadChunk{
			SessionId: resp.SessionId, ChunkIndex: idx, NodeId: "mem", BlobId: "b", Size: 5 * mib}))
	}

	_, err := f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	assert.ErrorIs(t, err, common.ErrCorruptChunk)
	var missing *common.ChunksMissingError
	assert.False(t, errors.As(err, &missing))
}

func TestSession_CompleteReportsMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 65*mib)
	require.Equal(t, 7, resp.TotalChunks)

	for _, i := range []int{0, 3, 5, 6} {
		want := int64(10 * mib)
		if i == 6 {
			want = 5 * mib
		}
		_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, i, payload(int(want)))
		require.NoError(t, err)
	}

	_, err := f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	var missing *common.ChunksMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "3 of 7 chunks missing", err.Error())
	assert.Equal(t, 3, missing.Missing())

	status, err := f.svc.GetSessionStatus(ctx, "alice", resp.SessionId)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, status.MissingChunks)
	assert.Equal(t, 4, status.UploadedChunks)
	assert.Equal(t, model.UploadSessionStatusPending, status.Status)
}

func TestSession_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 5)
	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	require.NoError(t, err)

	f.clock.Advance(24*time.Hour + time.Second)

	_, err = f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	assert.ErrorIs(t, err, common.ErrGone)

	_, err = f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	assert.ErrorIs(t, err, common.ErrNotFound)

	chunks, err := f.db.ListUploadChunks(ctx, resp.SessionId)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSession_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 5)

	// Exactly at expiresAt the session is still usable
	f.clock.Advance(24 * time.Hour)
	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	assert.NoError(t, err)
}

func TestSession_ProtocolErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 15*mib)

	_, err := f.svc.AcceptChunk(ctx, "alice", "absent", 0, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.svc.AcceptChunk(ctx, "mallory", resp.SessionId, 0, payload(10*mib))
	assert.ErrorIs(t, err, common.ErrForbidden)

	for _, idx := range []int{-1, 2} {
		_, err = f.svc.AcceptChunk(ctx, "alice", resp.SessionId, idx, []byte("x"))
		assert.ErrorIs(t, err, common.ErrInvalidArgument, "index %d", idx)
	}

	// Non-final chunk must be full, final chunk must be the remainder
	_, err = f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, payload(mib))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 1, payload(10*mib))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	assert.Equal(t, 0, f.sink.Len())

	err = f.svc.CancelSession(ctx, "mallory", resp.SessionId)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = f.svc.GetSessionStatus(ctx, "mallory", resp.SessionId)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestSession_ConflictWhenNotPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// A session row left in a final state by another writer
	require.NoError(t, f.db.CreateUploadSession(ctx, &model.UploadSession{
		SessionId:   "done",
		OwnerId:     "alice",
		FileName:    "file.bin",
		FileSize:    1,
		ChunkSize:   10 * mib,
		TotalChunks: 1,
		Status:      model.UploadSessionStatusCompleted,
		ExpiresAt:   f.clock.Now().Add(time.Hour),
	}))

	_, err := f.svc.AcceptChunk(ctx, "alice", "done", 0, []byte("x"))
	assert.ErrorIs(t, err, common.ErrConflict)
	_, err = f.svc.CompleteSession(ctx, "alice", "done")
	assert.ErrorIs(t, err, common.ErrConflict)

	// Cancel removes it all the same
	require.NoError(t, f.svc.CancelSession(ctx, "alice", "done"))
	_, err = f.svc.GetSessionStatus(ctx, "alice", "done")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSession_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 5)
	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelSession(ctx, "alice", resp.SessionId))
	assert.ErrorIs(t, f.svc.CancelSession(ctx, "alice", resp.SessionId), common.ErrNotFound)

	chunks, err := f.db.ListUploadChunks(ctx, resp.SessionId)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	// No backend cleanup
	assert.Equal(t, 1, f.sink.Len())
}

func TestSession_InitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.InitSession(ctx, &InitSessionRequest{FileMeta: meta("", "a"), FileSize: 1})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = f.svc.InitSession(ctx, &InitSessionRequest{FileMeta: meta("alice", ""), FileSize: 1})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
	_, err = f.svc.InitSession(ctx, &InitSessionRequest{FileMeta: meta("alice", "a"), FileSize: -1})
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestSession_QuotaHook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	limited := quota_service.NewMemoryQuota(10)
	f.svc.quota = limited

	_, err := f.svc.InitSession(ctx, &InitSessionRequest{FileMeta: meta("alice", "a"), FileSize: 11})
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)

	resp := f.init(t, "alice", 10)
	_, err = f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, payload(10))
	require.NoError(t, err)
	_, err = f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	require.NoError(t, err)
	assert.Equal(t, quota_service.Usage{BytesUsed: 10, UploadCount: 1}, limited.Usage("alice"))

	_, err = f.svc.InitSession(ctx, &InitSessionRequest{FileMeta: meta("alice", "a"), FileSize: 1})
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
}

type failingQuota struct {
	quota_service.Noop
}

func (failingQuota) RecordUpload(context.Context, string, int64) error {
	return errors.New("quota store down")
}

func TestSession_FailedAccountingAbortsFinalize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.quota = failingQuota{}

	resp := f.init(t, "alice", 5)
	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	require.NoError(t, err)

	_, err = f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	require.Error(t, err)

	// Nothing committed, the session can be completed later
	status, err := f.svc.GetSessionStatus(ctx, "alice", resp.SessionId)
	require.NoError(t, err)
	assert.Empty(t, status.MissingChunks)

	f.svc.quota = quota_service.Noop{}
	_, err = f.svc.CompleteSession(ctx, "alice", resp.SessionId)
	assert.NoError(t, err)
}

// commitFailDB runs the pre-commit hook and then fails the commit
type commitFailDB struct {
	database.Database
}

func (d commitFailDB) FinalizeUploadSession(ctx context.Context, sessionID string, file *model.FileRecord, chunks []*model.FileChunk, beforeCommit func() error) error {
	if err := beforeCommit(); err != nil {
		return err
	}
	return errors.New("disk full")
}

func TestSession_CommitFailureAfterAccountingIsLogged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var logs bytes.Buffer
	svc := NewUploadService(commitFailDB{f.db}, f.svc.transfer, f.chunker, f.quota, f.cfg.Upload,
		logging.New(&logs, "debug"), WithClock(f.clock.Now))

	resp, err := svc.InitSession(ctx, &InitSessionRequest{FileMeta: meta("alice", "a"), FileSize: 5})
	require.NoError(t, err)
	_, err = svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	require.NoError(t, err)

	_, err = svc.CompleteSession(ctx, "alice", resp.SessionId)
	require.Error(t, err)
	assert.Contains(t, logs.String(), "quota drift")
	assert.Contains(t, logs.String(), resp.SessionId)
}

func TestSession_HookFailureIsNotDrift(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var logs bytes.Buffer
	svc := NewUploadService(commitFailDB{f.db}, f.svc.transfer, f.chunker, failingQuota{}, f.cfg.Upload,
		logging.New(&logs, "debug"), WithClock(f.clock.Now))

	resp, err := svc.InitSession(ctx, &InitSessionRequest{FileMeta: meta("alice", "a"), FileSize: 5})
	require.NoError(t, err)
	_, err = svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	require.NoError(t, err)

	_, err = svc.CompleteSession(ctx, "alice", resp.SessionId)
	require.Error(t, err)
	assert.NotContains(t, logs.String(), "quota drift")
}

func TestSession_BackendDown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	resp := f.init(t, "alice", 5)

	sel := node.NewSelector(mustRegistry(t, node.NewNode("down", "", downSink{})))
	f.svc.transfer = transfer_service.NewTransfer(sel, transfer_service.RetryPolicyFromConfig(f.cfg.Transfer), logging.Discard(),
		transfer_service.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }))

	_, err := f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	// The node is retired now, the next request fails fast
	_, err = f.svc.AcceptChunk(ctx, "alice", resp.SessionId, 0, []byte("hello"))
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

type downSink struct{}

func (downSink) Upload(context.Context, string, []byte) (string, error) {
	return "", errors.New("503 service unavailable")
}

func (downSink) Download(context.Context, string) ([]byte, error) {
	return nil, errors.New("503 service unavailable")
}

func mustRegistry(t *testing.T, nodes ...*node.Node) *node.Registry {
	t.Helper()
	reg, err := node.NewRegistryFromNodes(nodes...)
	require.NoError(t, err)
	return reg
}

func TestDirectUpload_60MiB(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	data := payload(60 * mib)

	file, err := f.svc.DirectUpload(ctx, &DirectUploadRequest{FileMeta: meta("alice", "video.mp4"), Content: data})
	require.NoError(t, err)
	assert.True(t, file.IsChunked)
	assert.Equal(t, 4, file.TotalChunks)
	assert.Equal(t, int64(60*mib), file.FileSize)
	assert.Equal(t, 4, f.sink.Len())
	assert.True(t, bytes.Equal(data, f.readBack(t, file)))

	stored, err := f.db.GetFileRecord(ctx, file.FileId)
	require.NoError(t, err)
	assert.True(t, stored.IsChunked)
	assert.Equal(t, quota_service.Usage{BytesUsed: 60 * mib, UploadCount: 1}, f.quota.Usage("alice"))
}

func TestDirectUpload_Small(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	file, err := f.svc.DirectUpload(ctx, &DirectUploadRequest{FileMeta: meta("alice", "a.txt"), Content: []byte("hi")})
	require.NoError(t, err)
	assert.False(t, file.IsChunked)
	assert.Equal(t, 1, file.TotalChunks)
	assert.Equal(t, "mem", file.NodeId)
	assert.Equal(t, []byte("hi"), f.readBack(t, file))
}

func TestDirectUpload_Limits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.cfg.DirectMaxSize = 4

	_, err := f.svc.DirectUpload(ctx, &DirectUploadRequest{FileMeta: meta("alice", "a"), Content: []byte("hello")})
	assert.ErrorIs(t, err, common.ErrPayloadTooLarge)

	f.svc.quota = quota_service.NewMemoryQuota(2)
	_, err = f.svc.DirectUpload(ctx, &DirectUploadRequest{FileMeta: meta("alice", "a"), Content: []byte("abc")})
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
	assert.Equal(t, 0, f.sink.Len())
}

func TestCleanupExpiredSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.init(t, "alice", 5)
	}
	f.clock.Advance(time.Hour)
	fresh := f.init(t, "alice", 5)

	f.clock.Advance(24*time.Hour - time.Minute)
	cleaned, err := f.svc.CleanupExpiredSessions(ctx, f.clock.Now(), 100)
	require.NoError(t, err)
	assert.Equal(t, 3, cleaned)

	_, err = f.svc.GetSessionStatus(ctx, "alice", fresh.SessionId)
	assert.NoError(t, err)
}

func TestCleanupProcessor_DrainsInBatches(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.init(t, "alice", 5)
	}
	f.clock.Advance(25 * time.Hour)

	cp := NewCleanupProcessor(f.svc, conf.UploadConfig{CleanupInterval: time.Hour, CleanupBatchSize: 2})
	assert.Equal(t, 5, cp.cleanupExpiredSessions())
	assert.Equal(t, 0, cp.cleanupExpiredSessions())
}

func TestCleanupProcessor_StartStop(t *testing.T) {
	f := newFixture(t)

	cp := NewCleanupProcessor(f.svc, conf.UploadConfig{CleanupInterval: time.Hour})
	cp.Start()
	cp.Stop()

	disabled := NewCleanupProcessor(f.svc, conf.UploadConfig{})
	disabled.Start()
	disabled.Stop()
}
