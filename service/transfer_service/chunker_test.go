package transfer_service

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"testing"

	"bot-file-system/common"
	"bot-file-system/conf"
	"bot-file-system/logging"
	"bot-file-system/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMaxSingle = 1024
	testPartSize  = 400
)

func smallTransferConfig() conf.TransferConfig {
	cfg := conf.Default().Transfer
	cfg.MaxSingleSize = testMaxSingle
	cfg.PartSize = testPartSize
	return cfg
}

func randomPayload(t *testing.T, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	rand.New(rand.NewSource(int64(size))).Read(data)
	return data
}

func newChunker(t *testing.T, cfg conf.TransferConfig, log logging.Logger, sinks ...storage.Sink) *Chunker {
	t.Helper()
	tr, _, _ := newTransfer(t, nil, sinks...)
	return NewChunker(tr, cfg, log)
}

func TestChunker_PartCount(t *testing.T) {
	c := NewChunker(nil, conf.Default().Transfer, logging.Discard())

	const mib = 1 << 20
	assert.Equal(t, 1, c.PartCount(0))
	assert.Equal(t, 1, c.PartCount(48*mib))
	assert.Equal(t, 3, c.PartCount(48*mib+1))
	assert.Equal(t, 4, c.PartCount(60*mib))
	assert.Equal(t, 4, c.PartCount(3*19*mib+5))
}

func TestChunker_RoundTrip(t *testing.T) {
	cases := []struct {
		size    int
		chunked bool
		parts   int
	}{
		{0, false, 1},
		{1, false, 1},
		{testMaxSingle - 1, false, 1},
		{testMaxSingle, false, 1},
		{testMaxSingle + 1, true, 3},
		{3*testPartSize + 5, true, 4},
	}

	for _, tc := range cases {
		sink := storage.NewMemorySink()
		c := newChunker(t, smallTransferConfig(), logging.Discard(), sink)
		data := randomPayload(t, tc.size)

		res, err := c.Store(context.Background(), data, "file.bin")
		require.NoError(t, err, "size %d", tc.size)
		assert.Equal(t, tc.chunked, res.IsChunked, "size %d", tc.size)
		require.Len(t, res.Parts, tc.parts, "size %d", tc.size)
		assert.Equal(t, tc.parts, sink.Len())

		var total int64
		for i, p := range res.Parts {
			assert.Equal(t, i, p.ChunkIndex)
			if i < len(res.Parts)-1 && res.IsChunked {
				assert.Equal(t, int64(testPartSize), p.Size)
			}
			total += p.Size
		}
		assert.Equal(t, int64(tc.size), total)

		got, err := c.Read(context.Background(), res.Parts)
		require.NoError(t, err, "size %d", tc.size)
		assert.True(t, bytes.Equal(data, got), "size %d", tc.size)
	}
}

func TestChunker_RoundTripDefaultSizes(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates over 100 MiB")
	}
	cfg := conf.Default().Transfer
	sink := storage.NewMemorySink()
	c := newChunker(t, cfg, logging.Discard(), sink)
	data := randomPayload(t, int(cfg.MaxSingleSize)+1)

	res, err := c.Store(context.Background(), data, "big.bin")
	require.NoError(t, err)
	assert.True(t, res.IsChunked)
	require.Len(t, res.Parts, 3)
	assert.Equal(t, cfg.PartSize, res.Parts[0].Size)
	assert.Equal(t, cfg.PartSize, res.Parts[1].Size)
	assert.Equal(t, cfg.MaxSingleSize+1-2*cfg.PartSize, res.Parts[2].Size)

	var buf bytes.Buffer
	n, err := c.Load(context.Background(), res.Parts, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.True(t, bytes.Equal(data, buf.Bytes()))
}

// failAfterSink accepts okUploads uploads, then fails every one after
type failAfterSink struct {
	*storage.MemorySink
	okUploads int
}

func (s *failAfterSink) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if s.okUploads == 0 {
		return "", errors.New("backend down")
	}
	s.okUploads--
	return s.MemorySink.Upload(ctx, name, data)
}

func TestChunker_FailedPartLogsOrphans(t *testing.T) {
	var out bytes.Buffer
	sink := &failAfterSink{MemorySink: storage.NewMemorySink(), okUploads: 2}
	c := newChunker(t, smallTransferConfig(), logging.New(&out, "debug"), sink)

	_, err := c.Store(context.Background(), randomPayload(t, 3*testPartSize+5), "file.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "part 3 of 4")

	// Both stored parts stay behind and are reported
	assert.Equal(t, 2, sink.Len())
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("orphan candidate")))
}

func TestChunker_DetectsCorruptPart(t *testing.T) {
	sink := storage.NewMemorySink()
	c := newChunker(t, smallTransferConfig(), logging.Discard(), sink)

	res, err := c.Store(context.Background(), randomPayload(t, 2*testPartSize+testMaxSingle), "file.bin")
	require.NoError(t, err)

	sink.Corrupt(res.Parts[1].BlobID, []byte("short"))
	_, err = c.Read(context.Background(), res.Parts)
	assert.ErrorIs(t, err, common.ErrCorruptChunk)
}

func TestChunker_RejectsGapInParts(t *testing.T) {
	sink := storage.NewMemorySink()
	c := newChunker(t, smallTransferConfig(), logging.Discard(), sink)

	res, err := c.Store(context.Background(), randomPayload(t, 3*testPartSize+5), "file.bin")
	require.NoError(t, err)

	parts := append([]Part{}, res.Parts[0], res.Parts[2])
	_, err = c.Read(context.Background(), parts)
	assert.ErrorIs(t, err, common.ErrCorruptChunk)
}
