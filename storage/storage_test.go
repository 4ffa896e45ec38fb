package storage

import (
	"bytes"
	"context"
	"testing"

	"bot-file-system/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSink_RoundTrip(t *testing.T) {
	sink, err := NewLocalSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	payload := bytes.Repeat([]byte{0xAB}, 4096)
	blobID, err := sink.Upload(ctx, "../../etc/passwd", payload)
	require.NoError(t, err)
	assert.NotContains(t, blobID, "/")
	assert.Contains(t, blobID, "passwd")

	got, err := sink.Download(ctx, blobID)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLocalSink_NotFoundAndTraversal(t *testing.T) {
	sink, err := NewLocalSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"", "absent", "../secret", "a/b"} {
		_, err := sink.Download(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}

func TestLocalSink_CancelledContext(t *testing.T) {
	sink, err := NewLocalSink(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sink.Upload(ctx, "a", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSink(t *testing.T) {
	sink, err := NewSink(conf.NodeConfig{ID: "l", Kind: KindLocal, BasePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalSink{}, sink)

	sink, err = NewSink(conf.NodeConfig{ID: "b", Kind: KindTelegram, Credential: "TOKEN", Channel: "-1"})
	require.NoError(t, err)
	assert.IsType(t, &TelegramSink{}, sink)

	_, err = NewSink(conf.NodeConfig{ID: "x", Kind: "ftp"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewSink(conf.NodeConfig{ID: "s", Kind: KindS3})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewSink(conf.NodeConfig{ID: "o", Kind: KindOSS})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, "a.txt", objectName("x/y/a.txt"))
	assert.Equal(t, "a.txt", objectName(`C:\tmp\a.txt`))
	assert.Equal(t, "blob", objectName(""))
	assert.Equal(t, "blob", objectName("/"))
}
