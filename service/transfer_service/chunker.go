package transfer_service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"bot-file-system/common"
	"bot-file-system/conf"
	"bot-file-system/logging"
)

// BlobTransfer single-blob upload and download with retries
type BlobTransfer interface {
	Upload(ctx context.Context, data []byte, name string) (BlobRef, error)
	Download(ctx context.Context, nodeID, blobID string) ([]byte, error)
}

// Part one stored slice of a logical payload
type Part struct {
	ChunkIndex int    `json:"chunkIndex"`
	NodeID     string `json:"nodeId"`
	BlobID     string `json:"blobId"`
	Size       int64  `json:"size"`
}

// StoreResult parts of a stored payload in index order. IsChunked is false
// when the payload fit in one blob; Parts then has exactly one entry.
type StoreResult struct {
	IsChunked bool
	Parts     []Part
}

// Chunker hides the per-blob size ceiling of the backends. Payloads up to
// maxSingleSize go out as one blob, larger ones as partSize parts.
type Chunker struct {
	transfer      BlobTransfer
	maxSingleSize int64
	partSize      int64
	log           logging.Logger
}

func NewChunker(transfer BlobTransfer, cfg conf.TransferConfig, log logging.Logger) *Chunker {
	return &Chunker{
		transfer:      transfer,
		maxSingleSize: cfg.MaxSingleSize,
		partSize:      cfg.PartSize,
		log:           log,
	}
}

// PartCount number of parts a payload of size bytes is stored as
func (c *Chunker) PartCount(size int64) int {
	if size <= c.maxSingleSize {
		return 1
	}
	return int((size + c.partSize - 1) / c.partSize)
}

// Store upload data as one blob or as sequential parts. A failed part
// leaves the earlier parts stored; they are logged as orphan candidates.
func (c *Chunker) Store(ctx context.Context, data []byte, name string) (*StoreResult, error) {
	size := int64(len(data))
	if size <= c.maxSingleSize {
		ref, err := c.transfer.Upload(ctx, data, name)
		if err != nil {
			return nil, err
		}
		return &StoreResult{
			Parts: []Part{{ChunkIndex: 0, NodeID: ref.NodeID, BlobID: ref.BlobID, Size: size}},
		}, nil
	}

	count := c.PartCount(size)
	parts := make([]Part, 0, count)
	for i := 0; i < count; i++ {
		start := int64(i) * c.partSize
		end := start + c.partSize
		if end > size {
			end = size
		}

		ref, err := c.transfer.Upload(ctx, data[start:end], fmt.Sprintf("%s.part%03d", name, i))
		if err != nil {
			for _, p := range parts {
				c.log.Warn(ctx, "orphan candidate",
					"name", name, "part", p.ChunkIndex, "node", p.NodeID, "blob", p.BlobID, "size", p.Size)
			}
			return nil, fmt.Errorf("failed to store part %d of %d: %w", i+1, count, err)
		}
		parts = append(parts, Part{ChunkIndex: i, NodeID: ref.NodeID, BlobID: ref.BlobID, Size: end - start})
	}

	c.log.Info(ctx, "payload stored in parts", "name", name, "size", size, "parts", count)
	return &StoreResult{IsChunked: true, Parts: parts}, nil
}

// Load download parts in order and write them to w. Parts must be ordered
// by index without gaps and every part must have its declared size,
// otherwise common.ErrCorruptChunk is returned.
func (c *Chunker) Load(ctx context.Context, parts []Part, w io.Writer) (int64, error) {
	var expected, written int64
	for i, p := range parts {
		if p.ChunkIndex != i {
			return written, fmt.Errorf("%w: part %d found at position %d", common.ErrCorruptChunk, p.ChunkIndex, i)
		}
		expected += p.Size
	}

	for _, p := range parts {
		data, err := c.transfer.Download(ctx, p.NodeID, p.BlobID)
		if err != nil {
			return written, fmt.Errorf("failed to load part %d: %w", p.ChunkIndex, err)
		}
		if int64(len(data)) != p.Size {
			return written, fmt.Errorf("%w: part %d has %d bytes, expected %d",
				common.ErrCorruptChunk, p.ChunkIndex, len(data), p.Size)
		}
		n, err := w.Write(data)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("failed to write part %d: %w", p.ChunkIndex, err)
		}
	}

	if written != expected {
		return written, fmt.Errorf("%w: got %d bytes, expected %d", common.ErrCorruptChunk, written, expected)
	}
	return written, nil
}

// Read load parts into memory
func (c *Chunker) Read(ctx context.Context, parts []Part) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.Load(ctx, parts, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
