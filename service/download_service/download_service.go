// Package download_service reads stored files back, reassembling chunked
// files from their parts in index order.
package download_service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"bot-file-system/common"
	"bot-file-system/database"
	"bot-file-system/logging"
	"bot-file-system/model"
	"bot-file-system/model/dao"
	"bot-file-system/service/transfer_service"
)

// FileCache optional cache of file records in front of the database
type FileCache interface {
	Get(ctx context.Context, fileID string) *model.FileRecord
	Set(ctx context.Context, file *model.FileRecord)
}

// DownloadService download service
type DownloadService struct {
	fileDAO *dao.FileRecordDAO
	chunker *transfer_service.Chunker
	cache   FileCache
	log     logging.Logger
}

// NewDownloadService create download service instance, cache may be nil
func NewDownloadService(db database.Database, chunker *transfer_service.Chunker, cache FileCache, log logging.Logger) *DownloadService {
	return &DownloadService{
		fileDAO: dao.NewFileRecordDAO(db),
		chunker: chunker,
		cache:   cache,
		log:     log,
	}
}

// Open get file record by file ID
func (s *DownloadService) Open(ctx context.Context, fileID string) (*model.FileRecord, error) {
	if s.cache != nil {
		if file := s.cache.Get(ctx, fileID); file != nil {
			return file, nil
		}
	}

	file, err := s.fileDAO.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("%w: file %s", common.ErrNotFound, fileID)
	}

	if s.cache != nil {
		s.cache.Set(ctx, file)
	}
	return file, nil
}

// parts blob references of a file in index order. A non-chunked file is
// its own single part.
func (s *DownloadService) parts(ctx context.Context, file *model.FileRecord) ([]transfer_service.Part, error) {
	if !file.IsChunked {
		return []transfer_service.Part{{
			ChunkIndex: 0,
			NodeID:     file.NodeId,
			BlobID:     file.BlobId,
			Size:       file.FileSize,
		}}, nil
	}

	chunks, err := s.fileDAO.ListChunks(ctx, file.FileId)
	if err != nil {
		return nil, fmt.Errorf("failed to list file chunks: %w", err)
	}
	if len(chunks) != file.TotalChunks {
		return nil, fmt.Errorf("%w: file %s has %d chunk rows, expected %d",
			common.ErrCorruptChunk, file.FileId, len(chunks), file.TotalChunks)
	}

	parts := make([]transfer_service.Part, 0, len(chunks))
	var total int64
	for _, c := range chunks {
		parts = append(parts, transfer_service.Part{
			ChunkIndex: c.ChunkIndex,
			NodeID:     c.NodeId,
			BlobID:     c.BlobId,
			Size:       c.Size,
		})
		total += c.Size
	}
	if total != file.FileSize {
		return nil, fmt.Errorf("%w: file %s chunks hold %d bytes, expected %d",
			common.ErrCorruptChunk, file.FileId, total, file.FileSize)
	}
	return parts, nil
}

// WriteTo stream the file content to w. Chunk rows are validated before
// the first byte is written; a chunk that fails to download or comes back
// short aborts the stream with an error.
func (s *DownloadService) WriteTo(ctx context.Context, file *model.FileRecord, w io.Writer) error {
	parts, err := s.parts(ctx, file)
	if err != nil {
		return err
	}
	written, err := s.chunker.Load(ctx, parts, w)
	if err != nil {
		s.log.Error(ctx, "file read failed", "file", file.FileId, "written", written, "error", err)
		return err
	}
	return nil
}

// ReadAll file content in memory
func (s *DownloadService) ReadAll(ctx context.Context, file *model.FileRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.WriteTo(ctx, file, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
