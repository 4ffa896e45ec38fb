package upload_service

import (
	"context"
	"fmt"
	"time"

	"bot-file-system/common"
	"bot-file-system/conf"
	"bot-file-system/database"
	"bot-file-system/logging"
	"bot-file-system/model"
	"bot-file-system/model/dao"
	"bot-file-system/service/quota_service"
	"bot-file-system/service/transfer_service"

	"github.com/google/uuid"
)

// UploadService resumable upload sessions and direct uploads
type UploadService struct {
	sessionDAO *dao.UploadSessionDAO
	chunkDAO   *dao.UploadChunkDAO
	fileDAO    *dao.FileRecordDAO
	transfer   transfer_service.BlobTransfer
	chunker    *transfer_service.Chunker
	quota      quota_service.Quota
	cfg        conf.UploadConfig
	log        logging.Logger
	now        func() time.Time
}

type Option func(*UploadService)

// WithClock replace time.Now, used for session expiry
func WithClock(now func() time.Time) Option {
	return func(s *UploadService) {
		s.now = now
	}
}

// NewUploadService create upload service instance. A nil quota accepts
// every upload.
func NewUploadService(
	db database.Database,
	transfer transfer_service.BlobTransfer,
	chunker *transfer_service.Chunker,
	quota quota_service.Quota,
	cfg conf.UploadConfig,
	log logging.Logger,
	opts ...Option,
) *UploadService {
	if quota == nil {
		quota = quota_service.Noop{}
	}
	s := &UploadService{
		sessionDAO: dao.NewUploadSessionDAO(db),
		chunkDAO:   dao.NewUploadChunkDAO(db),
		fileDAO:    dao.NewFileRecordDAO(db),
		transfer:   transfer,
		chunker:    chunker,
		quota:      quota,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChunkSize client chunk size of new sessions
func (s *UploadService) ChunkSize() int64 {
	return s.cfg.ChunkSize
}

// FileMeta descriptive fields shared by direct uploads and sessions
type FileMeta struct {
	OwnerId          string
	FileName         string
	MimeType         string
	FolderId         string
	IsEncrypted      bool
	OriginalSize     int64
	OriginalMimeType string
}

func (m *FileMeta) validate() error {
	if m.OwnerId == "" {
		return fmt.Errorf("%w: owner is required", common.ErrInvalidArgument)
	}
	if m.FileName == "" {
		return fmt.Errorf("%w: file name is required", common.ErrInvalidArgument)
	}
	return nil
}

func (m *FileMeta) newFileRecord(size int64) *model.FileRecord {
	return &model.FileRecord{
		FileId:           uuid.NewString(),
		OwnerId:          m.OwnerId,
		FolderId:         m.FolderId,
		FileName:         m.FileName,
		FileSize:         size,
		MimeType:         m.MimeType,
		IsEncrypted:      m.IsEncrypted,
		OriginalSize:     m.OriginalSize,
		OriginalMimeType: m.OriginalMimeType,
	}
}

// DirectUploadRequest single request upload of a whole payload
type DirectUploadRequest struct {
	FileMeta
	Content []byte
}

// DirectUpload store the payload through the chunker and create its file
// record. Payloads above the direct upload cap must use a session.
func (s *UploadService) DirectUpload(ctx context.Context, req *DirectUploadRequest) (*model.FileRecord, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	size := int64(len(req.Content))
	if s.cfg.DirectMaxSize > 0 && size > s.cfg.DirectMaxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", common.ErrPayloadTooLarge, size, s.cfg.DirectMaxSize)
	}
	if err := s.quota.CheckUpload(ctx, req.OwnerId, size); err != nil {
		return nil, err
	}

	res, err := s.chunker.Store(ctx, req.Content, req.FileName)
	if err != nil {
		return nil, err
	}

	file := req.newFileRecord(size)
	file.IsChunked = res.IsChunked
	file.TotalChunks = len(res.Parts)
	if !res.IsChunked {
		file.NodeId = res.Parts[0].NodeID
		file.BlobId = res.Parts[0].BlobID
	}
	chunks := make([]*model.FileChunk, 0, len(res.Parts))
	for _, p := range res.Parts {
		chunks = append(chunks, &model.FileChunk{
			ChunkIndex: p.ChunkIndex,
			NodeId:     p.NodeID,
			BlobId:     p.BlobID,
			Size:       p.Size,
		})
	}

	if err := s.fileDAO.Create(ctx, file, chunks); err != nil {
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}
	if err := s.quota.RecordUpload(ctx, req.OwnerId, size); err != nil {
		s.log.Error(ctx, "quota accounting failed", "file", file.FileId, "owner", req.OwnerId, "error", err)
	}

	s.log.Info(ctx, "direct upload stored",
		"file", file.FileId, "owner", req.OwnerId, "size", size, "chunked", file.IsChunked, "parts", file.TotalChunks)
	return file, nil
}

// CleanupExpiredSessions delete up to limit sessions that expired before
// the given time, with their chunk rows. Stored blobs are left in place.
func (s *UploadService) CleanupExpiredSessions(ctx context.Context, before time.Time, limit int) (int, error) {
	sessions, err := s.sessionDAO.ListExpired(ctx, before, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	cleaned := 0
	for _, session := range sessions {
		if err := s.sessionDAO.Delete(ctx, session.SessionId); err != nil {
			s.log.Warn(ctx, "failed to delete expired session", "session", session.SessionId, "error", err)
			continue
		}
		cleaned++
	}
	return cleaned, nil
}
