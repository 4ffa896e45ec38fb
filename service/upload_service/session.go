package upload_service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bot-file-system/common"
	"bot-file-system/database"
	"bot-file-system/model"

	"github.com/google/uuid"
)

// InitSessionRequest declared file of a new upload session
type InitSessionRequest struct {
	FileMeta
	FileSize int64
}

// InitSessionResponse what the client needs to start sending chunks
type InitSessionResponse struct {
	SessionId   string    `json:"sessionId"`
	TotalChunks int       `json:"totalChunks"`
	ChunkSize   int64     `json:"chunkSize"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// ChunkProgress session progress after a chunk was accepted
type ChunkProgress struct {
	SessionId      string `json:"sessionId"`
	ChunkIndex     int    `json:"chunkIndex"`
	UploadedChunks int    `json:"uploadedChunks"`
	TotalChunks    int    `json:"totalChunks"`
	AlreadyPresent bool   `json:"alreadyPresent"` // Chunk was stored by an earlier request
}

// SessionStatus progress of a session, for clients that resume
type SessionStatus struct {
	SessionId      string                    `json:"sessionId"`
	FileName       string                    `json:"fileName"`
	FileSize       int64                     `json:"fileSize"`
	Status         model.UploadSessionStatus `json:"status"`
	ChunkSize      int64                     `json:"chunkSize"`
	TotalChunks    int                       `json:"totalChunks"`
	UploadedChunks int                       `json:"uploadedChunks"`
	MissingChunks  []int                     `json:"missingChunks"`
	ExpiresAt      time.Time                 `json:"expiresAt"`
}

// totalChunks number of client chunks for size. An empty file still has
// one empty chunk so every session completes through the same path.
func totalChunks(size, chunkSize int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// InitSession create an upload session after the quota check passes
func (s *UploadService) InitSession(ctx context.Context, req *InitSessionRequest) (*InitSessionResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.FileSize < 0 {
		return nil, fmt.Errorf("%w: file size must not be negative", common.ErrInvalidArgument)
	}
	if err := s.quota.CheckUpload(ctx, req.OwnerId, req.FileSize); err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.UploadSession{
		SessionId:        uuid.NewString(),
		OwnerId:          req.OwnerId,
		FileName:         req.FileName,
		FileSize:         req.FileSize,
		MimeType:         req.MimeType,
		FolderId:         req.FolderId,
		IsEncrypted:      req.IsEncrypted,
		OriginalSize:     req.OriginalSize,
		OriginalMimeType: req.OriginalMimeType,
		ChunkSize:        s.cfg.ChunkSize,
		TotalChunks:      totalChunks(req.FileSize, s.cfg.ChunkSize),
		Status:           model.UploadSessionStatusPending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessionDAO.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create upload session: %w", err)
	}

	s.log.Info(ctx, "upload session created",
		"session", session.SessionId, "owner", session.OwnerId, "size", session.FileSize, "chunks", session.TotalChunks)
	return &InitSessionResponse{
		SessionId:   session.SessionId,
		TotalChunks: session.TotalChunks,
		ChunkSize:   session.ChunkSize,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

// ownedSession load the session and check it belongs to owner
func (s *UploadService) ownedSession(ctx context.Context, ownerID, sessionID string) (*model.UploadSession, error) {
	session, err := s.sessionDAO.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: upload session %s", common.ErrNotFound, sessionID)
	}
	if session.OwnerId != ownerID {
		return nil, fmt.Errorf("%w: upload session %s belongs to another owner", common.ErrForbidden, sessionID)
	}
	return session, nil
}

// expireIfDue deletes an expired session and returns ErrGone. Later
// requests for it see NotFound.
func (s *UploadService) expireIfDue(ctx context.Context, session *model.UploadSession) error {
	if !session.IsExpired(s.now()) {
		return nil
	}
	if err := s.sessionDAO.Delete(ctx, session.SessionId); err != nil {
		s.log.Warn(ctx, "failed to delete expired session", "session", session.SessionId, "error", err)
	}
	s.log.Info(ctx, "upload session expired", "session", session.SessionId, "expiresAt", session.ExpiresAt)
	return fmt.Errorf("%w: upload session %s expired at %s",
		common.ErrGone, session.SessionId, session.ExpiresAt.Format(time.RFC3339))
}

// pendingSession session that may still take chunks: exists, owned,
// pending and not expired, checked in that order
func (s *UploadService) pendingSession(ctx context.Context, ownerID, sessionID string) (*model.UploadSession, error) {
	session, err := s.ownedSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.UploadSessionStatusPending {
		return nil, fmt.Errorf("%w: upload session %s is %s", common.ErrConflict, sessionID, session.Status)
	}
	if err := s.expireIfDue(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AcceptChunk store one chunk of a session. Re-sending a chunk that is
// already stored is a no-op returning current progress.
func (s *UploadService) AcceptChunk(ctx context.Context, ownerID, sessionID string, index int, data []byte) (*ChunkProgress, error) {
	session, err := s.pendingSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= session.TotalChunks {
		return nil, fmt.Errorf("%w: chunk index %d outside [0, %d)", common.ErrInvalidArgument, index, session.TotalChunks)
	}

	progress := &ChunkProgress{
		SessionId:      session.SessionId,
		ChunkIndex:     index,
		UploadedChunks: session.UploadedChunks,
		TotalChunks:    session.TotalChunks,
	}

	existing, err := s.chunkDAO.Get(ctx, sessionID, index)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	if existing != nil {
		uploaded, err := s.refreshProgress(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		progress.AlreadyPresent = true
		progress.UploadedChunks = uploaded
		return progress, nil
	}

	if want := session.ExpectedChunkSize(index); int64(len(data)) != want {
		return nil, fmt.Errorf("%w: chunk %d has %d bytes, expected %d",
			common.ErrInvalidArgument, index, len(data), want)
	}

	ref, err := s.transfer.Upload(ctx, data, fmt.Sprintf("%s.chunk%05d", session.FileName, index))
	if err != nil {
		return nil, err
	}

	err = s.chunkDAO.Create(ctx, &model.UploadChunk{
		SessionId:  sessionID,
		ChunkIndex: index,
		NodeId:     ref.NodeID,
		BlobId:     ref.BlobID,
		Size:       int64(len(data)),
	})
	switch {
	case errors.Is(err, database.ErrDuplicate):
		// A concurrent request stored the same chunk first
		s.log.Warn(ctx, "orphan candidate",
			"session", sessionID, "chunk", index, "node", ref.NodeID, "blob", ref.BlobID)
		progress.AlreadyPresent = true
	case errors.Is(err, database.ErrNotFound):
		// The session row went away while the blob was in flight
		s.log.Warn(ctx, "orphan candidate",
			"session", sessionID, "chunk", index, "node", ref.NodeID, "blob", ref.BlobID)
		return nil, fmt.Errorf("%w: upload session %s was removed during the upload", common.ErrNotFound, sessionID)
	case err != nil:
		return nil, fmt.Errorf("failed to save chunk: %w", err)
	}

	uploaded, err := s.refreshProgress(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	progress.UploadedChunks = uploaded

	s.log.Debug(ctx, "chunk accepted",
		"session", sessionID, "chunk", index, "node", ref.NodeID, "uploaded", uploaded, "total", session.TotalChunks)
	return progress, nil
}

func (s *UploadService) refreshProgress(ctx context.Context, sessionID string) (int, error) {
	uploaded, err := s.sessionDAO.RefreshProgress(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return 0, fmt.Errorf("%w: upload session %s no longer exists", common.ErrNotFound, sessionID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update session progress: %w", err)
	}
	return uploaded, nil
}

// CompleteSession turn a fully uploaded session into a file record. The
// file rows, the session deletion and the quota accounting commit together.
func (s *UploadService) CompleteSession(ctx context.Context, ownerID, sessionID string) (*model.FileRecord, error) {
	session, err := s.pendingSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkDAO.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if len(chunks) != session.TotalChunks {
		return nil, &common.ChunksMissingError{Expected: session.TotalChunks, Actual: len(chunks)}
	}

	file := (&FileMeta{
		OwnerId:          session.OwnerId,
		FileName:         session.FileName,
		MimeType:         session.MimeType,
		FolderId:         session.FolderId,
		IsEncrypted:      session.IsEncrypted,
		OriginalSize:     session.OriginalSize,
		OriginalMimeType: session.OriginalMimeType,
	}).newFileRecord(session.FileSize)
	file.IsChunked = session.TotalChunks > 1
	file.TotalChunks = session.TotalChunks
	if !file.IsChunked {
		file.NodeId = chunks[0].NodeId
		file.BlobId = chunks[0].BlobId
	}

	fileChunks := make([]*model.FileChunk, 0, len(chunks))
	var total int64
	for i, c := range chunks {
		if c.ChunkIndex != i {
			return nil, fmt.Errorf("%w: chunk %d found at position %d", common.ErrCorruptChunk, c.ChunkIndex, i)
		}
		total += c.Size
		fileChunks = append(fileChunks, &model.FileChunk{
			ChunkIndex: c.ChunkIndex,
			NodeId:     c.NodeId,
			BlobId:     c.BlobId,
			Size:       c.Size,
		})
	}
	if total != session.FileSize {
		return nil, fmt.Errorf("%w: chunks hold %d bytes, session declared %d",
			common.ErrCorruptChunk, total, session.FileSize)
	}

	charged := false
	err = s.sessionDAO.Finalize(ctx, sessionID, file, fileChunks, func() error {
		if err := s.quota.RecordUpload(ctx, ownerID, session.FileSize); err != nil {
			return err
		}
		charged = true
		return nil
	})
	if err != nil && charged {
		// The quota store is separate from the database, so a failed
		// commit leaves the usage counter ahead of the stored files.
		s.log.Error(ctx, "quota drift",
			"session", sessionID, "owner", ownerID, "size", session.FileSize, "error", err)
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: upload session %s was finalized concurrently", common.ErrConflict, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to finalize upload session: %w", err)
	}

	s.log.Info(ctx, "upload session completed",
		"session", sessionID, "file", file.FileId, "size", file.FileSize, "chunks", file.TotalChunks)
	return file, nil
}

// CancelSession delete a session and its chunk rows whatever its state.
// Stored blobs are not removed.
func (s *UploadService) CancelSession(ctx context.Context, ownerID, sessionID string) error {
	if _, err := s.ownedSession(ctx, ownerID, sessionID); err != nil {
		return err
	}
	if err := s.sessionDAO.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete upload session: %w", err)
	}
	s.log.Info(ctx, "upload session cancelled", "session", sessionID, "owner", ownerID)
	return nil
}

// GetSessionStatus progress with the indices still missing
func (s *UploadService) GetSessionStatus(ctx context.Context, ownerID, sessionID string) (*SessionStatus, error) {
	session, err := s.ownedSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.expireIfDue(ctx, session); err != nil {
		return nil, err
	}

	chunks, err := s.chunkDAO.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	present := make(map[int]bool, len(chunks))
	for _, c := range chunks {
		present[c.ChunkIndex] = true
	}
	missing := []int{}
	for i := 0; i < session.TotalChunks; i++ {
		if !present[i] {
			missing = append(missing, i)
		}
	}

	return &SessionStatus{
		SessionId:      session.SessionId,
		FileName:       session.FileName,
		FileSize:       session.FileSize,
		Status:         session.Status,
		ChunkSize:      session.ChunkSize,
		TotalChunks:    session.TotalChunks,
		UploadedChunks: len(chunks),
		MissingChunks:  missing,
		ExpiresAt:      session.ExpiresAt,
	}, nil
}
