package dao

import (
	"context"
	"errors"
	"time"

	"bot-file-system/database"
	"bot-file-system/model"
)

// UploadSessionDAO upload session data access object
type UploadSessionDAO struct {
	db database.Database
}

// NewUploadSessionDAO create upload session DAO instance
func NewUploadSessionDAO(db database.Database) *UploadSessionDAO {
	return &UploadSessionDAO{db: db}
}

// Create create upload session record
func (dao *UploadSessionDAO) Create(ctx context.Context, session *model.UploadSession) error {
	return dao.db.CreateUploadSession(ctx, session)
}

// GetBySessionID get session, nil when it does not exist
func (dao *UploadSessionDAO) GetBySessionID(ctx context.Context, sessionID string) (*model.UploadSession, error) {
	session, err := dao.db.GetUploadSession(ctx, sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return session, err
}

// RefreshProgress recount chunk rows into UploadedChunks
func (dao *UploadSessionDAO) RefreshProgress(ctx context.Context, sessionID string) (int, error) {
	return dao.db.RefreshUploadedChunks(ctx, sessionID)
}

// Delete delete session and its chunk rows
func (dao *UploadSessionDAO) Delete(ctx context.Context, sessionID string) error {
	return dao.db.DeleteUploadSession(ctx, sessionID)
}

// ListExpired sessions whose expiry is before the given time
func (dao *UploadSessionDAO) ListExpired(ctx context.Context, before time.Time, limit int) ([]*model.UploadSession, error) {
	return dao.db.ListExpiredUploadSessions(ctx, before, limit)
}

// Finalize turn the session into a file record, see Database.FinalizeUploadSession
func (dao *UploadSessionDAO) Finalize(ctx context.Context, sessionID string, file *model.FileRecord, chunks []*model.FileChunk, beforeCommit func() error) error {
	return dao.db.FinalizeUploadSession(ctx, sessionID, file, chunks, beforeCommit)
}
