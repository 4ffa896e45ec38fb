package dao

import (
	"context"
	"errors"

	"bot-file-system/database"
	"bot-file-system/model"
)

// UploadChunkDAO upload chunk data access object
type UploadChunkDAO struct {
	db database.Database
}

// NewUploadChunkDAO create upload chunk DAO instance
func NewUploadChunkDAO(db database.Database) *UploadChunkDAO {
	return &UploadChunkDAO{db: db}
}

// Create create chunk record, database.ErrDuplicate when the index is taken
func (dao *UploadChunkDAO) Create(ctx context.Context, chunk *model.UploadChunk) error {
	return dao.db.CreateUploadChunk(ctx, chunk)
}

// Get get one chunk, nil when it does not exist
func (dao *UploadChunkDAO) Get(ctx context.Context, sessionID string, chunkIndex int) (*model.UploadChunk, error) {
	chunk, err := dao.db.GetUploadChunk(ctx, sessionID, chunkIndex)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return chunk, err
}

// ListBySessionID get all chunks of a session (ordered by chunk_index)
func (dao *UploadChunkDAO) ListBySessionID(ctx context.Context, sessionID string) ([]*model.UploadChunk, error) {
	return dao.db.ListUploadChunks(ctx, sessionID)
}
