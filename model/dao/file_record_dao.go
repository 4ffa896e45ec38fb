package dao

import (
	"context"
	"errors"

	"bot-file-system/database"
	"bot-file-system/model"
)

// FileRecordDAO file record data access object
type FileRecordDAO struct {
	db database.Database
}

// NewFileRecordDAO create file record DAO instance
func NewFileRecordDAO(db database.Database) *FileRecordDAO {
	return &FileRecordDAO{db: db}
}

// Create create file record together with its chunk rows
func (dao *FileRecordDAO) Create(ctx context.Context, file *model.FileRecord, chunks []*model.FileChunk) error {
	return dao.db.CreateFileRecord(ctx, file, chunks)
}

// GetByFileID get file record, nil when it does not exist
func (dao *FileRecordDAO) GetByFileID(ctx context.Context, fileID string) (*model.FileRecord, error) {
	file, err := dao.db.GetFileRecord(ctx, fileID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return file, err
}

// ListChunks get chunks of a file (ordered by chunk_index)
func (dao *FileRecordDAO) ListChunks(ctx context.Context, fileID string) ([]*model.FileChunk, error) {
	return dao.db.ListFileChunks(ctx, fileID)
}
