package database

import (
	"context"
	"time"

	"bot-file-system/model"
)

// Database interface for different database implementations
type Database interface {
	// UploadSession operations
	CreateUploadSession(ctx context.Context, session *model.UploadSession) error
	GetUploadSession(ctx context.Context, sessionID string) (*model.UploadSession, error)
	// RefreshUploadedChunks recounts the chunk rows of a session, stores the
	// count on the session and returns it.
	RefreshUploadedChunks(ctx context.Context, sessionID string) (int, error)
	// DeleteUploadSession removes the session and all of its chunk rows.
	DeleteUploadSession(ctx context.Context, sessionID string) error
	ListExpiredUploadSessions(ctx context.Context, before time.Time, limit int) ([]*model.UploadSession, error)

	// UploadChunk operations
	// CreateUploadChunk returns ErrDuplicate when the (session, index) pair exists.
	CreateUploadChunk(ctx context.Context, chunk *model.UploadChunk) error
	GetUploadChunk(ctx context.Context, sessionID string, chunkIndex int) (*model.UploadChunk, error)
	ListUploadChunks(ctx context.Context, sessionID string) ([]*model.UploadChunk, error) // ordered by chunk index

	// FileRecord operations
	// CreateFileRecord stores the file and its chunk rows in one write.
	CreateFileRecord(ctx context.Context, file *model.FileRecord, chunks []*model.FileChunk) error
	GetFileRecord(ctx context.Context, fileID string) (*model.FileRecord, error)
	ListFileChunks(ctx context.Context, fileID string) ([]*model.FileChunk, error) // ordered by chunk index

	// FinalizeUploadSession atomically creates the file record and chunk
	// rows, deletes the session with its chunks and runs beforeCommit. An
	// error from beforeCommit aborts everything. Returns ErrNotFound when
	// the session no longer exists.
	FinalizeUploadSession(ctx context.Context, sessionID string, file *model.FileRecord, chunks []*model.FileChunk, beforeCommit func() error) error

	// General operations
	Close() error
}

// DBType database type
type DBType string

const (
	DBTypeMySQL  DBType = "mysql"
	DBTypePebble DBType = "pebble"
)

// NewDatabase create database with specified type
func NewDatabase(dbType DBType, config interface{}) (Database, error) {
	switch dbType {
	case DBTypeMySQL:
		return NewMySQLDatabase(config)
	case DBTypePebble:
		return NewPebbleDatabase(config)
	default:
		return nil, ErrUnsupportedDBType
	}
}
