package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bot-file-system/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MySQLDatabase MySQL database implementation
type MySQLDatabase struct {
	db *gorm.DB
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// NewMySQLDatabase create MySQL database instance
func NewMySQLDatabase(config interface{}) (Database, error) {
	cfg, ok := config.(*MySQLConfig)
	if !ok {
		return nil, fmt.Errorf("invalid MySQL config type")
	}

	// Connect database
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect MySQL: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Set connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&model.UploadSession{},
		&model.UploadChunk{},
		&model.FileRecord{},
		&model.FileChunk{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	log.Println("MySQL database connected successfully")

	return &MySQLDatabase{db: db}, nil
}

// GetGormDB get GORM database instance
func (m *MySQLDatabase) GetGormDB() *gorm.DB {
	return m.db
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

// UploadSession operations

func (m *MySQLDatabase) CreateUploadSession(ctx context.Context, session *model.UploadSession) error {
	return translate(m.db.WithContext(ctx).Create(session).Error)
}

func (m *MySQLDatabase) GetUploadSession(ctx context.Context, sessionID string) (*model.UploadSession, error) {
	var session model.UploadSession
	err := m.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (m *MySQLDatabase) RefreshUploadedChunks(ctx context.Context, sessionID string) (int, error) {
	var count int64
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.UploadChunk{}).
			Where("session_id = ?", sessionID).
			Count(&count).Error; err != nil {
			return err
		}
		res := tx.Model(&model.UploadSession{}).
			Where("session_id = ?", sessionID).
			Update("uploaded_chunks", count)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}
	return int(count), nil
}

func (m *MySQLDatabase) DeleteUploadSession(ctx context.Context, sessionID string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.UploadChunk{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&model.UploadSession{}).Error
	})
}

func (m *MySQLDatabase) ListExpiredUploadSessions(ctx context.Context, before time.Time, limit int) ([]*model.UploadSession, error) {
	var sessions []*model.UploadSession
	query := m.db.WithContext(ctx).Where("expires_at < ?", before).Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

// UploadChunk operations

func (m *MySQLDatabase) CreateUploadChunk(ctx context.Context, chunk *model.UploadChunk) error {
	return translate(m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the session row so a concurrent cancel or sweep cannot
		// delete it between the check and the insert.
		var session model.UploadSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ?", chunk.SessionId).
			First(&session).Error; err != nil {
			return err
		}
		return tx.Create(chunk).Error
	}))
}

func (m *MySQLDatabase) GetUploadChunk(ctx context.Context, sessionID string, chunkIndex int) (*model.UploadChunk, error) {
	var chunk model.UploadChunk
	err := m.db.WithContext(ctx).
		Where("session_id = ? AND chunk_index = ?", sessionID, chunkIndex).
		First(&chunk).Error
	if err != nil {
		return nil, translate(err)
	}
	return &chunk, nil
}

func (m *MySQLDatabase) ListUploadChunks(ctx context.Context, sessionID string) ([]*model.UploadChunk, error) {
	var chunks []*model.UploadChunk
	err := m.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	return chunks, err
}

// FileRecord operations

func (m *MySQLDatabase) CreateFileRecord(ctx context.Context, file *model.FileRecord, chunks []*model.FileChunk) error {
	return translate(m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createFileInTx(tx, file, chunks)
	}))
}

func createFileInTx(tx *gorm.DB, file *model.FileRecord, chunks []*model.FileChunk) error {
	if err := tx.Create(file).Error; err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	for _, chunk := range chunks {
		chunk.FileId = file.FileId
	}
	return tx.CreateInBatches(chunks, 100).Error
}

func (m *MySQLDatabase) GetFileRecord(ctx context.Context, fileID string) (*model.FileRecord, error) {
	var file model.FileRecord
	err := m.db.WithContext(ctx).Where("file_id = ?", fileID).First(&file).Error
	if err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

func (m *MySQLDatabase) ListFileChunks(ctx context.Context, fileID string) ([]*model.FileChunk, error) {
	var chunks []*model.FileChunk
	err := m.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	return chunks, err
}

func (m *MySQLDatabase) FinalizeUploadSession(ctx context.Context, sessionID string, file *model.FileRecord, chunks []*model.FileChunk, beforeCommit func() error) error {
	return translate(m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Deleting the session first makes a concurrent finalize of the
		// same session block on the row lock and then see zero rows.
		res := tx.Where("session_id = ?", sessionID).Delete(&model.UploadSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.UploadChunk{}).Error; err != nil {
			return err
		}
		if err := createFileInTx(tx, file, chunks); err != nil {
			return err
		}
		if beforeCommit != nil {
			return beforeCommit()
		}
		return nil
	}))
}

// Close close database
func (m *MySQLDatabase) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
