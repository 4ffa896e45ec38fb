package model

import "time"

// UploadSessionStatus upload session status
type UploadSessionStatus string

const (
	UploadSessionStatusPending   UploadSessionStatus = "pending"   // Accepting chunks
	UploadSessionStatusCompleted UploadSessionStatus = "completed" // File record created
	UploadSessionStatusCancelled UploadSessionStatus = "cancelled" // Cancelled by owner
	UploadSessionStatusExpired   UploadSessionStatus = "expired"   // Past ExpiresAt
)

// UploadSession represents a resumable chunked upload in progress
type UploadSession struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	SessionId string `gorm:"uniqueIndex;type:varchar(64)" json:"session_id"`
	OwnerId   string `gorm:"type:varchar(255);index" json:"owner_id"`

	// File information
	FileName         string `gorm:"type:varchar(255)" json:"file_name"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `gorm:"type:varchar(255)" json:"mime_type"`
	FolderId         string `gorm:"type:varchar(64)" json:"folder_id"`
	IsEncrypted      bool   `json:"is_encrypted"`
	OriginalSize     int64  `json:"original_size"`
	OriginalMimeType string `gorm:"type:varchar(255)" json:"original_mime_type"`

	// Chunk bookkeeping
	ChunkSize      int64 `json:"chunk_size"`
	TotalChunks    int   `gorm:"type:int" json:"total_chunks"`
	UploadedChunks int   `gorm:"type:int;default:0" json:"uploaded_chunks"` // Derived from chunk rows

	Status UploadSessionStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	// Timestamps
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// TableName sets custom table name
func (UploadSession) TableName() string {
	return "tb_upload_session"
}

// IsExpired reports whether the session is past its expiry at now
func (s *UploadSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsComplete every chunk received
func (s *UploadSession) IsComplete() bool {
	return s.UploadedChunks == s.TotalChunks
}

// ExpectedChunkSize size the chunk at index must have
func (s *UploadSession) ExpectedChunkSize(index int) int64 {
	if index < s.TotalChunks-1 {
		return s.ChunkSize
	}
	if s.TotalChunks == 0 {
		return 0
	}
	return s.FileSize - int64(s.TotalChunks-1)*s.ChunkSize
}
