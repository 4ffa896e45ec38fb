package model

import "time"

// FileRecord a completed file. When IsChunked is false the bytes are
// addressed by NodeId/BlobId directly, otherwise by FileChunk rows.
type FileRecord struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	FileId   string `gorm:"uniqueIndex;type:varchar(64)" json:"file_id"`
	OwnerId  string `gorm:"type:varchar(255);index" json:"owner_id"`
	FolderId string `gorm:"type:varchar(64);index" json:"folder_id"`

	FileName         string `gorm:"type:varchar(255)" json:"file_name"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `gorm:"type:varchar(255)" json:"mime_type"`
	IsEncrypted      bool   `json:"is_encrypted"`
	OriginalSize     int64  `json:"original_size"`
	OriginalMimeType string `gorm:"type:varchar(255)" json:"original_mime_type"`

	IsChunked   bool `json:"is_chunked"`
	TotalChunks int  `gorm:"type:int" json:"total_chunks"`

	// Direct reference, only meaningful when IsChunked is false
	NodeId string `gorm:"type:varchar(64)" json:"node_id"`
	BlobId string `gorm:"type:varchar(512)" json:"blob_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets custom table name
func (FileRecord) TableName() string {
	return "tb_file_record"
}
