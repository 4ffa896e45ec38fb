package model

import "time"

// UploadChunk one received chunk of an upload session
type UploadChunk struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	SessionId  string `gorm:"type:varchar(64);uniqueIndex:idx_session_chunk" json:"session_id"`
	ChunkIndex int    `gorm:"uniqueIndex:idx_session_chunk" json:"chunk_index"`

	// Where the bytes live
	NodeId string `gorm:"type:varchar(64)" json:"node_id"`
	BlobId string `gorm:"type:varchar(512)" json:"blob_id"`
	Size   int64  `json:"size"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets custom table name
func (UploadChunk) TableName() string {
	return "tb_upload_chunk"
}
