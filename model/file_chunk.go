package model

// FileChunk ordered part of a chunked file
type FileChunk struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	FileId     string `gorm:"type:varchar(64);uniqueIndex:idx_file_chunk" json:"file_id"`
	ChunkIndex int    `gorm:"uniqueIndex:idx_file_chunk" json:"chunk_index"`

	NodeId string `gorm:"type:varchar(64)" json:"node_id"`
	BlobId string `gorm:"type:varchar(512)" json:"blob_id"`
	Size   int64  `json:"size"`
}

// TableName sets custom table name
func (FileChunk) TableName() string {
	return "tb_file_chunk"
}
