package respond

import (
	"time"

	"bot-file-system/model"
	"bot-file-system/node"
)

// FileResponse public view of a stored file
type FileResponse struct {
	FileId           string    `json:"fileId" example:"6f1c2a4e-3b9d-4c47-9f0e-2d8f1a7b5c33"`
	OwnerId          string    `json:"ownerId" example:"user_42"`
	FolderId         string    `json:"folderId" example:""`
	FileName         string    `json:"fileName" example:"video.mp4"`
	FileSize         int64     `json:"fileSize" example:"62914560"`
	MimeType         string    `json:"mimeType" example:"video/mp4"`
	IsEncrypted      bool      `json:"isEncrypted" example:"false"`
	OriginalSize     int64     `json:"originalSize" example:"0"`
	OriginalMimeType string    `json:"originalMimeType" example:""`
	IsChunked        bool      `json:"isChunked" example:"true"`
	TotalChunks      int       `json:"totalChunks" example:"4"`
	CreatedAt        time.Time `json:"createdAt" example:"2026-01-01T00:00:00Z"`
}

// ToFileResponse converts a model.FileRecord. Blob locations stay internal.
func ToFileResponse(file *model.FileRecord) *FileResponse {
	if file == nil {
		return nil
	}
	return &FileResponse{
		FileId:           file.FileId,
		OwnerId:          file.OwnerId,
		FolderId:         file.FolderId,
		FileName:         file.FileName,
		FileSize:         file.FileSize,
		MimeType:         file.MimeType,
		IsEncrypted:      file.IsEncrypted,
		OriginalSize:     file.OriginalSize,
		OriginalMimeType: file.OriginalMimeType,
		IsChunked:        file.IsChunked,
		TotalChunks:      file.TotalChunks,
		CreatedAt:        file.CreatedAt,
	}
}

// InitSessionRequest body of a new upload session
type InitSessionRequest struct {
	FileName         string `json:"fileName" binding:"required" example:"video.mp4"`
	FileSize         int64  `json:"fileSize" binding:"gte=0" example:"26214400"`
	MimeType         string `json:"mimeType" example:"video/mp4"`
	FolderId         string `json:"folderId" example:""`
	IsEncrypted      bool   `json:"isEncrypted" example:"false"`
	OriginalSize     int64  `json:"originalSize" example:"0"`
	OriginalMimeType string `json:"originalMimeType" example:""`
}

// NodeListResponse health of every backend node
type NodeListResponse struct {
	Nodes     []node.Status `json:"nodes"`
	Available bool          `json:"available" example:"true"`
}
