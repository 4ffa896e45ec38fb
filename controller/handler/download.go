package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"bot-file-system/controller/respond"
	"bot-file-system/node"
	"bot-file-system/service/download_service"

	"github.com/gin-gonic/gin"
)

// DownloadHandler file query and content handler
type DownloadHandler struct {
	downloadService *download_service.DownloadService
}

// NewDownloadHandler create download handler instance
func NewDownloadHandler(downloadService *download_service.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloadService: downloadService}
}

// GetFile get file metadata
// @Summary      Get file
// @Tags         File Download
// @Produce      json
// @Param        fileId  path  string  true  "File ID"
// @Success      200  {object}  respond.Response{data=respond.FileResponse}
// @Failure      404  {object}  respond.Response
// @Router       /files/{fileId} [get]
func (h *DownloadHandler) GetFile(c *gin.Context) {
	file, err := h.downloadService.Open(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, respond.ToFileResponse(file))
}

// GetFileContent stream file content
// @Summary      Get file content
// @Description  Stream the file bytes, reassembled from every chunk in order
// @Tags         File Download
// @Produce      octet-stream
// @Param        fileId  path      string  true  "File ID"
// @Success      200     {file}    binary
// @Failure      404     {object}  respond.Response
// @Failure      503     {object}  respond.Response  "Storage temporarily unavailable"
// @Router       /files/{fileId}/content [get]
func (h *DownloadHandler) GetFileContent(c *gin.Context) {
	ctx := c.Request.Context()
	file, err := h.downloadService.Open(ctx, c.Param("fileId"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	contentType := file.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Length", strconv.FormatInt(file.FileSize, 10))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.FileName))
	c.Status(http.StatusOK)

	if err := h.downloadService.WriteTo(ctx, file, c.Writer); err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Length")
			c.Writer.Header().Del("Content-Disposition")
			respond.Error(c, err)
			return
		}
		// Headers are out; the short body tells the client the read failed
		log.Printf("File content aborted: fileId=%s: %v", file.FileId, err)
		c.Abort()
	}
}

// NodeHandler backend node status handler
type NodeHandler struct {
	registry *node.Registry
}

// NewNodeHandler create node handler instance
func NewNodeHandler(registry *node.Registry) *NodeHandler {
	return &NodeHandler{registry: registry}
}

// ListNodes backend node health
// @Summary      List backend nodes
// @Description  Process local health of every configured backend node
// @Tags         Nodes
// @Produce      json
// @Success      200  {object}  respond.Response{data=respond.NodeListResponse}
// @Router       /nodes [get]
func (h *NodeHandler) ListNodes(c *gin.Context) {
	respond.Success(c, respond.NodeListResponse{
		Nodes:     h.registry.Snapshot(),
		Available: h.registry.IsAvailable(),
	})
}
