package handler

import (
	"io"
	"strconv"

	"bot-file-system/controller/respond"
	"bot-file-system/service/upload_service"

	"github.com/gin-gonic/gin"
)

// OwnerHeader carries the caller identity set by the upstream auth proxy
const OwnerHeader = "X-Owner-Id"

// ownerID caller identity, writes 401 and returns false when missing
func ownerID(c *gin.Context) (string, bool) {
	owner := c.GetHeader(OwnerHeader)
	if owner == "" {
		respond.Unauthorized(c, OwnerHeader+" header is required")
		return "", false
	}
	return owner, true
}

// UploadHandler upload handler
type UploadHandler struct {
	uploadService *upload_service.UploadService
	directMaxSize int64
}

// NewUploadHandler create upload handler instance
func NewUploadHandler(uploadService *upload_service.UploadService, directMaxSize int64) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		directMaxSize: directMaxSize,
	}
}

// DirectUpload upload a whole file in one request
// @Summary      Direct upload
// @Description  Upload a file in one multipart request. Files above the direct upload limit must use an upload session.
// @Tags         File Upload
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Owner-Id        header    string  true   "Owner ID"
// @Param        file              formData  file    true   "File to upload"
// @Param        folderId          formData  string  false  "Folder ID"
// @Param        mimeType          formData  string  false  "Mime type, defaults to the part content type"
// @Param        isEncrypted       formData  bool    false  "Client side encrypted"  default(false)
// @Param        originalSize      formData  int     false  "Size before encryption"
// @Param        originalMimeType  formData  string  false  "Mime type before encryption"
// @Success      200  {object}  respond.Response{data=respond.FileResponse}  "File stored"
// @Failure      400  {object}  respond.Response  "Parameter error"
// @Failure      401  {object}  respond.Response  "Missing owner"
// @Failure      413  {object}  respond.Response  "Use an upload session"
// @Failure      503  {object}  respond.Response  "Storage temporarily unavailable"
// @Failure      507  {object}  respond.Response  "Quota exceeded"
// @Router       /files/upload [post]
func (h *UploadHandler) DirectUpload(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respond.InvalidParam(c, "file is required")
		return
	}
	defer file.Close()

	req := &upload_service.DirectUploadRequest{
		FileMeta: upload_service.FileMeta{
			OwnerId:          owner,
			FileName:         header.Filename,
			MimeType:         c.PostForm("mimeType"),
			FolderId:         c.PostForm("folderId"),
			OriginalMimeType: c.PostForm("originalMimeType"),
		},
	}
	if req.MimeType == "" {
		req.MimeType = header.Header.Get("Content-Type")
	}
	if v := c.PostForm("isEncrypted"); v != "" {
		if req.IsEncrypted, err = strconv.ParseBool(v); err != nil {
			respond.InvalidParam(c, "isEncrypted must be a boolean")
			return
		}
	}
	if v := c.PostForm("originalSize"); v != "" {
		if req.OriginalSize, err = strconv.ParseInt(v, 10, 64); err != nil {
			respond.InvalidParam(c, "originalSize must be an integer")
			return
		}
	}

	// Read at most one byte over the limit; the service rejects oversize content
	reader := io.Reader(file)
	if h.directMaxSize > 0 {
		reader = io.LimitReader(file, h.directMaxSize+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		respond.ServerError(c, "failed to read file")
		return
	}
	req.Content = content

	record, err := h.uploadService.DirectUpload(c.Request.Context(), req)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, respond.ToFileResponse(record))
}

// InitSession create a resumable upload session
// @Summary      Create upload session
// @Description  Declare a file and get the chunk layout for a resumable upload
// @Tags         Upload Session
// @Accept       json
// @Produce      json
// @Param        X-Owner-Id  header  string                       true  "Owner ID"
// @Param        request     body    respond.InitSessionRequest   true  "File to upload"
// @Success      200  {object}  respond.Response{data=upload_service.InitSessionResponse}
// @Failure      400  {object}  respond.Response
// @Failure      401  {object}  respond.Response
// @Failure      507  {object}  respond.Response  "Quota exceeded"
// @Router       /files/sessions [post]
func (h *UploadHandler) InitSession(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var body respond.InitSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.InvalidParam(c, err.Error())
		return
	}

	resp, err := h.uploadService.InitSession(c.Request.Context(), &upload_service.InitSessionRequest{
		FileMeta: upload_service.FileMeta{
			OwnerId:          owner,
			FileName:         body.FileName,
			MimeType:         body.MimeType,
			FolderId:         body.FolderId,
			IsEncrypted:      body.IsEncrypted,
			OriginalSize:     body.OriginalSize,
			OriginalMimeType: body.OriginalMimeType,
		},
		FileSize: body.FileSize,
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, resp)
}

// UploadChunk store one chunk of a session
// @Summary      Upload chunk
// @Description  Send the raw bytes of one chunk. Re-sending a stored chunk is a no-op.
// @Tags         Upload Session
// @Accept       octet-stream
// @Produce      json
// @Param        X-Owner-Id  header  string  true  "Owner ID"
// @Param        sessionId   path    string  true  "Session ID"
// @Param        chunkIndex  path    int     true  "Chunk index, from 0"
// @Success      200  {object}  respond.Response{data=upload_service.ChunkProgress}
// @Failure      400  {object}  respond.Response  "Invalid index or size"
// @Failure      403  {object}  respond.Response  "Not the owner"
// @Failure      404  {object}  respond.Response  "Unknown session"
// @Failure      409  {object}  respond.Response  "Session not pending"
// @Failure      410  {object}  respond.Response  "Session expired"
// @Failure      503  {object}  respond.Response  "Storage temporarily unavailable"
// @Router       /files/sessions/{sessionId}/chunks/{chunkIndex} [put]
func (h *UploadHandler) UploadChunk(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("chunkIndex"))
	if err != nil {
		respond.InvalidParam(c, "chunkIndex must be an integer")
		return
	}

	limit := h.uploadService.ChunkSize()
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		respond.ServerError(c, "failed to read chunk")
		return
	}
	if int64(len(data)) > limit {
		respond.InvalidParam(c, "chunk is larger than the session chunk size")
		return
	}

	progress, err := h.uploadService.AcceptChunk(c.Request.Context(), owner, c.Param("sessionId"), index, data)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, progress)
}

// GetSession session progress
// @Summary      Get upload session
// @Description  Progress of a session with the chunk indices still missing, for resuming
// @Tags         Upload Session
// @Produce      json
// @Param        X-Owner-Id  header  string  true  "Owner ID"
// @Param        sessionId   path    string  true  "Session ID"
// @Success      200  {object}  respond.Response{data=upload_service.SessionStatus}
// @Failure      403  {object}  respond.Response
// @Failure      404  {object}  respond.Response
// @Failure      410  {object}  respond.Response
// @Router       /files/sessions/{sessionId} [get]
func (h *UploadHandler) GetSession(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	status, err := h.uploadService.GetSessionStatus(c.Request.Context(), owner, c.Param("sessionId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, status)
}

// CompleteSession finalize a fully uploaded session
// @Summary      Complete upload session
// @Description  Turn a session with every chunk into a file
// @Tags         Upload Session
// @Produce      json
// @Param        X-Owner-Id  header  string  true  "Owner ID"
// @Param        sessionId   path    string  true  "Session ID"
// @Success      200  {object}  respond.Response{data=respond.FileResponse}
// @Failure      403  {object}  respond.Response
// @Failure      404  {object}  respond.Response
// @Failure      409  {object}  respond.Response  "Chunks missing, or session not pending"
// @Failure      410  {object}  respond.Response
// @Router       /files/sessions/{sessionId}/complete [post]
func (h *UploadHandler) CompleteSession(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	file, err := h.uploadService.CompleteSession(c.Request.Context(), owner, c.Param("sessionId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, respond.ToFileResponse(file))
}

// CancelSession drop a session
// @Summary      Cancel upload session
// @Tags         Upload Session
// @Produce      json
// @Param        X-Owner-Id  header  string  true  "Owner ID"
// @Param        sessionId   path    string  true  "Session ID"
// @Success      200  {object}  respond.Response
// @Failure      403  {object}  respond.Response
// @Failure      404  {object}  respond.Response
// @Router       /files/sessions/{sessionId} [delete]
func (h *UploadHandler) CancelSession(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	sessionID := c.Param("sessionId")
	if err := h.uploadService.CancelSession(c.Request.Context(), owner, sessionID); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Success(c, gin.H{"sessionId": sessionID})
}
