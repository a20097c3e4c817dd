package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sealbox/sealbox/internal/pkg/errcode"
	"github.com/sealbox/sealbox/internal/pkg/response"
	"github.com/sealbox/sealbox/internal/service"
)

type FileHandler struct {
	files       *service.FileService
	uploadLimit int64
}

func NewFileHandler(files *service.FileService, uploadLimit int64) *FileHandler {
	return &FileHandler{files: files, uploadLimit: uploadLimit}
}

func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.uploadLimit > 0 && header.Size > h.uploadLimit {
		response.Error(c, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := header.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = sniffContentType(opened)
	}

	file, err := h.files.Upload(c.Request.Context(), getUserID(c), header.Filename, contentType, opened, header.Size)
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to upload file")
		return
	}
	response.Success(c, gin.H{"file": file})
}

func (h *FileHandler) List(c *gin.Context) {
	limit, offset := pagination(c, 100)
	items, err := h.files.List(c.Request.Context(), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.files.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func sniffContentType(r interface {
	Read(p []byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
}) string {
	buf := make([]byte, 512)
	n, _ := r.Read(buf)
	_, _ = r.Seek(0, 0)
	if n == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(buf[:n])
}
