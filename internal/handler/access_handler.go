package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sealbox/sealbox/internal/model"
	"github.com/sealbox/sealbox/internal/pkg/errcode"
	"github.com/sealbox/sealbox/internal/pkg/response"
	"github.com/sealbox/sealbox/internal/service"
)

// AccessHandler is the public, unauthenticated surface: everything here is
// gated by the access token plus the grant's policy, nothing by a session.
type AccessHandler struct {
	access *service.AccessService
	files  *service.FileService
}

func NewAccessHandler(access *service.AccessService, files *service.FileService) *AccessHandler {
	return &AccessHandler{access: access, files: files}
}

type accessRequest struct {
	Password    string `json:"password"`
	ViewerEmail string `json:"viewer_email"`
}

type fileView struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type accessResponse struct {
	Decision      string    `json:"decision"`
	AllowDownload bool      `json:"allow_download"`
	Watermark     string    `json:"watermark,omitempty"`
	File          *fileView `json:"file,omitempty"`
}

// Resolve runs one full access attempt and returns the decision. Denials are
// successful responses carrying a denial decision; only transport-level
// problems are errors.
func (h *AccessHandler) Resolve(c *gin.Context) {
	var req accessRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
	}
	decision := h.access.HandleAccess(c.Request.Context(), c.Param("token"), req.Password, requestMeta(c, req.ViewerEmail))
	resp := accessResponse{
		Decision:      string(decision.Code),
		AllowDownload: decision.AllowDownload,
		Watermark:     decision.Watermark,
	}
	if decision.Allowed() {
		file, err := h.files.GetForAccess(c.Request.Context(), decision.Grant.FileID)
		if err != nil {
			handleError(c, err)
			return
		}
		resp.File = &fileView{Name: file.Name, ContentType: file.ContentType, Size: file.Size}
	}
	response.Success(c, resp)
}

// Content streams the file bytes after a fresh policy pass; a viewer cannot
// reuse an earlier Resolve verdict. download=1 asks for an attachment and is
// refused when the policy prevents downloads.
func (h *AccessHandler) Content(c *gin.Context) {
	meta := requestMeta(c, c.Query("viewer_email"))
	decision := h.access.HandleAccess(c.Request.Context(), c.Param("token"), c.Query("password"), meta)
	if !decision.Allowed() {
		status := http.StatusForbidden
		if decision.Code == service.DecisionDeniedNotFound {
			status = http.StatusNotFound
		}
		c.Status(status)
		return
	}
	wantDownload := c.Query("download") == "1"
	if wantDownload && !decision.AllowDownload {
		c.Status(http.StatusForbidden)
		return
	}
	file, err := h.files.GetForAccess(c.Request.Context(), decision.Grant.FileID)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.serveContent(c, file, wantDownload)
}

func (h *AccessHandler) serveContent(c *gin.Context, file *model.File, asAttachment bool) {
	// Object stores without a readable Open expose a public base URL; hand
	// the viewer over once the decision is made.
	if h.files.StoreType() != "local" {
		c.Redirect(http.StatusFound, h.files.ContentURL(file, ""))
		return
	}
	reader, err := h.files.Open(c.Request.Context(), file)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer reader.Close()
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := "inline"
	if asAttachment {
		disposition = "attachment"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.Name))
	_, _ = reader.Seek(0, io.SeekStart)
	_, _ = io.Copy(c.Writer, reader)
}

type anomalyRequest struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// ReportAnomaly accepts viewer-side circumvention signals. They are stored
// as unverified telemetry; the response never reveals whether the token
// resolved to anything.
func (h *AccessHandler) ReportAnomaly(c *gin.Context) {
	var req anomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.access.ReportAnomaly(c.Request.Context(), c.Param("token"), req.Kind, req.Detail, requestMeta(c, "")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func requestMeta(c *gin.Context, viewerEmail string) service.RequestMeta {
	return service.RequestMeta{
		ViewerEmail: viewerEmail,
		RemoteIP:    c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}
}
