package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sealbox/sealbox/internal/pkg/errcode"
	"github.com/sealbox/sealbox/internal/pkg/response"
	"github.com/sealbox/sealbox/internal/service"
)

type GrantHandler struct {
	grants *service.GrantService
	audit  *service.AuditService
}

func NewGrantHandler(grants *service.GrantService, audit *service.AuditService) *GrantHandler {
	return &GrantHandler{grants: grants, audit: audit}
}

type createGrantRequest struct {
	Recipients []string            `json:"recipients"`
	Policy     service.PolicyInput `json:"policy"`
}

func (h *GrantHandler) Create(c *gin.Context) {
	var req createGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	created, err := h.grants.CreateGrant(c.Request.Context(), getUserID(c), c.Param("id"), req.Recipients, req.Policy)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, created)
}

func (h *GrantHandler) List(c *gin.Context) {
	items, err := h.grants.ListByFile(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

func (h *GrantHandler) Revoke(c *gin.Context) {
	if err := h.grants.Revoke(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// Audit lists the access trail of one grant, newest first. Owner only.
func (h *GrantHandler) Audit(c *gin.Context) {
	grant, err := h.grants.GetOwned(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	limit, offset := pagination(c, 50)
	items, err := h.audit.ListByGrant(c.Request.Context(), grant.ID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

// FileAudit lists the access trail across all of a file's grants.
func (h *GrantHandler) FileAudit(c *gin.Context) {
	if _, err := h.grants.ListByFile(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	limit, offset := pagination(c, 50)
	items, err := h.audit.ListByFile(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}
