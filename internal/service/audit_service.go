package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sealbox/sealbox/internal/model"
	"github.com/sealbox/sealbox/internal/repo"
)

// AuditService wraps the append-only audit table. Record never propagates a
// write failure to the caller: an access decision must not depend on the
// audit backend being healthy. Failures go to the error log for alerting so
// an unaudited window is visible operationally.
type AuditService struct {
	audit *repo.AuditRepo
}

func NewAuditService(audit *repo.AuditRepo) *AuditService {
	return &AuditService{audit: audit}
}

func (s *AuditService) Record(ctx context.Context, entry *model.AuditEntry) {
	if entry.ID == "" {
		entry.ID = newID()
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		logutil.GetLogger(ctx).Error("audit write failed",
			zap.String("entry_id", entry.ID),
			zap.String("grant_id", entry.GrantID),
			zap.String("kind", entry.Kind),
			zap.String("decision", entry.Decision),
			zap.Error(err),
		)
	}
}

func (s *AuditService) ListByGrant(ctx context.Context, grantID string, limit, offset uint) ([]model.AuditEntry, error) {
	return s.audit.ListByGrant(ctx, grantID, limit, offset)
}

func (s *AuditService) ListByFile(ctx context.Context, fileID string, limit, offset uint) ([]model.AuditEntry, error) {
	return s.audit.ListByFile(ctx, fileID, limit, offset)
}
