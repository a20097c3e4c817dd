package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sealbox/sealbox/internal/model"
	appErr "github.com/sealbox/sealbox/internal/pkg/errors"
	"github.com/sealbox/sealbox/internal/pkg/timeutil"
	"github.com/sealbox/sealbox/internal/repo"
)

// RequestMeta is what the transport layer knows about the requester.
type RequestMeta struct {
	ViewerEmail string
	RemoteIP    string
	UserAgent   string
}

// Anomaly signal kinds a viewer client may report. The client is untrusted,
// so these are telemetry, never enforcement input.
var anomalyKinds = map[string]struct{}{
	"context_menu":   {},
	"key_block":      {},
	"focus_loss":     {},
	"devtools":       {},
	"screen_capture": {},
}

func IsAnomalyKind(kind string) bool {
	_, ok := anomalyKinds[kind]
	return ok
}

// AccessService coordinates one access attempt: resolve the token, evaluate
// the policy, log the outcome, answer. Every attempt is logged exactly once,
// before the decision is handed back.
type AccessService struct {
	grants *GrantService
	files  *FileService
	audit  *AuditService
}

func NewAccessService(grants *GrantService, files *FileService, audit *AuditService) *AccessService {
	return &AccessService{grants: grants, files: files, audit: audit}
}

func (s *AccessService) HandleAccess(ctx context.Context, tok, pass string, meta RequestMeta) Decision {
	now := time.Now()

	var grant *model.Grant
	if g, err := s.grants.GetByToken(ctx, tok); err == nil {
		grant = g
	} else if !appErr.IsNotFound(err) {
		// Storage trouble resolving the token. Failing closed as not-found
		// is the only safe answer.
		logutil.GetLogger(ctx).Error("token resolution failed", zap.Error(err))
	}

	// A grant whose file was since deleted is as good as no grant; the
	// audit entry keeps the grant id so the trail stays complete.
	auditGrantID := ""
	auditFileID := ""
	if grant != nil {
		auditGrantID = grant.ID
		auditFileID = grant.FileID
		if _, err := s.files.GetForAccess(ctx, grant.FileID); err != nil {
			grant = nil
		}
	}

	decision := Evaluate(grant, AccessAttempt{
		Password:    pass,
		ViewerEmail: meta.ViewerEmail,
		RemoteIP:    meta.RemoteIP,
		UserAgent:   meta.UserAgent,
	}, now)

	kind := repo.AuditKindDenied
	if decision.Allowed() {
		kind = repo.AuditKindView
	}
	s.audit.Record(ctx, &model.AuditEntry{
		GrantID:   auditGrantID,
		FileID:    auditFileID,
		Kind:      kind,
		Decision:  string(decision.Code),
		RemoteIP:  meta.RemoteIP,
		UserAgent: meta.UserAgent,
		Ctime:     now.Unix(),
	})
	return decision
}

// ReportAnomaly stores a client-reported circumvention signal. Unverifiable
// by design, so it always succeeds from the caller's point of view and never
// hardens into a deny.
func (s *AccessService) ReportAnomaly(ctx context.Context, tok, kind, detail string, meta RequestMeta) error {
	if !IsAnomalyKind(kind) {
		return appErr.ErrInvalid
	}
	grantID := ""
	fileID := ""
	if grant, err := s.grants.GetByToken(ctx, tok); err == nil {
		grantID = grant.ID
		fileID = grant.FileID
	}
	s.audit.Record(ctx, &model.AuditEntry{
		GrantID:   grantID,
		FileID:    fileID,
		Kind:      repo.AuditKindAnomaly,
		Decision:  "",
		RemoteIP:  meta.RemoteIP,
		UserAgent: meta.UserAgent,
		Detail:    kind + ": " + detail,
		Ctime:     timeutil.NowUnix(),
	})
	return nil
}
