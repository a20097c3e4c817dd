package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/sealbox/sealbox/internal/repo"
	"github.com/sealbox/sealbox/internal/service"
)

// ViewDigestJob mails owners a digest of new views on grants that track
// views. It only reads the audit log; a notification failure never touches
// access decisions.
type ViewDigestJob struct {
	audit  *repo.AuditRepo
	sender service.EmailSender
	cursor int64
}

func NewViewDigestJob(audit *repo.AuditRepo, sender service.EmailSender) *ViewDigestJob {
	return &ViewDigestJob{audit: audit, sender: sender, cursor: time.Now().Unix()}
}

func (j *ViewDigestJob) Name() string {
	return "view_digest"
}

func (j *ViewDigestJob) Run(ctx context.Context) error {
	since := j.cursor
	next := time.Now().Unix()
	views, err := j.audit.ListTrackedViewsSince(ctx, since)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		j.cursor = next
		return nil
	}

	byOwner := make(map[string][]repo.TrackedView)
	for _, v := range views {
		byOwner[v.OwnerEmail] = append(byOwner[v.OwnerEmail], v)
	}
	logger := logutil.GetLogger(ctx)
	for owner, items := range byOwner {
		var b strings.Builder
		fmt.Fprintf(&b, "Your shared files were viewed %d time(s):\n\n", len(items))
		for _, v := range items {
			fmt.Fprintf(&b, "- %s viewed from %s at %s\n",
				v.FileName, v.Entry.RemoteIP, time.Unix(v.Entry.Ctime, 0).UTC().Format(time.RFC822))
		}
		if err := j.sender.Send(owner, "File view activity", b.String()); err != nil {
			logger.Error("view digest mail failed", zap.String("owner", owner), zap.Error(err))
			continue
		}
		logger.Info("view digest sent", zap.String("owner", owner), zap.Int("views", len(items)))
	}
	j.cursor = next
	return nil
}
