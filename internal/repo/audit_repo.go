package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/sealbox/sealbox/internal/model"
	"github.com/sealbox/sealbox/internal/pkg/dbutil"
)

const (
	AuditKindView    = "view"
	AuditKindDenied  = "denied"
	AuditKindAnomaly = "anomaly"
)

var auditColumns = []string{"id", "grant_id", "file_id", "kind", "decision", "remote_ip", "user_agent", "detail", "ctime"}

// AuditRepo only inserts and selects; the table has no update or delete path.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, entry *model.AuditEntry) error {
	data := map[string]interface{}{
		"id":         entry.ID,
		"grant_id":   entry.GrantID,
		"file_id":    entry.FileID,
		"kind":       entry.Kind,
		"decision":   entry.Decision,
		"remote_ip":  entry.RemoteIP,
		"user_agent": entry.UserAgent,
		"detail":     entry.Detail,
		"ctime":      entry.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("audit_entries", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *AuditRepo) ListByGrant(ctx context.Context, grantID string, limit, offset uint) ([]model.AuditEntry, error) {
	return r.list(ctx, map[string]interface{}{"grant_id": grantID}, limit, offset)
}

func (r *AuditRepo) ListByFile(ctx context.Context, fileID string, limit, offset uint) ([]model.AuditEntry, error) {
	return r.list(ctx, map[string]interface{}{"file_id": fileID}, limit, offset)
}

func (r *AuditRepo) list(ctx context.Context, where map[string]interface{}, limit, offset uint) ([]model.AuditEntry, error) {
	where["_orderby"] = "ctime desc"
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("audit_entries", where, auditColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.AuditEntry, 0)
	for rows.Next() {
		var entry model.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.GrantID, &entry.FileID, &entry.Kind, &entry.Decision, &entry.RemoteIP, &entry.UserAgent, &entry.Detail, &entry.Ctime); err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	return items, rows.Err()
}

// TrackedView is one logged view joined with enough context to notify the
// file's owner.
type TrackedView struct {
	Entry      model.AuditEntry
	GrantID    string
	FileName   string
	OwnerEmail string
}

// ListTrackedViewsSince feeds the view digest job: successful views on
// track_views grants recorded at or after the cutoff.
func (r *AuditRepo) ListTrackedViewsSince(ctx context.Context, since int64) ([]TrackedView, error) {
	sqlStr := `
		SELECT a.id, a.grant_id, a.file_id, a.kind, a.decision, a.remote_ip, a.user_agent, a.detail, a.ctime,
			f.name, u.email
		FROM audit_entries a
		JOIN grants g ON g.id = a.grant_id
		JOIN files f ON f.id = a.file_id
		JOIN users u ON u.id = g.owner_id
		WHERE a.kind = ? AND a.ctime >= ? AND g.track_views = 1
		ORDER BY a.ctime ASC
	`
	args := []interface{}{AuditKindView, since}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]TrackedView, 0)
	for rows.Next() {
		var item TrackedView
		if err := rows.Scan(
			&item.Entry.ID, &item.Entry.GrantID, &item.Entry.FileID, &item.Entry.Kind, &item.Entry.Decision,
			&item.Entry.RemoteIP, &item.Entry.UserAgent, &item.Entry.Detail, &item.Entry.Ctime,
			&item.FileName, &item.OwnerEmail,
		); err != nil {
			return nil, err
		}
		item.GrantID = item.Entry.GrantID
		items = append(items, item)
	}
	return items, rows.Err()
}
