package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/sealbox/sealbox/internal/model"
	"github.com/sealbox/sealbox/internal/pkg/dbutil"
	appErr "github.com/sealbox/sealbox/internal/pkg/errors"
)

const (
	GrantStateActive  = 1
	GrantStateRevoked = 2
)

var grantColumns = []string{
	"id", "file_id", "owner_id", "recipients", "token_digest",
	"expires_at", "password_hash", "prevent_download", "track_views", "watermark_enabled",
	"state", "ctime", "mtime",
}

type GrantRepo struct {
	db *sql.DB
}

func NewGrantRepo(db *sql.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

func (r *GrantRepo) Create(ctx context.Context, grant *model.Grant) error {
	recipients, err := json.Marshal(grant.Recipients)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":                grant.ID,
		"file_id":           grant.FileID,
		"owner_id":          grant.OwnerID,
		"recipients":        string(recipients),
		"token_digest":      grant.TokenDigest,
		"expires_at":        grant.Policy.ExpiresAt,
		"password_hash":     grant.Policy.PasswordHash,
		"prevent_download":  boolToInt(grant.Policy.PreventDownload),
		"track_views":       boolToInt(grant.Policy.TrackViews),
		"watermark_enabled": boolToInt(grant.Policy.WatermarkEnabled),
		"state":             grant.State,
		"ctime":             grant.Ctime,
		"mtime":             grant.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("grants", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *GrantRepo) GetByID(ctx context.Context, grantID string) (*model.Grant, error) {
	return r.getOne(ctx, map[string]interface{}{"id": grantID})
}

func (r *GrantRepo) GetByTokenDigest(ctx context.Context, digest string) (*model.Grant, error) {
	return r.getOne(ctx, map[string]interface{}{"token_digest": digest})
}

// Revoke flips an active grant to revoked in one statement, so a revoke
// racing concurrent reads either wins completely or changes nothing. Returns
// the number of rows transitioned; zero means the grant was already revoked.
func (r *GrantRepo) Revoke(ctx context.Context, grantID string, mtime int64) (int64, error) {
	where := map[string]interface{}{"id": grantID, "state": GrantStateActive}
	update := map[string]interface{}{"state": GrantStateRevoked, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("grants", where, update)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *GrantRepo) ListByFile(ctx context.Context, ownerID, fileID string) ([]model.Grant, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"file_id":  fileID,
		"_orderby": "ctime desc",
	}
	sqlStr, args, err := builder.BuildSelect("grants", where, grantColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Grant, 0)
	for rows.Next() {
		var grant model.Grant
		if err := scanGrant(rows, &grant); err != nil {
			return nil, err
		}
		items = append(items, grant)
	}
	return items, rows.Err()
}

func (r *GrantRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Grant, error) {
	sqlStr, args, err := builder.BuildSelect("grants", where, grantColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var grant model.Grant
	if err := scanGrant(rows, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

func scanGrant(rows *sql.Rows, grant *model.Grant) error {
	var recipients string
	var preventDownload, trackViews, watermarkEnabled int
	if err := rows.Scan(
		&grant.ID, &grant.FileID, &grant.OwnerID, &recipients, &grant.TokenDigest,
		&grant.Policy.ExpiresAt, &grant.Policy.PasswordHash, &preventDownload, &trackViews, &watermarkEnabled,
		&grant.State, &grant.Ctime, &grant.Mtime,
	); err != nil {
		return err
	}
	grant.Policy.PreventDownload = preventDownload != 0
	grant.Policy.TrackViews = trackViews != 0
	grant.Policy.WatermarkEnabled = watermarkEnabled != 0
	if recipients != "" {
		if err := json.Unmarshal([]byte(recipients), &grant.Recipients); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
