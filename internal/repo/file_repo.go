package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/sealbox/sealbox/internal/model"
	"github.com/sealbox/sealbox/internal/pkg/dbutil"
	appErr "github.com/sealbox/sealbox/internal/pkg/errors"
)

const (
	FileStateNormal  = 1
	FileStateDeleted = 2
)

var fileColumns = []string{"id", "owner_id", "name", "content_type", "size", "storage_key", "state", "ctime", "mtime"}

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

func (r *FileRepo) Create(ctx context.Context, file *model.File) error {
	data := map[string]interface{}{
		"id":           file.ID,
		"owner_id":     file.OwnerID,
		"name":         file.Name,
		"content_type": file.ContentType,
		"size":         file.Size,
		"storage_key":  file.StorageKey,
		"state":        file.State,
		"ctime":        file.Ctime,
		"mtime":        file.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("files", []map[string]interface{}{data})
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

func (r *FileRepo) GetByID(ctx context.Context, fileID string) (*model.File, error) {
	return r.getOne(ctx, map[string]interface{}{"id": fileID, "state": FileStateNormal})
}

func (r *FileRepo) GetOwned(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	return r.getOne(ctx, map[string]interface{}{"id": fileID, "owner_id": ownerID, "state": FileStateNormal})
}

func (r *FileRepo) List(ctx context.Context, ownerID string, limit, offset uint) ([]model.File, error) {
	where := map[string]interface{}{
		"owner_id": ownerID,
		"state":    FileStateNormal,
		"_orderby": "ctime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("files", where, fileColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.File, 0)
	for rows.Next() {
		var file model.File
		if err := scanFile(rows, &file); err != nil {
			return nil, err
		}
		items = append(items, file)
	}
	return items, rows.Err()
}

func (r *FileRepo) SoftDelete(ctx context.Context, ownerID, fileID string, mtime int64) error {
	where := map[string]interface{}{"id": fileID, "owner_id": ownerID, "state": FileStateNormal}
	update := map[string]interface{}{"state": FileStateDeleted, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("files", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *FileRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.File, error) {
	sqlStr, args, err := builder.BuildSelect("files", where, fileColumns)
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
	var file model.File
	if err := scanFile(rows, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

func scanFile(rows *sql.Rows, file *model.File) error {
	return rows.Scan(&file.ID, &file.OwnerID, &file.Name, &file.ContentType, &file.Size, &file.StorageKey, &file.State, &file.Ctime, &file.Mtime)
}
