package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sealbox/sealbox/internal/filestore"
	"github.com/sealbox/sealbox/internal/model"
	"github.com/sealbox/sealbox/internal/pkg/timeutil"
	"github.com/sealbox/sealbox/internal/repo"
)

type FileService struct {
	files *repo.FileRepo
	store filestore.Store
	// File rows are immutable apart from the soft delete, which goes through
	// Delete below and purges the cache, so serving public access reads from
	// an LRU is safe.
	cache *expirable.LRU[string, *model.File]
}

func NewFileService(files *repo.FileRepo, store filestore.Store) *FileService {
	return &FileService{
		files: files,
		store: store,
		cache: expirable.NewLRU[string, *model.File](1024, nil, 5*time.Minute),
	}
}

func (s *FileService) Upload(ctx context.Context, ownerID, name, contentType string, r filestore.ReadSeekCloser, size int64) (*model.File, error) {
	id := newID()
	key := id
	if ext := sanitizeExt(filepath.Ext(name)); ext != "" {
		key += ext
	}
	if err := s.store.Save(ctx, key, r, size); err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	file := &model.File{
		ID:          id,
		OwnerID:     ownerID,
		Name:        name,
		ContentType: contentType,
		Size:        size,
		StorageKey:  key,
		State:       repo.FileStateNormal,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *FileService) List(ctx context.Context, ownerID string, limit, offset uint) ([]model.File, error) {
	return s.files.List(ctx, ownerID, limit, offset)
}

func (s *FileService) GetOwned(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	return s.files.GetOwned(ctx, ownerID, fileID)
}

// Delete soft-deletes the metadata row. Stored bytes stay put: existing audit
// history may still reference the file and reclamation is a separate concern.
func (s *FileService) Delete(ctx context.Context, ownerID, fileID string) error {
	if err := s.files.SoftDelete(ctx, ownerID, fileID, timeutil.NowUnix()); err != nil {
		return err
	}
	s.cache.Remove(fileID)
	return nil
}

// GetForAccess serves the public viewer path, which hits the same few files
// repeatedly; reads go through the LRU.
func (s *FileService) GetForAccess(ctx context.Context, fileID string) (*model.File, error) {
	if file, ok := s.cache.Get(fileID); ok {
		return file, nil
	}
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	s.cache.Add(fileID, file)
	return file, nil
}

func (s *FileService) Open(ctx context.Context, file *model.File) (filestore.ReadSeekCloser, error) {
	return s.store.Open(ctx, file.StorageKey)
}

func (s *FileService) StoreType() string {
	return s.store.Type()
}

func (s *FileService) ContentURL(file *model.File, baseURL string) string {
	return s.store.URL(file.StorageKey, baseURL)
}

func sanitizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, ch := range ext[1:] {
		if (ch < 'a' || ch > 'z') && (ch < '0' || ch > '9') {
			return ""
		}
	}
	return ext
}
