package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sealbox/sealbox/internal/model"
	appErr "github.com/sealbox/sealbox/internal/pkg/errors"
	"github.com/sealbox/sealbox/internal/pkg/timeutil"
	"github.com/sealbox/sealbox/internal/repo"
	"github.com/sealbox/sealbox/test/testutil"
)

func TestFileRepoCRUDAndIsolation(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	files := repo.NewFileRepo(db)
	ownerID := newTestID()
	now := timeutil.NowUnix()
	file := &model.File{
		ID:          newTestID(),
		OwnerID:     ownerID,
		Name:        "contract.pdf",
		ContentType: "application/pdf",
		Size:        1234,
		StorageKey:  newTestID() + ".pdf",
		State:       repo.FileStateNormal,
		Ctime:       now,
		Mtime:       now,
	}
	require.NoError(t, files.Create(context.Background(), file))

	fetched, err := files.GetOwned(context.Background(), ownerID, file.ID)
	require.NoError(t, err)
	require.Equal(t, "contract.pdf", fetched.Name)

	_, err = files.GetOwned(context.Background(), newTestID(), file.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	items, err := files.List(context.Background(), ownerID, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, files.SoftDelete(context.Background(), ownerID, file.ID, timeutil.NowUnix()))
	_, err = files.GetByID(context.Background(), file.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// Soft delete is idempotent failure: the row is already gone from the
	// live view.
	err = files.SoftDelete(context.Background(), ownerID, file.ID, timeutil.NowUnix())
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
