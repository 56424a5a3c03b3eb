package project

import (
	"context"
	"errors"
	"testing"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/repositories/memory"
	"github.com/3Eeeecho/go-docvault/internal/services/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contributor = models.Actor{UserID: 12, Role: models.RoleContributor}
	staff       = models.Actor{UserID: 13, Role: models.RoleStaff}
	superAdmin  = models.Actor{UserID: 14, Role: models.RoleSuperAdmin}
)

func ptr[T any](v T) *T {
	return &v
}

type fixture struct {
	store     *memory.Store
	svc       *Service
	projectID uint64
}

// newFixture 目录树 1 → {2 → 3, 4}，每个目录下一篇文档（id = 目录 id * 10）
// STAFF 在 1 上有 READ，CONTRIBUTOR 只在 4 上有 READ
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	for _, f := range []models.Folder{
		{ID: 1, Name: "root"},
		{ID: 2, ParentID: ptr(uint64(1)), Name: "finance"},
		{ID: 3, ParentID: ptr(uint64(2)), Name: "payroll"},
		{ID: 4, ParentID: ptr(uint64(1)), Name: "handbook"},
	} {
		require.NoError(t, store.Folders.Create(ctx, &f))
		require.NoError(t, store.Documents.Create(ctx, &models.Document{ID: f.ID * 10, FolderID: f.ID, Title: f.Name, OssKey: f.Name, OwnerID: 1}))
	}
	require.NoError(t, store.Permissions.Create(ctx, &models.FolderPermission{FolderID: 1, Role: models.RoleStaff, Permission: models.PermissionRead}))
	require.NoError(t, store.Permissions.Create(ctx, &models.FolderPermission{FolderID: 4, Role: models.RoleContributor, Permission: models.PermissionRead}))

	p := &models.Project{Name: "launch", OwnerID: 1}
	require.NoError(t, store.Projects.Create(ctx, p))

	resolver := access.NewResolver(store.Folders, store.Permissions, store.Documents, access.DefaultMaxDepth, nil)
	walker := access.NewWalker(store.Folders, resolver)
	return &fixture{
		store:     store,
		svc:       NewService(store.Projects, store.Documents, walker, resolver),
		projectID: p.ID,
	}
}

func (f *fixture) linked(t *testing.T) []uint64 {
	t.Helper()
	ids, err := f.store.Projects.ListDocumentIDs(context.Background(), f.projectID)
	require.NoError(t, err)
	return ids
}

func TestLinkFolder_Recursive(t *testing.T) {
	f := newFixture(t)

	added, err := f.svc.LinkFolder(context.Background(), staff, f.projectID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), added)
	assert.Equal(t, []uint64{10, 20, 30, 40}, f.linked(t))
}

func TestLinkFolder_NonRecursive(t *testing.T) {
	f := newFixture(t)

	added, err := f.svc.LinkFolder(context.Background(), staff, f.projectID, 2, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)
	assert.Equal(t, []uint64{20}, f.linked(t))
}

func TestLinkFolder_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LinkFolder(ctx, staff, f.projectID, 2, true)
	require.NoError(t, err)
	added, err := f.svc.LinkFolder(ctx, staff, f.projectID, 1, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), added, "documents 20 and 30 were already linked")
	assert.Len(t, f.linked(t), 4)
}

func TestLinkFolder_SuperAdminWithoutGrants(t *testing.T) {
	f := newFixture(t)

	added, err := f.svc.LinkFolder(context.Background(), superAdmin, f.projectID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)
	assert.Equal(t, []uint64{20, 30}, f.linked(t))
}

func TestLinkFolder_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LinkFolder(ctx, staff, 999, 1, true)
	assert.ErrorIs(t, err, xerr.ErrProjectNotFound)

	_, err = f.svc.LinkFolder(ctx, contributor, f.projectID, 2, true)
	assert.ErrorIs(t, err, xerr.ErrFolderNotFound)

	f.store.Folders.Err = errors.New("connection reset")
	_, err = f.svc.LinkFolder(ctx, staff, f.projectID, 1, true)
	assert.Error(t, err)
	assert.Empty(t, f.linked(t))
}

func TestDocuments_FiltersByReadAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.LinkFolder(ctx, staff, f.projectID, 1, true)
	require.NoError(t, err)

	ids, err := f.svc.Documents(ctx, contributor, f.projectID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{40}, ids)

	ids, err = f.svc.Documents(ctx, staff, f.projectID)
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}
