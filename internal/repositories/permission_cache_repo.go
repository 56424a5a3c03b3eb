package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/cache"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"go.uber.org/zap"
)

// grantEntry 缓存中的授权，Found=false 表示确认没有授权
type grantEntry struct {
	Found      bool   `json:"found"`
	ID         uint64 `json:"id,omitempty"`
	Permission string `json:"permission,omitempty"`
}

// cachedPermissionRepository 缓存 FindGrant 的结果，包括"没有授权"
// 任何写操作都会删除对应的 key
type cachedPermissionRepository struct {
	next  PermissionRepository
	cache cache.Cache
	ttl   time.Duration
}

var _ PermissionRepository = (*cachedPermissionRepository)(nil)

func NewCachedPermissionRepository(next PermissionRepository, c cache.Cache, ttl time.Duration) PermissionRepository {
	return &cachedPermissionRepository{next: next, cache: c, ttl: ttl}
}

func (r *cachedPermissionRepository) FindGrant(ctx context.Context, folderID uint64, role models.Role) (*models.FolderPermission, error) {
	key := cache.GenerateGrantKey(folderID, role)

	var entry grantEntry
	err := r.cache.Get(ctx, key, &entry)
	switch {
	case err == nil:
		if !entry.Found {
			return nil, nil
		}
		perm, parseErr := models.ParsePermission(entry.Permission)
		if parseErr == nil {
			return &models.FolderPermission{ID: entry.ID, FolderID: folderID, Role: role, Permission: perm}, nil
		}
		logger.Warn("FindGrant: Corrupted grant cache entry", zap.String("key", key), zap.Error(parseErr))
	case !errors.Is(err, cache.ErrCacheMiss):
		logger.Warn("FindGrant: Grant cache unavailable, falling back to DB", zap.String("key", key), zap.Error(err))
	}

	grant, err := r.next.FindGrant(ctx, folderID, role)
	if err != nil {
		return nil, err
	}

	entry = grantEntry{}
	if grant != nil {
		entry = grantEntry{Found: true, ID: grant.ID, Permission: grant.Permission.String()}
	}
	if setErr := r.cache.Set(ctx, key, entry, r.ttl); setErr != nil {
		logger.Warn("FindGrant: Failed to populate grant cache", zap.String("key", key), zap.Error(setErr))
	}
	return grant, nil
}

func (r *cachedPermissionRepository) FindByID(ctx context.Context, id uint64) (*models.FolderPermission, error) {
	return r.next.FindByID(ctx, id)
}

func (r *cachedPermissionRepository) ListByFolder(ctx context.Context, folderID uint64) ([]models.FolderPermission, error) {
	return r.next.ListByFolder(ctx, folderID)
}

func (r *cachedPermissionRepository) Create(ctx context.Context, perm *models.FolderPermission) error {
	if err := r.next.Create(ctx, perm); err != nil {
		return err
	}
	r.invalidate(ctx, perm.FolderID, perm.Role)
	return nil
}

func (r *cachedPermissionRepository) UpdatePermission(ctx context.Context, id uint64, permission models.Permission) error {
	existing, err := r.next.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.next.UpdatePermission(ctx, id, permission); err != nil {
		return err
	}
	r.invalidate(ctx, existing.FolderID, existing.Role)
	return nil
}

func (r *cachedPermissionRepository) Delete(ctx context.Context, id uint64) error {
	existing, err := r.next.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, existing.FolderID, existing.Role)
	return nil
}

func (r *cachedPermissionRepository) invalidate(ctx context.Context, folderID uint64, role models.Role) {
	key := cache.GenerateGrantKey(folderID, role)
	if err := r.cache.Del(ctx, key); err != nil {
		// 删除失败时旧授权最多在 TTL 内生效
		logger.Error("Failed to invalidate grant cache", zap.String("key", key), zap.Error(err))
	}
}
