package repositories

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/cache"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/mapper"
	"go.uber.org/zap"
)

// cachedFolderRepository 在数据库仓库前加一层 Redis hash 缓存
// 祖先链遍历会反复读同一批目录，缓存 FindByID 即可
type cachedFolderRepository struct {
	next  FolderRepository
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedFolderRepository(next FolderRepository, c cache.Cache, ttl time.Duration) FolderRepository {
	return &cachedFolderRepository{next: next, cache: c, ttl: ttl}
}

// 加随机抖动，避免大量 key 同时过期
func (r *cachedFolderRepository) jitteredTTL() time.Duration {
	return r.ttl + time.Duration(rand.IntN(30))*time.Second
}

func (r *cachedFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	return r.next.Create(ctx, folder)
}

func (r *cachedFolderRepository) FindByID(ctx context.Context, id uint64) (*models.Folder, error) {
	key := cache.GenerateFolderKey(id)

	resultMap, err := r.cache.HGetAll(ctx, key)
	if err == nil {
		folder, mapErr := mapper.MapToFolder(resultMap)
		if mapErr == nil {
			return folder, nil
		}
		logger.Warn("FindByID: Corrupted folder cache entry, reloading", zap.Uint64("folderID", id), zap.Error(mapErr))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("FindByID: Folder cache unavailable, falling back to DB", zap.Uint64("folderID", id), zap.Error(err))
	}

	folder, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.HMSet(ctx, key, mapper.FolderToMap(folder)); err != nil {
		logger.Warn("FindByID: Failed to populate folder cache", zap.Uint64("folderID", id), zap.Error(err))
		return folder, nil
	}
	if err := r.cache.Expire(ctx, key, r.jitteredTTL()); err != nil {
		// 没有过期时间的 hash 不能留下，否则移动目录前的父目录会一直可见
		logger.Warn("FindByID: Failed to set folder cache TTL, dropping entry", zap.Uint64("folderID", id), zap.Error(err))
		if delErr := r.cache.Del(ctx, key); delErr != nil {
			logger.Error("FindByID: Failed to drop folder cache entry", zap.Uint64("folderID", id), zap.Error(delErr))
		}
	}
	return folder, nil
}

func (r *cachedFolderRepository) FindChildren(ctx context.Context, parentID uint64) ([]models.Folder, error) {
	return r.next.FindChildren(ctx, parentID)
}

func (r *cachedFolderRepository) UpdateParent(ctx context.Context, id uint64, parentID *uint64) error {
	if err := r.next.UpdateParent(ctx, id, parentID); err != nil {
		return err
	}
	if err := r.cache.Del(ctx, cache.GenerateFolderKey(id)); err != nil {
		// 删除失败时旧的父目录最多在 TTL 内可见
		logger.Error("UpdateParent: Failed to invalidate folder cache", zap.Uint64("folderID", id), zap.Error(err))
	}
	return nil
}
