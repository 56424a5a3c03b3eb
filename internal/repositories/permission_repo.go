package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PermissionRepository 目录授权存储，(folder_id, role) 至多一条记录
type PermissionRepository interface {
	// FindGrant 目录上没有该角色的授权时返回 nil, nil
	FindGrant(ctx context.Context, folderID uint64, role models.Role) (*models.FolderPermission, error)
	FindByID(ctx context.Context, id uint64) (*models.FolderPermission, error)
	ListByFolder(ctx context.Context, folderID uint64) ([]models.FolderPermission, error)
	// Create 重复授权返回 xerr.ErrPermissionAlreadyExists
	Create(ctx context.Context, perm *models.FolderPermission) error
	UpdatePermission(ctx context.Context, id uint64, permission models.Permission) error
	Delete(ctx context.Context, id uint64) error
}

type permissionRepository struct {
	db *gorm.DB
}

var _ PermissionRepository = (*permissionRepository)(nil)

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) FindGrant(ctx context.Context, folderID uint64, role models.Role) (*models.FolderPermission, error) {
	var perm models.FolderPermission
	err := r.db.WithContext(ctx).
		Where("folder_id = ? AND role = ?", folderID, role).
		First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询目录授权失败: %w", err)
	}
	return &perm, nil
}

func (r *permissionRepository) FindByID(ctx context.Context, id uint64) (*models.FolderPermission, error) {
	var perm models.FolderPermission
	err := r.db.WithContext(ctx).First(&perm, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("查询目录授权失败: %w", err)
	}
	return &perm, nil
}

func (r *permissionRepository) ListByFolder(ctx context.Context, folderID uint64) ([]models.FolderPermission, error) {
	var perms []models.FolderPermission
	err := r.db.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Order("id ASC").
		Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("查询目录授权列表失败: %w", err)
	}
	return perms, nil
}

func (r *permissionRepository) Create(ctx context.Context, perm *models.FolderPermission) error {
	err := r.db.WithContext(ctx).Create(perm).Error
	if err != nil {
		// 需要 gorm.Config{TranslateError: true}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return xerr.ErrPermissionAlreadyExists
		}
		logger.Error("Create: Failed to create folder permission",
			zap.Uint64("folderID", perm.FolderID),
			zap.Stringer("role", perm.Role),
			zap.Error(err))
		return fmt.Errorf("创建目录授权失败: %w", err)
	}
	return nil
}

func (r *permissionRepository) UpdatePermission(ctx context.Context, id uint64, permission models.Permission) error {
	err := r.db.WithContext(ctx).
		Model(&models.FolderPermission{}).
		Where("id = ?", id).
		Update("permission", permission).Error
	if err != nil {
		return fmt.Errorf("更新目录授权失败: %w", err)
	}
	return nil
}

func (r *permissionRepository) Delete(ctx context.Context, id uint64) error {
	if err := r.db.WithContext(ctx).Delete(&models.FolderPermission{}, id).Error; err != nil {
		return fmt.Errorf("删除目录授权失败: %w", err)
	}
	return nil
}
