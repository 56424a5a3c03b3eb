package explorer

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/access"
	"go.uber.org/zap"
)

// FolderRepository 接口，用于依赖注入
type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	FindByID(ctx context.Context, id uint64) (*models.Folder, error)
	UpdateParent(ctx context.Context, id uint64, parentID *uint64) error
}

// AncestorLister 由 access.Resolver 实现
type AncestorLister interface {
	AncestorChain(ctx context.Context, folderID uint64) ([]uint64, error)
}

type FolderService struct {
	folders   FolderRepository
	ancestors AncestorLister
	checker   access.PermissionChecker
}

func NewFolderService(folders FolderRepository, ancestors AncestorLister, checker access.PermissionChecker) *FolderService {
	return &FolderService{folders: folders, ancestors: ancestors, checker: checker}
}

// require 校验 actor 对目录的权限，读不到的目录一律视为不存在
func (s *FolderService) require(ctx context.Context, actor models.Actor, folderID uint64, perm models.Permission) (*models.Folder, error) {
	folder, err := s.folders.FindByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	canRead, err := s.checker.HasPermission(ctx, actor, folderID, models.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !canRead {
		return nil, xerr.ErrFolderNotFound
	}
	if perm == models.PermissionRead {
		return folder, nil
	}
	ok, err := s.checker.HasPermission(ctx, actor, folderID, perm)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Warn("Folder access denied",
			zap.Uint64("folderID", folderID),
			zap.Uint64("userID", actor.UserID),
			zap.Stringer("role", actor.Role),
			zap.Stringer("required", perm))
		return nil, xerr.ErrPermissionDenied
	}
	return folder, nil
}

// CheckAccess 权限探测，目录不存在时返回 false
func (s *FolderService) CheckAccess(ctx context.Context, actor models.Actor, folderID uint64, required models.Permission) (bool, error) {
	if !required.Valid() {
		return false, xerr.ErrInvalidParams
	}
	return s.checker.HasPermission(ctx, actor, folderID, required)
}

// Create 在 parentID 下创建目录，需要父目录的 WRITE 权限；创建根目录只允许超级管理员
func (s *FolderService) Create(ctx context.Context, actor models.Actor, name string, parentID *uint64) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return nil, xerr.ErrInvalidParams
	}
	if parentID == nil {
		if actor.Role != models.RoleSuperAdmin {
			return nil, xerr.ErrPermissionDenied
		}
	} else if _, err := s.require(ctx, actor, *parentID, models.PermissionWrite); err != nil {
		return nil, err
	}

	folder := &models.Folder{ParentID: parentID, Name: name, OwnerID: actor.UserID}
	if err := s.folders.Create(ctx, folder); err != nil {
		logger.Error("CreateFolder: Failed to create folder", zap.String("name", name), zap.Error(err))
		return nil, xerr.ErrDatabaseError
	}
	logger.Info("CreateFolder: folder created",
		zap.Uint64("folderID", folder.ID),
		zap.Reflect("parentID", parentID),
		zap.Uint64("userID", actor.UserID))
	return folder, nil
}

// Move 把目录挂到 newParentID 下，newParentID 为 nil 表示移到根
// 需要目录本身的 ADMIN 和目标父目录的 WRITE；目标不能是目录自身或其后代
func (s *FolderService) Move(ctx context.Context, actor models.Actor, folderID uint64, newParentID *uint64) (*models.Folder, error) {
	folder, err := s.require(ctx, actor, folderID, models.PermissionAdmin)
	if err != nil {
		return nil, err
	}

	if newParentID == nil {
		if actor.Role != models.RoleSuperAdmin {
			return nil, xerr.ErrPermissionDenied
		}
	} else {
		if *newParentID == folderID {
			return nil, xerr.ErrCannotMoveIntoSubtree
		}
		if _, err := s.require(ctx, actor, *newParentID, models.PermissionWrite); err != nil {
			return nil, err
		}
		chain, err := s.ancestors.AncestorChain(ctx, *newParentID)
		if err != nil {
			return nil, fmt.Errorf("folder service: %w", err)
		}
		if slices.Contains(chain, folderID) {
			logger.Warn("MoveFolder: Cannot move folder into its own subtree",
				zap.Uint64("folderID", folderID),
				zap.Uint64("targetParentID", *newParentID),
				zap.Uint64("userID", actor.UserID))
			return nil, xerr.ErrCannotMoveIntoSubtree
		}
	}

	if sameParent(folder.ParentID, newParentID) {
		logger.Info("MoveFolder: No change needed, already in the same directory", zap.Uint64("folderID", folderID))
		return folder, nil
	}

	if err := s.folders.UpdateParent(ctx, folderID, newParentID); err != nil {
		logger.Error("MoveFolder: Failed to update parent", zap.Uint64("folderID", folderID), zap.Error(err))
		return nil, xerr.ErrDatabaseError
	}
	folder.ParentID = newParentID

	logger.Info("MoveFolder: folder moved",
		zap.Uint64("folderID", folderID),
		zap.Reflect("targetParentID", newParentID),
		zap.Uint64("userID", actor.UserID))
	return folder, nil
}

func sameParent(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
