package access

import (
	"context"
	"errors"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"go.uber.org/zap"
)

type GrantStore interface {
	FindByID(ctx context.Context, id uint64) (*models.FolderPermission, error)
	ListByFolder(ctx context.Context, folderID uint64) ([]models.FolderPermission, error)
	Create(ctx context.Context, perm *models.FolderPermission) error
	UpdatePermission(ctx context.Context, id uint64, permission models.Permission) error
	Delete(ctx context.Context, id uint64) error
}

// GrantService 管理目录上的角色授权，所有操作都要求对目录有 ADMIN 权限
type GrantService struct {
	store   GrantStore
	folders FolderRepository
	checker PermissionChecker
}

func NewGrantService(store GrantStore, folders FolderRepository, checker PermissionChecker) *GrantService {
	return &GrantService{store: store, folders: folders, checker: checker}
}

// authorize 对不可读的目录返回 ErrFolderNotFound，不暴露其存在
func (s *GrantService) authorize(ctx context.Context, actor models.Actor, folderID uint64) error {
	if _, err := s.folders.FindByID(ctx, folderID); err != nil {
		return err
	}
	canRead, err := s.checker.HasPermission(ctx, actor, folderID, models.PermissionRead)
	if err != nil {
		return err
	}
	if !canRead {
		return xerr.ErrFolderNotFound
	}
	isAdmin, err := s.checker.HasPermission(ctx, actor, folderID, models.PermissionAdmin)
	if err != nil {
		return err
	}
	if !isAdmin {
		logger.Warn("Folder permission change denied",
			zap.Uint64("folderID", folderID),
			zap.Uint64("userID", actor.UserID),
			zap.Stringer("role", actor.Role))
		return xerr.ErrPermissionDenied
	}
	return nil
}

// loadOnFolder 读取授权并确认它属于 folderID
func (s *GrantService) loadOnFolder(ctx context.Context, folderID, permID uint64) (*models.FolderPermission, error) {
	perm, err := s.store.FindByID(ctx, permID)
	if err != nil {
		return nil, err
	}
	if perm.FolderID != folderID {
		return nil, xerr.ErrPermissionNotFound
	}
	return perm, nil
}

func (s *GrantService) List(ctx context.Context, actor models.Actor, folderID uint64) ([]models.FolderPermission, error) {
	if err := s.authorize(ctx, actor, folderID); err != nil {
		return nil, err
	}
	return s.store.ListByFolder(ctx, folderID)
}

func (s *GrantService) Grant(ctx context.Context, actor models.Actor, folderID uint64, role models.Role, permission models.Permission) (*models.FolderPermission, error) {
	if !role.Valid() || !permission.Valid() {
		return nil, xerr.ErrInvalidParams
	}
	if err := s.authorize(ctx, actor, folderID); err != nil {
		return nil, err
	}

	perm := &models.FolderPermission{FolderID: folderID, Role: role, Permission: permission}
	if err := s.store.Create(ctx, perm); err != nil {
		if !errors.Is(err, xerr.ErrPermissionAlreadyExists) {
			logger.Error("Grant: Failed to create folder permission", zap.Uint64("folderID", folderID), zap.Error(err))
		}
		return nil, err
	}

	logger.Info("Folder permission granted",
		zap.Uint64("folderID", folderID),
		zap.Uint64("permissionID", perm.ID),
		zap.Stringer("role", role),
		zap.Stringer("permission", permission),
		zap.Uint64("grantedBy", actor.UserID))
	return perm, nil
}

func (s *GrantService) Update(ctx context.Context, actor models.Actor, folderID, permID uint64, permission models.Permission) (*models.FolderPermission, error) {
	if !permission.Valid() {
		return nil, xerr.ErrInvalidParams
	}
	if err := s.authorize(ctx, actor, folderID); err != nil {
		return nil, err
	}
	perm, err := s.loadOnFolder(ctx, folderID, permID)
	if err != nil {
		return nil, err
	}

	previous := perm.Permission
	if err := s.store.UpdatePermission(ctx, permID, permission); err != nil {
		return nil, err
	}
	perm.Permission = permission

	logger.Info("Folder permission updated",
		zap.Uint64("folderID", folderID),
		zap.Uint64("permissionID", permID),
		zap.Stringer("role", perm.Role),
		zap.Stringer("from", previous),
		zap.Stringer("to", permission),
		zap.Uint64("updatedBy", actor.UserID))
	return perm, nil
}

func (s *GrantService) Revoke(ctx context.Context, actor models.Actor, folderID, permID uint64) error {
	if err := s.authorize(ctx, actor, folderID); err != nil {
		return err
	}
	perm, err := s.loadOnFolder(ctx, folderID, permID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, permID); err != nil {
		return err
	}

	logger.Info("Folder permission revoked",
		zap.Uint64("folderID", folderID),
		zap.Uint64("permissionID", permID),
		zap.Stringer("role", perm.Role),
		zap.Stringer("permission", perm.Permission),
		zap.Uint64("revokedBy", actor.UserID))
	return nil
}
