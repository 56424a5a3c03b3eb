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

type FolderRepository interface {
	Create(ctx context.Context, folder *models.Folder) error
	// FindByID 不存在时返回 xerr.ErrFolderNotFound
	FindByID(ctx context.Context, id uint64) (*models.Folder, error)
	FindChildren(ctx context.Context, parentID uint64) ([]models.Folder, error)
	UpdateParent(ctx context.Context, id uint64, parentID *uint64) error
}

type dbFolderRepository struct {
	db *gorm.DB
}

var _ FolderRepository = (*dbFolderRepository)(nil)

func NewDBFolderRepository(db *gorm.DB) FolderRepository {
	return &dbFolderRepository{db: db}
}

func (r *dbFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if err := r.db.WithContext(ctx).Create(folder).Error; err != nil {
		logger.Error("Create: Failed to create folder in DB", zap.String("name", folder.Name), zap.Error(err))
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (r *dbFolderRepository) FindByID(ctx context.Context, id uint64) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.WithContext(ctx).First(&folder, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to find folder %d: %w", id, err)
	}
	return &folder, nil
}

func (r *dbFolderRepository) FindChildren(ctx context.Context, parentID uint64) ([]models.Folder, error) {
	var children []models.Folder
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("id ASC").
		Find(&children).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list children of folder %d: %w", parentID, err)
	}
	return children, nil
}

func (r *dbFolderRepository) UpdateParent(ctx context.Context, id uint64, parentID *uint64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Folder{}).
		Where("id = ?", id).
		Update("parent_id", parentID)
	if result.Error != nil {
		logger.Error("UpdateParent: Failed to move folder", zap.Uint64("folderID", id), zap.Error(result.Error))
		return fmt.Errorf("failed to move folder %d: %w", id, result.Error)
	}
	// MySQL 在值未变化时 RowsAffected 为 0，存在性由调用方保证
	return nil
}
