package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	// FindByID 不存在时返回 xerr.ErrDocumentNotFound
	FindByID(ctx context.Context, id uint64) (*models.Document, error)
	FindByFolderIDs(ctx context.Context, folderIDs []uint64) ([]models.Document, error)
}

type documentRepository struct {
	db *gorm.DB
}

var _ DocumentRepository = (*documentRepository)(nil)

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) FindByID(ctx context.Context, id uint64) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).First(&doc, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find document %d: %w", id, err)
	}
	return &doc, nil
}

func (r *documentRepository) FindByFolderIDs(ctx context.Context, folderIDs []uint64) ([]models.Document, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where("folder_id IN ?", folderIDs).
		Order("id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}
