package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint64) (*models.Project, error)
	// LinkDocuments 幂等地关联文档，已存在的关联保持不变，返回新增条数
	LinkDocuments(ctx context.Context, projectID, linkedByID uint64, documentIDs []uint64) (int64, error)
	ListDocumentIDs(ctx context.Context, projectID uint64) ([]uint64, error)
}

type projectRepository struct {
	db *gorm.DB
}

var _ ProjectRepository = (*projectRepository)(nil)

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project %d: %w", id, err)
	}
	return &project, nil
}

const linkBatchSize = 500

func (r *projectRepository) LinkDocuments(ctx context.Context, projectID, linkedByID uint64, documentIDs []uint64) (int64, error) {
	if len(documentIDs) == 0 {
		return 0, nil
	}
	rows := make([]models.ProjectDocument, 0, len(documentIDs))
	for _, id := range documentIDs {
		rows = append(rows, models.ProjectDocument{ProjectID: projectID, DocumentID: id, LinkedByID: linkedByID})
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, linkBatchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to link documents to project %d: %w", projectID, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *projectRepository) ListDocumentIDs(ctx context.Context, projectID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectDocument{}).
		Where("project_id = ?", projectID).
		Order("document_id ASC").
		Pluck("document_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list project documents: %w", err)
	}
	return ids, nil
}
