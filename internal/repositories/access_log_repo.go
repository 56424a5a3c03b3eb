package repositories

import (
	"context"
	"fmt"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccessLogRepository 审计日志只追加，不提供修改和删除
type AccessLogRepository interface {
	// Create 以 event_id 去重，重复写入同一事件不会产生第二条记录
	Create(ctx context.Context, entry *models.AccessLog) error
	ListByDocument(ctx context.Context, documentID uint64, page, pageSize int) ([]models.AccessLog, int64, error)
}

type accessLogRepository struct {
	db *gorm.DB
}

var _ AccessLogRepository = (*accessLogRepository)(nil)

func NewAccessLogRepository(db *gorm.DB) AccessLogRepository {
	return &accessLogRepository{db: db}
}

func (r *accessLogRepository) Create(ctx context.Context, entry *models.AccessLog) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("写入审计日志失败: %w", err)
	}
	return nil
}

func (r *accessLogRepository) ListByDocument(ctx context.Context, documentID uint64, page, pageSize int) ([]models.AccessLog, int64, error) {
	var logs []models.AccessLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.AccessLog{}).Where("document_id = ?", documentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计审计日志失败: %w", err)
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询审计日志失败: %w", err)
	}
	return logs, total, nil
}
