package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"gorm.io/gorm"
)

type ShareRepository interface {
	Create(ctx context.Context, link *models.ShareLink) error
	// FindByToken / FindByID 不存在时返回 xerr.ErrShareNotFound
	FindByToken(ctx context.Context, token string) (*models.ShareLink, error)
	FindByID(ctx context.Context, id uint64) (*models.ShareLink, error)
	// ListActiveByDocument 返回文档下所有未撤销的链接，包括已过期和已用尽的
	ListActiveByDocument(ctx context.Context, documentID uint64) ([]models.ShareLink, error)
	// ConsumeByToken 原子地检查并递增访问次数，链接仍可用时返回 true
	ConsumeByToken(ctx context.Context, token string, now time.Time) (bool, error)
	// Revoke 仅当链接尚未撤销时写入 revoked_at，返回本次是否发生了变化
	Revoke(ctx context.Context, id uint64, now time.Time) (bool, error)
}

type shareRepository struct {
	db *gorm.DB
}

var _ ShareRepository = (*shareRepository)(nil)

// NewShareRepository 创建新的shareRepository实例
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

// 创建新的数据库记录
func (r *shareRepository) Create(ctx context.Context, link *models.ShareLink) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return fmt.Errorf("创建分享链接失败: %w", err)
	}
	return nil
}

func (r *shareRepository) FindByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrShareNotFound
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

func (r *shareRepository) FindByID(ctx context.Context, id uint64) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).First(&link, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrShareNotFound
		}
		return nil, fmt.Errorf("查询分享链接失败: %w", err)
	}
	return &link, nil
}

func (r *shareRepository) ListActiveByDocument(ctx context.Context, documentID uint64) ([]models.ShareLink, error) {
	var links []models.ShareLink
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND revoked_at IS NULL", documentID).
		Order("created_at DESC, id DESC").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("查询分享列表失败: %w", err)
	}
	return links, nil
}

// ConsumeByToken 检查和递增在同一条 UPDATE 中完成，并发访问不会超过 max_access_count
func (r *shareRepository) ConsumeByToken(ctx context.Context, token string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ShareLink{}).
		Where("token = ?", token).
		Where("revoked_at IS NULL").
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Where("(max_access_count IS NULL OR access_count < max_access_count)").
		UpdateColumn("access_count", gorm.Expr("access_count + 1"))
	if result.Error != nil {
		return false, fmt.Errorf("更新分享访问次数失败: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *shareRepository) Revoke(ctx context.Context, id uint64, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ShareLink{}).
		Where("id = ? AND revoked_at IS NULL", id).
		UpdateColumn("revoked_at", now)
	if result.Error != nil {
		return false, fmt.Errorf("撤销分享链接失败: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
