// Package audit 记录文档访问日志
// 写入失败不会影响调用方：错误被记录、计数，并交给重试队列
package audit

import (
	"context"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Store interface {
	Create(ctx context.Context, entry *models.AccessLog) error
	ListByDocument(ctx context.Context, documentID uint64, page, pageSize int) ([]models.AccessLog, int64, error)
}

// RetryQueue 主存储写入失败后的兜底
type RetryQueue interface {
	Enqueue(ctx context.Context, entry models.AccessLog) error
}

// Mirror 次要存储，实现方不得阻塞
type Mirror interface {
	Mirror(ctx context.Context, entry models.AccessLog) error
}

// Entry 一次访问事件
type Entry struct {
	DocumentID  uint64
	Action      models.AccessAction
	UserID      *uint64
	ShareLinkID *uint64
	IPAddress   *string
}

type AccessLogger struct {
	store   Store
	queue   RetryQueue
	mirror  Mirror
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAccessLogger queue 和 mirror 可以为 nil
func NewAccessLogger(store Store, queue RetryQueue, mirror Mirror, m *metrics.Metrics, now func() time.Time) *AccessLogger {
	if now == nil {
		now = time.Now
	}
	return &AccessLogger{store: store, queue: queue, mirror: mirror, metrics: m, now: now}
}

// Record 追加一条审计日志，从不返回错误
func (l *AccessLogger) Record(ctx context.Context, e Entry) {
	entry := models.AccessLog{
		EventID:     uuid.NewString(),
		DocumentID:  e.DocumentID,
		Action:      e.Action,
		UserID:      e.UserID,
		ShareLinkID: e.ShareLinkID,
		IPAddress:   e.IPAddress,
		CreatedAt:   l.now(),
	}

	if err := l.store.Create(ctx, &entry); err != nil {
		l.metrics.IncAuditWriteFailure()
		logger.Error("Record: Failed to write access log",
			zap.String("eventID", entry.EventID),
			zap.Uint64("documentID", entry.DocumentID),
			zap.Stringer("action", entry.Action),
			zap.Error(err))
		l.enqueue(ctx, entry)
	}

	if l.mirror != nil {
		if err := l.mirror.Mirror(ctx, entry); err != nil {
			l.metrics.IncAuditMirrorFailure()
			logger.Warn("Record: Failed to mirror access log", zap.String("eventID", entry.EventID), zap.Error(err))
		}
	}
}

func (l *AccessLogger) enqueue(ctx context.Context, entry models.AccessLog) {
	if l.queue == nil {
		return
	}
	// 请求结束后上下文可能已取消，重试入队不受其影响
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	entry.ID = 0
	if err := l.queue.Enqueue(qctx, entry); err != nil {
		logger.Error("Record: Access log lost, retry queue unavailable",
			zap.String("eventID", entry.EventID),
			zap.Uint64("documentID", entry.DocumentID),
			zap.Stringer("action", entry.Action),
			zap.Error(err))
	}
}

// List 审计日志只对超级管理员开放
func (l *AccessLogger) List(ctx context.Context, actor models.Actor, documentID uint64, page, pageSize int) ([]models.AccessLog, int64, error) {
	if actor.Role != models.RoleSuperAdmin {
		return nil, 0, xerr.ErrPermissionDenied
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return l.store.ListByDocument(ctx, documentID, page, pageSize)
}
