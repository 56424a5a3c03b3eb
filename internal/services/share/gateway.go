package share

import (
	"context"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/audit"
	"go.uber.org/zap"
)

type DocumentRepository interface {
	FindByID(ctx context.Context, id uint64) (*models.Document, error)
}

// URLSigner 由 storage 包的 MinIO / OSS 实现
type URLSigner interface {
	PreSignGetObjectURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error)
}

// Access 一次成功的匿名访问
type Access struct {
	Document    *models.Document
	DownloadURL string
}

// Gateway 匿名访问分享链接的唯一入口
// 所有拒绝原因对外都是 ErrShareInvalid
type Gateway struct {
	manager       *Manager
	documents     DocumentRepository
	signer        URLSigner
	audit         Recorder
	metrics       *metrics.Metrics
	defaultBucket string
	urlExpiry     time.Duration
}

func NewGateway(manager *Manager, documents DocumentRepository, signer URLSigner, recorder Recorder, m *metrics.Metrics, defaultBucket string, urlExpiry time.Duration) *Gateway {
	if urlExpiry <= 0 {
		urlExpiry = 5 * time.Minute
	}
	return &Gateway{
		manager:       manager,
		documents:     documents,
		signer:        signer,
		audit:         recorder,
		metrics:       m,
		defaultBucket: defaultBucket,
		urlExpiry:     urlExpiry,
	}
}

// Open 校验并消耗令牌，action 只能是 VIEW 或 DOWNLOAD
func (g *Gateway) Open(ctx context.Context, token string, action models.AccessAction, ip string) (*Access, error) {
	if action != models.ActionView && action != models.ActionDownload {
		return nil, xerr.ErrInvalidParams
	}

	// 先检查链接和文档并签好下载地址，最后才消耗次数
	// 文档缺失或存储故障时不占用有限次数的名额
	link, reason, err := g.manager.Inspect(ctx, token)
	if err != nil {
		logger.Error("Open: Failed to load share link", zap.Error(err))
		return nil, xerr.ErrDatabaseError
	}
	if link == nil {
		g.deny(reason)
		return nil, xerr.ErrShareInvalid
	}

	doc, err := g.documents.FindByID(ctx, link.DocumentID)
	if err != nil {
		// 文档被删除后链接视同失效
		logger.Warn("Open: shared document unavailable", zap.Uint64("linkID", link.ID), zap.Error(err))
		g.deny(DenyNotFound)
		return nil, xerr.ErrShareInvalid
	}

	result := &Access{Document: doc}
	if action == models.ActionDownload {
		bucket := g.defaultBucket
		if doc.OssBucket != nil && *doc.OssBucket != "" {
			bucket = *doc.OssBucket
		}
		url, err := g.signer.PreSignGetObjectURL(ctx, bucket, doc.OssKey, g.urlExpiry)
		if err != nil {
			logger.Error("Open: Failed to presign download url",
				zap.Uint64("documentID", doc.ID),
				zap.String("bucket", bucket),
				zap.Error(err))
			return nil, xerr.ErrStorageError
		}
		result.DownloadURL = url
	}

	consumed, reason, err := g.manager.ValidateAndConsume(ctx, token)
	if err != nil {
		logger.Error("Open: Failed to validate share link", zap.Error(err))
		return nil, xerr.ErrDatabaseError
	}
	if consumed == nil {
		// 检查之后被并发访问用尽、撤销或刚好过期
		g.deny(reason)
		return nil, xerr.ErrShareInvalid
	}

	var ipAddr *string
	if ip != "" {
		ipAddr = &ip
	}
	linkID := consumed.LinkID
	g.audit.Record(ctx, audit.Entry{
		DocumentID:  doc.ID,
		Action:      action,
		ShareLinkID: &linkID,
		IPAddress:   ipAddr,
	})
	g.metrics.IncShareConsumed()
	return result, nil
}

// deny 只记录原因，不记录令牌和来源
func (g *Gateway) deny(reason DenyReason) {
	g.metrics.IncShareDenied(string(reason))
	logger.Warn("Share link access denied", zap.String("reason", string(reason)))
}
