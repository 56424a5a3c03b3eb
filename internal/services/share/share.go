// Package share 管理外部分享链接：创建、按次数和时间校验、撤销
package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/access"
	"github.com/3Eeeecho/go-docvault/internal/services/audit"
	"go.uber.org/zap"
)

// DefaultTokenBytes 令牌的随机字节数，编码后 43 个字符
const DefaultTokenBytes = 32

// DenyReason 校验失败的原因，只用于日志和指标，不返回给外部
type DenyReason string

const (
	DenyNotFound  DenyReason = "NOT_FOUND"
	DenyRevoked   DenyReason = "REVOKED"
	DenyExpired   DenyReason = "EXPIRED"
	DenyExhausted DenyReason = "EXHAUSTED"
)

type Store interface {
	Create(ctx context.Context, link *models.ShareLink) error
	FindByToken(ctx context.Context, token string) (*models.ShareLink, error)
	FindByID(ctx context.Context, id uint64) (*models.ShareLink, error)
	ListActiveByDocument(ctx context.Context, documentID uint64) ([]models.ShareLink, error)
	ConsumeByToken(ctx context.Context, token string, now time.Time) (bool, error)
	Revoke(ctx context.Context, id uint64, now time.Time) (bool, error)
}

// Recorder 由 audit.AccessLogger 实现
type Recorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Consumption 一次成功的访问
type Consumption struct {
	LinkID     uint64
	DocumentID uint64
}

// LinkView 带计算状态的分享链接
type LinkView struct {
	models.ShareLink
	Status models.ShareStatus `json:"status"`
}

type Manager struct {
	store      Store
	checker    access.PermissionChecker
	audit      Recorder
	tokenBytes int
	now        func() time.Time
}

func NewManager(store Store, checker access.PermissionChecker, recorder Recorder, tokenBytes int, now func() time.Time) *Manager {
	if tokenBytes < 16 {
		tokenBytes = DefaultTokenBytes
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, checker: checker, audit: recorder, tokenBytes: tokenBytes, now: now}
}

// Create 为文档创建分享链接，创建者需为 STAFF 及以上并能读取文档
func (m *Manager) Create(ctx context.Context, documentID uint64, creator models.Actor, expiresIn models.ExpiresIn, maxAccessCount *int64) (*models.ShareLink, error) {
	if !expiresIn.Valid() {
		return nil, xerr.ErrInvalidParams
	}
	if maxAccessCount != nil && *maxAccessCount <= 0 {
		return nil, xerr.ErrInvalidMaxAccessCount
	}
	if !creator.Role.Valid() || !creator.Role.AtLeast(models.RoleStaff) {
		logger.Warn("CreateShare: role not allowed to share",
			zap.Uint64("userID", creator.UserID),
			zap.Stringer("role", creator.Role))
		return nil, xerr.ErrPermissionDenied
	}
	canRead, err := m.checker.HasDocumentPermission(ctx, creator, documentID, models.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !canRead {
		return nil, xerr.ErrDocumentNotFound
	}

	token, err := m.newToken()
	if err != nil {
		logger.Error("CreateShare: Failed to generate token", zap.Error(err))
		return nil, xerr.ErrInternalServer
	}

	now := m.now()
	link := &models.ShareLink{
		Token:          token,
		DocumentID:     documentID,
		CreatedByID:    creator.UserID,
		CreatedAt:      now,
		MaxAccessCount: maxAccessCount,
	}
	if d, ok := expiresIn.Duration(); ok {
		expiresAt := now.Add(d)
		link.ExpiresAt = &expiresAt
	}

	if err := m.store.Create(ctx, link); err != nil {
		logger.Error("CreateShare: Failed to save share link", zap.Uint64("documentID", documentID), zap.Error(err))
		return nil, xerr.ErrDatabaseError
	}

	m.audit.Record(ctx, audit.Entry{
		DocumentID:  documentID,
		Action:      models.ActionShareCreated,
		UserID:      &creator.UserID,
		ShareLinkID: &link.ID,
	})
	logger.Info("CreateShare: share link created",
		zap.Uint64("linkID", link.ID),
		zap.Uint64("documentID", documentID),
		zap.Uint64("userID", creator.UserID),
		zap.Stringer("expiresIn", expiresIn))
	return link, nil
}

func (m *Manager) newToken() (string, error) {
	buf := make([]byte, m.tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Inspect 只读地检查令牌，不消耗次数
// 链接不可用时返回 nil 和原因，err 只表示存储故障
func (m *Manager) Inspect(ctx context.Context, token string) (*models.ShareLink, DenyReason, error) {
	link, err := m.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, xerr.ErrShareNotFound) {
			return nil, DenyNotFound, nil
		}
		return nil, "", err
	}
	if now := m.now(); link.Status(now) != models.ShareActive {
		return nil, classify(link, now), nil
	}
	return link, "", nil
}

// ValidateAndConsume 校验令牌并消耗一次访问次数
// 拒绝时返回 nil 和原因，err 只表示存储故障
func (m *Manager) ValidateAndConsume(ctx context.Context, token string) (*Consumption, DenyReason, error) {
	now := m.now()
	ok, err := m.store.ConsumeByToken(ctx, token, now)
	if err != nil {
		return nil, "", err
	}

	link, err := m.store.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, xerr.ErrShareNotFound) {
			return nil, DenyNotFound, nil
		}
		return nil, "", err
	}
	if ok {
		return &Consumption{LinkID: link.ID, DocumentID: link.DocumentID}, "", nil
	}

	reason := classify(link, now)
	logger.Info("ValidateAndConsume: share link no longer valid",
		zap.Uint64("linkID", link.ID),
		zap.String("reason", string(reason)))
	return nil, reason, nil
}

func classify(link *models.ShareLink, now time.Time) DenyReason {
	switch link.Status(now) {
	case models.ShareRevoked:
		return DenyRevoked
	case models.ShareExpired:
		return DenyExpired
	case models.ShareExhausted:
		return DenyExhausted
	case models.ShareActive:
		// 条件更新未命中但重读时仍可用，只可能是并发消费占满后又被读到旧值
		return DenyExhausted
	}
	return DenyNotFound
}

// Revoke 撤销链接，创建者或对文档所在目录有 ADMIN 权限的用户可以操作
// 已撤销的链接再次撤销直接返回成功，不会重复记录审计日志
func (m *Manager) Revoke(ctx context.Context, linkID, documentID uint64, actor models.Actor) error {
	link, err := m.store.FindByID(ctx, linkID)
	if err != nil {
		return err
	}
	if link.DocumentID != documentID {
		return xerr.ErrShareNotFound
	}

	if link.CreatedByID != actor.UserID {
		if err := m.authorizeAdmin(ctx, actor, documentID); err != nil {
			return err
		}
	}

	changed, err := m.store.Revoke(ctx, linkID, m.now())
	if err != nil {
		logger.Error("RevokeShare: Failed to revoke share link", zap.Uint64("linkID", linkID), zap.Error(err))
		return xerr.ErrDatabaseError
	}
	if !changed {
		logger.Debug("RevokeShare: share link already revoked", zap.Uint64("linkID", linkID))
		return nil
	}

	m.audit.Record(ctx, audit.Entry{
		DocumentID:  documentID,
		Action:      models.ActionShareRevoked,
		UserID:      &actor.UserID,
		ShareLinkID: &linkID,
	})
	logger.Info("RevokeShare: share link revoked",
		zap.Uint64("linkID", linkID),
		zap.Uint64("documentID", documentID),
		zap.Uint64("userID", actor.UserID))
	return nil
}

func (m *Manager) authorizeAdmin(ctx context.Context, actor models.Actor, documentID uint64) error {
	canRead, err := m.checker.HasDocumentPermission(ctx, actor, documentID, models.PermissionRead)
	if err != nil {
		return err
	}
	if !canRead {
		return xerr.ErrDocumentNotFound
	}
	isAdmin, err := m.checker.HasDocumentPermission(ctx, actor, documentID, models.PermissionAdmin)
	if err != nil {
		return err
	}
	if !isAdmin {
		return xerr.ErrPermissionDenied
	}
	return nil
}

// ListActive 列出文档下未撤销的链接（包括已过期和已用尽的）
func (m *Manager) ListActive(ctx context.Context, documentID uint64, actor models.Actor) ([]LinkView, error) {
	canRead, err := m.checker.HasDocumentPermission(ctx, actor, documentID, models.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !canRead {
		return nil, xerr.ErrDocumentNotFound
	}

	links, err := m.store.ListActiveByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	now := m.now()
	views := make([]LinkView, 0, len(links))
	for _, l := range links {
		views = append(views, LinkView{ShareLink: l, Status: l.Status(now)})
	}
	return views, nil
}
