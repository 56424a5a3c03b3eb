// Package access 负责目录权限的解析和按权限过滤的目录树遍历
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"go.uber.org/zap"
)

// DefaultMaxDepth 祖先链的默认长度上限
const DefaultMaxDepth = 1000

// ErrCycleDetected 祖先链出现重复目录或超过长度上限
var ErrCycleDetected = errors.New("folder ancestor chain contains a cycle")

// FolderRepository 接口，用于依赖注入
type FolderRepository interface {
	FindByID(ctx context.Context, id uint64) (*models.Folder, error)
}

type GrantRepository interface {
	FindGrant(ctx context.Context, folderID uint64, role models.Role) (*models.FolderPermission, error)
}

type DocumentRepository interface {
	FindByID(ctx context.Context, id uint64) (*models.Document, error)
}

// PermissionChecker 由 Resolver 实现，其他服务只依赖这个接口
type PermissionChecker interface {
	HasPermission(ctx context.Context, actor models.Actor, folderID uint64, required models.Permission) (bool, error)
	HasDocumentPermission(ctx context.Context, actor models.Actor, documentID uint64, required models.Permission) (bool, error)
}

// Resolver 只读，不持有可变状态，可并发使用
type Resolver struct {
	folders   FolderRepository
	grants    GrantRepository
	documents DocumentRepository
	maxDepth  int
	metrics   *metrics.Metrics
}

var _ PermissionChecker = (*Resolver)(nil)

func NewResolver(folders FolderRepository, grants GrantRepository, documents DocumentRepository, maxDepth int, m *metrics.Metrics) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{
		folders:   folders,
		grants:    grants,
		documents: documents,
		maxDepth:  maxDepth,
		metrics:   m,
	}
}

// AncestorChain 返回从 folderID 自身开始直到根目录的 id 序列
func (r *Resolver) AncestorChain(ctx context.Context, folderID uint64) ([]uint64, error) {
	chain := make([]uint64, 0, 8)
	visited := make(map[uint64]struct{}, 8)

	current := folderID
	for {
		if len(chain) >= r.maxDepth {
			return nil, fmt.Errorf("%w: chain from folder %d exceeds %d levels", ErrCycleDetected, folderID, r.maxDepth)
		}
		if _, seen := visited[current]; seen {
			return nil, fmt.Errorf("%w: folder %d revisited", ErrCycleDetected, current)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		folder, err := r.folders.FindByID(ctx, current)
		if err != nil {
			return nil, err
		}
		visited[current] = struct{}{}
		chain = append(chain, current)

		if folder.ParentID == nil {
			return chain, nil
		}
		current = *folder.ParentID
	}
}

// HasPermission 判断 actor 是否对目录拥有 required 级别的权限
// 从目录自身向根目录查找，第一个对该角色有授权的目录决定结果，找不到授权则拒绝
func (r *Resolver) HasPermission(ctx context.Context, actor models.Actor, folderID uint64, required models.Permission) (bool, error) {
	allowed, err := r.decide(ctx, actor, folderID, required)
	if err == nil {
		r.metrics.ObservePermissionDecision(required.String(), allowed)
	}
	return allowed, err
}

func (r *Resolver) decide(ctx context.Context, actor models.Actor, folderID uint64, required models.Permission) (bool, error) {
	if !required.Valid() {
		return false, nil
	}
	switch actor.Role {
	case models.RoleSuperAdmin:
		return true, nil
	case models.RoleGuest, models.RoleContributor, models.RoleStaff:
	default:
		return false, nil
	}

	chain, err := r.AncestorChain(ctx, folderID)
	if err != nil {
		switch {
		case errors.Is(err, xerr.ErrFolderNotFound):
			return false, nil
		case errors.Is(err, ErrCycleDetected):
			logger.Warn("HasPermission: folder hierarchy cycle detected, denying",
				zap.Uint64("folderID", folderID),
				zap.Int("maxDepth", r.maxDepth),
				zap.Error(err))
			r.metrics.IncCycleDetected()
			return false, nil
		}
		return false, fmt.Errorf("resolve ancestors of folder %d: %w", folderID, err)
	}

	for _, id := range chain {
		grant, err := r.grants.FindGrant(ctx, id, actor.Role)
		if err != nil {
			return false, fmt.Errorf("load grant for folder %d: %w", id, err)
		}
		if grant != nil {
			return grant.Permission.Satisfies(required), nil
		}
	}
	return false, nil
}

// HasDocumentPermission 文档的权限等同于其所在目录的权限
func (r *Resolver) HasDocumentPermission(ctx context.Context, actor models.Actor, documentID uint64, required models.Permission) (bool, error) {
	doc, err := r.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, xerr.ErrDocumentNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load document %d: %w", documentID, err)
	}
	return r.HasPermission(ctx, actor, doc.FolderID, required)
}
