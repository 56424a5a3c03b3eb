package access

import (
	"context"
	"fmt"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"go.uber.org/zap"
)

type ChildRepository interface {
	FindChildren(ctx context.Context, parentID uint64) ([]models.Folder, error)
}

// Walker 按权限过滤地遍历子目录
type Walker struct {
	children ChildRepository
	checker  PermissionChecker
}

func NewWalker(children ChildRepository, checker PermissionChecker) *Walker {
	return &Walker{children: children, checker: checker}
}

// CollectAccessibleSubtree 返回 root 以及 actor 可访问的全部后代目录
// root 由调用方预先校验，这里不再检查；被拒绝的子目录连同其整棵子树一起跳过
func (w *Walker) CollectAccessibleSubtree(ctx context.Context, rootFolderID uint64, actor models.Actor, required models.Permission) (map[uint64]struct{}, error) {
	result := map[uint64]struct{}{rootFolderID: {}}
	visited := map[uint64]struct{}{rootFolderID: {}}
	queue := []uint64{rootFolderID}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		children, err := w.children.FindChildren(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("list children of folder %d: %w", current, err)
		}

		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}

			allowed, err := w.checker.HasPermission(ctx, actor, child.ID, required)
			if err != nil {
				return nil, err
			}
			if !allowed {
				logger.Debug("CollectAccessibleSubtree: pruning branch",
					zap.Uint64("folderID", child.ID),
					zap.Uint64("userID", actor.UserID))
				continue
			}
			result[child.ID] = struct{}{}
			queue = append(queue, child.ID)
		}
	}
	return result, nil
}
