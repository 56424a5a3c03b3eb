// Package project 把目录中的文档关联到项目
package project

import (
	"context"
	"maps"
	"slices"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/access"
	"go.uber.org/zap"
)

type Store interface {
	FindByID(ctx context.Context, id uint64) (*models.Project, error)
	LinkDocuments(ctx context.Context, projectID, linkedByID uint64, documentIDs []uint64) (int64, error)
	ListDocumentIDs(ctx context.Context, projectID uint64) ([]uint64, error)
}

type DocumentLister interface {
	FindByFolderIDs(ctx context.Context, folderIDs []uint64) ([]models.Document, error)
}

// SubtreeCollector 由 access.Walker 实现
type SubtreeCollector interface {
	CollectAccessibleSubtree(ctx context.Context, rootFolderID uint64, actor models.Actor, required models.Permission) (map[uint64]struct{}, error)
}

type Service struct {
	projects  Store
	documents DocumentLister
	walker    SubtreeCollector
	checker   access.PermissionChecker
}

func NewService(projects Store, documents DocumentLister, walker SubtreeCollector, checker access.PermissionChecker) *Service {
	return &Service{projects: projects, documents: documents, walker: walker, checker: checker}
}

// LinkFolder 把目录中的文档关联到项目，返回新增的关联数
// recursive 为 true 时包含 actor 可读的全部子目录，不可读的分支整体跳过
func (s *Service) LinkFolder(ctx context.Context, actor models.Actor, projectID, folderID uint64, recursive bool) (int64, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return 0, err
	}
	canRead, err := s.checker.HasPermission(ctx, actor, folderID, models.PermissionRead)
	if err != nil {
		return 0, err
	}
	if !canRead {
		return 0, xerr.ErrFolderNotFound
	}

	folderIDs := []uint64{folderID}
	if recursive {
		subtree, err := s.walker.CollectAccessibleSubtree(ctx, folderID, actor, models.PermissionRead)
		if err != nil {
			logger.Error("LinkFolder: Failed to walk folder tree", zap.Uint64("folderID", folderID), zap.Error(err))
			return 0, xerr.ErrDatabaseError
		}
		folderIDs = slices.Sorted(maps.Keys(subtree))
	}

	docs, err := s.documents.FindByFolderIDs(ctx, folderIDs)
	if err != nil {
		logger.Error("LinkFolder: Failed to list documents", zap.Int("folders", len(folderIDs)), zap.Error(err))
		return 0, xerr.ErrDatabaseError
	}
	if len(docs) == 0 {
		return 0, nil
	}
	docIDs := make([]uint64, 0, len(docs))
	for _, d := range docs {
		docIDs = append(docIDs, d.ID)
	}

	added, err := s.projects.LinkDocuments(ctx, projectID, actor.UserID, docIDs)
	if err != nil {
		logger.Error("LinkFolder: Failed to link documents", zap.Uint64("projectID", projectID), zap.Error(err))
		return 0, xerr.ErrDatabaseError
	}
	logger.Info("LinkFolder: documents linked",
		zap.Uint64("projectID", projectID),
		zap.Uint64("folderID", folderID),
		zap.Bool("recursive", recursive),
		zap.Int("folders", len(folderIDs)),
		zap.Int("documents", len(docIDs)),
		zap.Int64("added", added),
		zap.Uint64("userID", actor.UserID))
	return added, nil
}

// Documents 返回项目中 actor 可读的文档 id
func (s *Service) Documents(ctx context.Context, actor models.Actor, projectID uint64) ([]uint64, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	ids, err := s.projects.ListDocumentIDs(ctx, projectID)
	if err != nil {
		return nil, xerr.ErrDatabaseError
	}
	visible := make([]uint64, 0, len(ids))
	for _, id := range ids {
		ok, err := s.checker.HasDocumentPermission(ctx, actor, id, models.PermissionRead)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, id)
		}
	}
	return visible, nil
}
