// Package memory 提供仓库接口的内存实现，供服务层测试使用
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/repositories"
)

var (
	_ repositories.FolderRepository     = (*FolderRepo)(nil)
	_ repositories.DocumentRepository   = (*DocumentRepo)(nil)
	_ repositories.PermissionRepository = (*PermissionRepo)(nil)
	_ repositories.ShareRepository      = (*ShareRepo)(nil)
	_ repositories.AccessLogRepository  = (*AccessLogRepo)(nil)
	_ repositories.ProjectRepository    = (*ProjectRepo)(nil)
)

// Store 聚合所有内存仓库
type Store struct {
	Folders     *FolderRepo
	Documents   *DocumentRepo
	Permissions *PermissionRepo
	Shares      *ShareRepo
	AccessLogs  *AccessLogRepo
	Projects    *ProjectRepo
}

func NewStore() *Store {
	return &Store{
		Folders:     &FolderRepo{rows: map[uint64]models.Folder{}},
		Documents:   &DocumentRepo{rows: map[uint64]models.Document{}},
		Permissions: &PermissionRepo{rows: map[uint64]models.FolderPermission{}},
		Shares:      &ShareRepo{rows: map[uint64]models.ShareLink{}},
		AccessLogs:  &AccessLogRepo{byEvent: map[string]struct{}{}},
		Projects:    &ProjectRepo{rows: map[uint64]models.Project{}, links: map[uint64]map[uint64]struct{}{}},
	}
}

// ---- folders ----

type FolderRepo struct {
	mu     sync.RWMutex
	rows   map[uint64]models.Folder
	nextID uint64
	// Err 非空时所有读操作返回该错误
	Err error
}

func (r *FolderRepo) Create(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if folder.ID == 0 {
		r.nextID++
		folder.ID = r.nextID
	} else if folder.ID > r.nextID {
		r.nextID = folder.ID
	}
	r.rows[folder.ID] = *folder
	return nil
}

func (r *FolderRepo) FindByID(_ context.Context, id uint64) (*models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	f, ok := r.rows[id]
	if !ok {
		return nil, xerr.ErrFolderNotFound
	}
	return &f, nil
}

func (r *FolderRepo) FindChildren(_ context.Context, parentID uint64) ([]models.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []models.Folder
	for _, f := range r.rows {
		if f.ParentID != nil && *f.ParentID == parentID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *FolderRepo) UpdateParent(_ context.Context, id uint64, parentID *uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return xerr.ErrFolderNotFound
	}
	if parentID != nil {
		p := *parentID
		parentID = &p
	}
	f.ParentID = parentID
	r.rows[id] = f
	return nil
}

// ---- documents ----

type DocumentRepo struct {
	mu     sync.RWMutex
	rows   map[uint64]models.Document
	nextID uint64
}

func (r *DocumentRepo) Create(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.ID == 0 {
		r.nextID++
		doc.ID = r.nextID
	} else if doc.ID > r.nextID {
		r.nextID = doc.ID
	}
	r.rows[doc.ID] = *doc
	return nil
}

func (r *DocumentRepo) FindByID(_ context.Context, id uint64) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.rows[id]
	if !ok {
		return nil, xerr.ErrDocumentNotFound
	}
	return &d, nil
}

func (r *DocumentRepo) FindByFolderIDs(_ context.Context, folderIDs []uint64) ([]models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	want := make(map[uint64]struct{}, len(folderIDs))
	for _, id := range folderIDs {
		want[id] = struct{}{}
	}
	var out []models.Document
	for _, d := range r.rows {
		if _, ok := want[d.FolderID]; ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- permissions ----

type PermissionRepo struct {
	mu     sync.RWMutex
	rows   map[uint64]models.FolderPermission
	nextID uint64
	Err    error
}

func (r *PermissionRepo) FindGrant(_ context.Context, folderID uint64, role models.Role) (*models.FolderPermission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, p := range r.rows {
		if p.FolderID == folderID && p.Role == role {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *PermissionRepo) FindByID(_ context.Context, id uint64) (*models.FolderPermission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, xerr.ErrPermissionNotFound
	}
	return &p, nil
}

func (r *PermissionRepo) ListByFolder(_ context.Context, folderID uint64) ([]models.FolderPermission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.FolderPermission
	for _, p := range r.rows {
		if p.FolderID == folderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PermissionRepo) Create(_ context.Context, perm *models.FolderPermission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.FolderID == perm.FolderID && p.Role == perm.Role {
			return xerr.ErrPermissionAlreadyExists
		}
	}
	r.nextID++
	perm.ID = r.nextID
	r.rows[perm.ID] = *perm
	return nil
}

func (r *PermissionRepo) UpdatePermission(_ context.Context, id uint64, permission models.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return xerr.ErrPermissionNotFound
	}
	p.Permission = permission
	r.rows[id] = p
	return nil
}

func (r *PermissionRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

// ---- share links ----

type ShareRepo struct {
	mu     sync.Mutex
	rows   map[uint64]models.ShareLink
	nextID uint64
}

func (r *ShareRepo) Create(_ context.Context, link *models.ShareLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	link.ID = r.nextID
	r.rows[link.ID] = *link
	return nil
}

func (r *ShareRepo) FindByToken(_ context.Context, token string) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.rows {
		if l.Token == token {
			return &l, nil
		}
	}
	return nil, xerr.ErrShareNotFound
}

func (r *ShareRepo) FindByID(_ context.Context, id uint64) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return nil, xerr.ErrShareNotFound
	}
	return &l, nil
}

func (r *ShareRepo) ListActiveByDocument(_ context.Context, documentID uint64) ([]models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ShareLink
	for _, l := range r.rows {
		if l.DocumentID == documentID && l.RevokedAt == nil {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ConsumeByToken 持锁完成判断和递增，与数据库的条件 UPDATE 语义一致
func (r *ShareRepo) ConsumeByToken(_ context.Context, token string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.rows {
		if l.Token != token {
			continue
		}
		if l.Status(now) != models.ShareActive {
			return false, nil
		}
		l.AccessCount++
		r.rows[id] = l
		return true, nil
	}
	return false, nil
}

func (r *ShareRepo) Revoke(_ context.Context, id uint64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok || l.RevokedAt != nil {
		return false, nil
	}
	l.RevokedAt = &now
	r.rows[id] = l
	return true, nil
}

// ---- access logs ----

type AccessLogRepo struct {
	mu      sync.Mutex
	rows    []models.AccessLog
	byEvent map[string]struct{}
	nextID  uint64
	// Err 非空时 Create 返回该错误，模拟数据库故障
	Err error
}

func (r *AccessLogRepo) Create(_ context.Context, entry *models.AccessLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, dup := r.byEvent[entry.EventID]; dup {
		return nil
	}
	r.nextID++
	entry.ID = r.nextID
	r.byEvent[entry.EventID] = struct{}{}
	r.rows = append(r.rows, *entry)
	return nil
}

func (r *AccessLogRepo) ListByDocument(_ context.Context, documentID uint64, page, pageSize int) ([]models.AccessLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.AccessLog
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].DocumentID == documentID {
			matched = append(matched, r.rows[i])
		}
	}
	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// All 返回全部日志的副本，按写入顺序
func (r *AccessLogRepo) All() []models.AccessLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AccessLog(nil), r.rows...)
}

func (r *AccessLogRepo) SetErr(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
}

// ---- projects ----

type ProjectRepo struct {
	mu     sync.Mutex
	rows   map[uint64]models.Project
	links  map[uint64]map[uint64]struct{}
	nextID uint64
}

func (r *ProjectRepo) Create(_ context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	project.ID = r.nextID
	r.rows[project.ID] = *project
	return nil
}

func (r *ProjectRepo) FindByID(_ context.Context, id uint64) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, xerr.ErrProjectNotFound
	}
	return &p, nil
}

func (r *ProjectRepo) LinkDocuments(_ context.Context, projectID, _ uint64, documentIDs []uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.links[projectID]
	if !ok {
		set = map[uint64]struct{}{}
		r.links[projectID] = set
	}
	var added int64
	for _, id := range documentIDs {
		if _, exists := set[id]; !exists {
			set[id] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (r *ProjectRepo) ListDocumentIDs(_ context.Context, projectID uint64) ([]uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint64
	for id := range r.links[projectID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
