package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/config"
	"github.com/3Eeeecho/go-docvault/internal/handlers"
	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/repositories"
	"github.com/3Eeeecho/go-docvault/internal/repositories/memory"
	"github.com/3Eeeecho/go-docvault/internal/services/access"
	"github.com/3Eeeecho/go-docvault/internal/services/admin"
	"github.com/3Eeeecho/go-docvault/internal/services/audit"
	"github.com/3Eeeecho/go-docvault/internal/services/explorer"
	"github.com/3Eeeecho/go-docvault/internal/services/project"
	"github.com/3Eeeecho/go-docvault/internal/services/share"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	contributor = models.Actor{UserID: 12, Role: models.RoleContributor}
	staff       = models.Actor{UserID: 13, Role: models.RoleStaff}
	superAdmin  = models.Actor{UserID: 14, Role: models.RoleSuperAdmin}
)

const sharedDoc uint64 = 10

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeSigner struct{}

func (fakeSigner) PreSignGetObjectURL(_ context.Context, bucketName, objectName string, _ time.Duration) (string, error) {
	return "https://objects.example.com/" + bucketName + "/" + objectName + "?sig=abc", nil
}

type testApp struct {
	engine  *gin.Engine
	cfg     *config.Config
	store   *memory.Store
	clock   *testClock
	manager *share.Manager
	users   repositories.UserRepository
}

// newTestApp 目录 1 → 3，目录 2 独立；文档 10 在目录 1
// STAFF 在 1 上有 ADMIN，CONTRIBUTOR 在 1 上有 READ
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := memory.NewStore()
	parent := uint64(1)
	for _, f := range []models.Folder{
		{ID: 1, Name: "handbooks", OwnerID: 1},
		{ID: 2, Name: "board", OwnerID: 1},
		{ID: 3, ParentID: &parent, Name: "drafts", OwnerID: 1},
	} {
		require.NoError(t, store.Folders.Create(ctx, &f))
	}
	require.NoError(t, store.Documents.Create(ctx, &models.Document{ID: sharedDoc, FolderID: 1, Title: "onboarding.pdf", OssKey: "docs/10/onboarding.pdf", MimeType: "application/pdf", OwnerID: 1}))
	require.NoError(t, store.Permissions.Create(ctx, &models.FolderPermission{FolderID: 1, Role: models.RoleStaff, Permission: models.PermissionAdmin}))
	require.NoError(t, store.Permissions.Create(ctx, &models.FolderPermission{FolderID: 1, Role: models.RoleContributor, Permission: models.PermissionRead}))

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	userRepo := repositories.NewUserRepository(db)
	require.NoError(t, userRepo.CreateUser(&models.User{ID: superAdmin.UserID, Username: "root", Email: "root@example.com", PasswordHash: "x", Role: models.RoleSuperAdmin}))

	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret", ExpiresIn: time.Hour, Issuer: "go-docvault"}}
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := metrics.NewMetrics()

	resolver := access.NewResolver(store.Folders, store.Permissions, store.Documents, access.DefaultMaxDepth, m)
	walker := access.NewWalker(store.Folders, resolver)
	accessLogger := audit.NewAccessLogger(store.AccessLogs, nil, nil, m, clock.Now)
	manager := share.NewManager(store.Shares, resolver, accessLogger, share.DefaultTokenBytes, clock.Now)
	gateway := share.NewGateway(manager, store.Documents, fakeSigner{}, accessLogger, m, "docvault", 5*time.Minute)

	h := &Handlers{
		Auth:       handlers.NewAuthHandler(admin.NewAuthService(userRepo, cfg)),
		User:       handlers.NewUserHandler(admin.NewUserService(userRepo)),
		Share:      handlers.NewShareHandler(manager),
		Gateway:    handlers.NewGatewayHandler(gateway),
		Permission: handlers.NewPermissionHandler(access.NewGrantService(store.Permissions, store.Folders, resolver)),
		Folder:     handlers.NewFolderHandler(explorer.NewFolderService(store.Folders, resolver, resolver)),
		Project:    handlers.NewProjectHandler(project.NewService(store.Projects, store.Documents, walker, resolver)),
		AccessLog:  handlers.NewAccessLogHandler(accessLogger),
		Users:      userRepo,
	}

	return &testApp{
		engine:  InitRouter(cfg, h, m),
		cfg:     cfg,
		store:   store,
		clock:   clock,
		manager: manager,
		users:   userRepo,
	}
}

func (a *testApp) token(t *testing.T, actor models.Actor) string {
	t.Helper()
	tok, err := utils.GenerateToken(actor.UserID, fmt.Sprintf("user-%d", actor.UserID), actor.Role, a.cfg.JWT.SecretKey, a.cfg.JWT.Issuer, a.cfg.JWT.ExpiresIn)
	require.NoError(t, err)
	return tok
}

// do 发送请求，actor 为 nil 时不带 Authorization
func (a *testApp) do(t *testing.T, method, path string, actor *models.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(t, *actor))
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestPing(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestGateway_DenialsAreByteIdentical(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	expired, err := app.manager.Create(ctx, sharedDoc, staff, models.ExpiresOneHour, nil)
	require.NoError(t, err)
	one := int64(1)
	exhausted, err := app.manager.Create(ctx, sharedDoc, staff, models.ExpiresNever, &one)
	require.NoError(t, err)
	revoked, err := app.manager.Create(ctx, sharedDoc, staff, models.ExpiresNever, nil)
	require.NoError(t, err)

	w := app.do(t, http.MethodGet, "/share/"+exhausted.Token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, app.manager.Revoke(ctx, revoked.ID, sharedDoc, staff))
	app.clock.Advance(2 * time.Hour)

	for _, suffix := range []string{"", "/download"} {
		var bodies []string
		for _, token := range []string{expired.Token, exhausted.Token, revoked.Token, "never-issued"} {
			w := app.do(t, http.MethodGet, "/share/"+token+suffix, nil, nil)
			assert.Equal(t, http.StatusNotFound, w.Code, token)
			assert.Empty(t, w.Header().Get("Location"))
			bodies = append(bodies, w.Body.String())
		}
		for _, body := range bodies[1:] {
			assert.Equal(t, bodies[0], body)
		}
		env := envelope{}
		require.NoError(t, json.Unmarshal([]byte(bodies[0]), &env))
		assert.Equal(t, xerr.ShareInvalidCode, env.Code)
	}
}

func TestGateway_ViewAndDownload(t *testing.T) {
	app := newTestApp(t)
	link, err := app.manager.Create(context.Background(), sharedDoc, staff, models.ExpiresOneDay, nil)
	require.NoError(t, err)

	w := app.do(t, http.MethodGet, "/share/"+link.Token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &doc))
	assert.Equal(t, "onboarding.pdf", doc["title"])
	assert.NotContains(t, doc, "ossKey")

	w = app.do(t, http.MethodGet, "/share/"+link.Token+"/download", nil, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://objects.example.com/docvault/docs/10/onboarding.pdf?sig=abc", w.Header().Get("Location"))

	stored, err := app.store.Shares.FindByID(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.AccessCount)
}

func TestCreateShare(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/documents/10/share", &staff, gin.H{"expiresIn": "ONE_DAY", "maxAccessCount": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Link     map[string]any `json:"link"`
		ShareURL string         `json:"shareUrl"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "/share/"+created.Link["token"].(string), created.ShareURL)
	assert.EqualValues(t, 0, created.Link["accessCount"])
	assert.EqualValues(t, 3, created.Link["maxAccessCount"])

	w = app.do(t, http.MethodPost, "/api/v1/documents/10/share", &staff, gin.H{"expiresIn": "ONE_DAY", "maxAccessCount": 0})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, xerr.InvalidMaxAccessCountCode, decode(t, w).Code)

	w = app.do(t, http.MethodPost, "/api/v1/documents/10/share", &contributor, gin.H{"expiresIn": "ONE_DAY"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/documents/10/share", &staff, gin.H{"expiresIn": "FOREVER"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/documents/abc/share", &staff, gin.H{"expiresIn": "ONE_DAY"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShareLinks_ListAndRevoke(t *testing.T) {
	app := newTestApp(t)
	link, err := app.manager.Create(context.Background(), sharedDoc, staff, models.ExpiresOneDay, nil)
	require.NoError(t, err)

	w := app.do(t, http.MethodGet, "/api/v1/documents/10/share-links", &contributor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var links []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &links))
	require.Len(t, links, 1)
	assert.Equal(t, "ACTIVE", links[0]["status"])

	path := fmt.Sprintf("/api/v1/documents/10/share/%d", link.ID)
	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodDelete, path, &contributor, nil).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodDelete, path, &staff, nil).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodDelete, path, &staff, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodDelete, "/api/v1/documents/10/share/999", &staff, nil).Code)

	w = app.do(t, http.MethodGet, "/api/v1/documents/10/share-links", &staff, nil)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &links))
	assert.Empty(t, links)
}

func TestFolderPermissionCRUD(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/folders/1/permissions", &staff, gin.H{"role": "GUEST", "permission": "READ"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var grant struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &grant))

	w = app.do(t, http.MethodPost, "/api/v1/folders/1/permissions", &staff, gin.H{"role": "GUEST", "permission": "WRITE"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, xerr.PermissionAlreadyExistsCode, decode(t, w).Code)

	w = app.do(t, http.MethodPost, "/api/v1/folders/1/permissions", &staff, gin.H{"role": "OWNER", "permission": "READ"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/folders/1/permissions", &contributor, gin.H{"role": "GUEST", "permission": "ADMIN"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/folders/1/permissions", &staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var grants []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &grants))
	assert.Len(t, grants, 3)

	path := fmt.Sprintf("/api/v1/folders/1/permissions/%d", grant.ID)
	w = app.do(t, http.MethodPut, path, &staff, gin.H{"permission": "WRITE"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"permission":"WRITE"`)

	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodPut, fmt.Sprintf("/api/v1/folders/2/permissions/%d", grant.ID), &superAdmin, gin.H{"permission": "READ"}).Code)
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodDelete, path, &staff, nil).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodDelete, path, &staff, nil).Code)
}

func TestFolderAccessProbe(t *testing.T) {
	app := newTestApp(t)

	allowed := func(path string) bool {
		w := app.do(t, http.MethodGet, path, &contributor, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out struct {
			Allowed bool `json:"allowed"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &out))
		return out.Allowed
	}

	assert.True(t, allowed("/api/v1/folders/3/access"))
	assert.True(t, allowed("/api/v1/folders/3/access?permission=READ"))
	assert.False(t, allowed("/api/v1/folders/3/access?permission=WRITE"))
	assert.False(t, allowed("/api/v1/folders/2/access?permission=READ"))
	assert.False(t, allowed("/api/v1/folders/404/access"))

	w := app.do(t, http.MethodGet, "/api/v1/folders/3/access?permission=OWNER", &contributor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveFolder(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPut, "/api/v1/folders/1/move", &superAdmin, gin.H{"parentId": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, xerr.CannotMoveIntoSubtreeCode, decode(t, w).Code)

	w = app.do(t, http.MethodPut, "/api/v1/folders/3/move", &contributor, gin.H{"parentId": 2})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodPut, "/api/v1/folders/3/move", &superAdmin, gin.H{"parentId": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved, err := app.store.Folders.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), *moved.ParentID)
}

func TestCreateFolderAndLinkProject(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	w := app.do(t, http.MethodPost, "/api/v1/folders", &staff, gin.H{"name": "q3", "parentId": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	p := &models.Project{Name: "launch", OwnerID: 1}
	require.NoError(t, app.store.Projects.Create(ctx, p))

	w = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/link-folder", p.ID), &staff, gin.H{"folderId": 1, "recursive": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"linked":1`)

	w = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/documents", p.ID), &contributor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"documentIds":[10]`)

	w = app.do(t, http.MethodPost, "/api/v1/projects/999/link-folder", &staff, gin.H{"folderId": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccessLogs_SuperAdminOnly(t *testing.T) {
	app := newTestApp(t)
	link, err := app.manager.Create(context.Background(), sharedDoc, staff, models.ExpiresOneDay, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/share/"+link.Token, nil, nil).Code)

	w := app.do(t, http.MethodGet, "/api/v1/documents/10/access-logs", &staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/documents/10/access-logs?page=1&pageSize=10", &superAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []map[string]any `json:"items"`
		Total int64            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
	assert.Equal(t, int64(2), page.Total, "SHARE_CREATED and VIEW")
	assert.Len(t, page.Items, 2)
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/v1/documents/10/share-links", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, xerr.UnauthorizedCode, decode(t, w).Code)

	send := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/10/share-links", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		app.engine.ServeHTTP(w, req)
		return w
	}

	w = send("Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, xerr.UnauthorizedCode, decode(t, w).Code)

	w = send("Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, xerr.TokenInvalidCode, decode(t, w).Code)

	forged, err := utils.GenerateToken(13, "mallory", models.RoleSuperAdmin, "other-secret", app.cfg.JWT.Issuer, time.Hour)
	require.NoError(t, err)
	w = send("Bearer " + forged)
	assert.Equal(t, xerr.TokenInvalidCode, decode(t, w).Code)

	w = send("bearer " + app.token(t, contributor))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_SuperAdminDemotionTakesEffect(t *testing.T) {
	app := newTestApp(t)
	const path = "/api/v1/documents/10/access-logs"

	require.Equal(t, http.StatusOK, app.do(t, http.MethodGet, path, &superAdmin, nil).Code)

	// 旧 token 仍带 SUPER_ADMIN，降级后立即失去全局权限
	require.NoError(t, app.users.UpdateRole(superAdmin.UserID, models.RoleStaff))
	assert.Equal(t, http.StatusForbidden, app.do(t, http.MethodGet, path, &superAdmin, nil).Code)

	ghost := models.Actor{UserID: 99, Role: models.RoleSuperAdmin}
	w := app.do(t, http.MethodGet, path, &ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, xerr.TokenInvalidCode, decode(t, w).Code)
}

func TestRegisterLoginProfile(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/auth/register", nil, gin.H{"username": "alex", "password": "s3cret-pass", "email": "alex@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"role":"GUEST"`)

	w = app.do(t, http.MethodPost, "/api/v1/auth/register", nil, gin.H{"username": "alex", "password": "s3cret-pass", "email": "other@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/auth/login", nil, gin.H{"identifier": "alex", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/auth/login", nil, gin.H{"identifier": "alex@example.com", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &login))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	app.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"username":"alex"`))
}

func TestNoRoute(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodGet, "/api/v1/nothing-here", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, xerr.NotFoundCode, decode(t, w).Code)
}
