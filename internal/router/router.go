package router

import (
	"net/http"

	_ "github.com/3Eeeecho/go-docvault/docs"
	"github.com/3Eeeecho/go-docvault/internal/config"
	"github.com/3Eeeecho/go-docvault/internal/handlers"
	"github.com/3Eeeecho/go-docvault/internal/middlewares"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers 路由需要的全部 handler，由 server 统一构建
type Handlers struct {
	Auth       *handlers.AuthHandler
	User       *handlers.UserHandler
	Share      *handlers.ShareHandler
	Gateway    *handlers.GatewayHandler
	Permission *handlers.PermissionHandler
	Folder     *handlers.FolderHandler
	Project    *handlers.ProjectHandler
	AccessLog  *handlers.AccessLogHandler

	// Users 供认证中间件复核 SUPER_ADMIN 的当前角色
	Users middlewares.RoleLookup
}

func InitRouter(cfg *config.Config, h *Handlers, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), m.Middleware())

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 分享链接访问 (无需认证)
	shareGroup := router.Group("/share")
	{
		shareGroup.GET("/:token", h.Gateway.ViewShared)
		shareGroup.GET("/:token/download", h.Gateway.DownloadShared)
	}

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
		}

		// 需要认证的路由组
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(cfg, h.Users))

		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/me", h.User.GetUserProfile)
			userGroup.PUT("/:id/role", h.User.AssignRole)
		}

		documentGroup := authenticated.Group("/documents")
		{
			documentGroup.POST("/:id/share", h.Share.CreateShare)
			documentGroup.GET("/:id/share-links", h.Share.ListShareLinks)
			documentGroup.DELETE("/:id/share/:linkId", h.Share.RevokeShare)
			documentGroup.GET("/:id/access-logs", h.AccessLog.ListAccessLogs)
		}

		folderGroup := authenticated.Group("/folders")
		{
			folderGroup.POST("", h.Folder.CreateFolder)
			folderGroup.GET("/:id/access", h.Folder.CheckFolderAccess)
			folderGroup.PUT("/:id/move", h.Folder.MoveFolder)

			folderGroup.GET("/:id/permissions", h.Permission.ListFolderPermissions)
			folderGroup.POST("/:id/permissions", h.Permission.CreateFolderPermission)
			folderGroup.PUT("/:id/permissions/:permId", h.Permission.UpdateFolderPermission)
			folderGroup.DELETE("/:id/permissions/:permId", h.Permission.DeleteFolderPermission)
		}

		projectGroup := authenticated.Group("/projects")
		{
			projectGroup.POST("/:id/link-folder", h.Project.LinkFolder)
			projectGroup.GET("/:id/documents", h.Project.ListProjectDocuments)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
