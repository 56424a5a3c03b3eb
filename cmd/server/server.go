package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/config"
	"github.com/3Eeeecho/go-docvault/internal/handlers"
	"github.com/3Eeeecho/go-docvault/internal/pkg/cache"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/metrics"
	"github.com/3Eeeecho/go-docvault/internal/repositories"
	"github.com/3Eeeecho/go-docvault/internal/router"
	"github.com/3Eeeecho/go-docvault/internal/services/access"
	"github.com/3Eeeecho/go-docvault/internal/services/admin"
	"github.com/3Eeeecho/go-docvault/internal/services/audit"
	"github.com/3Eeeecho/go-docvault/internal/services/explorer"
	"github.com/3Eeeecho/go-docvault/internal/services/project"
	"github.com/3Eeeecho/go-docvault/internal/services/share"
	"github.com/3Eeeecho/go-docvault/internal/setup"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client

	// 后台任务：审计重试回放、ES 镜像
	workers []func(ctx context.Context)
}

// NewServer 负责构建所有依赖
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化数据库连接
	mysqlDB, err := setup.InitMySQL(&cfg.MySQL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MySQL: %w", err)
	}

	// 初始化 Redis 连接
	redisClient, err := setup.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	ss, err := setup.InitStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	esClient, err := setup.InitElasticsearchClient(&cfg.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Elasticsearch: %w", err)
	}

	m := metrics.NewMetrics()
	var workers []func(ctx context.Context)

	//  初始化 Repositories
	var (
		folderRepo     = repositories.NewDBFolderRepository(mysqlDB)
		permissionRepo = repositories.NewPermissionRepository(mysqlDB)
		documentRepo   = repositories.NewDocumentRepository(mysqlDB)
		projectRepo    = repositories.NewProjectRepository(mysqlDB)
		shareRepo      = repositories.NewShareRepository(mysqlDB)
		accessLogRepo  = repositories.NewAccessLogRepository(mysqlDB)
		userRepo       = repositories.NewUserRepository(mysqlDB)
	)
	if cfg.Access.GrantCacheTTL > 0 {
		redisCache := cache.NewRedisCache(redisClient)
		folderRepo = repositories.NewCachedFolderRepository(folderRepo, redisCache, cfg.Access.GrantCacheTTL)
		permissionRepo = repositories.NewCachedPermissionRepository(permissionRepo, redisCache, cfg.Access.GrantCacheTTL)
	}

	// 审计：主存储 MySQL，失败进 Redis Stream 重试，可选镜像到 ES
	var mirror audit.Mirror
	if esClient != nil {
		esMirror := audit.NewESMirror(esClient, cfg.Audit.ESIndex, 0, m)
		mirror = esMirror
		workers = append(workers, esMirror.Run)
	}
	retryQueue := audit.NewRedisRetryQueue(redisClient, cfg.Audit.RetryStream)
	retryConsumer := audit.NewRetryConsumer(redisClient, accessLogRepo, cfg.Audit.RetryStream, cfg.Audit.RetryGroup, m)
	workers = append(workers, retryConsumer.Run)
	accessLogger := audit.NewAccessLogger(accessLogRepo, retryQueue, mirror, m, time.Now)

	//  初始化 Services
	resolver := access.NewResolver(folderRepo, permissionRepo, documentRepo, cfg.Access.MaxFolderDepth, m)
	walker := access.NewWalker(folderRepo, resolver)
	grantService := access.NewGrantService(permissionRepo, folderRepo, resolver)
	folderService := explorer.NewFolderService(folderRepo, resolver, resolver)
	projectService := project.NewService(projectRepo, documentRepo, walker, resolver)
	shareManager := share.NewManager(shareRepo, resolver, accessLogger, cfg.Share.TokenBytes, time.Now)
	gateway := share.NewGateway(shareManager, documentRepo, ss, accessLogger, m, ss.DefaultBucket(), cfg.Share.PresignedURLExpiry)
	authService := admin.NewAuthService(userRepo, cfg)
	userService := admin.NewUserService(userRepo)

	//  初始化 Handlers
	h := &router.Handlers{
		Auth:       handlers.NewAuthHandler(authService),
		User:       handlers.NewUserHandler(userService),
		Share:      handlers.NewShareHandler(shareManager),
		Gateway:    handlers.NewGatewayHandler(gateway),
		Permission: handlers.NewPermissionHandler(grantService),
		Folder:     handlers.NewFolderHandler(folderService),
		Project:    handlers.NewProjectHandler(projectService),
		AccessLog:  handlers.NewAccessLogHandler(accessLogger),
		Users:      userRepo,
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.InitRouter(cfg, h, m)

	addr := ":" + cfg.Server.Port
	logger.Info(fmt.Sprintf("Server is running on %s", cfg.Server.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		router:      engine,
		httpServer:  httpServer,
		db:          mysqlDB,
		redisClient: redisClient,
		workers:     workers,
	}, nil
}

// Run 启动服务器和后台任务，并处理优雅关机
func (s *Server) Run(ctx context.Context, stopChan chan os.Signal) {
	defer setup.CloseMySQLDB(s.db)
	defer setup.CloseRedis(s.redisClient)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, run := range s.workers {
		wg.Add(1)
		go func(run func(ctx context.Context)) {
			defer wg.Done()
			run(workerCtx)
		}(run)
	}

	// 启动 HTTP 服务器
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// 等待停止信号
	<-stopChan
	logger.Info("Shutting down server...")

	// 优雅关机
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// HTTP 停止后不再产生新的审计记录，再停后台任务
	stopWorkers()
	wg.Wait()
	logger.Info("Server exited gracefully")
}
