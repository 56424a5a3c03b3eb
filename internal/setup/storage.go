package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/config"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/storage"
	"go.uber.org/zap"
)

// InitStorage 按 storage.type 选择对象存储并确保默认桶存在
func InitStorage(cfg *config.Config) (storage.StorageService, error) {
	svc, err := storage.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化 %s 存储服务失败: %w", cfg.Storage.Type, err)
	}
	logger.Info("存储服务已选择并初始化", zap.String("type", cfg.Storage.Type))

	// 为外部调用使用带超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ensureBucket(ctx, svc, svc.DefaultBucket()); err != nil {
		return nil, err
	}
	return svc, nil
}

func ensureBucket(ctx context.Context, svc storage.StorageService, bucketName string) error {
	exists, err := svc.IsBucketExist(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶存在性失败: %w", err)
	}
	if exists {
		logger.Info("存储桶已存在", zap.String("bucketName", bucketName))
		return nil
	}

	logger.Info("存储桶不存在，尝试创建...", zap.String("bucketName", bucketName))
	if err := svc.MakeBucket(ctx, bucketName); err != nil {
		return fmt.Errorf("创建存储桶失败: %w", err)
	}
	return nil
}
