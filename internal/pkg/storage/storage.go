package storage

import (
	"context"
	"errors"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/config"
)

// StorageService 文档对象存储；文档内容由上传流程写入，这里只负责桶的准备和下载地址签发
type StorageService interface {
	// 检查存储桶是否存在
	IsBucketExist(ctx context.Context, bucketName string) (bool, error)
	// 创建存储桶
	MakeBucket(ctx context.Context, bucketName string) error
	// 为对象生成限时下载地址
	PreSignGetObjectURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error)
	// 默认存储桶，文档未指定桶时使用
	DefaultBucket() string
}

var ErrInvalidStorageType = errors.New("invalid storageType")

func NewStorageService(cfg *config.Config) (StorageService, error) {
	switch cfg.Storage.Type {
	case "minio":
		return NewMinIOStorageService(&cfg.MinIO)
	case "aliyun_oss":
		return NewAliyunOSSStorageService(&cfg.AliyunOSS)
	default:
		return nil, ErrInvalidStorageType
	}
}
