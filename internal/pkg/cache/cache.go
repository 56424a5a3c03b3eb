package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/3Eeeecho/go-docvault/internal/models"
)

// 缓存通用接口
type Cache interface {
	// Set在缓存中设置一个值，并指定过期时间。
	// value应该是一个可以被JSON封送的结构体或指向结构体的指针。
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Get从缓存中检索一个值，并将其解编组到目标接口。
	// target应该是一个指针，指向希望解编组成的类型。
	Get(ctx context.Context, key string, target any) error

	// 删除一个或多个key
	Del(ctx context.Context, keys ...string) error

	// 哈希操作函数
	HMSet(ctx context.Context, key string, fields map[string]any) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	Expire(ctx context.Context, key string, expiration time.Duration) error
}

// GenerateGrantKey 目录上某角色授权的缓存 key
func GenerateGrantKey(folderID uint64, role models.Role) string {
	return fmt.Sprintf("grant:folder:%d:role:%s", folderID, role)
}

// GenerateFolderKey 目录元数据的缓存 key，值为 hash
func GenerateFolderKey(folderID uint64) string {
	return fmt.Sprintf("folder:metadata:%d", folderID)
}
