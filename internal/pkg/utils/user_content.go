package utils

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// 认证中间件写入 gin.Context 的键
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRole     = "role"
)

// GetUserIDFromContext 从 Gin 上下文中获取并验证用户ID
// 如果获取失败或类型不正确，会中止请求并返回错误
func GetUserIDFromContext(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "User ID not found in context")
		return 0, false
	}
	currentUserID, ok := userID.(uint64)
	if !ok {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Invalid user ID type in context")
		return 0, false
	}
	return currentUserID, true
}

// GetActorFromContext 返回当前请求的用户和角色
func GetActorFromContext(c *gin.Context) (models.Actor, bool) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return models.Actor{}, false
	}
	value, exists := c.Get(ContextRole)
	role, isRole := value.(models.Role)
	if !exists || !isRole || !role.Valid() {
		xerr.AbortWithError(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Invalid role in context")
		return models.Actor{}, false
	}
	return models.Actor{UserID: userID, Role: role}, true
}
