package middlewares

import (
	"net/http"
	"strings"

	"github.com/3Eeeecho/go-docvault/internal/config"
	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoleLookup 读取用户当前角色，由 repositories.UserRepository 实现
type RoleLookup interface {
	GetUserByID(id uint64) (*models.User, error)
}

// AuthMiddleware 校验 JWT；SUPER_ADMIN 的 token 每次都按用户表复核角色，降级立即生效
func AuthMiddleware(cfg *config.Config, users RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从请求头获取 Token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Authorization header is required")
			return
		}

		// Token 格式通常是 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.UnauthorizedCode, "Invalid Authorization header format")
			return
		}

		// 2. 解析和验证 Token，角色非法的 token 同样拒绝
		claims, err := utils.ParseToken(parts[1], cfg.JWT.SecretKey, cfg.JWT.Issuer)
		if err != nil {
			logger.Debug("AuthMiddleware: rejected token", zap.Error(err))
			xerr.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, xerr.ErrTokenInvalid.Error())
			return
		}

		role := claims.Role
		if role == models.RoleSuperAdmin && users != nil {
			user, err := users.GetUserByID(claims.UserID)
			if err != nil {
				logger.Warn("AuthMiddleware: super admin token for unknown user",
					zap.Uint64("userID", claims.UserID), zap.Error(err))
				xerr.AbortWithError(c, http.StatusUnauthorized, xerr.TokenInvalidCode, xerr.ErrTokenInvalid.Error())
				return
			}
			if user.Role != role {
				logger.Info("AuthMiddleware: role changed since token was issued",
					zap.Uint64("userID", claims.UserID),
					zap.Stringer("tokenRole", role),
					zap.Stringer("currentRole", user.Role))
				role = user.Role
			}
		}

		// 3. 将用户信息存储到 Gin Context 中，以便后续 Handler 使用
		c.Set(utils.ContextUserID, claims.UserID)
		c.Set(utils.ContextUsername, claims.Username)
		c.Set(utils.ContextRole, role)

		c.Next()
	}
}
