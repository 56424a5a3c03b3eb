package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/pkg/logger"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/admin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService admin.AuthService
}

func NewAuthHandler(authService admin.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=255"`
	Email    string `json:"email" binding:"required,email"`
}

// LoginRequest 登录请求结构体
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // 可以是用户名或邮箱
	Password   string `json:"password" binding:"required"`
}

// Register
// @Summary 用户注册
// @Description 用户注册接口，新用户角色为 GUEST
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body RegisterRequest true "注册信息"
// @Success 200 {object} xerr.Response "注册成功"
// @Failure 400 {object} xerr.Response "参数错误"
// @Failure 409 {object} xerr.Response "用户名或邮箱已存在"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	user, err := h.authService.RegisterUser(req.Username, req.Password, req.Email)
	if err != nil {
		logger.Warn("Register: failed", zap.String("username", req.Username), zap.Error(err))
		xerr.FromError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "User registered successfully", gin.H{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// Login
// @Summary 用户登录
// @Description 用户登录接口，token 中携带用户角色
// @Tags 用户认证
// @Accept json
// @Produce json
// @Param data body LoginRequest true "登录信息"
// @Success 200 {object} xerr.Response "登录成功，返回token"
// @Failure 400 {object} xerr.Response "参数错误"
// @Failure 401 {object} xerr.Response "用户名或密码错误"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	tokenString, user, err := h.authService.LoginUser(req.Identifier, req.Password)
	if err != nil {
		xerr.FromError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "Login successful", gin.H{"token": tokenString, "role": user.Role})
}
