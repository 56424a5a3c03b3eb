package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/admin"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService admin.UserService
}

func NewUserHandler(userService admin.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

type AssignRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// GetUserProfile 处理获取已认证用户资料的请求。
// @Summary 获取当前用户资料
// @Description 检索已认证用户的资料详情。
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "用户资料检索成功"
// @Failure 401 {object} xerr.Response "未授权"
// @Failure 404 {object} xerr.Response "用户未找到"
// @Router /api/v1/users/me [get]
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	currentUserID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserProfile(currentUserID)
	if err != nil {
		xerr.FromError(c, err)
		return
	}

	xerr.Success(c, http.StatusOK, "成功获取用户资料", user)
}

// AssignRole
// @Summary 调整用户角色
// @Description 仅超级管理员可用，新角色在用户重新登录后生效
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Param data body AssignRoleRequest true "新角色"
// @Success 200 {object} xerr.Response "角色已更新"
// @Failure 403 {object} xerr.Response "权限不足"
// @Failure 404 {object} xerr.Response "用户未找到"
// @Router /api/v1/users/{id}/role [put]
func (h *UserHandler) AssignRole(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	user, err := h.userService.AssignRole(actor, userID, req.Role)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "角色已更新", user)
}
