package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/access"
	"github.com/gin-gonic/gin"
)

type PermissionHandler struct {
	grants *access.GrantService
}

func NewPermissionHandler(grants *access.GrantService) *PermissionHandler {
	return &PermissionHandler{grants: grants}
}

type CreateFolderPermissionRequest struct {
	Role       models.Role       `json:"role" binding:"required"`
	Permission models.Permission `json:"permission" binding:"required"`
}

type UpdateFolderPermissionRequest struct {
	Permission models.Permission `json:"permission" binding:"required"`
}

// ListFolderPermissions
// @Summary 列出目录授权
// @Tags 目录权限
// @Produce json
// @Security BearerAuth
// @Param id path int true "目录ID"
// @Success 200 {object} xerr.Response "授权列表"
// @Failure 403 {object} xerr.Response "需要 ADMIN 权限"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Router /api/v1/folders/{id}/permissions [get]
func (h *PermissionHandler) ListFolderPermissions(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	perms, err := h.grants.List(c.Request.Context(), actor, folderID)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取授权列表成功", perms)
}

// CreateFolderPermission
// @Summary 新增目录授权
// @Description 为某个角色在目录上授予权限，同一角色在同一目录上只能有一条授权
// @Tags 目录权限
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目录ID"
// @Param data body CreateFolderPermissionRequest true "角色和权限"
// @Success 201 {object} xerr.Response "授权已创建"
// @Failure 403 {object} xerr.Response "需要 ADMIN 权限"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Failure 409 {object} xerr.Response "该角色已有授权"
// @Router /api/v1/folders/{id}/permissions [post]
func (h *PermissionHandler) CreateFolderPermission(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateFolderPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	perm, err := h.grants.Grant(c.Request.Context(), actor, folderID, req.Role, req.Permission)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusCreated, "授权已创建", perm)
}

// UpdateFolderPermission
// @Summary 修改目录授权
// @Tags 目录权限
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目录ID"
// @Param permId path int true "授权ID"
// @Param data body UpdateFolderPermissionRequest true "新权限"
// @Success 200 {object} xerr.Response "授权已更新"
// @Failure 404 {object} xerr.Response "授权不存在"
// @Router /api/v1/folders/{id}/permissions/{permId} [put]
func (h *PermissionHandler) UpdateFolderPermission(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	permID, ok := parseIDParam(c, "permId")
	if !ok {
		return
	}
	var req UpdateFolderPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	perm, err := h.grants.Update(c.Request.Context(), actor, folderID, permID, req.Permission)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "授权已更新", perm)
}

// DeleteFolderPermission
// @Summary 删除目录授权
// @Tags 目录权限
// @Produce json
// @Security BearerAuth
// @Param id path int true "目录ID"
// @Param permId path int true "授权ID"
// @Success 200 {object} xerr.Response "授权已删除"
// @Failure 404 {object} xerr.Response "授权不存在"
// @Router /api/v1/folders/{id}/permissions/{permId} [delete]
func (h *PermissionHandler) DeleteFolderPermission(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	permID, ok := parseIDParam(c, "permId")
	if !ok {
		return
	}

	if err := h.grants.Revoke(c.Request.Context(), actor, folderID, permID); err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "授权已删除", nil)
}
