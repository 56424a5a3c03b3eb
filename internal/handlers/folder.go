package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/explorer"
	"github.com/gin-gonic/gin"
)

type FolderHandler struct {
	folders *explorer.FolderService
}

func NewFolderHandler(folders *explorer.FolderService) *FolderHandler {
	return &FolderHandler{folders: folders}
}

type CreateFolderRequest struct {
	Name     string  `json:"name" binding:"required,max=255"`
	ParentID *uint64 `json:"parentId"`
}

type MoveFolderRequest struct {
	ParentID *uint64 `json:"parentId"` // 为空表示移到根目录
}

// CreateFolder
// @Summary 创建目录
// @Description 需要父目录的 WRITE 权限；不指定父目录时创建根目录，仅超级管理员可用
// @Tags 目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param data body CreateFolderRequest true "目录信息"
// @Success 201 {object} xerr.Response "目录已创建"
// @Failure 403 {object} xerr.Response "权限不足"
// @Failure 404 {object} xerr.Response "父目录不存在"
// @Router /api/v1/folders [post]
func (h *FolderHandler) CreateFolder(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	folder, err := h.folders.Create(c.Request.Context(), actor, req.Name, req.ParentID)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusCreated, "目录已创建", folder)
}

// CheckFolderAccess
// @Summary 权限探测
// @Description 返回当前用户对目录是否具有指定权限，目录不存在时返回 false
// @Tags 目录
// @Produce json
// @Security BearerAuth
// @Param id path int true "目录ID"
// @Param permission query string false "READ / WRITE / ADMIN，默认 READ"
// @Success 200 {object} xerr.Response "{allowed: bool}"
// @Failure 400 {object} xerr.Response "权限参数无效"
// @Router /api/v1/folders/{id}/access [get]
func (h *FolderHandler) CheckFolderAccess(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	required, err := models.ParsePermission(c.DefaultQuery("permission", models.PermissionRead.String()))
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	allowed, err := h.folders.CheckAccess(c.Request.Context(), actor, folderID, required)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "ok", gin.H{"allowed": allowed})
}

// MoveFolder
// @Summary 移动目录
// @Description 需要目录的 ADMIN 和目标父目录的 WRITE 权限，不能移动到自身或其子目录下
// @Tags 目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "目录ID"
// @Param data body MoveFolderRequest true "目标父目录"
// @Success 200 {object} xerr.Response "目录已移动"
// @Failure 400 {object} xerr.Response "不能移动到子目录"
// @Failure 403 {object} xerr.Response "权限不足"
// @Failure 404 {object} xerr.Response "目录不存在"
// @Router /api/v1/folders/{id}/move [put]
func (h *FolderHandler) MoveFolder(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	folderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req MoveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	folder, err := h.folders.Move(c.Request.Context(), actor, folderID, req.ParentID)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "目录已移动", folder)
}
