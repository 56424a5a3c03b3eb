package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/project"
	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projects *project.Service
}

func NewProjectHandler(projects *project.Service) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

type LinkFolderRequest struct {
	FolderID  uint64 `json:"folderId" binding:"required"`
	Recursive bool   `json:"recursive"`
}

// LinkFolder
// @Summary 关联目录中的文档到项目
// @Description recursive 为 true 时包含当前用户可读的全部子目录
// @Tags 项目
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Param data body LinkFolderRequest true "目录和是否递归"
// @Success 200 {object} xerr.Response "{linked: 新增关联数}"
// @Failure 404 {object} xerr.Response "项目或目录不存在"
// @Router /api/v1/projects/{id}/link-folder [post]
func (h *ProjectHandler) LinkFolder(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req LinkFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
		return
	}

	added, err := h.projects.LinkFolder(c.Request.Context(), actor, projectID, req.FolderID, req.Recursive)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "文档已关联", gin.H{"linked": added})
}

// ListProjectDocuments
// @Summary 列出项目中可读的文档
// @Tags 项目
// @Produce json
// @Security BearerAuth
// @Param id path int true "项目ID"
// @Success 200 {object} xerr.Response "文档ID列表"
// @Failure 404 {object} xerr.Response "项目不存在"
// @Router /api/v1/projects/{id}/documents [get]
func (h *ProjectHandler) ListProjectDocuments(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ids, err := h.projects.Documents(c.Request.Context(), actor, projectID)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "ok", gin.H{"documentIds": ids})
}
