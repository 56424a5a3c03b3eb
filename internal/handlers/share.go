package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/share"
	"github.com/gin-gonic/gin"
)

type ShareHandler struct {
	manager *share.Manager
}

func NewShareHandler(manager *share.Manager) *ShareHandler {
	return &ShareHandler{manager: manager}
}

type CreateShareRequest struct {
	ExpiresIn      models.ExpiresIn `json:"expiresIn" binding:"required"`
	MaxAccessCount *int64           `json:"maxAccessCount"`
}

// CreateShare
// @Summary 创建分享链接
// @Description 为文档创建外部分享链接，可限制有效期和访问次数；需要 STAFF 及以上角色并能读取文档
// @Tags 分享
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Param request body CreateShareRequest true "分享链接设置"
// @Success 201 {object} xerr.Response "分享链接创建成功"
// @Failure 400 {object} xerr.Response "请求参数无效"
// @Failure 403 {object} xerr.Response "角色不允许分享"
// @Failure 404 {object} xerr.Response "文档不存在"
// @Failure 409 {object} xerr.Response "最大访问次数无效"
// @Router /api/v1/documents/{id}/share [post]
func (h *ShareHandler) CreateShare(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "请求参数解析失败: "+err.Error())
		return
	}

	link, err := h.manager.Create(c.Request.Context(), documentID, actor, req.ExpiresIn, req.MaxAccessCount)
	if err != nil {
		xerr.FromError(c, err)
		return
	}

	xerr.Success(c, http.StatusCreated, "分享链接创建成功", gin.H{
		"link":     link,
		"shareUrl": "/share/" + link.Token,
	})
}

// ListShareLinks
// @Summary 列出文档的分享链接
// @Description 返回所有未撤销的链接（包括已过期和已用尽的）及其状态
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Success 200 {object} xerr.Response "分享链接列表"
// @Failure 404 {object} xerr.Response "文档不存在"
// @Router /api/v1/documents/{id}/share-links [get]
func (h *ShareHandler) ListShareLinks(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	links, err := h.manager.ListActive(c.Request.Context(), documentID, actor)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取分享列表成功", links)
}

// RevokeShare
// @Summary 撤销分享链接
// @Description 创建者或对文档所在目录有 ADMIN 权限的用户可以撤销，重复撤销直接返回成功
// @Tags 分享
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Param linkId path int true "分享链接ID"
// @Success 200 {object} xerr.Response "分享链接已撤销"
// @Failure 403 {object} xerr.Response "无权撤销"
// @Failure 404 {object} xerr.Response "分享链接不存在"
// @Router /api/v1/documents/{id}/share/{linkId} [delete]
func (h *ShareHandler) RevokeShare(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	linkID, ok := parseIDParam(c, "linkId")
	if !ok {
		return
	}

	if err := h.manager.Revoke(c.Request.Context(), linkID, documentID, actor); err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "分享链接已撤销", nil)
}
