package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/models"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/share"
	"github.com/gin-gonic/gin"
)

// GatewayHandler 匿名访问分享链接，不需要认证
type GatewayHandler struct {
	gateway *share.Gateway
}

func NewGatewayHandler(gateway *share.Gateway) *GatewayHandler {
	return &GatewayHandler{gateway: gateway}
}

// ViewShared
// @Summary 查看分享的文档
// @Description 校验令牌并消耗一次访问次数，返回文档元数据；链接无效时统一返回 404
// @Tags 分享访问
// @Produce json
// @Param token path string true "分享令牌"
// @Success 200 {object} xerr.Response "文档信息"
// @Failure 404 {object} xerr.Response "分享链接无效或已失效"
// @Router /share/{token} [get]
func (h *GatewayHandler) ViewShared(c *gin.Context) {
	result, err := h.gateway.Open(c.Request.Context(), c.Param("token"), models.ActionView, c.ClientIP())
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "获取分享文档成功", result.Document)
}

// DownloadShared
// @Summary 下载分享的文档
// @Description 校验令牌并消耗一次访问次数，重定向到有时效的下载地址
// @Tags 分享访问
// @Param token path string true "分享令牌"
// @Success 302 "重定向到下载地址"
// @Failure 404 {object} xerr.Response "分享链接无效或已失效"
// @Router /share/{token}/download [get]
func (h *GatewayHandler) DownloadShared(c *gin.Context) {
	result, err := h.gateway.Open(c.Request.Context(), c.Param("token"), models.ActionDownload, c.ClientIP())
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	c.Redirect(http.StatusFound, result.DownloadURL)
}
