package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-docvault/internal/pkg/utils"
	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-docvault/internal/services/audit"
	"github.com/gin-gonic/gin"
)

type AccessLogHandler struct {
	logs *audit.AccessLogger
}

func NewAccessLogHandler(logs *audit.AccessLogger) *AccessLogHandler {
	return &AccessLogHandler{logs: logs}
}

// ListAccessLogs
// @Summary 文档访问日志
// @Description 仅超级管理员可用，按时间倒序分页
// @Tags 审计
// @Produce json
// @Security BearerAuth
// @Param id path int true "文档ID"
// @Param page query int false "页码，默认 1"
// @Param pageSize query int false "每页条数，默认 20，最大 100"
// @Success 200 {object} xerr.Response "访问日志"
// @Failure 403 {object} xerr.Response "权限不足"
// @Router /api/v1/documents/{id}/access-logs [get]
func (h *AccessLogHandler) ListAccessLogs(c *gin.Context) {
	actor, ok := utils.GetActorFromContext(c)
	if !ok {
		return
	}
	documentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 0)

	logs, total, err := h.logs.List(c.Request.Context(), actor, documentID, page, pageSize)
	if err != nil {
		xerr.FromError(c, err)
		return
	}
	xerr.Success(c, http.StatusOK, "ok", gin.H{
		"items": logs,
		"total": total,
		"page":  page,
	})
}
