package handlers

import (
	"net/http"
	"strconv"

	"github.com/3Eeeecho/go-docvault/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// parseIDParam 读取路径中的正整数 id，失败时写出 400 并返回 false
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "无效的 "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
