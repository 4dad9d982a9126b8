// Package handler 提供 HTTP 请求处理器
package handler

import (
	"edu-content-ai-api/internal/interfaces/http/dto"
	"edu-content-ai-api/pkg/errors"
	"edu-content-ai-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError 按错误码映射 HTTP 状态并返回统一错误响应
func respondError(c *gin.Context, err error, fallback string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		detail := &dto.ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		}
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, detail)
		return
	}

	logger.Error(c.Request.Context(), "request failed", err, "path", c.Request.URL.Path)
	dto.InternalError(c, fallback)
}

// currentAuthorID 从认证上下文或请求体回退取作者标识
func currentAuthorID(c *gin.Context, fromBody string) string {
	if authorID := c.GetString("author_id"); authorID != "" {
		return authorID
	}
	return fromBody
}
