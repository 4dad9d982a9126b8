// Package handler 提供 HTTP 请求处理器
package handler

import (
	"edu-content-ai-api/internal/application/content"
	"edu-content-ai-api/internal/interfaces/http/dto"
	"edu-content-ai-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ProcessHandler 内容处理器
type ProcessHandler struct {
	pipeline *content.Pipeline
}

// NewProcessHandler 创建内容处理器
func NewProcessHandler(pipeline *content.Pipeline) *ProcessHandler {
	return &ProcessHandler{pipeline: pipeline}
}

// Process 提交内容处理请求
// @Summary 提交内容处理请求
// @Description 自由文本改进、结构化组件生成或课程章节生成；sync 模式同步返回结果，async 模式入队后返回 202
// @Tags Content
// @Accept json
// @Produce json
// @Param request body dto.ProcessContentRequest true "处理请求"
// @Success 200 {object} dto.Response[dto.ProcessContentResponse]
// @Success 202 {object} dto.Response[dto.ProcessContentResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "同 workflow id 已有进行中的执行"
// @Failure 503 {object} dto.ErrorResponse "AI 提供商不可用"
// @Router /v1/content/process [post]
func (h *ProcessHandler) Process(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ProcessContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	processReq := req.ToProcessRequest(currentAuthorID(c, req.AuthorID))

	result, err := h.pipeline.Process(ctx, processReq)
	if err != nil {
		respondError(c, err, "content processing failed")
		return
	}

	logger.Info(ctx, "content request processed",
		"workflow_id", result.WorkflowID,
		"status", result.Status,
		"request_mode", string(processReq.RequestMode),
	)

	resp := dto.ToProcessContentResponse(result)
	if result.Status == content.StatusAccepted {
		dto.Accepted(c, resp)
		return
	}
	dto.Success(c, resp)
}
