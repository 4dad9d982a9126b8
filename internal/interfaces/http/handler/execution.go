// Package handler 提供 HTTP 请求处理器
package handler

import (
	"edu-content-ai-api/internal/application/content"
	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/internal/interfaces/http/dto"

	"github.com/gin-gonic/gin"
)

// ExecutionHandler 执行记录处理器
type ExecutionHandler struct {
	executions *content.ExecutionService
}

// NewExecutionHandler 创建执行记录处理器
func NewExecutionHandler(executions *content.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{executions: executions}
}

// GetExecution 查询执行记录
// @Summary 查询执行记录
// @Tags Executions
// @Produce json
// @Param wid path string true "Workflow ID"
// @Success 200 {object} dto.Response[dto.ExecutionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/executions/{wid} [get]
func (h *ExecutionHandler) GetExecution(c *gin.Context) {
	record, err := h.executions.Get(c.Request.Context(), c.Param("wid"))
	if err != nil {
		respondError(c, err, "failed to get execution")
		return
	}
	dto.Success(c, dto.ToExecutionResponse(record))
}

// ListExecutions 列出执行记录
// @Summary 列出执行记录
// @Description 按 status 或 author_id 过滤，二者至少提供其一
// @Tags Executions
// @Produce json
// @Param status query string false "执行状态 (pending|processing|completed|error)"
// @Param author_id query string false "作者 ID"
// @Success 200 {object} dto.Response[dto.ExecutionListResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/executions [get]
func (h *ExecutionHandler) ListExecutions(c *gin.Context) {
	ctx := c.Request.Context()
	status := c.Query("status")
	authorID := c.Query("author_id")

	switch {
	case status != "":
		records, err := h.executions.ListByStatus(ctx, entity.ExecutionStatus(status))
		if err != nil {
			respondError(c, err, "failed to list executions")
			return
		}
		dto.Success(c, dto.ToExecutionListResponse(records))
	case authorID != "":
		records, err := h.executions.ListByAuthor(ctx, authorID)
		if err != nil {
			respondError(c, err, "failed to list executions")
			return
		}
		dto.Success(c, dto.ToExecutionListResponse(records))
	default:
		dto.BadRequest(c, "status or author_id query parameter is required")
	}
}

// GetStats 流水线统计
// @Summary 流水线统计
// @Description 各状态执行记录数量与已完成记录的平均耗时
// @Tags Executions
// @Produce json
// @Success 200 {object} dto.Response[dto.PipelineStatsResponse]
// @Router /v1/executions/stats [get]
func (h *ExecutionHandler) GetStats(c *gin.Context) {
	stats, err := h.executions.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to compute stats")
		return
	}
	dto.Success(c, dto.ToPipelineStatsResponse(stats))
}
