// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	"edu-content-ai-api/internal/application/content"
	"edu-content-ai-api/internal/domain/entity"
)

// ExecutionResponse 执行记录响应
type ExecutionResponse struct {
	WorkflowID  string          `json:"workflow_id"`
	AuthorID    string          `json:"author_id,omitempty"`
	Mode        string          `json:"mode"`
	RequestMode string          `json:"request_mode"`
	Status      string          `json:"status"`
	Output      json.RawMessage `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// ExecutionListResponse 执行记录列表响应
type ExecutionListResponse struct {
	Executions []*ExecutionResponse `json:"executions"`
	Total      int                  `json:"total"`
}

// PipelineStatsResponse 流水线统计响应
type PipelineStatsResponse struct {
	Pending           int     `json:"pending"`
	Processing        int     `json:"processing"`
	Completed         int     `json:"completed"`
	Failed            int     `json:"failed"`
	AverageDurationMs float64 `json:"average_duration_ms"`
}

// ToExecutionResponse 将执行记录实体转换为响应 DTO
func ToExecutionResponse(r *entity.ExecutionRecord) *ExecutionResponse {
	if r == nil {
		return nil
	}
	return &ExecutionResponse{
		WorkflowID:  r.WorkflowID,
		AuthorID:    r.AuthorID,
		Mode:        string(r.Mode),
		RequestMode: string(r.RequestMode),
		Status:      string(r.Status),
		Output:      r.Output,
		Error:       r.ErrorText,
		DurationMs:  r.Duration().Milliseconds(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
	}
}

// ToExecutionListResponse 将执行记录列表转换为响应 DTO
func ToExecutionListResponse(records []*entity.ExecutionRecord) *ExecutionListResponse {
	resp := &ExecutionListResponse{
		Executions: make([]*ExecutionResponse, 0, len(records)),
		Total:      len(records),
	}
	for _, r := range records {
		resp.Executions = append(resp.Executions, ToExecutionResponse(r))
	}
	return resp
}

// ToPipelineStatsResponse 将流水线统计转换为响应 DTO
func ToPipelineStatsResponse(stats *content.PipelineStats) *PipelineStatsResponse {
	if stats == nil {
		return nil
	}
	return &PipelineStatsResponse{
		Pending:           stats.Pending,
		Processing:        stats.Processing,
		Completed:         stats.Completed,
		Failed:            stats.Failed,
		AverageDurationMs: float64(stats.AverageDuration.Milliseconds()),
	}
}
