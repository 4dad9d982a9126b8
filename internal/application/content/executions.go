package content

import (
	"context"
	"time"

	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/internal/domain/repository"
	apperrors "edu-content-ai-api/pkg/errors"
	"edu-content-ai-api/pkg/logger"
)

// PipelineStats 流水线聚合统计
type PipelineStats struct {
	Pending         int           `json:"pending"`
	Processing      int           `json:"processing"`
	Completed       int           `json:"completed"`
	Failed          int           `json:"failed"`
	AverageDuration time.Duration `json:"average_duration_ns"`
}

// ExecutionService 执行记录查询与维护
type ExecutionService struct {
	executions repository.ExecutionRepository
}

// NewExecutionService 创建执行记录服务
func NewExecutionService(executions repository.ExecutionRepository) *ExecutionService {
	return &ExecutionService{executions: executions}
}

// Get 按 workflow id 查询执行记录
func (s *ExecutionService) Get(ctx context.Context, workflowID string) (*entity.ExecutionRecord, error) {
	record, err := s.executions.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.ErrExecutionNotFound
	}
	return record, nil
}

// ListByStatus 按状态列出执行记录
func (s *ExecutionService) ListByStatus(ctx context.Context, status entity.ExecutionStatus) ([]*entity.ExecutionRecord, error) {
	if !status.IsValid() {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "unknown execution status").
			WithDetail(string(status))
	}
	return s.executions.ListByStatus(ctx, status)
}

// ListByAuthor 按作者列出执行记录
func (s *ExecutionService) ListByAuthor(ctx context.Context, authorID string) ([]*entity.ExecutionRecord, error) {
	if authorID == "" {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "author_id is required")
	}
	return s.executions.ListByAuthor(ctx, authorID)
}

// Stats 汇总各状态数量与已完成记录的平均耗时
func (s *ExecutionService) Stats(ctx context.Context) (*PipelineStats, error) {
	stats := &PipelineStats{}

	counts := []struct {
		status entity.ExecutionStatus
		target *int
	}{
		{entity.ExecutionStatusPending, &stats.Pending},
		{entity.ExecutionStatusProcessing, &stats.Processing},
		{entity.ExecutionStatusCompleted, &stats.Completed},
		{entity.ExecutionStatusError, &stats.Failed},
	}
	for _, c := range counts {
		records, err := s.executions.ListByStatus(ctx, c.status)
		if err != nil {
			return nil, err
		}
		*c.target = len(records)
	}

	avg, err := s.executions.AverageDuration(ctx)
	if err != nil {
		return nil, err
	}
	stats.AverageDuration = avg
	return stats, nil
}

// Sweep 清理超过保留期的终态记录
func (s *ExecutionService) Sweep(ctx context.Context, retentionDays int) (int, error) {
	removed, err := s.executions.EvictOlderThan(ctx, retentionDays)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Info(ctx, "retention sweep removed executions", "count", removed, "retention_days", retentionDays)
	}
	return removed, nil
}
