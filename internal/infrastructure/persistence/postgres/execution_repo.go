package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"edu-content-ai-api/internal/domain/entity"
	apperrors "edu-content-ai-api/pkg/errors"
)

// ExecutionRepository 执行记录仓储实现。
// 并发控制依赖行级锁 (SELECT ... FOR UPDATE)，保证状态转移单调。
type ExecutionRepository struct {
	client *Client
}

// NewExecutionRepository 创建执行记录仓储
func NewExecutionRepository(client *Client) *ExecutionRepository {
	return &ExecutionRepository{client: client}
}

// Create 创建执行记录；同 id 存在非终态记录时返回冲突
func (r *ExecutionRepository) Create(ctx context.Context, record *entity.ExecutionRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.ExecutionRepository.Create")
	defer span.End()

	return r.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.ExecutionRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&existing, "workflow_id = ?", record.WorkflowID).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			// 首次执行
		case err != nil:
			span.RecordError(err)
			return fmt.Errorf("failed to check existing execution: %w", err)
		case !existing.Status.IsTerminal():
			return apperrors.ErrExecutionActive
		default:
			// 终态旧记录允许被新执行覆盖
			if err := tx.Delete(&entity.ExecutionRecord{}, "workflow_id = ?", record.WorkflowID).Error; err != nil {
				span.RecordError(err)
				return fmt.Errorf("failed to replace terminal execution: %w", err)
			}
		}
		if err := tx.Create(record).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create execution: %w", err)
		}
		return nil
	})
}

// Transition 原子状态迁移；违规转移返回冲突
func (r *ExecutionRepository) Transition(ctx context.Context, workflowID string, status entity.ExecutionStatus, output json.RawMessage, errText string) (*entity.ExecutionRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ExecutionRepository.Transition")
	defer span.End()

	var result *entity.ExecutionRecord
	err := r.client.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record entity.ExecutionRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "workflow_id = ?", workflowID).Error
		if err == gorm.ErrRecordNotFound {
			return apperrors.ErrExecutionNotFound
		}
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to load execution: %w", err)
		}
		if !record.CanTransitionTo(status) {
			return apperrors.New(apperrors.CodeConflict, "illegal execution status transition").
				WithDetail(string(record.Status) + " -> " + string(status))
		}

		switch status {
		case entity.ExecutionStatusCompleted:
			record.Complete(output)
		case entity.ExecutionStatusError:
			record.Fail(errText)
		default:
			record.Status = status
			record.UpdatedAt = time.Now()
		}

		if err := tx.Save(&record).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to save execution: %w", err)
		}
		result = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get 按 workflow id 查询；不存在时返回 (nil, nil)
func (r *ExecutionRepository) Get(ctx context.Context, workflowID string) (*entity.ExecutionRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ExecutionRepository.Get")
	defer span.End()

	var record entity.ExecutionRecord
	err := r.client.db.WithContext(ctx).First(&record, "workflow_id = ?", workflowID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return &record, nil
}

// ListByStatus 按状态列出记录，创建时间升序
func (r *ExecutionRepository) ListByStatus(ctx context.Context, status entity.ExecutionStatus) ([]*entity.ExecutionRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ExecutionRepository.ListByStatus")
	defer span.End()

	var records []*entity.ExecutionRecord
	if err := r.client.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list executions by status: %w", err)
	}
	return records, nil
}

// ListByAuthor 按作者列出记录，创建时间升序
func (r *ExecutionRepository) ListByAuthor(ctx context.Context, authorID string) ([]*entity.ExecutionRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ExecutionRepository.ListByAuthor")
	defer span.End()

	var records []*entity.ExecutionRecord
	if err := r.client.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list executions by author: %w", err)
	}
	return records, nil
}

// AverageDuration 计算已完成记录的平均耗时，无样本时返回 0
func (r *ExecutionRepository) AverageDuration(ctx context.Context) (time.Duration, error) {
	ctx, span := tracer.Start(ctx, "postgres.ExecutionRepository.AverageDuration")
	defer span.End()

	var avgSeconds *float64
	err := r.client.db.WithContext(ctx).
		Model(&entity.ExecutionRecord{}).
		Where("status = ? AND completed_at IS NOT NULL", entity.ExecutionStatusCompleted).
		Select("AVG(EXTRACT(EPOCH FROM (completed_at - created_at)))").
		Scan(&avgSeconds).Error
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to compute average duration: %w", err)
	}
	if avgSeconds == nil {
		return 0, nil
	}
	return time.Duration(*avgSeconds * float64(time.Second)), nil
}

// EvictOlderThan 删除超过保留期的终态记录，返回删除数量
func (r *ExecutionRepository) EvictOlderThan(ctx context.Context, days int) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ExecutionRepository.EvictOlderThan")
	defer span.End()

	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	result := r.client.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]entity.ExecutionStatus{entity.ExecutionStatusCompleted, entity.ExecutionStatusError},
			cutoff).
		Delete(&entity.ExecutionRecord{})
	if result.Error != nil {
		span.RecordError(result.Error)
		return 0, fmt.Errorf("failed to evict executions: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}
