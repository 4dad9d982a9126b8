// Package repository 定义存储接口
package repository

import (
	"context"
	"encoding/json"
	"time"

	"edu-content-ai-api/internal/domain/entity"
)

// ExecutionRepository 执行记录存储接口
// 实现必须按 workflow id 串行化并发变更，并保证：
//   - 同一 workflow id 至多一条非终态记录（Create 冲突时返回 CodeExecutionActive）
//   - 状态转移单调，终态记录冻结（违规转移返回 CodeConflict）
type ExecutionRepository interface {
	// Create 创建执行记录；该 id 已存在非终态记录时失败
	Create(ctx context.Context, record *entity.ExecutionRecord) error

	// Transition 原子地将记录迁移到新状态；记录不存在时返回 CodeExecutionNotFound
	Transition(ctx context.Context, workflowID string, status entity.ExecutionStatus, output json.RawMessage, errText string) (*entity.ExecutionRecord, error)

	// Get 按 workflow id 查询；不存在时返回 (nil, nil)
	Get(ctx context.Context, workflowID string) (*entity.ExecutionRecord, error)

	// ListByStatus 按状态列出记录
	ListByStatus(ctx context.Context, status entity.ExecutionStatus) ([]*entity.ExecutionRecord, error)

	// ListByAuthor 按作者列出记录
	ListByAuthor(ctx context.Context, authorID string) ([]*entity.ExecutionRecord, error)

	// AverageDuration 计算已完成记录的平均耗时 (completedAt - createdAt)
	AverageDuration(ctx context.Context) (time.Duration, error)

	// EvictOlderThan 删除超过保留期的终态记录，返回删除数量
	EvictOlderThan(ctx context.Context, days int) (int, error)
}
