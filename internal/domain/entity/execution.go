// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// ExecutionMode 执行模式
type ExecutionMode string

const (
	ExecutionModeSync  ExecutionMode = "sync"
	ExecutionModeAsync ExecutionMode = "async"
)

// RequestMode 请求内容模式，在边界处一次性判定
type RequestMode string

const (
	RequestModeLegacy      RequestMode = "legacy"
	RequestModeIntelligent RequestMode = "intelligent"
	RequestModeBook        RequestMode = "book"
)

// ExecutionStatus 执行状态
type ExecutionStatus string

const (
	ExecutionStatusPending    ExecutionStatus = "pending"
	ExecutionStatusProcessing ExecutionStatus = "processing"
	ExecutionStatusCompleted  ExecutionStatus = "completed"
	ExecutionStatusError      ExecutionStatus = "error"
)

// IsTerminal 检查状态是否为终态
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusError
}

// IsValid 检查状态是否合法
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecutionStatusPending, ExecutionStatusProcessing, ExecutionStatusCompleted, ExecutionStatusError:
		return true
	default:
		return false
	}
}

// ExecutionRecord 执行记录实体
// 状态转移单调：终态记录不允许回到 pending/processing
type ExecutionRecord struct {
	WorkflowID  string          `json:"workflow_id" gorm:"type:varchar(128);primaryKey"`
	AuthorID    string          `json:"author_id" gorm:"type:varchar(128);index"`
	Mode        ExecutionMode   `json:"mode" gorm:"type:varchar(16)"`
	RequestMode RequestMode     `json:"request_mode" gorm:"type:varchar(16)"`
	Status      ExecutionStatus `json:"status" gorm:"type:varchar(16);index"`
	Input       json.RawMessage `json:"input,omitempty" gorm:"type:jsonb"`
	Output      json.RawMessage `json:"output,omitempty" gorm:"type:jsonb"`
	ErrorText   string          `json:"error,omitempty" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// TableName 指定表名
func (ExecutionRecord) TableName() string {
	return "execution_records"
}

// NewExecutionRecord 创建新执行记录
func NewExecutionRecord(workflowID, authorID string, mode ExecutionMode, reqMode RequestMode, input json.RawMessage) *ExecutionRecord {
	now := time.Now()
	status := ExecutionStatusProcessing
	if mode == ExecutionModeAsync {
		status = ExecutionStatusPending
	}
	return &ExecutionRecord{
		WorkflowID:  workflowID,
		AuthorID:    authorID,
		Mode:        mode,
		RequestMode: reqMode,
		Status:      status,
		Input:       input,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Complete 标记执行完成
func (r *ExecutionRecord) Complete(output json.RawMessage) {
	now := time.Now()
	r.Status = ExecutionStatusCompleted
	r.Output = output
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// Fail 标记执行失败，保留输入快照以便诊断
func (r *ExecutionRecord) Fail(errText string) {
	now := time.Now()
	r.Status = ExecutionStatusError
	r.ErrorText = errText
	r.CompletedAt = &now
	r.UpdatedAt = now
}

// Duration 计算完成耗时，未完成时返回 0
func (r *ExecutionRecord) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.CreatedAt)
}

// CanTransitionTo 检查状态转移是否合法
func (r *ExecutionRecord) CanTransitionTo(next ExecutionStatus) bool {
	if r.Status.IsTerminal() {
		return false
	}
	if r.Status == ExecutionStatusProcessing && next == ExecutionStatusPending {
		return false
	}
	return next.IsValid()
}
