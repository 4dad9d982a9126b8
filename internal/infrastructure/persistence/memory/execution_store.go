// Package memory 提供进程内存储实现，用于单机部署与测试
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"edu-content-ai-api/internal/domain/entity"
	apperrors "edu-content-ai-api/pkg/errors"
)

// ExecutionStore 进程内执行记录存储。
// 每 workflow id 一把锁串行化该 id 的读改写，全局锁只保护 map 结构；
// 记录写入采用整体替换，已发布的记录指针不再原地修改。
type ExecutionStore struct {
	mu      sync.RWMutex
	records map[string]*entity.ExecutionRecord
	locks   map[string]*sync.Mutex
}

// NewExecutionStore 创建执行记录存储
func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		records: make(map[string]*entity.ExecutionRecord),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (s *ExecutionStore) keyLock(workflowID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[workflowID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[workflowID] = l
	}
	return l
}

// Create 创建执行记录；同 id 存在非终态记录时返回冲突
func (s *ExecutionStore) Create(ctx context.Context, record *entity.ExecutionRecord) error {
	l := s.keyLock(record.WorkflowID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	existing, ok := s.records[record.WorkflowID]
	s.mu.RUnlock()
	if ok && !existing.Status.IsTerminal() {
		return apperrors.ErrExecutionActive
	}

	cp := *record
	s.mu.Lock()
	s.records[record.WorkflowID] = &cp
	s.mu.Unlock()
	return nil
}

// Transition 原子状态迁移；违规转移返回冲突，终态记录被冻结
func (s *ExecutionStore) Transition(ctx context.Context, workflowID string, status entity.ExecutionStatus, output json.RawMessage, errText string) (*entity.ExecutionRecord, error) {
	l := s.keyLock(workflowID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	record, ok := s.records[workflowID]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrExecutionNotFound
	}
	if !record.CanTransitionTo(status) {
		return nil, apperrors.New(apperrors.CodeConflict, "illegal execution status transition").
			WithDetail(string(record.Status) + " -> " + string(status))
	}

	next := *record
	switch status {
	case entity.ExecutionStatusCompleted:
		next.Complete(output)
	case entity.ExecutionStatusError:
		next.Fail(errText)
	default:
		next.Status = status
		next.UpdatedAt = time.Now()
	}

	s.mu.Lock()
	s.records[workflowID] = &next
	s.mu.Unlock()

	cp := next
	return &cp, nil
}

// Get 按 workflow id 查询；不存在时返回 (nil, nil)
func (s *ExecutionStore) Get(ctx context.Context, workflowID string) (*entity.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[workflowID]
	if !ok {
		return nil, nil
	}
	cp := *record
	return &cp, nil
}

// ListByStatus 按状态列出记录，创建时间升序
func (s *ExecutionStore) ListByStatus(ctx context.Context, status entity.ExecutionStatus) ([]*entity.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.ExecutionRecord, 0)
	for _, record := range s.records {
		if record.Status == status {
			cp := *record
			out = append(out, &cp)
		}
	}
	sortRecords(out)
	return out, nil
}

// ListByAuthor 按作者列出记录，创建时间升序
func (s *ExecutionStore) ListByAuthor(ctx context.Context, authorID string) ([]*entity.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.ExecutionRecord, 0)
	for _, record := range s.records {
		if record.AuthorID == authorID {
			cp := *record
			out = append(out, &cp)
		}
	}
	sortRecords(out)
	return out, nil
}

// AverageDuration 计算已完成记录的平均耗时，无样本时返回 0
func (s *ExecutionStore) AverageDuration(ctx context.Context) (time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total time.Duration
	var n int64
	for _, record := range s.records {
		if record.Status == entity.ExecutionStatusCompleted && record.CompletedAt != nil {
			total += record.Duration()
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / time.Duration(n), nil
}

// EvictOlderThan 删除超过保留期的终态记录，进行中的记录永不清理
func (s *ExecutionStore) EvictOlderThan(ctx context.Context, days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, record := range s.records {
		if record.Status.IsTerminal() && record.UpdatedAt.Before(cutoff) {
			delete(s.records, id)
			delete(s.locks, id)
			removed++
		}
	}
	return removed, nil
}

func sortRecords(records []*entity.ExecutionRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].WorkflowID < records[j].WorkflowID
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}
