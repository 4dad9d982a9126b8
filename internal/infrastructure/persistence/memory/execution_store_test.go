package memory

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-content-ai-api/internal/domain/entity"
	apperrors "edu-content-ai-api/pkg/errors"
)

func syncRecord(workflowID string) *entity.ExecutionRecord {
	return entity.NewExecutionRecord(workflowID, "author-1", entity.ExecutionModeSync, entity.RequestModeLegacy, nil)
}

func TestExecutionCreateRejectsActiveDuplicate(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, syncRecord("wf-1")))

	err := s.Create(ctx, syncRecord("wf-1"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExecutionActive, apperrors.AsAppError(err).Code)
}

func TestExecutionCreateReplacesTerminalRecord(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, syncRecord("wf-1")))
	_, err := s.Transition(ctx, "wf-1", entity.ExecutionStatusCompleted, json.RawMessage(`{"ok":true}`), "")
	require.NoError(t, err)

	// 终态记录允许同 id 重新创建
	require.NoError(t, s.Create(ctx, syncRecord("wf-1")))

	record, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusProcessing, record.Status)
	assert.Nil(t, record.Output)
}

func TestExecutionTransitionCompletesRecord(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, syncRecord("wf-1")))

	record, err := s.Transition(ctx, "wf-1", entity.ExecutionStatusCompleted, json.RawMessage(`{"summary":"ok"}`), "")
	require.NoError(t, err)

	assert.Equal(t, entity.ExecutionStatusCompleted, record.Status)
	assert.JSONEq(t, `{"summary":"ok"}`, string(record.Output))
	require.NotNil(t, record.CompletedAt)
}

func TestExecutionTransitionRejectsIllegalMoves(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()

	// processing 不允许回到 pending
	require.NoError(t, s.Create(ctx, syncRecord("wf-1")))
	_, err := s.Transition(ctx, "wf-1", entity.ExecutionStatusPending, nil, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)

	// 未知 workflow id
	_, err = s.Transition(ctx, "wf-missing", entity.ExecutionStatusCompleted, nil, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExecutionNotFound, apperrors.AsAppError(err).Code)
}

func TestExecutionTerminalRecordIsFrozen(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, syncRecord("wf-1")))

	_, err := s.Transition(ctx, "wf-1", entity.ExecutionStatusError, nil, "provider down")
	require.NoError(t, err)

	for _, next := range []entity.ExecutionStatus{
		entity.ExecutionStatusPending,
		entity.ExecutionStatusProcessing,
		entity.ExecutionStatusCompleted,
		entity.ExecutionStatusError,
	} {
		_, err := s.Transition(ctx, "wf-1", next, nil, "")
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeConflict, apperrors.AsAppError(err).Code)
	}

	record, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusError, record.Status)
	assert.Equal(t, "provider down", record.ErrorText)
}

func TestExecutionConcurrentTransitionsLoseNoUpdates(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, syncRecord("wf-1")))

	const attempts = 16
	var wg sync.WaitGroup
	var completed int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Transition(ctx, "wf-1", entity.ExecutionStatusCompleted, json.RawMessage(`{"ok":true}`), ""); err == nil {
				atomic.AddInt32(&completed, 1)
			}
		}()
	}
	wg.Wait()

	// 终态只能进入一次，其余并发转移全部判冲突
	assert.Equal(t, int32(1), completed)

	record, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusCompleted, record.Status)
	require.NotNil(t, record.CompletedAt)
	assert.JSONEq(t, `{"ok":true}`, string(record.Output))
}

func TestExecutionListOrderedByCreationTime(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()

	older := syncRecord("wf-b")
	older.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Create(ctx, older))

	newer := syncRecord("wf-a")
	require.NoError(t, s.Create(ctx, newer))

	sameTime := syncRecord("wf-c")
	sameTime.CreatedAt = older.CreatedAt
	require.NoError(t, s.Create(ctx, sameTime))

	records, err := s.ListByStatus(ctx, entity.ExecutionStatusProcessing)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// 同创建时间按 workflow id 决出稳定顺序
	assert.Equal(t, "wf-b", records[0].WorkflowID)
	assert.Equal(t, "wf-c", records[1].WorkflowID)
	assert.Equal(t, "wf-a", records[2].WorkflowID)
}

func TestExecutionListByAuthor(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()

	mine := syncRecord("wf-1")
	require.NoError(t, s.Create(ctx, mine))

	other := entity.NewExecutionRecord("wf-2", "author-2", entity.ExecutionModeSync, entity.RequestModeLegacy, nil)
	require.NoError(t, s.Create(ctx, other))

	records, err := s.ListByAuthor(ctx, "author-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "wf-1", records[0].WorkflowID)
}

func TestExecutionAverageDurationCountsCompletedOnly(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()

	avg, err := s.AverageDuration(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), avg)

	done := syncRecord("wf-1")
	done.CreatedAt = time.Now().Add(-2 * time.Second)
	require.NoError(t, s.Create(ctx, done))
	_, err = s.Transition(ctx, "wf-1", entity.ExecutionStatusCompleted, nil, "")
	require.NoError(t, err)

	failed := syncRecord("wf-2")
	failed.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Create(ctx, failed))
	_, err = s.Transition(ctx, "wf-2", entity.ExecutionStatusError, nil, "boom")
	require.NoError(t, err)

	avg, err = s.AverageDuration(ctx)
	require.NoError(t, err)
	// 失败记录不参与均值，均值落在完成记录的耗时附近
	assert.InDelta(t, (2 * time.Second).Seconds(), avg.Seconds(), 1.0)
}

func TestExecutionEvictOlderThanSparesActiveRecords(t *testing.T) {
	s := NewExecutionStore()
	ctx := context.Background()

	stale := syncRecord("wf-old")
	require.NoError(t, s.Create(ctx, stale))
	_, err := s.Transition(ctx, "wf-old", entity.ExecutionStatusCompleted, nil, "")
	require.NoError(t, err)
	// 直接把记录的更新时间拨回保留期之前
	s.records["wf-old"].UpdatedAt = time.Now().AddDate(0, 0, -40)

	active := syncRecord("wf-active")
	active.CreatedAt = time.Now().AddDate(0, 0, -40)
	require.NoError(t, s.Create(ctx, active))
	s.records["wf-active"].UpdatedAt = time.Now().AddDate(0, 0, -40)

	removed, err := s.EvictOlderThan(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	gone, err := s.Get(ctx, "wf-old")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := s.Get(ctx, "wf-active")
	require.NoError(t, err)
	require.NotNil(t, kept)

	removed, err = s.EvictOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
