// Package callback 提供异步执行结果的回调投递
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/pkg/logger"
)

var tracer = otel.Tracer("callback")

// Notification 回调通知体
type Notification struct {
	WorkflowID string          `json:"workflow_id"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Error      string          `json:"error,omitempty"`
	NotifiedAt time.Time       `json:"notified_at"`
}

// Dispatcher 回调投递器。
// 投递尽力而为：失败只记日志，不影响执行记录的终态。
type Dispatcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewDispatcher 创建回调投递器
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Notify 向回调地址投递执行结果
func (d *Dispatcher) Notify(ctx context.Context, callbackURL string, record *entity.ExecutionRecord) {
	if callbackURL == "" || record == nil {
		return
	}

	ctx, span := tracer.Start(ctx, "callback.Notify",
		trace.WithAttributes(
			attribute.String("workflow_id", record.WorkflowID),
			attribute.String("status", string(record.Status)),
		))
	defer span.End()

	note := Notification{
		WorkflowID: record.WorkflowID,
		Status:     string(record.Status),
		Payload:    record.Output,
		Error:      record.ErrorText,
		NotifiedAt: time.Now(),
	}

	body, err := json.Marshal(note)
	if err != nil {
		span.RecordError(err)
		logger.Error(ctx, "failed to marshal callback notification", err, "workflow_id", record.WorkflowID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		logger.Error(ctx, "failed to build callback request", err, "workflow_id", record.WorkflowID)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		span.RecordError(err)
		logger.Warn(ctx, "callback delivery failed",
			"workflow_id", record.WorkflowID,
			"error", err.Error(),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("callback returned status %d", resp.StatusCode)
		span.RecordError(err)
		logger.Warn(ctx, "callback rejected by receiver",
			"workflow_id", record.WorkflowID,
			"status_code", resp.StatusCode,
		)
		return
	}

	logger.Info(ctx, "callback delivered",
		"workflow_id", record.WorkflowID,
		"status", string(record.Status),
	)
}
