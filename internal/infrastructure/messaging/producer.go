// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// MsgTypePipelineJob 异步内容处理任务
const MsgTypePipelineJob = "pipeline_job"

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishPipelineJob 发布异步内容处理任务
func (p *Producer) PublishPipelineJob(ctx context.Context, job *PipelineJobMessage) (string, error) {
	msg, err := NewMessage(job.WorkflowID, MsgTypePipelineJob, job.AuthorID, job.WorkflowID, job)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("request_mode", job.RequestMode)
	if job.CallbackURL != "" {
		msg.SetMetadata("has_callback", "true")
	}

	return p.Publish(ctx, StreamPipelineJobs, msg)
}

// PipelineJobMessage 异步内容处理任务消息。
// Request 保留边界校验后的原始请求体，由工作进程重新解析执行。
type PipelineJobMessage struct {
	WorkflowID  string          `json:"workflow_id"`
	AuthorID    string          `json:"author_id,omitempty"`
	RequestMode string          `json:"request_mode"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Request     json.RawMessage `json:"request"`
}
