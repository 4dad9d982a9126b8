// Package chain 编排 AI 调用与结构纠偏
package chain

import (
	"context"

	"github.com/cloudwego/eino/schema"

	wfmodel "edu-content-ai-api/internal/workflow/model"
	"edu-content-ai-api/internal/workflow/node"
	"edu-content-ai-api/internal/workflow/prompt"
	"edu-content-ai-api/pkg/logger"
	"edu-content-ai-api/pkg/metrics"
)

// Invoker AI 调用抽象，由 infrastructure/llm 实现
type Invoker interface {
	Invoke(ctx context.Context, messages []*schema.Message, opts wfmodel.GenerateOptions) (*wfmodel.AIResult, error)
	HealthCheck(ctx context.Context) bool
}

// State 纠偏状态机状态
type State string

const (
	StateSent           State = "sent"
	StateValidated      State = "validated"
	StateCorrectionSent State = "correction_sent"
	StateFailed         State = "failed"
)

// ParseFunc 对单次模型输出做整体结构解析，失败时返回错误
type ParseFunc func(jsonText string) error

// Reconciler 有界结构纠偏器。
// 首次输出解析失败时，恰好发起一次纠偏调用；仍失败则判定为 Failed，
// 由调用方走兜底合成。重试预算固定，不可配置。
type Reconciler struct {
	invoker Invoker
	prompts *prompt.Registry
}

// NewReconciler 创建纠偏器
func NewReconciler(invoker Invoker, prompts *prompt.Registry) *Reconciler {
	return &Reconciler{
		invoker: invoker,
		prompts: prompts,
	}
}

// Reconcile 发起一次生成调用并保证结构化输出。
// 返回的 AIResult 合并了纠偏调用的用量，内容为最后一次模型输出提取出的 JSON。
// 返回 StateFailed 且 err 为 nil 表示两次输出都无法解析；
// err 非 nil 表示提供商调用本身失败。
func (r *Reconciler) Reconcile(ctx context.Context, messages []*schema.Message, opts wfmodel.GenerateOptions, schemaBlock string, parse ParseFunc) (*wfmodel.AIResult, State, error) {
	result, err := r.invoker.Invoke(ctx, messages, opts)
	if err != nil {
		return nil, StateFailed, err
	}

	jsonText := node.ExtractJSONObject(result.Content)
	if parseErr := parse(jsonText); parseErr == nil {
		result.Content = jsonText
		return result, StateValidated, nil
	} else {
		logger.Warn(ctx, "model output failed structural parse, sending correction",
			"model", result.Model,
			"parse_error", parseErr.Error(),
		)
	}

	// 恰好一次纠偏往返
	correctionMsgs, err := r.buildCorrection(ctx, result.Content, schemaBlock)
	if err != nil {
		return result, StateFailed, err
	}

	corrected, err := r.invoker.Invoke(ctx, correctionMsgs, opts)
	if err != nil {
		return result, StateCorrectionSent, err
	}
	// 用量合并计入同一次执行，不重复计费原始调用
	result.Merge(corrected)

	jsonText = node.ExtractJSONObject(corrected.Content)
	if parseErr := parse(jsonText); parseErr == nil {
		result.Content = jsonText
		metrics.SchemaCorrectionTotal.WithLabelValues("recovered").Inc()
		return result, StateValidated, nil
	} else {
		logger.Warn(ctx, "corrected output still fails structural parse",
			"model", result.Model,
			"parse_error", parseErr.Error(),
		)
	}

	metrics.SchemaCorrectionTotal.WithLabelValues("exhausted").Inc()
	return result, StateFailed, nil
}

// buildCorrection 渲染纠偏提示词
func (r *Reconciler) buildCorrection(ctx context.Context, originalOutput, schemaBlock string) ([]*schema.Message, error) {
	tpl, err := r.prompts.ChatTemplate(prompt.PromptSchemaCorrectionV1)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, map[string]any{
		"original_output": node.TruncateByRunes(originalOutput, 8000),
		"expected_schema": schemaBlock,
	})
}

// HealthCheck 透传提供商健康探测
func (r *Reconciler) HealthCheck(ctx context.Context) bool {
	return r.invoker.HealthCheck(ctx)
}
