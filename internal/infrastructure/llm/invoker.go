package llm

import (
	"context"
	"time"

	"edu-content-ai-api/internal/config"
	wfmodel "edu-content-ai-api/internal/workflow/model"
	"edu-content-ai-api/internal/workflow/node"
	apperrors "edu-content-ai-api/pkg/errors"
	"edu-content-ai-api/pkg/logger"
	"edu-content-ai-api/pkg/metrics"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Invoker AI 调用入口接口，便于测试替换
type Invoker interface {
	Invoke(ctx context.Context, messages []*schema.Message, opts wfmodel.GenerateOptions) (*wfmodel.AIResult, error)
	HealthCheck(ctx context.Context) bool
}

// EinoInvoker 基于 Eino ChatModel 的调用器，附带用量与成本核算
type EinoInvoker struct {
	factory  *EinoFactory
	pricing  *PriceTable
	provider string
}

// NewEinoInvoker 创建调用器
func NewEinoInvoker(cfg *config.Config, factory *EinoFactory) *EinoInvoker {
	return &EinoInvoker{
		factory:  factory,
		pricing:  NewPriceTable(cfg.LLM.Pricing),
		provider: cfg.LLM.DefaultProvider,
	}
}

// Invoke 执行一次对话调用并返回内容与用量。
// 用量优先取提供商返回值，缺失时按字符数估算并标记 Estimated。
func (iv *EinoInvoker) Invoke(ctx context.Context, messages []*schema.Message, opts wfmodel.GenerateOptions) (*wfmodel.AIResult, error) {
	chatModel, err := iv.factory.Default(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeProviderUnavailable, "failed to initialize AI client")
	}

	modelName := opts.Model
	if modelName == "" {
		modelName = iv.factory.DefaultModelName()
	}

	callOpts := make([]einomodel.Option, 0, 3)
	if opts.Model != "" {
		callOpts = append(callOpts, einomodel.WithModel(opts.Model))
	}
	if opts.MaxTokens != nil && *opts.MaxTokens > 0 {
		callOpts = append(callOpts, einomodel.WithMaxTokens(*opts.MaxTokens))
	}
	if opts.Temperature != nil {
		callOpts = append(callOpts, einomodel.WithTemperature(*opts.Temperature))
	}

	start := time.Now()
	outMsg, err := chatModel.Generate(ctx, messages, callOpts...)
	latency := time.Since(start)

	metrics.LLMCallDuration.WithLabelValues(iv.provider, modelName).Observe(latency.Seconds())

	if err != nil {
		failure := node.ClassifyProviderError(err)
		metrics.LLMCallTotal.WithLabelValues(iv.provider, modelName, string(failure)).Inc()
		logger.Error(ctx, "AI provider call failed", err,
			"provider", iv.provider,
			"model", modelName,
			"failure", string(failure),
			"latency_ms", latency.Milliseconds(),
		)
		return nil, apperrors.Wrap(err, apperrors.CodeProviderUnavailable, "AI provider unavailable")
	}

	result := &wfmodel.AIResult{
		Content:  outMsg.Content,
		Provider: iv.provider,
		Model:    modelName,
		Latency:  latency,
		CalledAt: start,
	}

	if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		result.PromptTokens = outMsg.ResponseMeta.Usage.PromptTokens
		result.CompletionTokens = outMsg.ResponseMeta.Usage.CompletionTokens
	} else {
		result.PromptTokens = estimateMessagesTokens(messages)
		result.CompletionTokens = node.EstimateTokens(outMsg.Content)
		result.Estimated = true
	}
	result.CostUSD = iv.pricing.Cost(modelName, result.PromptTokens, result.CompletionTokens)

	metrics.LLMCallTotal.WithLabelValues(iv.provider, modelName, "success").Inc()
	metrics.LLMTokensUsed.WithLabelValues(iv.provider, modelName, "prompt").Add(float64(result.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(iv.provider, modelName, "completion").Add(float64(result.CompletionTokens))
	metrics.LLMCostUSD.WithLabelValues(iv.provider, modelName).Add(result.CostUSD)

	logger.Debug(ctx, "AI provider call completed",
		"provider", iv.provider,
		"model", modelName,
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens,
		"estimated", result.Estimated,
		"cost_usd", result.CostUSD,
		"latency_ms", latency.Milliseconds(),
	)
	return result, nil
}

// HealthCheck 对默认提供商做一次最小往返探测，从不抛错
func (iv *EinoInvoker) HealthCheck(ctx context.Context) bool {
	chatModel, err := iv.factory.Default(ctx)
	if err != nil {
		return false
	}
	_, err = chatModel.Generate(ctx,
		[]*schema.Message{schema.UserMessage("ping")},
		einomodel.WithMaxTokens(1),
	)
	return err == nil
}

func estimateMessagesTokens(messages []*schema.Message) int {
	total := 0
	for _, m := range messages {
		if m == nil {
			continue
		}
		total += node.EstimateTokens(m.Content)
	}
	return total
}
