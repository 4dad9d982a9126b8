// Package model 定义工作流输入输出模型
package model

import (
	"time"
)

// AIResult 单次 AI 调用的结果与用量元数据
type AIResult struct {
	Content          string        `json:"content"`
	Provider         string        `json:"provider,omitempty"`
	Model            string        `json:"model"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Latency          time.Duration `json:"latency"`
	// CostUSD 由费率表推导，调用方不得自行传入
	CostUSD   float64   `json:"cost_usd"`
	Estimated bool      `json:"estimated,omitempty"`
	CalledAt  time.Time `json:"called_at"`
}

// TotalTokens 返回输入输出 Token 总量
func (r *AIResult) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// Merge 叠加另一次调用的用量（纠偏重试时合并计费）
func (r *AIResult) Merge(other *AIResult) {
	if other == nil {
		return
	}
	r.Content = other.Content
	r.PromptTokens += other.PromptTokens
	r.CompletionTokens += other.CompletionTokens
	r.Latency += other.Latency
	r.CostUSD += other.CostUSD
	r.Estimated = r.Estimated || other.Estimated
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	Model       string   `json:"model,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}
