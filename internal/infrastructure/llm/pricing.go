package llm

import (
	"edu-content-ai-api/internal/config"
)

// builtinRates 内置每千 Token 美元费率，可被配置覆盖
var builtinRates = map[string]config.ModelRate{
	"gpt-4o":        {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":   {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4-turbo":   {InputPer1K: 0.01, OutputPer1K: 0.03},
	"gpt-3.5-turbo": {InputPer1K: 0.0005, OutputPer1K: 0.0015},
}

// defaultRateModel 未配置 default_model 时的兜底计价条目（最便宜档）
const defaultRateModel = "gpt-4o-mini"

// PriceTable 静态模型计价表
type PriceTable struct {
	rates        map[string]config.ModelRate
	defaultModel string
}

// NewPriceTable 合并内置费率与配置覆盖创建计价表
func NewPriceTable(cfg config.PricingConfig) *PriceTable {
	rates := make(map[string]config.ModelRate, len(builtinRates)+len(cfg.Models))
	for m, r := range builtinRates {
		rates[m] = r
	}
	for m, r := range cfg.Models {
		rates[m] = r
	}

	def := cfg.DefaultModel
	if _, ok := rates[def]; !ok {
		def = defaultRateModel
	}
	return &PriceTable{
		rates:        rates,
		defaultModel: def,
	}
}

// Rate 查询模型费率，未知模型回退到默认条目
func (t *PriceTable) Rate(model string) config.ModelRate {
	if r, ok := t.rates[model]; ok {
		return r
	}
	return t.rates[t.defaultModel]
}

// Cost 计算一次调用的美元成本
// cost = tokensIn/1000*inputRate + tokensOut/1000*outputRate
func (t *PriceTable) Cost(model string, tokensIn, tokensOut int) float64 {
	if tokensIn < 0 {
		tokensIn = 0
	}
	if tokensOut < 0 {
		tokensOut = 0
	}
	r := t.Rate(model)
	return float64(tokensIn)/1000*r.InputPer1K + float64(tokensOut)/1000*r.OutputPer1K
}
