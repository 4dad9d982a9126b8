package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edu-content-ai-api/internal/config"
)

func TestPriceTableKnownModelRate(t *testing.T) {
	table := NewPriceTable(config.PricingConfig{})

	// gpt-4o-mini: 0.00015 / 0.0006 每千 Token
	cost := table.Cost("gpt-4o-mini", 1000, 1000)
	assert.InDelta(t, 0.00075, cost, 1e-9)

	cost = table.Cost("gpt-4o", 2000, 500)
	assert.InDelta(t, 2*0.0025+0.5*0.01, cost, 1e-9)
}

func TestPriceTableUnknownModelFallsBackToDefault(t *testing.T) {
	table := NewPriceTable(config.PricingConfig{DefaultModel: "gpt-4o"})

	assert.Equal(t, table.Rate("gpt-4o"), table.Rate("modelo-desconhecido"))
}

func TestPriceTableUnknownDefaultFallsBackToCheapest(t *testing.T) {
	table := NewPriceTable(config.PricingConfig{DefaultModel: "no-such-model"})

	assert.Equal(t, table.Rate("gpt-4o-mini"), table.Rate("outro-desconhecido"))
}

func TestPriceTableConfigOverridesBuiltinRates(t *testing.T) {
	table := NewPriceTable(config.PricingConfig{
		Models: map[string]config.ModelRate{
			"gpt-4o-mini": {InputPer1K: 0.001, OutputPer1K: 0.002},
			"local-llama": {InputPer1K: 0, OutputPer1K: 0},
		},
	})

	cost := table.Cost("gpt-4o-mini", 1000, 1000)
	assert.InDelta(t, 0.003, cost, 1e-9)
	assert.Zero(t, table.Cost("local-llama", 5000, 5000))
}

func TestPriceTableClampsNegativeTokenCounts(t *testing.T) {
	table := NewPriceTable(config.PricingConfig{})

	assert.Zero(t, table.Cost("gpt-4o", -100, -100))
	cost := table.Cost("gpt-4o", -100, 1000)
	assert.InDelta(t, 0.01, cost, 1e-9)
}
