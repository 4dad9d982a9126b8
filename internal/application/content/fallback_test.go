package content

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLegacyFallbackIsAlwaysParsable(t *testing.T) {
	req := validRequest()
	payload := BuildLegacyFallback(req)

	require.NoError(t, payload.Validate())
	assert.True(t, payload.Degraded)
	assert.Contains(t, payload.Summary, req.Metadata.Title)
	assert.NotNil(t, payload.Quiz)
	assert.NotNil(t, payload.Suggestions)
	assert.NotNil(t, payload.Violations)
}

func TestBuildLegacyFallbackBoundsExcerpt(t *testing.T) {
	req := validRequest()
	req.Text = strings.Repeat("çã", 600)
	payload := BuildLegacyFallback(req)

	require.Len(t, payload.ImprovedText, 1)
	assert.LessOrEqual(t, utf8.RuneCountInString(payload.ImprovedText[0].Content), fallbackExcerptRunes)
}

func TestBuildIntelligentFallbackCoversEveryComponent(t *testing.T) {
	req := validRequest()
	req.Text = ""
	req.Components = []ComponentSpec{
		{ID: "c1", Type: "summary", Title: "Resumo"},
		{ID: "c2", Type: "quiz"},
	}
	payload := BuildIntelligentFallback(req)

	require.NoError(t, payload.Validate())
	assert.True(t, payload.Degraded)
	require.Len(t, payload.Components, 2)
	assert.Equal(t, "c1", payload.Components[0].ComponentID)
	assert.Equal(t, "Resumo", payload.Components[0].Title)
	// 无标题组件回退到类型名
	assert.Equal(t, "quiz", payload.Components[1].Title)
}
