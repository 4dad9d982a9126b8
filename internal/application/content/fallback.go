package content

import (
	"fmt"

	"edu-content-ai-api/internal/domain/entity"
	wfmodel "edu-content-ai-api/internal/workflow/model"
	"edu-content-ai-api/internal/workflow/node"
)

// fallbackExcerptRunes 兜底载荷中原文片段的长度上限
const fallbackExcerptRunes = 500

// defaultFallbackQuality 兜底载荷的默认质量指标
func defaultFallbackQuality() entity.QualityMetrics {
	return entity.QualityMetrics{
		Readability:      50,
		EstimatedMinutes: 5,
		Coverage:         0,
	}
}

// BuildLegacyFallback 构造自由文本模式的确定性兜底载荷。
// 永远可解析：模板化摘要、默认质量指标、≤500 字符的原文片段。
func BuildLegacyFallback(req *ProcessRequest) *wfmodel.LegacyPayload {
	return &wfmodel.LegacyPayload{
		Summary:      fmt.Sprintf("Automatically generated placeholder for %q. The AI output could not be structured; the original material is preserved below.", req.Metadata.Title),
		Quiz:         []wfmodel.QuizQuestion{},
		ImprovedText: []wfmodel.ImprovedSection{
			{
				Title:   req.Metadata.Title,
				Content: node.TruncateByRunes(req.Text, fallbackExcerptRunes),
			},
		},
		Suggestions: []string{},
		Quality:     defaultFallbackQuality(),
		Violations:  []entity.PolicyViolation{},
		Degraded:    true,
	}
}

// BuildIntelligentFallback 构造结构化组件模式的确定性兜底载荷。
// 每个请求的组件得到一个占位产物，保证输出形状完整。
func BuildIntelligentFallback(req *ProcessRequest) *wfmodel.IntelligentPayload {
	components := make([]wfmodel.ComponentArtifact, 0, len(req.Components))
	for _, c := range req.Components {
		title := c.Title
		if title == "" {
			title = c.Type
		}
		components = append(components, wfmodel.ComponentArtifact{
			ComponentID: c.ID,
			Title:       title,
			Content:     fmt.Sprintf("Placeholder content for component %q of %q.", title, req.Metadata.Title),
			Type:        c.Type,
		})
	}
	return &wfmodel.IntelligentPayload{
		Summary:     fmt.Sprintf("Automatically generated placeholder for %q. The AI output could not be structured.", req.Metadata.Title),
		Components:  components,
		Suggestions: []string{},
		Quality:     defaultFallbackQuality(),
		Violations:  []entity.PolicyViolation{},
		Degraded:    true,
	}
}
