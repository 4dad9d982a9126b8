package node

import (
	"fmt"
	"strings"

	"edu-content-ai-api/internal/domain/entity"
)

// 各输出变体的目标结构模板，原样嵌入提示词
const (
	SchemaLegacy = `{
  "summary": "concise summary of the material",
  "quiz": [{"question": "...", "options": ["..."], "answer": "...", "explanation": "..."}],
  "improved_text": [{"title": "...", "content": "..."}],
  "suggestions": ["..."],
  "quality": {"readability": 0, "estimated_minutes": 0, "coverage": 0}
}`

	SchemaIntelligent = `{
  "summary": "concise summary of the material",
  "components": [{"component_id": "...", "title": "...", "content": "...", "type": "..."}],
  "suggestions": ["..."],
  "quality": {"readability": 0, "estimated_minutes": 0, "coverage": 0}
}`

	SchemaChapter = `{
  "title": "chapter title",
  "content": "full chapter body",
  "sections": [{"title": "...", "content": "...", "type": "...",
    "activities": [{"title": "...", "description": "...", "type": "..."}],
    "assessments": [{"question": "...", "options": ["..."], "answer": "...", "type": "..."}]}],
  "quality": {"readability": 0, "estimated_minutes": 0, "coverage": 0},
  "suggestions": ["..."]
}`

	SchemaContinuation = `{
  "content": "expanded chapter body (expand only)",
  "sections": [{"title": "...", "content": "...", "type": "..."}],
  "activities": [{"title": "...", "description": "...", "type": "..."}],
  "assessments": [{"question": "...", "options": ["..."], "answer": "...", "type": "..."}]
}`
)

// BuildPolicyBlock 将机构策略逐字列入提示词
func BuildPolicyBlock(policy *entity.ContentPolicy) string {
	if policy.IsEmpty() {
		return ""
	}
	lines := make([]string, 0, 4)
	if len(policy.RequiredTerms) > 0 {
		lines = append(lines, "Required terms (must appear in the output): "+strings.Join(policy.RequiredTerms, ", "))
	}
	if len(policy.ForbiddenTerms) > 0 {
		lines = append(lines, "Forbidden terms (must never appear in the output): "+strings.Join(policy.ForbiddenTerms, ", "))
	}
	if len(policy.StyleGuidelines) > 0 {
		lines = append(lines, "Style guidelines:")
		for _, g := range policy.StyleGuidelines {
			lines = append(lines, "- "+g)
		}
	}
	return strings.Join(lines, "\n")
}

// BuildContextBlock 描述教学上下文
func BuildContextBlock(title, discipline, courseID, language string) string {
	lines := []string{
		"Course title: " + strings.TrimSpace(title),
		"Discipline: " + strings.TrimSpace(discipline),
		"Course id: " + strings.TrimSpace(courseID),
		"Target language: " + strings.TrimSpace(language),
	}
	return strings.Join(lines, "\n")
}

// BuildLengthBlock 根据生成选项给出数值约束
func BuildLengthBlock(maxTokens *int, temperature *float32) string {
	lines := make([]string, 0, 2)
	if maxTokens != nil && *maxTokens > 0 {
		lines = append(lines, fmt.Sprintf("Keep the full response within roughly %d tokens.", *maxTokens))
	}
	if temperature != nil {
		lines = append(lines, fmt.Sprintf("Creativity level: %.1f on a 0-2 scale.", *temperature))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// BuildBibliographyBlock 列出随请求提交的参考书目材料
func BuildBibliographyBlock(items []string) string {
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "Bibliographic material:")
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		lines = append(lines, "- "+it)
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}
