// Package model 定义工作流输入输出模型
package model

import (
	"fmt"
	"strings"

	"edu-content-ai-api/internal/domain/entity"
)

// QuizQuestion 测验题目
type QuizQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// ImprovedSection 改写后的文本片段
type ImprovedSection struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// LegacyPayload 自由文本模式的结构化输出
type LegacyPayload struct {
	Summary      string                   `json:"summary"`
	Quiz         []QuizQuestion           `json:"quiz"`
	ImprovedText []ImprovedSection        `json:"improved_text"`
	Suggestions  []string                 `json:"suggestions"`
	Quality      entity.QualityMetrics    `json:"quality"`
	Violations   []entity.PolicyViolation `json:"violations"`
	// Degraded 标记结果来自本地兜底合成而非真实 AI 内容
	Degraded bool `json:"degraded"`
}

// Validate 结构校验，要么整体通过要么整体失败
func (p *LegacyPayload) Validate() error {
	if p == nil {
		return fmt.Errorf("payload is nil")
	}
	if strings.TrimSpace(p.Summary) == "" {
		return fmt.Errorf("summary is required")
	}
	for i, q := range p.Quiz {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("quiz[%d]: question is required", i)
		}
	}
	for i, s := range p.ImprovedText {
		if strings.TrimSpace(s.Content) == "" {
			return fmt.Errorf("improved_text[%d]: content is required", i)
		}
	}
	if p.Quality.Readability < 0 || p.Quality.Readability > 100 {
		return fmt.Errorf("quality.readability out of range: %v", p.Quality.Readability)
	}
	if p.Quality.Coverage < 0 || p.Quality.Coverage > 100 {
		return fmt.Errorf("quality.coverage out of range: %v", p.Quality.Coverage)
	}
	return nil
}

// PlainText 拼接全部生成文本，用于策略扫描
func (p *LegacyPayload) PlainText() string {
	var b strings.Builder
	b.WriteString(p.Summary)
	for _, q := range p.Quiz {
		b.WriteString("\n")
		b.WriteString(q.Question)
		for _, o := range q.Options {
			b.WriteString("\n")
			b.WriteString(o)
		}
	}
	for _, s := range p.ImprovedText {
		b.WriteString("\n")
		b.WriteString(s.Title)
		b.WriteString("\n")
		b.WriteString(s.Content)
	}
	for _, s := range p.Suggestions {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}

// ComponentArtifact 结构化教学组件的生成产物
type ComponentArtifact struct {
	ComponentID string `json:"component_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
}

// IntelligentPayload 结构化组件模式的输出
type IntelligentPayload struct {
	Summary     string                   `json:"summary"`
	Components  []ComponentArtifact      `json:"components"`
	Suggestions []string                 `json:"suggestions"`
	Quality     entity.QualityMetrics    `json:"quality"`
	Violations  []entity.PolicyViolation `json:"violations"`
	Degraded    bool                     `json:"degraded"`
}

// Validate 结构校验
func (p *IntelligentPayload) Validate() error {
	if p == nil {
		return fmt.Errorf("payload is nil")
	}
	if strings.TrimSpace(p.Summary) == "" {
		return fmt.Errorf("summary is required")
	}
	if len(p.Components) == 0 {
		return fmt.Errorf("components are required")
	}
	for i, c := range p.Components {
		if strings.TrimSpace(c.Content) == "" {
			return fmt.Errorf("components[%d]: content is required", i)
		}
	}
	return nil
}

// PlainText 拼接全部生成文本，用于策略扫描
func (p *IntelligentPayload) PlainText() string {
	var b strings.Builder
	b.WriteString(p.Summary)
	for _, c := range p.Components {
		b.WriteString("\n")
		b.WriteString(c.Title)
		b.WriteString("\n")
		b.WriteString(c.Content)
	}
	for _, s := range p.Suggestions {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}
