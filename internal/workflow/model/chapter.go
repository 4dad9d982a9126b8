// Package model 定义工作流输入输出模型
package model

import (
	"fmt"
	"strings"

	"edu-content-ai-api/internal/domain/entity"
)

// SectionPayload AI 返回的小节结构
type SectionPayload struct {
	Title       string              `json:"title"`
	Content     string              `json:"content"`
	Type        string              `json:"type,omitempty"`
	Activities  []ActivityPayload   `json:"activities,omitempty"`
	Assessments []AssessmentPayload `json:"assessments,omitempty"`
}

// ActivityPayload AI 返回的活动结构
type ActivityPayload struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// AssessmentPayload AI 返回的测评结构
type AssessmentPayload struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Type     string   `json:"type,omitempty"`
}

// ChapterPayload 章节生成的结构化输出
type ChapterPayload struct {
	Title       string                `json:"title"`
	Content     string                `json:"content"`
	Sections    []SectionPayload      `json:"sections"`
	Quality     entity.QualityMetrics `json:"quality"`
	Suggestions []string              `json:"suggestions,omitempty"`
}

// Validate 结构校验
func (p *ChapterPayload) Validate() error {
	if p == nil {
		return fmt.Errorf("payload is nil")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if len(p.Sections) == 0 {
		return fmt.Errorf("sections are required")
	}
	for i, s := range p.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("sections[%d]: title is required", i)
		}
	}
	return nil
}

// ContinuationPayload 章节续写的结构化输出
// 四种续写操作共用一个载荷，按操作类型检查对应字段
type ContinuationPayload struct {
	Content     string              `json:"content,omitempty"`
	Sections    []SectionPayload    `json:"sections,omitempty"`
	Activities  []ActivityPayload   `json:"activities,omitempty"`
	Assessments []AssessmentPayload `json:"assessments,omitempty"`
}

// ValidateFor 按续写类型做结构校验
func (p *ContinuationPayload) ValidateFor(t entity.ContinueType) error {
	if p == nil {
		return fmt.Errorf("payload is nil")
	}
	switch t {
	case entity.ContinueExpand:
		if strings.TrimSpace(p.Content) == "" {
			return fmt.Errorf("content is required for expand")
		}
	case entity.ContinueAddSection:
		if len(p.Sections) == 0 {
			return fmt.Errorf("sections are required for add_section")
		}
		for i, s := range p.Sections {
			if strings.TrimSpace(s.Title) == "" {
				return fmt.Errorf("sections[%d]: title is required", i)
			}
		}
	case entity.ContinueAddActivities:
		if len(p.Activities) == 0 {
			return fmt.Errorf("activities are required for add_activities")
		}
		for i, a := range p.Activities {
			if strings.TrimSpace(a.Title) == "" {
				return fmt.Errorf("activities[%d]: title is required", i)
			}
		}
	case entity.ContinueAddAssessments:
		if len(p.Assessments) == 0 {
			return fmt.Errorf("assessments are required for add_assessments")
		}
		for i, a := range p.Assessments {
			if strings.TrimSpace(a.Question) == "" {
				return fmt.Errorf("assessments[%d]: question is required", i)
			}
		}
	default:
		return fmt.Errorf("unknown continue type: %s", t)
	}
	return nil
}
