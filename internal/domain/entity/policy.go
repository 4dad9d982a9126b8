// Package entity 定义领域实体
package entity

// ViolationRule 策略违规规则标签
type ViolationRule string

const (
	RuleMissingRequiredTerm ViolationRule = "missing_required_term"
	RuleForbiddenTerm       ViolationRule = "forbidden_term"
)

// ViolationSeverity 违规严重程度
type ViolationSeverity string

const (
	SeverityLow    ViolationSeverity = "low"
	SeverityMedium ViolationSeverity = "medium"
	SeverityHigh   ViolationSeverity = "high"
)

// PolicyViolation 策略违规记录，作为响应数据而非错误返回
type PolicyViolation struct {
	Rule     ViolationRule     `json:"rule"`
	Message  string            `json:"message"`
	Severity ViolationSeverity `json:"severity"`
}

// ContentPolicy 机构内容策略
type ContentPolicy struct {
	RequiredTerms   []string `json:"required_terms,omitempty"`
	ForbiddenTerms  []string `json:"forbidden_terms,omitempty"`
	StyleGuidelines []string `json:"style_guidelines,omitempty"`
}

// IsEmpty 检查策略是否为空
func (p *ContentPolicy) IsEmpty() bool {
	if p == nil {
		return true
	}
	return len(p.RequiredTerms) == 0 && len(p.ForbiddenTerms) == 0 && len(p.StyleGuidelines) == 0
}
