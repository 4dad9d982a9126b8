package content

import (
	"fmt"
	"strings"

	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/pkg/metrics"
)

// CheckRequiredTerms 检查必需词项，每个缺失词项恰好产生一条 medium 违规
func CheckRequiredTerms(text string, terms []string) []entity.PolicyViolation {
	violations := make([]entity.PolicyViolation, 0)
	lower := strings.ToLower(text)
	for _, term := range terms {
		t := strings.TrimSpace(term)
		if t == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(t)) {
			violations = append(violations, entity.PolicyViolation{
				Rule:     entity.RuleMissingRequiredTerm,
				Message:  fmt.Sprintf("required term %q is missing from the generated content", t),
				Severity: entity.SeverityMedium,
			})
		}
	}
	return violations
}

// CheckForbiddenTerms 检查禁用词项，每个命中词项恰好产生一条 high 违规，
// 与出现次数无关
func CheckForbiddenTerms(text string, terms []string) []entity.PolicyViolation {
	violations := make([]entity.PolicyViolation, 0)
	lower := strings.ToLower(text)
	for _, term := range terms {
		t := strings.TrimSpace(term)
		if t == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(t)) {
			violations = append(violations, entity.PolicyViolation{
				Rule:     entity.RuleForbiddenTerm,
				Message:  fmt.Sprintf("forbidden term %q appears in the generated content", t),
				Severity: entity.SeverityHigh,
			})
		}
	}
	return violations
}

// EnforcePolicy 对生成文本执行机构策略扫描。
// 违规是数据而非错误：扫描永远成功，空策略产生空列表。
func EnforcePolicy(text string, policy *entity.ContentPolicy) []entity.PolicyViolation {
	if policy == nil || policy.IsEmpty() {
		return []entity.PolicyViolation{}
	}

	violations := CheckRequiredTerms(text, policy.RequiredTerms)
	violations = append(violations, CheckForbiddenTerms(text, policy.ForbiddenTerms)...)

	for _, v := range violations {
		metrics.PolicyViolationsTotal.WithLabelValues(string(v.Rule), string(v.Severity)).Inc()
	}
	return violations
}
