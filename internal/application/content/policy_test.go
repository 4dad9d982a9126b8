package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edu-content-ai-api/internal/domain/entity"
)

func TestEnforcePolicyEmptyPolicyProducesEmptySlice(t *testing.T) {
	violations := EnforcePolicy("any generated text", nil)
	assert.NotNil(t, violations)
	assert.Empty(t, violations)

	violations = EnforcePolicy("any generated text", &entity.ContentPolicy{})
	assert.NotNil(t, violations)
	assert.Empty(t, violations)
}

func TestEnforcePolicyMissingRequiredTerm(t *testing.T) {
	policy := &entity.ContentPolicy{
		RequiredTerms: []string{"fotossíntese", "clorofila"},
	}
	violations := EnforcePolicy("A fotossíntese converte luz em energia.", policy)

	assert.Len(t, violations, 1)
	assert.Equal(t, entity.RuleMissingRequiredTerm, violations[0].Rule)
	assert.Equal(t, entity.SeverityMedium, violations[0].Severity)
	assert.Contains(t, violations[0].Message, "clorofila")
}

func TestEnforcePolicyForbiddenTermCountedOncePerTerm(t *testing.T) {
	policy := &entity.ContentPolicy{
		ForbiddenTerms: []string{"pirataria"},
	}
	text := "pirataria no início, pirataria no meio e PIRATARIA no fim"
	violations := EnforcePolicy(text, policy)

	assert.Len(t, violations, 1)
	assert.Equal(t, entity.RuleForbiddenTerm, violations[0].Rule)
	assert.Equal(t, entity.SeverityHigh, violations[0].Severity)
}

func TestEnforcePolicyCaseInsensitiveMatching(t *testing.T) {
	policy := &entity.ContentPolicy{
		RequiredTerms:  []string{"Newton"},
		ForbiddenTerms: []string{"PLÁGIO"},
	}
	violations := EnforcePolicy("as leis de NEWTON proíbem plágio", policy)

	// Newton 命中（大小写无关），plágio 同样命中禁用列表
	assert.Len(t, violations, 1)
	assert.Equal(t, entity.RuleForbiddenTerm, violations[0].Rule)
}

func TestEnforcePolicyCombinesRequiredAndForbidden(t *testing.T) {
	policy := &entity.ContentPolicy{
		RequiredTerms:  []string{"equação"},
		ForbiddenTerms: []string{"resposta pronta"},
	}
	violations := EnforcePolicy("copie esta resposta pronta", policy)

	assert.Len(t, violations, 2)
	rules := []entity.ViolationRule{violations[0].Rule, violations[1].Rule}
	assert.Contains(t, rules, entity.RuleMissingRequiredTerm)
	assert.Contains(t, rules, entity.RuleForbiddenTerm)
}

func TestCheckRequiredTermsSkipsBlankEntries(t *testing.T) {
	violations := CheckRequiredTerms("texto", []string{"", "  ", "termo"})
	assert.Len(t, violations, 1)
	assert.Contains(t, violations[0].Message, "termo")
}

func TestCheckForbiddenTermsSkipsBlankEntries(t *testing.T) {
	violations := CheckForbiddenTerms("texto com termo", []string{"", "termo"})
	assert.Len(t, violations, 1)
}
