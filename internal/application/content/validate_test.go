package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-content-ai-api/internal/domain/entity"
	apperrors "edu-content-ai-api/pkg/errors"
)

func validRequest() *ProcessRequest {
	return &ProcessRequest{
		WorkflowID: "wf-001",
		Mode:       entity.ExecutionModeSync,
		Text:       "Texto sobre equações do segundo grau.",
		Metadata: RequestMetadata{
			Title:      "Equações do Segundo Grau",
			Discipline: "mathematics",
			CourseID:   "course-math-9",
			Language:   "pt-BR",
		},
	}
}

func assertInvalidRequest(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeInvalidRequest, appErr.Code)
}

func TestValidateAcceptsWellFormedLegacyRequest(t *testing.T) {
	v := NewValidator(0)
	req := validRequest()

	require.NoError(t, v.Validate(req))
	assert.Equal(t, entity.RequestModeLegacy, req.RequestMode)
}

func TestValidateRejectsMissingWorkflowID(t *testing.T) {
	v := NewValidator(0)
	req := validRequest()
	req.WorkflowID = "  "

	assertInvalidRequest(t, v.Validate(req))
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	v := NewValidator(0)
	req := validRequest()
	req.Mode = "batch"

	assertInvalidRequest(t, v.Validate(req))
}

func TestValidateRejectsMissingMetadataFields(t *testing.T) {
	mutations := []func(*ProcessRequest){
		func(r *ProcessRequest) { r.Metadata.Title = "" },
		func(r *ProcessRequest) { r.Metadata.Discipline = "" },
		func(r *ProcessRequest) { r.Metadata.CourseID = "" },
		func(r *ProcessRequest) { r.Metadata.Language = "" },
	}
	for _, mutate := range mutations {
		v := NewValidator(0)
		req := validRequest()
		mutate(req)
		assertInvalidRequest(t, v.Validate(req))
	}
}

func TestValidateRejectsEmptyTextInLegacyMode(t *testing.T) {
	v := NewValidator(0)
	req := validRequest()
	req.Text = "   "

	assertInvalidRequest(t, v.Validate(req))
}

func TestValidateEnforcesInputLengthBound(t *testing.T) {
	v := NewValidator(100)
	req := validRequest()
	req.Text = strings.Repeat("á", 101)
	assertInvalidRequest(t, v.Validate(req))

	req = validRequest()
	req.Text = strings.Repeat("á", 100)
	assert.NoError(t, v.Validate(req))
}

func TestValidateIntelligentModeRequiresComponentIDAndType(t *testing.T) {
	v := NewValidator(0)

	req := validRequest()
	req.Text = ""
	req.Components = []ComponentSpec{{ID: "", Type: "quiz"}}
	assertInvalidRequest(t, v.Validate(req))

	req = validRequest()
	req.Text = ""
	req.Components = []ComponentSpec{{ID: "c1", Type: ""}}
	err := v.Validate(req)
	assertInvalidRequest(t, err)
	assert.Contains(t, apperrors.AsAppError(err).Detail, "components[0]")
}

func TestValidateBookModeRequirements(t *testing.T) {
	v := NewValidator(0)

	req := validRequest()
	req.Text = ""
	req.Book = &BookSpec{ChapterNumber: 0, Subject: "physics"}
	assertInvalidRequest(t, v.Validate(req))

	req = validRequest()
	req.Text = ""
	req.Book = &BookSpec{ChapterNumber: 1, Subject: " "}
	assertInvalidRequest(t, v.Validate(req))

	req = validRequest()
	req.Text = ""
	req.Book = &BookSpec{ChapterNumber: 1, Subject: "physics"}
	require.NoError(t, v.Validate(req))
	assert.Equal(t, entity.RequestModeBook, req.RequestMode)
}

func TestValidateRejectsAmbiguousModeCombination(t *testing.T) {
	v := NewValidator(0)
	req := validRequest()
	req.Book = &BookSpec{ChapterNumber: 1, Subject: "physics"}

	assertInvalidRequest(t, v.Validate(req))
}

func TestValidateAsyncRequiresCallbackURL(t *testing.T) {
	v := NewValidator(0)

	req := validRequest()
	req.Mode = entity.ExecutionModeAsync
	assertInvalidRequest(t, v.Validate(req))

	req = validRequest()
	req.Mode = entity.ExecutionModeAsync
	req.CallbackURL = "ftp://example.com/hook"
	assertInvalidRequest(t, v.Validate(req))

	req = validRequest()
	req.Mode = entity.ExecutionModeAsync
	req.CallbackURL = "https://"
	assertInvalidRequest(t, v.Validate(req))

	req = validRequest()
	req.Mode = entity.ExecutionModeAsync
	req.CallbackURL = "https://example.com/hooks/content"
	assert.NoError(t, v.Validate(req))
}

func TestResolveModePrecedence(t *testing.T) {
	req := &ProcessRequest{Components: []ComponentSpec{{ID: "c1", Type: "summary"}}}
	require.NoError(t, req.ResolveMode())
	assert.Equal(t, entity.RequestModeIntelligent, req.RequestMode)

	// components 优先于 text，组件清单是生成内容的唯一来源
	req = &ProcessRequest{
		Text:       "texto acompanhante",
		Components: []ComponentSpec{{ID: "c1", Type: "summary"}},
	}
	require.NoError(t, req.ResolveMode())
	assert.Equal(t, entity.RequestModeIntelligent, req.RequestMode)

	req = &ProcessRequest{Text: "conteúdo"}
	require.NoError(t, req.ResolveMode())
	assert.Equal(t, entity.RequestModeLegacy, req.RequestMode)

	req = &ProcessRequest{}
	require.NoError(t, req.ResolveMode())
	assert.Equal(t, entity.RequestModeLegacy, req.RequestMode)

	req = &ProcessRequest{
		Book:       &BookSpec{ChapterNumber: 2, Subject: "history"},
		Components: []ComponentSpec{{ID: "c1", Type: "quiz"}},
	}
	assert.Error(t, req.ResolveMode())
}
