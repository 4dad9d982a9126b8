package content

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-content-ai-api/internal/application/course"
	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/internal/infrastructure/persistence/memory"
	"edu-content-ai-api/internal/workflow/chain"
	wfmodel "edu-content-ai-api/internal/workflow/model"
	"edu-content-ai-api/internal/workflow/prompt"
	apperrors "edu-content-ai-api/pkg/errors"
)

// stubInvoker 按脚本依次返回预置模型输出
type stubInvoker struct {
	outputs []string
	errs    []error
	calls   int
}

func (s *stubInvoker) Invoke(ctx context.Context, messages []*schema.Message, opts wfmodel.GenerateOptions) (*wfmodel.AIResult, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	out := ""
	if i < len(s.outputs) {
		out = s.outputs[i]
	}
	return &wfmodel.AIResult{
		Content:          out,
		Model:            "gpt-4o-mini",
		PromptTokens:     120,
		CompletionTokens: 80,
	}, nil
}

func (s *stubInvoker) HealthCheck(ctx context.Context) bool { return true }

const validLegacyJSON = `{
	"summary": "O texto apresenta equações do segundo grau com exemplos resolvidos.",
	"quiz": [{"question": "Qual é a fórmula de Bhaskara?", "options": ["a", "b"], "answer": "a"}],
	"improved_text": [{"title": "Introdução", "content": "Uma equação do segundo grau tem a forma ax2 + bx + c = 0."}],
	"suggestions": ["Adicionar mais exercícios."],
	"quality": {"readability": 82, "estimated_minutes": 12, "coverage": 75},
	"violations": [],
	"degraded": false
}`

const validChapterJSON = `{
	"title": "Capítulo 1: Cinemática",
	"content": "Este capítulo introduz o estudo do movimento.",
	"sections": [{"title": "Velocidade média", "content": "A velocidade média é a razão entre deslocamento e tempo."}],
	"quality": {"readability": 78, "estimated_minutes": 25, "coverage": 60},
	"suggestions": []
}`

type pipelineFixture struct {
	pipeline *Pipeline
	invoker  *stubInvoker
	execs    *memory.ExecutionStore
	chapters *memory.ChapterStore
}

func newPipelineFixture(outputs []string, errs []error) *pipelineFixture {
	invoker := &stubInvoker{outputs: outputs, errs: errs}
	prompts := prompt.NewRegistry()
	reconciler := chain.NewReconciler(invoker, prompts)
	execs := memory.NewExecutionStore()
	chapters := memory.NewChapterStore()
	engine := course.NewEngine(reconciler, prompts, chapters)

	return &pipelineFixture{
		pipeline: NewPipeline(NewValidator(0), reconciler, prompts, execs, engine, nil, nil),
		invoker:  invoker,
		execs:    execs,
		chapters: chapters,
	}
}

func TestProcessSyncLegacyCompletesWithParsedPayload(t *testing.T) {
	f := newPipelineFixture([]string{validLegacyJSON}, nil)
	ctx := context.Background()

	result, err := f.pipeline.Process(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, string(entity.ExecutionStatusCompleted), result.Status)
	assert.Equal(t, 1, f.invoker.calls)

	var payload wfmodel.LegacyPayload
	require.NoError(t, json.Unmarshal(result.Payload, &payload))
	assert.False(t, payload.Degraded)
	assert.NotNil(t, payload.Violations)
	assert.Empty(t, payload.Violations)

	record, err := f.execs.Get(ctx, "wf-001")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, entity.ExecutionStatusCompleted, record.Status)
	assert.NotNil(t, record.CompletedAt)
}

func TestProcessScansGeneratedContentAgainstPolicy(t *testing.T) {
	f := newPipelineFixture([]string{validLegacyJSON}, nil)

	req := validRequest()
	req.Policy = entity.ContentPolicy{
		RequiredTerms:  []string{"trigonometria"},
		ForbiddenTerms: []string{"Bhaskara"},
	}

	result, err := f.pipeline.Process(context.Background(), req)
	require.NoError(t, err)

	var payload wfmodel.LegacyPayload
	require.NoError(t, json.Unmarshal(result.Payload, &payload))
	// 生成文本缺少必需词项且包含禁用词项
	require.Len(t, payload.Violations, 2)
	assert.Equal(t, entity.RuleMissingRequiredTerm, payload.Violations[0].Rule)
	assert.Equal(t, entity.RuleForbiddenTerm, payload.Violations[1].Rule)
}

func TestProcessFallsBackAfterTwoUnparsableOutputs(t *testing.T) {
	f := newPipelineFixture([]string{"não é json", "ainda não é json"}, nil)
	ctx := context.Background()

	result, err := f.pipeline.Process(ctx, validRequest())
	require.NoError(t, err)

	// 兜底载荷算成功执行，不算失败
	assert.Equal(t, string(entity.ExecutionStatusCompleted), result.Status)
	assert.Equal(t, 2, f.invoker.calls)

	var payload wfmodel.LegacyPayload
	require.NoError(t, json.Unmarshal(result.Payload, &payload))
	assert.True(t, payload.Degraded)
	require.NoError(t, payload.Validate())

	record, err := f.execs.Get(ctx, "wf-001")
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusCompleted, record.Status)
}

func TestProcessRecoversWithOneCorrection(t *testing.T) {
	f := newPipelineFixture([]string{"saída solta sem estrutura", validLegacyJSON}, nil)

	result, err := f.pipeline.Process(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, f.invoker.calls)
	var payload wfmodel.LegacyPayload
	require.NoError(t, json.Unmarshal(result.Payload, &payload))
	assert.False(t, payload.Degraded)
}

func TestProcessRejectsDuplicateActiveWorkflow(t *testing.T) {
	f := newPipelineFixture([]string{validLegacyJSON}, nil)
	ctx := context.Background()

	pending := entity.NewExecutionRecord("wf-001", "author-1", entity.ExecutionModeAsync, entity.RequestModeLegacy, nil)
	require.NoError(t, f.execs.Create(ctx, pending))

	_, err := f.pipeline.Process(ctx, validRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExecutionActive, apperrors.AsAppError(err).Code)
	assert.Equal(t, 0, f.invoker.calls)
}

func TestProcessAllowsWorkflowIDReuseAfterTerminalState(t *testing.T) {
	f := newPipelineFixture([]string{validLegacyJSON, validLegacyJSON}, nil)
	ctx := context.Background()

	_, err := f.pipeline.Process(ctx, validRequest())
	require.NoError(t, err)

	_, err = f.pipeline.Process(ctx, validRequest())
	assert.NoError(t, err)
}

func TestProcessAsyncWithoutQueueIsUnavailable(t *testing.T) {
	f := newPipelineFixture(nil, nil)
	ctx := context.Background()

	req := validRequest()
	req.Mode = entity.ExecutionModeAsync
	req.CallbackURL = "https://example.com/hook"

	_, err := f.pipeline.Process(ctx, req)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeServiceUnavailable, apperrors.AsAppError(err).Code)

	// 被拒绝的受理不得留下悬挂的 pending 记录
	record, gerr := f.execs.Get(ctx, "wf-001")
	require.NoError(t, gerr)
	require.NotNil(t, record)
	assert.Equal(t, entity.ExecutionStatusError, record.Status)

	// 同 workflow id 重试要再次拿到 503 而不是活跃执行冲突
	retry := validRequest()
	retry.Mode = entity.ExecutionModeAsync
	retry.CallbackURL = "https://example.com/hook"
	_, err = f.pipeline.Process(ctx, retry)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeServiceUnavailable, apperrors.AsAppError(err).Code)
}

func TestProcessProviderFailureMarksExecutionError(t *testing.T) {
	providerErr := apperrors.New(apperrors.CodeProviderUnavailable, "AI provider unavailable")
	f := newPipelineFixture([]string{""}, []error{providerErr})
	ctx := context.Background()

	_, err := f.pipeline.Process(ctx, validRequest())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeProviderUnavailable, apperrors.AsAppError(err).Code)

	record, gerr := f.execs.Get(ctx, "wf-001")
	require.NoError(t, gerr)
	require.NotNil(t, record)
	assert.Equal(t, entity.ExecutionStatusError, record.Status)
	assert.NotEmpty(t, record.ErrorText)
}

func TestProcessBookModeCreatesChapter(t *testing.T) {
	f := newPipelineFixture([]string{validChapterJSON}, nil)
	ctx := context.Background()

	req := validRequest()
	req.Text = ""
	req.Book = &BookSpec{ChapterNumber: 1, Subject: "physics"}

	result, err := f.pipeline.Process(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ExecutionStatusCompleted), result.Status)

	var chapter entity.Chapter
	require.NoError(t, json.Unmarshal(result.Payload, &chapter))
	assert.Equal(t, "Capítulo 1: Cinemática", chapter.Title)

	stored, err := f.chapters.ListByCourse(ctx, req.Metadata.CourseID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 1, stored[0].Number)
}

func TestExecuteJobDrivesPendingRecordToCompletion(t *testing.T) {
	f := newPipelineFixture([]string{validLegacyJSON}, nil)
	ctx := context.Background()

	req := validRequest()
	req.Mode = entity.ExecutionModeAsync
	require.NoError(t, req.ResolveMode())

	pending := entity.NewExecutionRecord(req.WorkflowID, req.AuthorID, req.Mode, req.RequestMode, nil)
	require.NoError(t, f.execs.Create(ctx, pending))

	require.NoError(t, f.pipeline.ExecuteJob(ctx, req))

	record, err := f.execs.Get(ctx, req.WorkflowID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusCompleted, record.Status)
	assert.NotEmpty(t, record.Output)
}
