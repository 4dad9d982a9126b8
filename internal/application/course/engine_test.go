package course

import (
	"context"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/internal/infrastructure/persistence/memory"
	"edu-content-ai-api/internal/workflow/chain"
	wfmodel "edu-content-ai-api/internal/workflow/model"
	"edu-content-ai-api/internal/workflow/prompt"
	apperrors "edu-content-ai-api/pkg/errors"
)

// stubInvoker 按脚本依次返回预置模型输出，可并发调用
type stubInvoker struct {
	mu      sync.Mutex
	outputs []string
	errs    []error
	calls   int
}

func (s *stubInvoker) Invoke(ctx context.Context, messages []*schema.Message, opts wfmodel.GenerateOptions) (*wfmodel.AIResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
		Provider:         "openai",
		PromptTokens:     200,
		CompletionTokens: 150,
		CostUSD:          0.02,
	}, nil
}

func (s *stubInvoker) HealthCheck(ctx context.Context) bool { return true }

const chapterJSON = `{
	"title": "Capítulo 1: Cinemática",
	"content": "Este capítulo introduz o estudo do movimento dos corpos.",
	"sections": [
		{"title": "Velocidade média", "content": "A velocidade média é a razão entre deslocamento e tempo.", "type": "content"},
		{"title": "Aceleração", "content": "A aceleração mede a variação da velocidade no tempo.", "type": "content"}
	],
	"quality": {"readability": 80, "estimated_minutes": 30, "coverage": 70},
	"suggestions": ["Incluir gráficos de movimento uniforme."]
}`

type engineFixture struct {
	engine  *Engine
	store   *memory.ChapterStore
	invoker *stubInvoker
}

func newEngineFixture(outputs []string, errs []error) *engineFixture {
	invoker := &stubInvoker{outputs: outputs, errs: errs}
	prompts := prompt.NewRegistry()
	store := memory.NewChapterStore()
	return &engineFixture{
		engine:  NewEngine(chain.NewReconciler(invoker, prompts), prompts, store),
		store:   store,
		invoker: invoker,
	}
}

func physicsSpec(number int) CreateChapterSpec {
	return CreateChapterSpec{
		CourseID:   "course-phys-1",
		Number:     number,
		Subject:    "physics",
		Title:      "Física Básica",
		Discipline: "physics",
		Language:   "pt-BR",
	}
}

// seedChapter 直接向存储写入一个已生成的章节
func seedChapter(t *testing.T, store *memory.ChapterStore, id string, number int) *entity.Chapter {
	t.Helper()
	chapter := entity.NewChapter(id, "course-phys-1", number)
	chapter.Title = "Capítulo existente"
	chapter.Content = "Conteúdo existente do capítulo."
	chapter.Sections = []entity.Section{
		{ID: "s1", Title: "Seção A", Content: "Texto da seção A."},
		{ID: "s2", Title: "Seção B", Content: "Texto da seção B."},
	}
	chapter.Status = entity.ChapterStatusGenerated
	require.NoError(t, store.Create(context.Background(), chapter))
	return chapter
}

func TestCreateChapterFromValidOutput(t *testing.T) {
	f := newEngineFixture([]string{chapterJSON}, nil)

	chapter, result, err := f.engine.CreateChapter(context.Background(), physicsSpec(1))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, entity.ChapterStatusGenerated, chapter.Status)
	assert.Equal(t, "Capítulo 1: Cinemática", chapter.Title)
	require.Len(t, chapter.Sections, 2)
	assert.NotEmpty(t, chapter.Sections[0].ID)
	assert.Equal(t, float64(80), chapter.Quality.Readability)
	require.NotNil(t, chapter.GenerationMetadata)
	assert.Equal(t, "gpt-4o-mini", chapter.GenerationMetadata.Model)
	assert.Equal(t, 200, chapter.GenerationMetadata.PromptTokens)

	stored, err := f.store.GetByID(context.Background(), chapter.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, chapter.Title, stored.Title)
}

func TestCreateChapterFallsBackToTemplate(t *testing.T) {
	f := newEngineFixture([]string{"sem estrutura", "ainda sem estrutura"}, nil)

	chapter, _, err := f.engine.CreateChapter(context.Background(), physicsSpec(1))
	require.NoError(t, err)

	assert.Equal(t, 2, f.invoker.calls)
	assert.Equal(t, entity.ChapterStatusDraft, chapter.Status)
	// 学科查找表决定兜底标题
	assert.Equal(t, "Chapter 1: Understanding the Physical World", chapter.Title)
	assert.Len(t, chapter.Sections, 3)
	assert.NotEmpty(t, chapter.Suggestions)

	stored, err := f.store.GetByID(context.Background(), chapter.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestCreateChapterFallbackUnknownSubject(t *testing.T) {
	f := newEngineFixture([]string{"x", "y"}, nil)
	spec := physicsSpec(2)
	spec.Subject = "astrobotany"

	chapter, _, err := f.engine.CreateChapter(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 2: Introduction to astrobotany", chapter.Title)
}

func TestCreateChapterConcurrentDistinctNumbers(t *testing.T) {
	f := newEngineFixture([]string{chapterJSON, chapterJSON}, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.engine.CreateChapter(ctx, physicsSpec(i+1))
		}(i)
	}
	wg.Wait()

	// 同课程不同章节号的并发创建互不阻塞，两章都要落库
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	chapters, err := f.engine.ListCourseChapters(ctx, "course-phys-1")
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, 1, chapters[0].Number)
	assert.Equal(t, 2, chapters[1].Number)
}

func TestCreateChapterRejectsDuplicateNumber(t *testing.T) {
	f := newEngineFixture([]string{chapterJSON, chapterJSON}, nil)
	ctx := context.Background()

	_, _, err := f.engine.CreateChapter(ctx, physicsSpec(1))
	require.NoError(t, err)

	_, _, err = f.engine.CreateChapter(ctx, physicsSpec(1))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeChapterDuplicate, apperrors.AsAppError(err).Code)
}

func TestCreateChapterRejectsInvalidSpec(t *testing.T) {
	f := newEngineFixture(nil, nil)
	ctx := context.Background()

	spec := physicsSpec(0)
	_, _, err := f.engine.CreateChapter(ctx, spec)
	assert.Equal(t, apperrors.CodeInvalidRequest, apperrors.AsAppError(err).Code)

	spec = physicsSpec(1)
	spec.CourseID = " "
	_, _, err = f.engine.CreateChapter(ctx, spec)
	assert.Equal(t, apperrors.CodeInvalidRequest, apperrors.AsAppError(err).Code)
	assert.Equal(t, 0, f.invoker.calls)
}

func TestCreateChapterMissingPreviousChapter(t *testing.T) {
	f := newEngineFixture([]string{chapterJSON}, nil)
	spec := physicsSpec(2)
	spec.PreviousChapterID = "no-such-chapter"

	_, _, err := f.engine.CreateChapter(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeChapterNotFound, apperrors.AsAppError(err).Code)
	assert.Equal(t, 0, f.invoker.calls)
}

func TestContinueChapterAddSection(t *testing.T) {
	f := newEngineFixture([]string{`{"sections":[{"title":"Nova seção","content":"Material adicional."}]}`}, nil)
	seedChapter(t, f.store, "ch-1", 1)

	updated, err := f.engine.ContinueChapter(context.Background(), "ch-1", entity.ContinueAddSection, "", wfmodel.GenerateOptions{})
	require.NoError(t, err)

	require.Len(t, updated.Sections, 3)
	assert.Equal(t, "Nova seção", updated.Sections[2].Title)
	assert.NotEmpty(t, updated.Sections[2].ID)
	assert.Equal(t, entity.ChapterStatusEdited, updated.Status)
	assert.Equal(t, 2, updated.Version)

	stored, err := f.store.GetByID(context.Background(), "ch-1")
	require.NoError(t, err)
	assert.Len(t, stored.Sections, 3)
}

func TestContinueChapterExpandReplacesContent(t *testing.T) {
	f := newEngineFixture([]string{`{"content":"Conteúdo expandido com novos exemplos."}`}, nil)
	seedChapter(t, f.store, "ch-1", 1)

	updated, err := f.engine.ContinueChapter(context.Background(), "ch-1", entity.ContinueExpand, "aprofundar exemplos", wfmodel.GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Conteúdo expandido com novos exemplos.", updated.Content)
	assert.Len(t, updated.Sections, 2)
}

func TestContinueChapterAddActivitiesTouchesEverySection(t *testing.T) {
	f := newEngineFixture([]string{`{"activities":[{"title":"Experimento prático","description":"Medir tempos de queda."}]}`}, nil)
	seedChapter(t, f.store, "ch-1", 1)

	updated, err := f.engine.ContinueChapter(context.Background(), "ch-1", entity.ContinueAddActivities, "", wfmodel.GenerateOptions{})
	require.NoError(t, err)

	for _, s := range updated.Sections {
		require.Len(t, s.Activities, 1)
		assert.Equal(t, "Experimento prático", s.Activities[0].Title)
	}
}

func TestContinueChapterUnparsableOutputLeavesChapterUnchanged(t *testing.T) {
	f := newEngineFixture([]string{"sem json", "de novo sem json"}, nil)
	original := seedChapter(t, f.store, "ch-1", 1)

	got, err := f.engine.ContinueChapter(context.Background(), "ch-1", entity.ContinueAddSection, "", wfmodel.GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, original.Version, got.Version)
	assert.Len(t, got.Sections, 2)
	assert.Equal(t, entity.ChapterStatusGenerated, got.Status)
}

func TestContinueChapterUnknownChapter(t *testing.T) {
	f := newEngineFixture(nil, nil)

	_, err := f.engine.ContinueChapter(context.Background(), "missing", entity.ContinueExpand, "", wfmodel.GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeChapterNotFound, apperrors.AsAppError(err).Code)
}

func TestContinueChapterRejectsUnknownType(t *testing.T) {
	f := newEngineFixture(nil, nil)
	seedChapter(t, f.store, "ch-1", 1)

	_, err := f.engine.ContinueChapter(context.Background(), "ch-1", entity.ContinueType("rewrite"), "", wfmodel.GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidRequest, apperrors.AsAppError(err).Code)
	assert.Equal(t, 0, f.invoker.calls)
}

func TestGetChapterNotFound(t *testing.T) {
	f := newEngineFixture(nil, nil)

	_, err := f.engine.GetChapter(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeChapterNotFound, apperrors.AsAppError(err).Code)
}

func TestListCourseChaptersAscendingByNumber(t *testing.T) {
	f := newEngineFixture(nil, nil)
	seedChapter(t, f.store, "ch-3", 3)
	seedChapter(t, f.store, "ch-1", 1)
	seedChapter(t, f.store, "ch-2", 2)

	chapters, err := f.engine.ListCourseChapters(context.Background(), "course-phys-1")
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{chapters[0].Number, chapters[1].Number, chapters[2].Number})
}
