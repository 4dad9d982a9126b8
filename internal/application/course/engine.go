// Package course 实现增量式课程章节生成
package course

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/internal/domain/repository"
	"edu-content-ai-api/internal/workflow/chain"
	wfmodel "edu-content-ai-api/internal/workflow/model"
	"edu-content-ai-api/internal/workflow/node"
	"edu-content-ai-api/internal/workflow/prompt"
	apperrors "edu-content-ai-api/pkg/errors"
	"edu-content-ai-api/pkg/logger"
	"edu-content-ai-api/pkg/metrics"
)

// previousExcerptRunes 前一章节摘要片段长度上限，约束提示词体积
const previousExcerptRunes = 500

// sectionPreviewRunes 续写时小节预览的长度上限
const sectionPreviewRunes = 200

// CreateChapterSpec 章节创建参数
type CreateChapterSpec struct {
	ChapterID         string
	CourseID          string
	Number            int
	Subject           string
	Title             string
	Discipline        string
	Language          string
	Template          string
	Philosophy        string
	Bibliography      []string
	PreviousChapterID string
	Options           wfmodel.GenerateOptions
}

// Engine 增量章节引擎。
// 章节一次生成一章；续写操作在存量章节的副本上执行后整体覆盖保存。
type Engine struct {
	reconciler *chain.Reconciler
	prompts    *prompt.Registry
	chapters   repository.ChapterRepository
}

// NewEngine 创建章节引擎
func NewEngine(reconciler *chain.Reconciler, prompts *prompt.Registry, chapters repository.ChapterRepository) *Engine {
	return &Engine{
		reconciler: reconciler,
		prompts:    prompts,
		chapters:   chapters,
	}
}

// CreateChapter 生成并保存一个新章节。
// AI 输出无法结构化时落到确定性兜底章节；章节号冲突由存储层裁决。
func (e *Engine) CreateChapter(ctx context.Context, spec CreateChapterSpec) (*entity.Chapter, *wfmodel.AIResult, error) {
	if spec.Number <= 0 {
		return nil, nil, apperrors.New(apperrors.CodeInvalidRequest, "chapter number must be positive")
	}
	if strings.TrimSpace(spec.CourseID) == "" {
		return nil, nil, apperrors.New(apperrors.CodeInvalidRequest, "course_id is required")
	}

	excerpt, err := e.previousExcerpt(ctx, spec)
	if err != nil {
		return nil, nil, err
	}

	messages, err := e.buildCreateMessages(ctx, spec, excerpt)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "failed to build chapter prompt")
	}

	var payload wfmodel.ChapterPayload
	result, state, err := e.reconciler.Reconcile(ctx, messages, spec.Options, node.SchemaChapter, func(jsonText string) error {
		payload = wfmodel.ChapterPayload{}
		if decodeErr := node.DecodeStrict(jsonText, &payload); decodeErr != nil {
			return decodeErr
		}
		return payload.Validate()
	})
	if err != nil {
		metrics.ChapterGenerationTotal.WithLabelValues("create", "provider_error").Inc()
		return nil, nil, err
	}

	var chapter *entity.Chapter
	if state == chain.StateValidated {
		chapter = e.chapterFromPayload(spec, &payload)
		e.attachGenerationMetadata(chapter, result, spec.Options)
		metrics.ChapterGenerationTotal.WithLabelValues("create", "generated").Inc()
	} else {
		logger.Warn(ctx, "chapter output unreconcilable, using template fallback",
			"course_id", spec.CourseID,
			"chapter_number", spec.Number,
		)
		chapter = e.fallbackChapter(spec)
		metrics.ChapterGenerationTotal.WithLabelValues("create", "fallback").Inc()
	}

	if err := e.chapters.Create(ctx, chapter); err != nil {
		return nil, result, err
	}
	return chapter, result, nil
}

// ContinueChapter 对既有章节执行一种续写操作。
// 解析失败时返回未变更的章节，不做部分修改。
func (e *Engine) ContinueChapter(ctx context.Context, chapterID string, continueType entity.ContinueType, contextNote string, opts wfmodel.GenerateOptions) (*entity.Chapter, error) {
	if !continueType.IsValid() {
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "unknown continue type").
			WithDetail(string(continueType))
	}

	chapter, err := e.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, apperrors.ErrChapterNotFound
	}

	messages, err := e.buildContinueMessages(ctx, chapter, continueType, contextNote)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "failed to build continuation prompt")
	}

	var payload wfmodel.ContinuationPayload
	result, state, err := e.reconciler.Reconcile(ctx, messages, opts, node.SchemaContinuation, func(jsonText string) error {
		payload = wfmodel.ContinuationPayload{}
		if decodeErr := node.DecodeStrict(jsonText, &payload); decodeErr != nil {
			return decodeErr
		}
		return payload.ValidateFor(continueType)
	})
	if err != nil {
		metrics.ChapterGenerationTotal.WithLabelValues(string(continueType), "provider_error").Inc()
		return nil, err
	}
	if state != chain.StateValidated {
		// 输出无法结构化：章节保持原样
		logger.Warn(ctx, "continuation output unreconcilable, chapter left unchanged",
			"chapter_id", chapterID,
			"continue_type", string(continueType),
		)
		metrics.ChapterGenerationTotal.WithLabelValues(string(continueType), "unchanged").Inc()
		return chapter, nil
	}

	updated := chapter.Clone()
	applyContinuation(updated, continueType, &payload)
	updated.Status = entity.ChapterStatusEdited
	updated.IncrementVersion()
	e.attachGenerationMetadata(updated, result, opts)

	if err := e.chapters.Update(ctx, updated); err != nil {
		return nil, err
	}
	metrics.ChapterGenerationTotal.WithLabelValues(string(continueType), "applied").Inc()
	return updated, nil
}

// GetChapter 查询单个章节
func (e *Engine) GetChapter(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	chapter, err := e.chapters.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil {
		return nil, apperrors.ErrChapterNotFound
	}
	return chapter, nil
}

// ListCourseChapters 列出课程全部章节，章节号升序
func (e *Engine) ListCourseChapters(ctx context.Context, courseID string) ([]*entity.Chapter, error) {
	return e.chapters.ListByCourse(ctx, courseID)
}

// previousExcerpt 取前一章节的摘要片段；指定 id 优先，否则取课程内已有的最后一章。
// 永远不把完整章节塞进提示词。
func (e *Engine) previousExcerpt(ctx context.Context, spec CreateChapterSpec) (string, error) {
	if spec.PreviousChapterID != "" {
		prev, err := e.chapters.GetByID(ctx, spec.PreviousChapterID)
		if err != nil {
			return "", err
		}
		if prev == nil {
			return "", apperrors.ErrChapterNotFound
		}
		return node.Excerpt(prev.Content, previousExcerptRunes), nil
	}

	existing, err := e.chapters.ListByCourse(ctx, spec.CourseID)
	if err != nil {
		return "", err
	}
	var latest *entity.Chapter
	for _, c := range existing {
		if c.Number < spec.Number && (latest == nil || c.Number > latest.Number) {
			latest = c
		}
	}
	if latest == nil {
		return "", nil
	}
	return node.Excerpt(latest.Content, previousExcerptRunes), nil
}

func (e *Engine) buildCreateMessages(ctx context.Context, spec CreateChapterSpec, excerpt string) ([]*schema.Message, error) {
	tpl, err := e.prompts.ChatTemplate(prompt.PromptChapterCreateV1)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, map[string]any{
		"context_block":      node.BuildContextBlock(spec.Title, spec.Discipline, spec.CourseID, spec.Language),
		"chapter_number":     spec.Number,
		"subject":            spec.Subject,
		"template_block":     orDefault(spec.Template, "No specific template. Use a conventional chapter layout."),
		"philosophy_block":   orDefault(spec.Philosophy, "No specific philosophy stated."),
		"previous_excerpt":   excerpt,
		"bibliography_block": node.BuildBibliographyBlock(spec.Bibliography),
		"length_block":       node.BuildLengthBlock(spec.Options.MaxTokens, spec.Options.Temperature),
		"schema_block":       node.SchemaChapter,
	})
}

func (e *Engine) buildContinueMessages(ctx context.Context, chapter *entity.Chapter, continueType entity.ContinueType, contextNote string) ([]*schema.Message, error) {
	tpl, err := e.prompts.ChatTemplate(prompt.PromptChapterContinueV1)
	if err != nil {
		return nil, err
	}

	previews := make([]string, 0, len(chapter.Sections))
	for _, s := range chapter.Sections {
		previews = append(previews, fmt.Sprintf("- %s: %s", s.Title, node.Excerpt(s.Content, sectionPreviewRunes)))
	}

	return tpl.Format(ctx, map[string]any{
		"continue_type":    string(continueType),
		"chapter_title":    chapter.Title,
		"chapter_content":  chapter.Content,
		"section_previews": strings.Join(previews, "\n"),
		"context_note":     orDefault(contextNote, "None."),
		"schema_block":     node.SchemaContinuation,
	})
}

// chapterFromPayload 将结构化输出物化为章节实体
func (e *Engine) chapterFromPayload(spec CreateChapterSpec, payload *wfmodel.ChapterPayload) *entity.Chapter {
	id := spec.ChapterID
	if id == "" {
		id = uuid.NewString()
	}
	chapter := entity.NewChapter(id, spec.CourseID, spec.Number)
	chapter.Title = payload.Title
	chapter.Content = payload.Content
	chapter.Sections = sectionsFromPayload(payload.Sections)
	chapter.Status = entity.ChapterStatusGenerated
	chapter.Quality = payload.Quality
	chapter.Suggestions = payload.Suggestions
	return chapter
}

func (e *Engine) attachGenerationMetadata(chapter *entity.Chapter, result *wfmodel.AIResult, opts wfmodel.GenerateOptions) {
	if result == nil {
		return
	}
	meta := &entity.GenerationMetadata{
		Model:            result.Model,
		Provider:         result.Provider,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		CostUSD:          result.CostUSD,
		GeneratedAt:      result.CalledAt.Format(time.RFC3339),
	}
	if opts.Temperature != nil {
		meta.Temperature = float64(*opts.Temperature)
	}
	chapter.GenerationMetadata = meta
}

// applyContinuation 在章节副本上应用续写结果
func applyContinuation(chapter *entity.Chapter, continueType entity.ContinueType, payload *wfmodel.ContinuationPayload) {
	switch continueType {
	case entity.ContinueExpand:
		chapter.Content = payload.Content
	case entity.ContinueAddSection:
		chapter.Sections = append(chapter.Sections, sectionsFromPayload(payload.Sections)...)
	case entity.ContinueAddActivities:
		for i := range chapter.Sections {
			chapter.Sections[i].Activities = append(chapter.Sections[i].Activities, activitiesFromPayload(payload.Activities)...)
		}
	case entity.ContinueAddAssessments:
		for i := range chapter.Sections {
			chapter.Sections[i].Assessments = append(chapter.Sections[i].Assessments, assessmentsFromPayload(payload.Assessments)...)
		}
	}
}

func sectionsFromPayload(in []wfmodel.SectionPayload) []entity.Section {
	out := make([]entity.Section, 0, len(in))
	for _, s := range in {
		out = append(out, entity.Section{
			ID:          uuid.NewString(),
			Title:       s.Title,
			Content:     s.Content,
			Type:        s.Type,
			Activities:  activitiesFromPayload(s.Activities),
			Assessments: assessmentsFromPayload(s.Assessments),
		})
	}
	return out
}

func activitiesFromPayload(in []wfmodel.ActivityPayload) []entity.Activity {
	out := make([]entity.Activity, 0, len(in))
	for _, a := range in {
		out = append(out, entity.Activity{
			ID:          uuid.NewString(),
			Title:       a.Title,
			Description: a.Description,
			Type:        a.Type,
		})
	}
	return out
}

func assessmentsFromPayload(in []wfmodel.AssessmentPayload) []entity.Assessment {
	out := make([]entity.Assessment, 0, len(in))
	for _, a := range in {
		out = append(out, entity.Assessment{
			ID:       uuid.NewString(),
			Question: a.Question,
			Options:  a.Options,
			Answer:   a.Answer,
			Type:     a.Type,
		})
	}
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
