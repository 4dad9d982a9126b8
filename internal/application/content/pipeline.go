package content

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"edu-content-ai-api/internal/application/course"
	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/internal/domain/repository"
	"edu-content-ai-api/internal/infrastructure/messaging"
	"edu-content-ai-api/internal/workflow/chain"
	wfmodel "edu-content-ai-api/internal/workflow/model"
	"edu-content-ai-api/internal/workflow/node"
	"edu-content-ai-api/internal/workflow/prompt"
	apperrors "edu-content-ai-api/pkg/errors"
	"edu-content-ai-api/pkg/logger"
	"edu-content-ai-api/pkg/metrics"
)

// StatusAccepted 异步受理的响应状态
const StatusAccepted = "accepted"

// JobQueue 异步任务投递抽象
type JobQueue interface {
	PublishPipelineJob(ctx context.Context, job *messaging.PipelineJobMessage) (string, error)
}

// Notifier 回调投递抽象，尽力而为
type Notifier interface {
	Notify(ctx context.Context, callbackURL string, record *entity.ExecutionRecord)
}

// ProcessResult 流水线处理结果
type ProcessResult struct {
	WorkflowID string                  `json:"workflow_id"`
	Status     string                  `json:"status"`
	Payload    json.RawMessage         `json:"payload,omitempty"`
	Execution  *entity.ExecutionRecord `json:"execution,omitempty"`
}

// Pipeline 内容处理流水线：校验 → 净化 → 提示词 → 纠偏生成 →
// 策略扫描或兜底合成 → 执行记录迁移 → 可选回调。
// 单个请求内部串行执行，AI 调用是唯一阻塞点。
type Pipeline struct {
	validator  *Validator
	reconciler *chain.Reconciler
	prompts    *prompt.Registry
	executions repository.ExecutionRepository
	chapters   *course.Engine
	queue      JobQueue
	notifier   Notifier
}

// NewPipeline 创建流水线。queue 为 nil 时拒绝异步请求，notifier 为 nil 时跳过回调。
func NewPipeline(
	validator *Validator,
	reconciler *chain.Reconciler,
	prompts *prompt.Registry,
	executions repository.ExecutionRepository,
	chapters *course.Engine,
	queue JobQueue,
	notifier Notifier,
) *Pipeline {
	return &Pipeline{
		validator:  validator,
		reconciler: reconciler,
		prompts:    prompts,
		executions: executions,
		chapters:   chapters,
		queue:      queue,
		notifier:   notifier,
	}
}

// Process 流水线入口。
// 同步模式内联执行并返回完整载荷；异步模式投递队列任务后立即受理返回。
func (p *Pipeline) Process(ctx context.Context, req *ProcessRequest) (*ProcessResult, error) {
	if err := p.validator.Validate(req); err != nil {
		return nil, err
	}
	SanitizeRequest(req)

	input, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to snapshot request")
	}

	record := entity.NewExecutionRecord(req.WorkflowID, req.AuthorID, req.Mode, req.RequestMode, input)
	if err := p.executions.Create(ctx, record); err != nil {
		return nil, err
	}

	ctx = logger.WithContext(ctx, logger.WorkflowIDKey, req.WorkflowID)

	if req.Mode == entity.ExecutionModeAsync {
		return p.accept(ctx, req, input)
	}
	return p.run(ctx, req)
}

// accept 受理异步请求：投递队列任务，不内联执行流水线
func (p *Pipeline) accept(ctx context.Context, req *ProcessRequest, input json.RawMessage) (*ProcessResult, error) {
	if p.queue == nil {
		// 记录已创建，必须判死，否则同 workflow id 的重试会撞上活跃执行守卫
		if _, terr := p.executions.Transition(ctx, req.WorkflowID, entity.ExecutionStatusError, nil, "async processing is not enabled"); terr != nil {
			logger.Error(ctx, "failed to mark execution after async rejection", terr)
		}
		return nil, apperrors.New(apperrors.CodeServiceUnavailable, "async processing is not enabled")
	}

	_, err := p.queue.PublishPipelineJob(ctx, &messaging.PipelineJobMessage{
		WorkflowID:  req.WorkflowID,
		AuthorID:    req.AuthorID,
		RequestMode: string(req.RequestMode),
		CallbackURL: req.CallbackURL,
		Request:     input,
	})
	if err != nil {
		// 任务没能入队：记录立刻判死，调用方重试时可复用同一 workflow id
		if _, terr := p.executions.Transition(ctx, req.WorkflowID, entity.ExecutionStatusError, nil, "failed to enqueue job: "+err.Error()); terr != nil {
			logger.Error(ctx, "failed to mark execution after enqueue failure", terr)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeQueueError, "failed to enqueue pipeline job")
	}

	logger.Info(ctx, "pipeline job accepted",
		"request_mode", string(req.RequestMode),
		"author_id", req.AuthorID,
	)
	return &ProcessResult{
		WorkflowID: req.WorkflowID,
		Status:     StatusAccepted,
	}, nil
}

// ExecuteJob 执行一个已受理的异步任务（由工作进程调用）
func (p *Pipeline) ExecuteJob(ctx context.Context, req *ProcessRequest) error {
	if req.RequestMode == "" {
		if err := req.ResolveMode(); err != nil {
			return err
		}
	}
	ctx = logger.WithContext(ctx, logger.WorkflowIDKey, req.WorkflowID)

	if _, err := p.executions.Transition(ctx, req.WorkflowID, entity.ExecutionStatusProcessing, nil, ""); err != nil {
		return err
	}
	_, err := p.run(ctx, req)
	return err
}

// run 执行核心流水线并落终态。
// 任何非预期故障都会把执行记录迁移到 error，同步调用方统一看到提供商不可用。
func (p *Pipeline) run(ctx context.Context, req *ProcessRequest) (*ProcessResult, error) {
	start := time.Now()
	mode := string(req.RequestMode)

	payload, genErr := p.generate(ctx, req)
	if genErr != nil {
		metrics.PipelineRunsTotal.WithLabelValues(mode, "error").Inc()
		record, terr := p.executions.Transition(ctx, req.WorkflowID, entity.ExecutionStatusError, nil, genErr.Error())
		if terr != nil {
			logger.Error(ctx, "failed to record pipeline failure", terr)
		}
		p.dispatchCallback(ctx, req.CallbackURL, record)

		appErr := apperrors.AsAppError(genErr)
		if appErr.Code == apperrors.CodeUnknown || appErr.Code == apperrors.CodeInternalError {
			// 内部故障细节不外泄，原始输入保留在执行记录里供诊断
			return nil, apperrors.ErrProviderUnavailable
		}
		return nil, genErr
	}

	record, err := p.executions.Transition(ctx, req.WorkflowID, entity.ExecutionStatusCompleted, payload, "")
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues(mode, "error").Inc()
		return nil, err
	}

	metrics.PipelineRunsTotal.WithLabelValues(mode, "completed").Inc()
	metrics.PipelineRunDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	p.dispatchCallback(ctx, req.CallbackURL, record)

	return &ProcessResult{
		WorkflowID: req.WorkflowID,
		Status:     string(entity.ExecutionStatusCompleted),
		Payload:    payload,
		Execution:  record,
	}, nil
}

// generate 按内容模式产出结构化载荷
func (p *Pipeline) generate(ctx context.Context, req *ProcessRequest) (json.RawMessage, error) {
	switch req.RequestMode {
	case entity.RequestModeLegacy:
		return p.generateLegacy(ctx, req)
	case entity.RequestModeIntelligent:
		return p.generateIntelligent(ctx, req)
	case entity.RequestModeBook:
		return p.generateChapter(ctx, req)
	default:
		return nil, apperrors.New(apperrors.CodeInvalidRequest, "unknown request mode")
	}
}

func (p *Pipeline) generateLegacy(ctx context.Context, req *ProcessRequest) (json.RawMessage, error) {
	tpl, err := p.prompts.ChatTemplate(prompt.PromptContentTransformV1)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "failed to load prompt template")
	}
	messages, err := tpl.Format(ctx, map[string]any{
		"context_block": node.BuildContextBlock(req.Metadata.Title, req.Metadata.Discipline, req.Metadata.CourseID, req.Metadata.Language),
		"policy_block":  node.BuildPolicyBlock(&req.Policy),
		"length_block":  node.BuildLengthBlock(req.Options.MaxTokens, req.Options.Temperature),
		"content":       req.Text,
		"schema_block":  node.SchemaLegacy,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "failed to render prompt")
	}

	var payload wfmodel.LegacyPayload
	_, state, err := p.reconciler.Reconcile(ctx, messages, req.Options, node.SchemaLegacy, func(jsonText string) error {
		payload = wfmodel.LegacyPayload{}
		if decodeErr := node.DecodeStrict(jsonText, &payload); decodeErr != nil {
			return decodeErr
		}
		return payload.Validate()
	})
	if err != nil {
		return nil, err
	}

	if state != chain.StateValidated {
		fallback := BuildLegacyFallback(req)
		metrics.PipelineFallbackTotal.WithLabelValues(string(req.RequestMode)).Inc()
		return json.Marshal(fallback)
	}

	payload.Violations = EnforcePolicy(payload.PlainText(), &req.Policy)
	return json.Marshal(&payload)
}

func (p *Pipeline) generateIntelligent(ctx context.Context, req *ProcessRequest) (json.RawMessage, error) {
	tpl, err := p.prompts.ChatTemplate(prompt.PromptIntelligentV1)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "failed to load prompt template")
	}
	messages, err := tpl.Format(ctx, map[string]any{
		"context_block":      node.BuildContextBlock(req.Metadata.Title, req.Metadata.Discipline, req.Metadata.CourseID, req.Metadata.Language),
		"template_block":     req.Template,
		"philosophy_block":   req.Philosophy,
		"bibliography_block": node.BuildBibliographyBlock(req.Bibliography),
		"policy_block":       node.BuildPolicyBlock(&req.Policy),
		"length_block":       node.BuildLengthBlock(req.Options.MaxTokens, req.Options.Temperature),
		"components_block":   buildComponentsBlock(req.Components),
		"schema_block":       node.SchemaIntelligent,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeGenerationFailed, "failed to render prompt")
	}

	var payload wfmodel.IntelligentPayload
	_, state, err := p.reconciler.Reconcile(ctx, messages, req.Options, node.SchemaIntelligent, func(jsonText string) error {
		payload = wfmodel.IntelligentPayload{}
		if decodeErr := node.DecodeStrict(jsonText, &payload); decodeErr != nil {
			return decodeErr
		}
		return payload.Validate()
	})
	if err != nil {
		return nil, err
	}

	if state != chain.StateValidated {
		fallback := BuildIntelligentFallback(req)
		metrics.PipelineFallbackTotal.WithLabelValues(string(req.RequestMode)).Inc()
		return json.Marshal(fallback)
	}

	payload.Violations = EnforcePolicy(payload.PlainText(), &req.Policy)
	return json.Marshal(&payload)
}

// generateChapter 章节模式委托给章节引擎；引擎内部自带兜底合成
func (p *Pipeline) generateChapter(ctx context.Context, req *ProcessRequest) (json.RawMessage, error) {
	if p.chapters == nil {
		return nil, apperrors.New(apperrors.CodeServiceUnavailable, "chapter generation is not enabled")
	}
	chapter, _, err := p.chapters.CreateChapter(ctx, course.CreateChapterSpec{
		CourseID:          req.Metadata.CourseID,
		Number:            req.Book.ChapterNumber,
		Subject:           req.Book.Subject,
		Title:             req.Metadata.Title,
		Discipline:        req.Metadata.Discipline,
		Language:          req.Metadata.Language,
		Template:          req.Template,
		Philosophy:        req.Philosophy,
		Bibliography:      req.Bibliography,
		PreviousChapterID: req.Book.PreviousChapterID,
		Options:           req.Options,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(chapter)
}

func (p *Pipeline) dispatchCallback(ctx context.Context, callbackURL string, record *entity.ExecutionRecord) {
	if p.notifier == nil || callbackURL == "" || record == nil {
		return
	}
	p.notifier.Notify(ctx, callbackURL, record)
}

// buildComponentsBlock 列出要求生成的组件清单
func buildComponentsBlock(components []ComponentSpec) string {
	lines := make([]string, 0, len(components))
	for _, c := range components {
		line := "- id=" + c.ID + " type=" + c.Type
		if c.Title != "" {
			line += " title=" + c.Title
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// HealthCheck 透传 AI 提供商健康探测
func (p *Pipeline) HealthCheck(ctx context.Context) bool {
	return p.reconciler.HealthCheck(ctx)
}
