// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"

	"edu-content-ai-api/internal/application/content"
	"edu-content-ai-api/internal/domain/entity"
	wfmodel "edu-content-ai-api/internal/workflow/model"
)

// MetadataInput 请求元数据
type MetadataInput struct {
	Title      string `json:"title" binding:"required"`
	Discipline string `json:"discipline" binding:"required"`
	CourseID   string `json:"course_id" binding:"required"`
	Language   string `json:"language" binding:"required"`
}

// ComponentInput 结构化模式的组件声明
type ComponentInput struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// BookInput 章节生成模式参数
type BookInput struct {
	ChapterNumber     int    `json:"chapter_number"`
	Subject           string `json:"subject"`
	PreviousChapterID string `json:"previous_chapter_id,omitempty"`
}

// PolicyInput 机构内容策略
type PolicyInput struct {
	RequiredTerms   []string `json:"required_terms,omitempty"`
	ForbiddenTerms  []string `json:"forbidden_terms,omitempty"`
	StyleGuidelines []string `json:"style_guidelines,omitempty"`
}

// OptionsInput 生成选项
type OptionsInput struct {
	Model       string   `json:"model,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

// ProcessContentRequest 内容处理请求
type ProcessContentRequest struct {
	WorkflowID   string           `json:"workflow_id" binding:"required"`
	AuthorID     string           `json:"author_id,omitempty"`
	Mode         string           `json:"mode,omitempty"`
	Text         string           `json:"text,omitempty"`
	Components   []ComponentInput `json:"components,omitempty"`
	Template     string           `json:"template,omitempty"`
	Philosophy   string           `json:"philosophy,omitempty"`
	Bibliography []string         `json:"bibliography,omitempty"`
	Book         *BookInput       `json:"book,omitempty"`
	Metadata     MetadataInput    `json:"metadata" binding:"required"`
	Policy       *PolicyInput     `json:"policy,omitempty"`
	Options      *OptionsInput    `json:"options,omitempty"`
	CallbackURL  string           `json:"callback_url,omitempty"`
}

// ToProcessRequest 将请求 DTO 转换为应用层请求
func (r *ProcessContentRequest) ToProcessRequest(authorID string) *content.ProcessRequest {
	mode := entity.ExecutionMode(r.Mode)
	if mode == "" {
		mode = entity.ExecutionModeSync
	}

	req := &content.ProcessRequest{
		WorkflowID:   r.WorkflowID,
		AuthorID:     authorID,
		Mode:         mode,
		Text:         r.Text,
		Template:     r.Template,
		Philosophy:   r.Philosophy,
		Bibliography: r.Bibliography,
		CallbackURL:  r.CallbackURL,
		Metadata: content.RequestMetadata{
			Title:      r.Metadata.Title,
			Discipline: r.Metadata.Discipline,
			CourseID:   r.Metadata.CourseID,
			Language:   r.Metadata.Language,
		},
	}

	for _, c := range r.Components {
		req.Components = append(req.Components, content.ComponentSpec{
			ID:    c.ID,
			Type:  c.Type,
			Title: c.Title,
		})
	}

	if r.Book != nil {
		req.Book = &content.BookSpec{
			ChapterNumber:     r.Book.ChapterNumber,
			Subject:           r.Book.Subject,
			PreviousChapterID: r.Book.PreviousChapterID,
		}
	}

	if r.Policy != nil {
		req.Policy = entity.ContentPolicy{
			RequiredTerms:   r.Policy.RequiredTerms,
			ForbiddenTerms:  r.Policy.ForbiddenTerms,
			StyleGuidelines: r.Policy.StyleGuidelines,
		}
	}

	if r.Options != nil {
		req.Options = wfmodel.GenerateOptions{
			Model:       r.Options.Model,
			MaxTokens:   r.Options.MaxTokens,
			Temperature: r.Options.Temperature,
		}
	}

	return req
}

// ProcessContentResponse 内容处理响应
type ProcessContentResponse struct {
	WorkflowID string             `json:"workflow_id"`
	Status     string             `json:"status"`
	Payload    json.RawMessage    `json:"payload,omitempty"`
	Execution  *ExecutionResponse `json:"execution,omitempty"`
}

// ToProcessContentResponse 将流水线结果转换为响应 DTO
func ToProcessContentResponse(result *content.ProcessResult) *ProcessContentResponse {
	if result == nil {
		return nil
	}
	return &ProcessContentResponse{
		WorkflowID: result.WorkflowID,
		Status:     result.Status,
		Payload:    result.Payload,
		Execution:  ToExecutionResponse(result.Execution),
	}
}
