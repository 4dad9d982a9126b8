// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"edu-content-ai-api/internal/application/course"
	"edu-content-ai-api/internal/domain/entity"
	wfmodel "edu-content-ai-api/internal/workflow/model"
)

// CreateChapterRequest 章节创建请求
type CreateChapterRequest struct {
	Number            int           `json:"number" binding:"required,gt=0"`
	Subject           string        `json:"subject" binding:"required"`
	Title             string        `json:"title,omitempty"`
	Discipline        string        `json:"discipline,omitempty"`
	Language          string        `json:"language,omitempty"`
	Template          string        `json:"template,omitempty"`
	Philosophy        string        `json:"philosophy,omitempty"`
	Bibliography      []string      `json:"bibliography,omitempty"`
	PreviousChapterID string        `json:"previous_chapter_id,omitempty"`
	Options           *OptionsInput `json:"options,omitempty"`
}

// ToCreateChapterSpec 将请求 DTO 转换为章节创建参数
func (r *CreateChapterRequest) ToCreateChapterSpec(courseID string) course.CreateChapterSpec {
	spec := course.CreateChapterSpec{
		CourseID:          courseID,
		Number:            r.Number,
		Subject:           r.Subject,
		Title:             r.Title,
		Discipline:        r.Discipline,
		Language:          r.Language,
		Template:          r.Template,
		Philosophy:        r.Philosophy,
		Bibliography:      r.Bibliography,
		PreviousChapterID: r.PreviousChapterID,
	}
	if r.Options != nil {
		spec.Options = wfmodel.GenerateOptions{
			Model:       r.Options.Model,
			MaxTokens:   r.Options.MaxTokens,
			Temperature: r.Options.Temperature,
		}
	}
	return spec
}

// ContinueChapterRequest 章节续写请求
type ContinueChapterRequest struct {
	Type        string        `json:"type" binding:"required"`
	ContextNote string        `json:"context_note,omitempty"`
	Options     *OptionsInput `json:"options,omitempty"`
}

// GenerateOptions 提取续写请求中的生成选项
func (r *ContinueChapterRequest) GenerateOptions() wfmodel.GenerateOptions {
	if r.Options == nil {
		return wfmodel.GenerateOptions{}
	}
	return wfmodel.GenerateOptions{
		Model:       r.Options.Model,
		MaxTokens:   r.Options.MaxTokens,
		Temperature: r.Options.Temperature,
	}
}

// ChapterResponse 章节响应
type ChapterResponse struct {
	ID                 string                     `json:"id"`
	CourseID           string                     `json:"course_id"`
	Number             int                        `json:"number"`
	Title              string                     `json:"title"`
	Content            string                     `json:"content"`
	Sections           []entity.Section           `json:"sections"`
	Status             string                     `json:"status"`
	Quality            entity.QualityMetrics      `json:"quality"`
	Suggestions        []string                   `json:"suggestions,omitempty"`
	CanContinue        bool                       `json:"can_continue"`
	ContinueOptions    []string                   `json:"continue_options,omitempty"`
	GenerationMetadata *entity.GenerationMetadata `json:"generation_metadata,omitempty"`
	Version            int                        `json:"version"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// ChapterListResponse 章节列表响应
type ChapterListResponse struct {
	CourseID string             `json:"course_id"`
	Chapters []*ChapterResponse `json:"chapters"`
	Total    int                `json:"total"`
}

// ToChapterResponse 将章节实体转换为响应 DTO
func ToChapterResponse(ch *entity.Chapter) *ChapterResponse {
	if ch == nil {
		return nil
	}
	return &ChapterResponse{
		ID:                 ch.ID,
		CourseID:           ch.CourseID,
		Number:             ch.Number,
		Title:              ch.Title,
		Content:            ch.Content,
		Sections:           ch.Sections,
		Status:             string(ch.Status),
		Quality:            ch.Quality,
		Suggestions:        ch.Suggestions,
		CanContinue:        ch.CanContinue,
		ContinueOptions:    ch.ContinueOptions,
		GenerationMetadata: ch.GenerationMetadata,
		Version:            ch.Version,
		CreatedAt:          ch.CreatedAt,
		UpdatedAt:          ch.UpdatedAt,
	}
}

// ToChapterListResponse 将章节列表转换为响应 DTO
func ToChapterListResponse(courseID string, chapters []*entity.Chapter) *ChapterListResponse {
	resp := &ChapterListResponse{
		CourseID: courseID,
		Chapters: make([]*ChapterResponse, 0, len(chapters)),
		Total:    len(chapters),
	}
	for _, ch := range chapters {
		resp.Chapters = append(resp.Chapters, ToChapterResponse(ch))
	}
	return resp
}
