// Package content 实现教学内容处理流水线
package content

import (
	"edu-content-ai-api/internal/domain/entity"
	wfmodel "edu-content-ai-api/internal/workflow/model"
	apperrors "edu-content-ai-api/pkg/errors"
)

// RequestMetadata 请求的教学上下文元数据
type RequestMetadata struct {
	Title      string `json:"title"`
	Discipline string `json:"discipline"`
	CourseID   string `json:"course_id"`
	Language   string `json:"language"`
}

// ComponentSpec 结构化模式下要求生成的教学组件
type ComponentSpec struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// BookSpec 章节生成模式的参数
type BookSpec struct {
	ChapterNumber     int    `json:"chapter_number"`
	Subject           string `json:"subject"`
	PreviousChapterID string `json:"previous_chapter_id,omitempty"`
}

// ProcessRequest 内容处理请求。
// 三种内容模式（自由文本/结构化组件/章节生成）互斥，
// 在边界处一次性判定为 RequestMode，流水线内部不再做字段存在性探测。
type ProcessRequest struct {
	WorkflowID string               `json:"workflow_id"`
	AuthorID   string               `json:"author_id,omitempty"`
	Mode       entity.ExecutionMode `json:"mode"`

	Text         string          `json:"text,omitempty"`
	Components   []ComponentSpec `json:"components,omitempty"`
	Template     string          `json:"template,omitempty"`
	Philosophy   string          `json:"philosophy,omitempty"`
	Bibliography []string        `json:"bibliography,omitempty"`
	Book         *BookSpec       `json:"book,omitempty"`

	Metadata    RequestMetadata         `json:"metadata"`
	Policy      entity.ContentPolicy    `json:"policy"`
	Options     wfmodel.GenerateOptions `json:"options"`
	CallbackURL string                  `json:"callback_url,omitempty"`

	// RequestMode 由 ResolveMode 填充，调用方不得直接设置
	RequestMode entity.RequestMode `json:"request_mode,omitempty"`
}

// ResolveMode 判定请求的内容模式并固化到 RequestMode。
// 规则：book 字段存在即 book 模式，不得与 text/components 同时出现；
// 否则 components 非空即 intelligent 模式，此时 text 被忽略，
// 组件清单是生成内容的唯一来源；否则为 legacy 模式。
func (r *ProcessRequest) ResolveMode() error {
	hasBook := r.Book != nil
	hasComponents := len(r.Components) > 0
	hasText := r.Text != ""

	switch {
	case hasBook && (hasComponents || hasText):
		return apperrors.New(apperrors.CodeInvalidRequest, "book mode cannot be combined with text or components")
	case hasBook:
		r.RequestMode = entity.RequestModeBook
	case hasComponents:
		r.RequestMode = entity.RequestModeIntelligent
	default:
		r.RequestMode = entity.RequestModeLegacy
	}
	return nil
}
