package content

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"edu-content-ai-api/internal/domain/entity"
	apperrors "edu-content-ai-api/pkg/errors"
)

// Validator 请求结构校验器
type Validator struct {
	maxInputChars int
}

// NewValidator 创建校验器；maxInputChars <= 0 表示不限制输入长度
func NewValidator(maxInputChars int) *Validator {
	return &Validator{maxInputChars: maxInputChars}
}

// Validate 校验请求并固化内容模式。
// 所有校验失败统一映射为 InvalidRequest。
func (v *Validator) Validate(req *ProcessRequest) error {
	if req == nil {
		return apperrors.New(apperrors.CodeInvalidRequest, "request body is required")
	}
	if strings.TrimSpace(req.WorkflowID) == "" {
		return apperrors.New(apperrors.CodeInvalidRequest, "workflow_id is required")
	}
	if req.Mode != entity.ExecutionModeSync && req.Mode != entity.ExecutionModeAsync {
		return apperrors.New(apperrors.CodeInvalidRequest, "mode must be sync or async")
	}

	if err := req.ResolveMode(); err != nil {
		return err
	}

	if err := v.validateMetadata(&req.Metadata); err != nil {
		return err
	}

	switch req.RequestMode {
	case entity.RequestModeLegacy:
		if strings.TrimSpace(req.Text) == "" {
			return apperrors.New(apperrors.CodeInvalidRequest, "text is required")
		}
		if v.maxInputChars > 0 && utf8.RuneCountInString(req.Text) > v.maxInputChars {
			return apperrors.New(apperrors.CodeInvalidRequest, "text exceeds maximum input length")
		}
	case entity.RequestModeIntelligent:
		for i, c := range req.Components {
			if strings.TrimSpace(c.ID) == "" {
				return apperrors.New(apperrors.CodeInvalidRequest, "component id is required").
					WithDetail(fmt.Sprintf("components[%d]", i))
			}
			if strings.TrimSpace(c.Type) == "" {
				return apperrors.New(apperrors.CodeInvalidRequest, "component type is required").
					WithDetail(fmt.Sprintf("components[%d]", i))
			}
		}
	case entity.RequestModeBook:
		if req.Book.ChapterNumber <= 0 {
			return apperrors.New(apperrors.CodeInvalidRequest, "chapter_number must be positive")
		}
		if strings.TrimSpace(req.Book.Subject) == "" {
			return apperrors.New(apperrors.CodeInvalidRequest, "subject is required for book mode")
		}
	}

	if req.Mode == entity.ExecutionModeAsync {
		if err := validateCallbackURL(req.CallbackURL); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateMetadata(m *RequestMetadata) error {
	switch {
	case strings.TrimSpace(m.Title) == "":
		return apperrors.New(apperrors.CodeInvalidRequest, "metadata.title is required")
	case strings.TrimSpace(m.Discipline) == "":
		return apperrors.New(apperrors.CodeInvalidRequest, "metadata.discipline is required")
	case strings.TrimSpace(m.CourseID) == "":
		return apperrors.New(apperrors.CodeInvalidRequest, "metadata.course_id is required")
	case strings.TrimSpace(m.Language) == "":
		return apperrors.New(apperrors.CodeInvalidRequest, "metadata.language is required")
	}
	return nil
}

// validateCallbackURL 异步模式要求回调地址可解析且为 http/https
func validateCallbackURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return apperrors.New(apperrors.CodeInvalidRequest, "callback_url is required for async mode")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidRequest, "callback_url is not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.New(apperrors.CodeInvalidRequest, "callback_url must use http or https")
	}
	if u.Host == "" {
		return apperrors.New(apperrors.CodeInvalidRequest, "callback_url must have a host")
	}
	return nil
}
