package course

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"edu-content-ai-api/internal/domain/entity"
)

// subjectTitles 学科到章节标题的本地查找表，兜底生成时使用
var subjectTitles = map[string]string{
	"mathematics":      "Foundations of Mathematical Thinking",
	"physics":          "Understanding the Physical World",
	"chemistry":        "Matter and Its Transformations",
	"biology":          "Life and Living Systems",
	"history":          "Reading the Past",
	"programming":      "Thinking in Programs",
	"computer science": "Computation and Problem Solving",
	"literature":       "Reading and Interpreting Texts",
	"economics":        "Scarcity, Choice and Markets",
}

// fallbackChapter 构造确定性兜底章节：查找表标题 + 模板化小节桩
func (e *Engine) fallbackChapter(spec CreateChapterSpec) *entity.Chapter {
	subject := strings.TrimSpace(spec.Subject)
	title, ok := subjectTitles[strings.ToLower(subject)]
	if !ok {
		title = fmt.Sprintf("Introduction to %s", subject)
	}
	title = fmt.Sprintf("Chapter %d: %s", spec.Number, title)

	id := spec.ChapterID
	if id == "" {
		id = uuid.NewString()
	}

	chapter := entity.NewChapter(id, spec.CourseID, spec.Number)
	chapter.Title = title
	chapter.Content = fmt.Sprintf(
		"This chapter introduces %s. The generated content could not be structured automatically; this outline preserves the chapter slot so the course can continue to grow. Regenerate this chapter to replace the placeholder material.",
		subject,
	)
	chapter.Sections = []entity.Section{
		{
			ID:      uuid.NewString(),
			Title:   "Overview",
			Content: fmt.Sprintf("What this chapter covers and why %s matters in this course.", subject),
			Type:    "introduction",
		},
		{
			ID:      uuid.NewString(),
			Title:   "Core Concepts",
			Content: fmt.Sprintf("The central ideas of %s, to be developed with worked examples.", subject),
			Type:    "content",
		},
		{
			ID:      uuid.NewString(),
			Title:   "Practice and Review",
			Content: "Exercises and review questions consolidating the chapter material.",
			Type:    "practice",
		},
	}
	chapter.Status = entity.ChapterStatusDraft
	chapter.Quality = entity.QualityMetrics{
		Readability:      50,
		EstimatedMinutes: 15,
		Coverage:         0,
	}
	chapter.Suggestions = []string{
		"This chapter was synthesized from a local template. Regenerate it once the AI provider produces structured output.",
	}
	return chapter
}
