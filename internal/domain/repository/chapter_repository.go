// Package repository 定义存储接口
package repository

import (
	"context"

	"edu-content-ai-api/internal/domain/entity"
)

// ChapterRepository 章节存储接口
// 实现必须按章节 id 串行化并发变更，并在 (course_id, number) 重复时
// 返回 CodeChapterDuplicate
type ChapterRepository interface {
	// Create 创建章节；同课程内章节号重复时失败
	Create(ctx context.Context, chapter *entity.Chapter) error

	// Update 覆盖保存既有章节
	Update(ctx context.Context, chapter *entity.Chapter) error

	// GetByID 按章节 id 查询；不存在时返回 (nil, nil)
	GetByID(ctx context.Context, chapterID string) (*entity.Chapter, error)

	// ListByCourse 列出课程全部章节，按章节号升序
	ListByCourse(ctx context.Context, courseID string) ([]*entity.Chapter, error)
}
