package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"edu-content-ai-api/internal/domain/entity"
	apperrors "edu-content-ai-api/pkg/errors"
)

// ChapterRepository 章节仓储实现。
// (course_id, number) 唯一性由数据库唯一索引兜底。
type ChapterRepository struct {
	client *Client
}

// NewChapterRepository 创建章节仓储
func NewChapterRepository(client *Client) *ChapterRepository {
	return &ChapterRepository{client: client}
}

// Create 创建章节；课程内章节号重复时返回冲突
func (r *ChapterRepository) Create(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Create")
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(chapter).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrChapterDuplicate
		}
		span.RecordError(err)
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

// Update 覆盖保存既有章节
func (r *ChapterRepository) Update(ctx context.Context, chapter *entity.Chapter) error {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.Update")
	defer span.End()

	result := r.client.db.WithContext(ctx).Save(chapter)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return apperrors.ErrChapterDuplicate
		}
		span.RecordError(result.Error)
		return fmt.Errorf("failed to update chapter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrChapterNotFound
	}
	return nil
}

// GetByID 按章节 id 查询；不存在时返回 (nil, nil)
func (r *ChapterRepository) GetByID(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.GetByID")
	defer span.End()

	var chapter entity.Chapter
	err := r.client.db.WithContext(ctx).First(&chapter, "id = ?", chapterID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return &chapter, nil
}

// ListByCourse 列出课程全部章节，章节号升序
func (r *ChapterRepository) ListByCourse(ctx context.Context, courseID string) ([]*entity.Chapter, error) {
	ctx, span := tracer.Start(ctx, "postgres.ChapterRepository.ListByCourse")
	defer span.End()

	var chapters []*entity.Chapter
	if err := r.client.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("number ASC").
		Find(&chapters).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// isUniqueViolation 识别 PostgreSQL 唯一约束冲突 (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
