package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"edu-content-ai-api/internal/domain/entity"
	apperrors "edu-content-ai-api/pkg/errors"
)

// ChapterStore 进程内章节存储。
// 以 (course_id, number) 为唯一键，重复创建返回冲突。
type ChapterStore struct {
	mu       sync.RWMutex
	chapters map[string]*entity.Chapter
	// byCourseNumber 维护课程内章节号唯一索引，值为章节 id
	byCourseNumber map[string]map[int]string
}

// NewChapterStore 创建章节存储
func NewChapterStore() *ChapterStore {
	return &ChapterStore{
		chapters:       make(map[string]*entity.Chapter),
		byCourseNumber: make(map[string]map[int]string),
	}
}

// Create 创建章节；课程内章节号已占用时返回冲突
func (s *ChapterStore) Create(ctx context.Context, chapter *entity.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	numbers, ok := s.byCourseNumber[chapter.CourseID]
	if !ok {
		numbers = make(map[int]string)
		s.byCourseNumber[chapter.CourseID] = numbers
	}
	if _, taken := numbers[chapter.Number]; taken {
		return apperrors.ErrChapterDuplicate
	}

	s.chapters[chapter.ID] = chapter.Clone()
	numbers[chapter.Number] = chapter.ID
	return nil
}

// Update 覆盖保存既有章节；不存在时返回未找到
func (s *ChapterStore) Update(ctx context.Context, chapter *entity.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.chapters[chapter.ID]
	if !ok {
		return apperrors.ErrChapterNotFound
	}
	// 章节号与归属课程均可调整，但不得撞上目标课程的其他章节
	if existing.CourseID != chapter.CourseID || existing.Number != chapter.Number {
		numbers, ok := s.byCourseNumber[chapter.CourseID]
		if !ok {
			numbers = make(map[int]string)
			s.byCourseNumber[chapter.CourseID] = numbers
		}
		if holder, taken := numbers[chapter.Number]; taken && holder != chapter.ID {
			return apperrors.ErrChapterDuplicate
		}
		delete(s.byCourseNumber[existing.CourseID], existing.Number)
		numbers[chapter.Number] = chapter.ID
	}

	cp := chapter.Clone()
	cp.UpdatedAt = time.Now()
	s.chapters[chapter.ID] = cp
	return nil
}

// GetByID 按章节 id 查询；不存在时返回 (nil, nil)
func (s *ChapterStore) GetByID(ctx context.Context, chapterID string) (*entity.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapter, ok := s.chapters[chapterID]
	if !ok {
		return nil, nil
	}
	return chapter.Clone(), nil
}

// ListByCourse 列出课程全部章节，章节号升序
func (s *ChapterStore) ListByCourse(ctx context.Context, courseID string) ([]*entity.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Chapter, 0)
	for _, chapter := range s.chapters {
		if chapter.CourseID == courseID {
			out = append(out, chapter.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out, nil
}
