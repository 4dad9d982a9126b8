package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-content-ai-api/internal/domain/entity"
	apperrors "edu-content-ai-api/pkg/errors"
)

func testChapter(id string, number int) *entity.Chapter {
	chapter := entity.NewChapter(id, "course-1", number)
	chapter.Title = "Capítulo"
	chapter.Content = "Conteúdo"
	chapter.Sections = []entity.Section{{ID: "s1", Title: "Seção", Content: "Texto"}}
	return chapter
}

func TestChapterCreateRejectsDuplicateNumber(t *testing.T) {
	s := NewChapterStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testChapter("ch-1", 1)))

	err := s.Create(ctx, testChapter("ch-2", 1))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeChapterDuplicate, apperrors.AsAppError(err).Code)
}

func TestChapterCreateIsolatesCallerMutations(t *testing.T) {
	s := NewChapterStore()
	ctx := context.Background()

	chapter := testChapter("ch-1", 1)
	require.NoError(t, s.Create(ctx, chapter))

	// 调用方后续修改不得影响存储内的副本
	chapter.Sections[0].Title = "mutated"

	stored, err := s.GetByID(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "Seção", stored.Sections[0].Title)
}

func TestChapterUpdateUnknownChapter(t *testing.T) {
	s := NewChapterStore()

	err := s.Update(context.Background(), testChapter("missing", 1))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeChapterNotFound, apperrors.AsAppError(err).Code)
}

func TestChapterUpdateRenumberReindexes(t *testing.T) {
	s := NewChapterStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testChapter("ch-1", 1)))
	require.NoError(t, s.Create(ctx, testChapter("ch-2", 2)))

	// 改到已占用的章节号要冲突
	moved := testChapter("ch-1", 2)
	err := s.Update(ctx, moved)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeChapterDuplicate, apperrors.AsAppError(err).Code)

	// 改到空闲章节号后，旧号位随即可被复用
	moved = testChapter("ch-1", 3)
	require.NoError(t, s.Update(ctx, moved))
	require.NoError(t, s.Create(ctx, testChapter("ch-3", 1)))
}

func TestChapterUpdateMovesChapterAcrossCourses(t *testing.T) {
	s := NewChapterStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testChapter("ch-1", 1)))

	// 目标课程尚无任何索引条目，移动后旧号位要被释放
	moved := testChapter("ch-1", 1)
	moved.CourseID = "course-new"
	require.NoError(t, s.Update(ctx, moved))

	require.NoError(t, s.Create(ctx, testChapter("ch-2", 1)))

	relocated, err := s.ListByCourse(ctx, "course-new")
	require.NoError(t, err)
	require.Len(t, relocated, 1)
	assert.Equal(t, "ch-1", relocated[0].ID)
}

func TestChapterGetByIDMissingReturnsNilNil(t *testing.T) {
	s := NewChapterStore()

	chapter, err := s.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, chapter)
}

func TestChapterListByCourseAscending(t *testing.T) {
	s := NewChapterStore()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, testChapter("ch-3", 3)))
	require.NoError(t, s.Create(ctx, testChapter("ch-1", 1)))
	require.NoError(t, s.Create(ctx, testChapter("ch-2", 2)))

	other := entity.NewChapter("ch-x", "course-2", 1)
	require.NoError(t, s.Create(ctx, other))

	chapters, err := s.ListByCourse(ctx, "course-1")
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.Equal(t, 1, chapters[0].Number)
	assert.Equal(t, 2, chapters[1].Number)
	assert.Equal(t, 3, chapters[2].Number)

	empty, err := s.ListByCourse(ctx, "course-none")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
