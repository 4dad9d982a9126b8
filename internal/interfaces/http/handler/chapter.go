// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"encoding/json"
	"time"

	"edu-content-ai-api/internal/application/course"
	"edu-content-ai-api/internal/domain/entity"
	"edu-content-ai-api/internal/infrastructure/persistence/redis"
	"edu-content-ai-api/internal/interfaces/http/dto"
	"edu-content-ai-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// chapterCacheTTL 章节读缓存有效期
const chapterCacheTTL = 5 * time.Minute

// ChapterHandler 章节处理器
type ChapterHandler struct {
	engine *course.Engine
	cache  *redis.Cache
}

// NewChapterHandler 创建章节处理器，cache 为 nil 时直接读存储
func NewChapterHandler(engine *course.Engine, cache *redis.Cache) *ChapterHandler {
	return &ChapterHandler{
		engine: engine,
		cache:  cache,
	}
}

// CreateChapter 创建章节
// @Summary 创建章节
// @Description 为课程生成一个新章节；AI 输出无法结构化时落到确定性兜底章节
// @Tags Chapters
// @Accept json
// @Produce json
// @Param cid path string true "课程 ID"
// @Param request body dto.CreateChapterRequest true "章节创建请求"
// @Success 201 {object} dto.Response[dto.ChapterResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "课程内章节编号重复"
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/courses/{cid}/chapters [post]
func (h *ChapterHandler) CreateChapter(c *gin.Context) {
	ctx := c.Request.Context()
	courseID := c.Param("cid")

	var req dto.CreateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	spec := req.ToCreateChapterSpec(courseID)
	spec.ChapterID = uuid.NewString()

	chapter, _, err := h.engine.CreateChapter(ctx, spec)
	if err != nil {
		respondError(c, err, "failed to create chapter")
		return
	}

	h.invalidateCourse(ctx, courseID)

	logger.Info(ctx, "chapter created",
		"chapter_id", chapter.ID,
		"course_id", courseID,
		"number", chapter.Number,
		"status", string(chapter.Status),
	)
	dto.Created(c, dto.ToChapterResponse(chapter))
}

// ContinueChapter 续写章节
// @Summary 续写章节
// @Description 对已有章节执行 expand/add_section/add_activities/add_assessments 操作
// @Tags Chapters
// @Accept json
// @Produce json
// @Param chid path string true "章节 ID"
// @Param request body dto.ContinueChapterRequest true "续写请求"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/chapters/{chid}/continue [post]
func (h *ChapterHandler) ContinueChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := c.Param("chid")

	var req dto.ContinueChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	chapter, err := h.engine.ContinueChapter(ctx, chapterID, entity.ContinueType(req.Type), req.ContextNote, req.GenerateOptions())
	if err != nil {
		respondError(c, err, "failed to continue chapter")
		return
	}

	h.invalidateChapter(ctx, chapter)

	dto.Success(c, dto.ToChapterResponse(chapter))
}

// GetChapter 查询章节
// @Summary 查询章节
// @Tags Chapters
// @Produce json
// @Param chid path string true "章节 ID"
// @Success 200 {object} dto.Response[dto.ChapterResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/chapters/{chid} [get]
func (h *ChapterHandler) GetChapter(c *gin.Context) {
	ctx := c.Request.Context()
	chapterID := c.Param("chid")

	if h.cache != nil {
		data, err := h.cache.GetOrLoadSafe(ctx, redis.BuildChapterKey(chapterID), chapterCacheTTL, func() (interface{}, error) {
			return h.engine.GetChapter(ctx, chapterID)
		})
		if err != nil {
			respondError(c, err, "failed to get chapter")
			return
		}
		var chapter entity.Chapter
		if jsonErr := json.Unmarshal(data, &chapter); jsonErr == nil {
			dto.Success(c, dto.ToChapterResponse(&chapter))
			return
		}
		// 缓存数据损坏时回源
		h.cache.Delete(ctx, redis.BuildChapterKey(chapterID))
	}

	chapter, err := h.engine.GetChapter(ctx, chapterID)
	if err != nil {
		respondError(c, err, "failed to get chapter")
		return
	}
	dto.Success(c, dto.ToChapterResponse(chapter))
}

// ListChapters 列出课程章节
// @Summary 列出课程章节
// @Description 按章节编号升序返回课程全部章节
// @Tags Chapters
// @Produce json
// @Param cid path string true "课程 ID"
// @Success 200 {object} dto.Response[dto.ChapterListResponse]
// @Router /v1/courses/{cid}/chapters [get]
func (h *ChapterHandler) ListChapters(c *gin.Context) {
	courseID := c.Param("cid")

	chapters, err := h.engine.ListCourseChapters(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err, "failed to list chapters")
		return
	}
	dto.Success(c, dto.ToChapterListResponse(courseID, chapters))
}

// invalidateChapter 写后失效章节与所属课程缓存
func (h *ChapterHandler) invalidateChapter(ctx context.Context, chapter *entity.Chapter) {
	if h.cache == nil || chapter == nil {
		return
	}
	if err := h.cache.Delete(ctx, redis.BuildChapterKey(chapter.ID)); err != nil {
		logger.Warn(ctx, "chapter cache invalidation failed", "chapter_id", chapter.ID, "error", err.Error())
	}
	h.invalidateCourse(ctx, chapter.CourseID)
}

// invalidateCourse 失效课程级缓存键
func (h *ChapterHandler) invalidateCourse(ctx context.Context, courseID string) {
	if h.cache == nil || courseID == "" {
		return
	}
	if err := h.cache.InvalidateCourse(ctx, courseID); err != nil {
		logger.Warn(ctx, "course cache invalidation failed", "course_id", courseID, "error", err.Error())
	}
}
