// Package entity 定义领域实体
package entity

import (
	"time"
)

// ChapterStatus 章节状态
type ChapterStatus string

const (
	ChapterStatusDraft     ChapterStatus = "draft"
	ChapterStatusGenerated ChapterStatus = "generated"
	ChapterStatusEdited    ChapterStatus = "edited"
	ChapterStatusCompleted ChapterStatus = "completed"
)

// ContinueType 章节续写操作类型
type ContinueType string

const (
	ContinueExpand         ContinueType = "expand"
	ContinueAddSection     ContinueType = "add_section"
	ContinueAddActivities  ContinueType = "add_activities"
	ContinueAddAssessments ContinueType = "add_assessments"
)

// IsValid 检查续写类型是否合法
func (t ContinueType) IsValid() bool {
	switch t {
	case ContinueExpand, ContinueAddSection, ContinueAddActivities, ContinueAddAssessments:
		return true
	default:
		return false
	}
}

// AllContinueTypes 返回全部续写操作标签
func AllContinueTypes() []string {
	return []string{
		string(ContinueExpand),
		string(ContinueAddSection),
		string(ContinueAddActivities),
		string(ContinueAddAssessments),
	}
}

// Activity 小节练习活动
type Activity struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// Assessment 小节测评题
type Assessment struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Type     string   `json:"type,omitempty"`
}

// Section 章节小节
type Section struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Type        string       `json:"type,omitempty"`
	Activities  []Activity   `json:"activities,omitempty"`
	Assessments []Assessment `json:"assessments,omitempty"`
}

// QualityMetrics 章节质量指标
type QualityMetrics struct {
	// Readability 可读性评分 (0-100)
	Readability float64 `json:"readability"`
	// EstimatedMinutes 预估学习时长（分钟）
	EstimatedMinutes int `json:"estimated_minutes"`
	// Coverage 主题覆盖度 (0-100)
	Coverage float64 `json:"coverage"`
}

// GenerationMetadata 生成元数据
type GenerationMetadata struct {
	Model            string  `json:"model,omitempty"`
	Provider         string  `json:"provider,omitempty"`
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	CostUSD          float64 `json:"cost_usd,omitempty"`
	Temperature      float64 `json:"temperature,omitempty"`
	GeneratedAt      string  `json:"generated_at,omitempty"`
}

// Chapter 课程章节实体
// 章节归属于课程聚合；课程在首个章节创建时隐式建立
type Chapter struct {
	ID                 string              `json:"id" gorm:"type:uuid;primaryKey"`
	CourseID           string              `json:"course_id" gorm:"type:varchar(128);index:idx_course_number,unique"`
	Number             int                 `json:"number" gorm:"index:idx_course_number,unique;not null"`
	Title              string              `json:"title" gorm:"type:varchar(255)"`
	Content            string              `json:"content" gorm:"type:text"`
	Sections           []Section           `json:"sections" gorm:"type:jsonb;serializer:json"`
	Status             ChapterStatus       `json:"status" gorm:"type:varchar(50);default:'draft'"`
	Quality            QualityMetrics      `json:"quality" gorm:"type:jsonb;serializer:json"`
	Suggestions        []string            `json:"suggestions,omitempty" gorm:"type:jsonb;serializer:json"`
	CanContinue        bool                `json:"can_continue"`
	ContinueOptions    []string            `json:"continue_options,omitempty" gorm:"type:jsonb;serializer:json"`
	GenerationMetadata *GenerationMetadata `json:"generation_metadata,omitempty" gorm:"type:jsonb;serializer:json"`
	Version            int                 `json:"version" gorm:"default:1"`
	CreatedAt          time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Chapter) TableName() string {
	return "chapters"
}

// NewChapter 创建新章节
func NewChapter(id, courseID string, number int) *Chapter {
	now := time.Now()
	return &Chapter{
		ID:              id,
		CourseID:        courseID,
		Number:          number,
		Status:          ChapterStatusDraft,
		CanContinue:     true,
		ContinueOptions: AllContinueTypes(),
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone 返回章节的深拷贝，续写操作先改副本再持久化
func (c *Chapter) Clone() *Chapter {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Sections = make([]Section, len(c.Sections))
	for i, s := range c.Sections {
		sec := s
		sec.Activities = append([]Activity(nil), s.Activities...)
		sec.Assessments = append([]Assessment(nil), s.Assessments...)
		cp.Sections[i] = sec
	}
	cp.Suggestions = append([]string(nil), c.Suggestions...)
	cp.ContinueOptions = append([]string(nil), c.ContinueOptions...)
	if c.GenerationMetadata != nil {
		meta := *c.GenerationMetadata
		cp.GenerationMetadata = &meta
	}
	return &cp
}

// IncrementVersion 增加版本号
func (c *Chapter) IncrementVersion() {
	c.Version++
	c.UpdatedAt = time.Now()
}
